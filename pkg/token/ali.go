package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

var aliABI = artifact.MustParseABI(`[` +
	`{"inputs":[{"internalType":"address","name":"_initialHolder","type":"address"}],"stateMutability":"nonpayable","type":"constructor"},` +
	rbacABIJSON + `,` +
	`{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"_from","type":"address"},{"indexed":true,"internalType":"address","name":"_to","type":"address"},{"indexed":false,"internalType":"uint256","name":"_value","type":"uint256"}],"name":"Transfer","type":"event"},` +
	`{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_to","type":"address"},{"internalType":"uint256","name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_to","type":"address"},{"internalType":"uint256","name":"_value","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"}` +
	`]`)

// ALIReader is a read-only handle for the AliERC20 token contract.
type ALIReader struct {
	RBACReader
}

// ALI is a complete handle for the AliERC20 token contract, the utility
// token of the protocol locked inside iNFT records.
type ALI struct {
	ALIReader
	RBACWriter
}

// NewALIReader returns a read-only ALI handle for an already deployed
// contract.
func NewALIReader(inv Invoker, addr common.Address) *ALIReader {
	return &ALIReader{RBACReader{newContractReader(inv, aliABI, addr)}}
}

// NewALI returns an ALI handle for an already deployed contract.
func NewALI(actor Actor, addr common.Address) *ALI {
	return &ALI{
		ALIReader:  *NewALIReader(actor, addr),
		RBACWriter: RBACWriter{newContractWriter(actor, aliABI, addr)},
	}
}

// DeployALI creates and sends a transaction deploying a new AliERC20
// contract with the whole initial supply minted to initialHolder. The
// returned handle is bound to the deterministic deployment address, code
// appears there once the transaction is accepted to the chain.
func DeployALI(ctx context.Context, actor Actor, art *artifact.Artifact, initialHolder common.Address) (*ALI, *types.Transaction, error) {
	addr, tx, err := deploy(ctx, actor, art, ALIContract, initialHolder)
	if err != nil {
		return nil, nil, err
	}
	return NewALI(actor, addr), tx, nil
}

// Name implements the `name` method and returns the full token name.
func (t *ALIReader) Name(ctx context.Context) (string, error) {
	return t.callString(ctx, "name")
}

// Symbol implements the `symbol` method and returns the short token symbol.
func (t *ALIReader) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

// Decimals implements the `decimals` method.
func (t *ALIReader) Decimals(ctx context.Context) (uint8, error) {
	res, err := t.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(res[0], new(uint8)).(*uint8), nil
}

// TotalSupply implements the `totalSupply` method and returns the amount of
// tokens minted so far.
func (t *ALIReader) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

// BalanceOf implements the `balanceOf` method.
func (t *ALIReader) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", owner)
}

// Transfer creates and sends a transaction moving value tokens from the
// sender to the given account. Transfers must be enabled on the contract
// (access.FeatureTransfers) for the transaction to succeed.
func (t *ALI) Transfer(ctx context.Context, to common.Address, value *big.Int) (*types.Transaction, error) {
	return t.Transact(ctx, "transfer", to, value)
}

// Mint creates and sends a transaction minting value tokens to the given
// account. The sender must hold access.RoleTokenCreator.
func (t *ALI) Mint(ctx context.Context, to common.Address, value *big.Int) (*types.Transaction, error) {
	return t.Transact(ctx, "mint", to, value)
}
