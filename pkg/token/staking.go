package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

var stakingABI = artifact.MustParseABI(`[` +
	`{"inputs":[{"internalType":"address","name":"_nft","type":"address"}],"stateMutability":"nonpayable","type":"constructor"},` +
	rbacABIJSON + `,` +
	`{"inputs":[],"name":"targetContract","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"now32","outputs":[{"internalType":"uint32","name":"","type":"uint32"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint32","name":"_now32","type":"uint32"}],"name":"setNow32","outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"isStaked","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}` +
	`]`)

// StakingReader is a read-only handle for the NFTStaking contract.
type StakingReader struct {
	RBACReader
}

// Staking is a complete handle for the NFTStaking contract locking
// Personality Pods. Reward bookkeeping is contract-side and opaque to the
// kit, but the contract time source can be overridden for tests via
// SetNow32.
type Staking struct {
	StakingReader
	RBACWriter
}

// NewStakingReader returns a read-only Staking handle for an already
// deployed contract.
func NewStakingReader(inv Invoker, addr common.Address) *StakingReader {
	return &StakingReader{RBACReader{newContractReader(inv, stakingABI, addr)}}
}

// NewStaking returns a Staking handle for an already deployed contract.
func NewStaking(actor Actor, addr common.Address) *Staking {
	return &Staking{
		StakingReader: *NewStakingReader(actor, addr),
		RBACWriter:    RBACWriter{newContractWriter(actor, stakingABI, addr)},
	}
}

// DeployStaking creates and sends a transaction deploying a new NFTStaking
// contract locking tokens of the given ERC721.
func DeployStaking(ctx context.Context, actor Actor, art *artifact.Artifact, nft common.Address) (*Staking, *types.Transaction, error) {
	addr, tx, err := deploy(ctx, actor, art, StakingContract, nft)
	if err != nil {
		return nil, nil, err
	}
	return NewStaking(actor, addr), tx, nil
}

// TargetContract implements the `targetContract` method and returns the
// address of the ERC721 whose tokens are staked.
func (t *StakingReader) TargetContract(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "targetContract")
}

// Now32 implements the `now32` method and returns the current time as seen
// by the contract, either the block timestamp or the test override.
func (t *StakingReader) Now32(ctx context.Context) (uint32, error) {
	res, err := t.Call(ctx, "now32")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(res[0], new(uint32)).(*uint32), nil
}

// IsStaked implements the `isStaked` method and reports whether the given
// pod is currently staked.
func (t *StakingReader) IsStaked(ctx context.Context, tokenID *big.Int) (bool, error) {
	return t.callBool(ctx, "isStaked", tokenID)
}

// SetNow32 creates and sends a transaction overriding the contract time
// source, letting tests travel through staking periods. Passing zero removes
// the override.
func (t *Staking) SetNow32(ctx context.Context, now32 uint32) (*types.Transaction, error) {
	return t.Transact(ctx, "setNow32", now32)
}
