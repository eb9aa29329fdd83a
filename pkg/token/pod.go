package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

var podABI = artifact.MustParseABI(`[` +
	`{"inputs":[{"internalType":"string","name":"_name","type":"string"},{"internalType":"string","name":"_symbol","type":"string"}],"stateMutability":"nonpayable","type":"constructor"},` +
	rbacABIJSON + `,` +
	`{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"_from","type":"address"},{"indexed":true,"internalType":"address","name":"_to","type":"address"},{"indexed":true,"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"Transfer","type":"event"},` +
	`{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"exists","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_to","type":"address"},{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_to","type":"address"},{"internalType":"uint256","name":"_tokenId","type":"uint256"}],"name":"safeMint","outputs":[],"stateMutability":"nonpayable","type":"function"}` +
	`]`)

// PodReader is a read-only handle for the Personality Pod ERC721 contract.
type PodReader struct {
	RBACReader
}

// Pod is a complete handle for the Personality Pod ERC721 contract, the AI
// personality token wrapped by iNFT records.
type Pod struct {
	PodReader
	RBACWriter
}

// NewPodReader returns a read-only Pod handle for an already deployed
// contract.
func NewPodReader(inv Invoker, addr common.Address) *PodReader {
	return &PodReader{RBACReader{newContractReader(inv, podABI, addr)}}
}

// NewPod returns a Pod handle for an already deployed contract.
func NewPod(actor Actor, addr common.Address) *Pod {
	return &Pod{
		PodReader:  *NewPodReader(actor, addr),
		RBACWriter: RBACWriter{newContractWriter(actor, podABI, addr)},
	}
}

// DeployPod creates and sends a transaction deploying a new PersonalityPod
// contract with the given collection name and symbol.
func DeployPod(ctx context.Context, actor Actor, art *artifact.Artifact, name, symbol string) (*Pod, *types.Transaction, error) {
	addr, tx, err := deploy(ctx, actor, art, PodContract, name, symbol)
	if err != nil {
		return nil, nil, err
	}
	return NewPod(actor, addr), tx, nil
}

// Name implements the `name` method and returns the collection name.
func (t *PodReader) Name(ctx context.Context) (string, error) {
	return t.callString(ctx, "name")
}

// Symbol implements the `symbol` method and returns the collection symbol.
func (t *PodReader) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

// TotalSupply implements the `totalSupply` method and returns the number of
// pods minted so far.
func (t *PodReader) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

// BalanceOf implements the `balanceOf` method and returns the number of
// pods owned by the given account.
func (t *PodReader) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", owner)
}

// OwnerOf implements the `ownerOf` method.
func (t *PodReader) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return t.callAddress(ctx, "ownerOf", tokenID)
}

// Exists implements the `exists` method and reports whether the given pod
// was minted and not burnt.
func (t *PodReader) Exists(ctx context.Context, tokenID *big.Int) (bool, error) {
	return t.callBool(ctx, "exists", tokenID)
}

// TokenURI implements the `tokenURI` method.
func (t *PodReader) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return t.callString(ctx, "tokenURI", tokenID)
}

// Mint creates and sends a transaction minting the given pod to the given
// account, skipping the ERC721 receiver check. The sender must hold
// access.RoleTokenCreator.
func (t *Pod) Mint(ctx context.Context, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return t.Transact(ctx, "mint", to, tokenID)
}

// SafeMint creates and sends a transaction minting the given pod to the
// given account. The sender must hold access.RoleTokenCreator.
func (t *Pod) SafeMint(ctx context.Context, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return t.Transact(ctx, "safeMint", to, tokenID)
}
