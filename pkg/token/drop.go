package token

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

var dropABI = artifact.MustParseABI(`[` +
	`{"inputs":[{"internalType":"address","name":"_nft","type":"address"}],"stateMutability":"nonpayable","type":"constructor"},` +
	rbacABIJSON + `,` +
	`{"inputs":[],"name":"targetContract","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"inputDataRoot","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"bytes32","name":"_root","type":"bytes32"}],"name":"setInputDataRoot","outputs":[],"stateMutability":"nonpayable","type":"function"}` +
	`]`)

// DropReader is a read-only handle for the PersonalityDrop airdrop contract.
type DropReader struct {
	RBACReader
}

// Drop is a complete handle for the PersonalityDrop contract distributing
// Personality Pods against a Merkle proof of eligibility. Redemption itself
// is contract-side, the kit only deploys and wires the contract.
type Drop struct {
	DropReader
	RBACWriter
}

// NewDropReader returns a read-only Drop handle for an already deployed
// contract.
func NewDropReader(inv Invoker, addr common.Address) *DropReader {
	return &DropReader{RBACReader{newContractReader(inv, dropABI, addr)}}
}

// NewDrop returns a Drop handle for an already deployed contract.
func NewDrop(actor Actor, addr common.Address) *Drop {
	return &Drop{
		DropReader: *NewDropReader(actor, addr),
		RBACWriter: RBACWriter{newContractWriter(actor, dropABI, addr)},
	}
}

// DeployDrop creates and sends a transaction deploying a new PersonalityDrop
// contract minting pods from the given ERC721.
func DeployDrop(ctx context.Context, actor Actor, art *artifact.Artifact, nft common.Address) (*Drop, *types.Transaction, error) {
	addr, tx, err := deploy(ctx, actor, art, DropContract, nft)
	if err != nil {
		return nil, nil, err
	}
	return NewDrop(actor, addr), tx, nil
}

// TargetContract implements the `targetContract` method and returns the
// address of the ERC721 the airdrop mints from.
func (t *DropReader) TargetContract(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "targetContract")
}

// InputDataRoot implements the `inputDataRoot` method and returns the Merkle
// root of the airdrop eligibility data.
func (t *DropReader) InputDataRoot(ctx context.Context) ([32]byte, error) {
	res, err := t.Call(ctx, "inputDataRoot")
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(res[0], new([32]byte)).(*[32]byte), nil
}

// SetInputDataRoot creates and sends a transaction setting the Merkle root
// of the airdrop eligibility data. The sender must hold
// access.RoleDataManager.
func (t *Drop) SetInputDataRoot(ctx context.Context, root [32]byte) (*types.Transaction, error) {
	return t.Transact(ctx, "setInputDataRoot", root)
}
