package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

var inftABI = artifact.MustParseABI(`[` +
	`{"inputs":[{"internalType":"address","name":"_ali","type":"address"}],"stateMutability":"nonpayable","type":"constructor"},` +
	rbacABIJSON + `,` +
	`{"inputs":[],"name":"aliContract","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_recordId","type":"uint256"}],"name":"exists","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}` +
	`]`)

// INFTReader is a read-only handle for the IntelligentNFT contract.
type INFTReader struct {
	RBACReader
}

// INFT is a complete handle for the IntelligentNFT contract. iNFT records
// bind an NFT, a Personality Pod and a locked ALI deposit together; record
// bookkeeping is fully contract-side and opaque to this kit.
type INFT struct {
	INFTReader
	RBACWriter
}

// NewINFTReader returns a read-only INFT handle for an already deployed
// contract.
func NewINFTReader(inv Invoker, addr common.Address) *INFTReader {
	return &INFTReader{RBACReader{newContractReader(inv, inftABI, addr)}}
}

// NewINFT returns an INFT handle for an already deployed contract.
func NewINFT(actor Actor, addr common.Address) *INFT {
	return &INFT{
		INFTReader: *NewINFTReader(actor, addr),
		RBACWriter: RBACWriter{newContractWriter(actor, inftABI, addr)},
	}
}

// DeployINFT creates and sends a transaction deploying a new IntelligentNFT
// contract bound to the given ALI token.
func DeployINFT(ctx context.Context, actor Actor, art *artifact.Artifact, ali common.Address) (*INFT, *types.Transaction, error) {
	addr, tx, err := deploy(ctx, actor, art, INFTContract, ali)
	if err != nil {
		return nil, nil, err
	}
	return NewINFT(actor, addr), tx, nil
}

// AliContract implements the `aliContract` method and returns the address of
// the ALI token the contract was deployed with.
func (t *INFTReader) AliContract(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "aliContract")
}

// TotalSupply implements the `totalSupply` method and returns the number of
// existing iNFT records.
func (t *INFTReader) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

// Exists implements the `exists` method and reports whether the given iNFT
// record exists.
func (t *INFTReader) Exists(ctx context.Context, recordID *big.Int) (bool, error) {
	return t.callBool(ctx, "exists", recordID)
}
