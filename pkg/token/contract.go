/*
Package token contains typed handles for the iNFT protocol suite contracts.

The suite consists of the ALI ERC20 token, the Personality Pod ERC721 token,
the Intelligent NFT wrapper binding pods to ALI deposits, the Personality
Drop airdrop and the NFT staking contract. The contracts are opaque
collaborators here: handles expose constructors, the shared administrative
interface (features and roles, see RBACReader and RBACWriter) and a few view
methods, but none of the token accounting logic.

The set of types is split between read-only handles (*Reader types built on
Invoker) and complete ones able to change contract state through an Actor.
*/
package token

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

// Artifact names of the suite contracts, also used as registry keys.
const (
	ALIContract     = "AliERC20"
	PodContract     = "PersonalityPod"
	INFTContract    = "IntelligentNFT"
	DropContract    = "PersonalityDrop"
	StakingContract = "NFTStaking"
)

// Invoker is the interface reader handles use to perform contract calls.
// *chain.Invoker and *chain.Actor implement it.
type Invoker interface {
	Call(ctx context.Context, to common.Address, cabi abi.ABI, method string, args ...any) ([]any, error)
}

// Actor is the interface complete handles use to create and send
// transactions. *chain.Actor implements it.
type Actor interface {
	Invoker

	Sender() common.Address
	Transact(ctx context.Context, to common.Address, cabi abi.ABI, method string, args ...any) (*types.Transaction, error)
	Deploy(ctx context.Context, art *artifact.Artifact, args ...any) (common.Address, *types.Transaction, error)
}

// ContractReader is a read-only contract handle: an address, an ABI and an
// Invoker to go through.
type ContractReader struct {
	invoker Invoker
	abi     abi.ABI
	addr    common.Address
}

// ContractWriter is the transaction-creating half of a contract handle.
type ContractWriter struct {
	actor Actor
	abi   abi.ABI
	addr  common.Address
}

func newContractReader(inv Invoker, cabi abi.ABI, addr common.Address) ContractReader {
	return ContractReader{invoker: inv, abi: cabi, addr: addr}
}

func newContractWriter(act Actor, cabi abi.ABI, addr common.Address) ContractWriter {
	return ContractWriter{actor: act, abi: cabi, addr: addr}
}

// Address returns the address of the contract.
func (c *ContractReader) Address() common.Address {
	return c.addr
}

// Call performs a read-only call of the given contract method and returns
// raw unpacked values. Typed view methods of the handles are preferable
// when available.
func (c *ContractReader) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.invoker.Call(ctx, c.addr, c.abi, method, args...)
}

func (c *ContractReader) callBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(res[0], new(*big.Int)).(**big.Int), nil
}

func (c *ContractReader) callBool(ctx context.Context, method string, args ...any) (bool, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(res[0], new(bool)).(*bool), nil
}

func (c *ContractReader) callString(ctx context.Context, method string, args ...any) (string, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(res[0], new(string)).(*string), nil
}

func (c *ContractReader) callAddress(ctx context.Context, method string, args ...any) (common.Address, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(res[0], new(common.Address)).(*common.Address), nil
}

// Address returns the address of the contract.
func (c *ContractWriter) Address() common.Address {
	return c.addr
}

// Transact creates and sends a transaction calling the given contract
// method. Typed methods of the handles are preferable when available.
func (c *ContractWriter) Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	return c.actor.Transact(ctx, c.addr, c.abi, method, args...)
}

// deploy is a shared constructor-transaction helper for DeployX functions.
func deploy(ctx context.Context, actor Actor, art *artifact.Artifact, name string, args ...any) (common.Address, *types.Transaction, error) {
	if art == nil {
		return common.Address{}, nil, fmt.Errorf("no artifact for %s", name)
	}
	return actor.Deploy(ctx, art, args...)
}
