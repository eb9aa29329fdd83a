/*
Package chain provides the transaction plumbing used to deploy and administer
the iNFT protocol contracts.

It is built in two layers. Invoker performs read-only contract calls and
needs no key material. Actor embeds an Invoker and binds one signing account
to a Backend, creating, signing and sending transactions and awaiting their
receipts. Contract-specific wrappers (package token) build on top of Actor.
*/
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the minimal node surface required by Invoker and Actor. It is
// implemented by *ethclient.Client for real networks and by simchain.Chain
// for tests.
type Backend interface {
	// ChainID returns the chain ID of the connected network.
	ChainID(ctx context.Context) (*big.Int, error)
	// PendingNonceAt returns the account nonce including pending transactions.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	// SuggestGasPrice returns a gas price for legacy transactions.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	// SuggestGasTipCap returns a priority fee for EIP-1559 transactions.
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	// EstimateGas estimates the gas needed to execute the given message.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	// SendTransaction submits a signed transaction to the network.
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	// CallContract executes a message call without creating a transaction.
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	// CodeAt returns the contract code at the given address.
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	// TransactionReceipt returns the receipt of a mined transaction or
	// ethereum.NotFound while it is not accepted yet.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	// HeaderByNumber returns the header of the given block, nil selects the
	// latest one.
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

var _ Backend = (*ethclient.Client)(nil)
