package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

// ErrNoKey is returned on transaction attempts by an Actor built without a
// signing key.
var ErrNoKey = errors.New("actor has no signing key")

// Actor is one signing account bound to a Backend. It creates, signs and
// sends transactions on behalf of that account and tracks its nonce locally,
// so several transactions can be issued back to back without waiting for
// each of them to be accepted first. The embedded Invoker serves read-only
// calls performed on behalf of the same account.
//
// Actor is safe for concurrent use.
type Actor struct {
	Invoker

	key     *ecdsa.PrivateKey
	chainID *big.Int
	signer  types.Signer
	opts    Options

	nonceLock sync.Mutex
	nonce     uint64
	nonceSet  bool
}

// Options allow to tune Actor behaviour.
type Options struct {
	// PollInterval is the receipt polling period used by Wait, one second by
	// default.
	PollInterval time.Duration
	// GasLimit, when not zero, is used for every transaction instead of
	// estimating gas via the Backend.
	GasLimit uint64
}

// NewActor returns an Actor signing with the given key. The chain ID is
// requested from the Backend once and cached for the Actor lifetime.
func NewActor(ctx context.Context, b Backend, key *ecdsa.PrivateKey) (*Actor, error) {
	return NewTunedActor(ctx, b, key, Options{})
}

// NewTunedActor is NewActor with non-default Options.
func NewTunedActor(ctx context.Context, b Backend, key *ecdsa.PrivateKey, opts Options) (*Actor, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	id, err := b.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting chain ID: %w", err)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Actor{
		Invoker: *NewInvoker(b, crypto.PubkeyToAddress(key.PublicKey)),
		key:     key,
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
		opts:    opts,
	}, nil
}

// Sender returns the address transactions of this Actor are sent from.
func (a *Actor) Sender() common.Address {
	return a.from
}

// ChainID returns the cached chain ID of the connected network.
func (a *Actor) ChainID() *big.Int {
	return a.chainID
}

// Transact creates, signs and sends a transaction calling the given contract
// method. It returns as soon as the transaction is accepted by the node, use
// Wait to get the execution result.
func (a *Actor) Transact(ctx context.Context, to common.Address, cabi abi.ABI, method string, args ...any) (*types.Transaction, error) {
	input, err := cabi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	tx, err := a.send(ctx, &to, nil, input)
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}
	return tx, nil
}

// Deploy creates, signs and sends a contract creation transaction carrying
// the artifact bytecode and the given constructor arguments. The returned
// address is the deterministic CREATE address of the new contract, the code
// appears there once the transaction is accepted.
func (a *Actor) Deploy(ctx context.Context, art *artifact.Artifact, args ...any) (common.Address, *types.Transaction, error) {
	data, err := art.PackConstructor(args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploying %s: %w", art.Name, err)
	}
	tx, err := a.send(ctx, nil, nil, data)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploying %s: %w", art.Name, err)
	}
	return crypto.CreateAddress(a.from, tx.Nonce()), tx, nil
}

// Send transfers value to the given account. Mostly useful for funding test
// accounts.
func (a *Actor) Send(ctx context.Context, to common.Address, value *big.Int) (*types.Transaction, error) {
	return a.send(ctx, &to, value, nil)
}

func (a *Actor) send(ctx context.Context, to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	if a.key == nil {
		return nil, ErrNoKey
	}
	if value == nil {
		value = new(big.Int)
	}

	a.nonceLock.Lock()
	defer a.nonceLock.Unlock()

	nonce, err := a.pendingNonce(ctx)
	if err != nil {
		return nil, err
	}
	gas := a.opts.GasLimit
	if gas == 0 {
		gas, err = a.backend.EstimateGas(ctx, ethereum.CallMsg{From: a.from, To: to, Value: value, Data: data})
		if err != nil {
			return nil, fmt.Errorf("estimating gas: %w", err)
		}
	}
	tx, err := a.newTx(ctx, to, value, gas, nonce, data)
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, a.signer, a.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	if err := a.backend.SendTransaction(ctx, signed); err != nil {
		a.nonceSet = false // Resync from the node on the next attempt.
		return nil, err
	}
	a.nonce = nonce + 1
	return signed, nil
}

// newTx creates an EIP-1559 transaction when the chain supports it and falls
// back to a legacy one otherwise.
func (a *Actor) newTx(ctx context.Context, to *common.Address, value *big.Int, gas, nonce uint64, data []byte) (*types.Transaction, error) {
	head, err := a.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("requesting chain head: %w", err)
	}
	if head.BaseFee == nil {
		gasPrice, err := a.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("requesting gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       to,
			Value:    value,
			Data:     data,
		}), nil
	}
	tipCap, err := a.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting gas tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   a.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	}), nil
}

// pendingNonce must be called under nonceLock.
func (a *Actor) pendingNonce(ctx context.Context) (uint64, error) {
	if !a.nonceSet {
		n, err := a.backend.PendingNonceAt(ctx, a.from)
		if err != nil {
			return 0, fmt.Errorf("requesting nonce: %w", err)
		}
		a.nonce = n
		a.nonceSet = true
	}
	return a.nonce, nil
}
