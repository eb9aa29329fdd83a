/*
Package simchain provides an in-memory chain stub for testing deployment
code without a node.

Chain implements the same backend surface as a real RPC client: it accepts
signed transactions, mines one block per transaction and serves calls,
receipts and headers. There is no EVM behind it. Deployments are recorded
as-is (the contract address is derived the standard way from the sender and
nonce, constructor arguments are decoded when a registered artifact matches
the creation bytecode) and only the administrative contract interface shared
by the iNFT suite is interpreted: features and role masks, the now32 time
override, the airdrop input data root and a few metadata echoes. Everything
else fails with ErrNotSupported, it would require contract logic that is
out of scope here. Permissions are never enforced: any sender may update
any role, which keeps tests focused on what was sent rather than on access
control internals.

Every transaction addressed to a known contract is journaled and can be
inspected with Calls, including reverted ones and the deployment itself.

Chain is safe for concurrent use.
*/
package simchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/chain"
)

// DefaultChainID is the chain ID of a simulated chain, the conventional
// local development network ID.
const DefaultChainID = 1337

const (
	blockGasLimit = 30_000_000
	genesisTime   = 1_700_000_000
)

// ErrNotSupported is returned for contract methods outside of the
// interpreted administrative interface.
var ErrNotSupported = errors.New("method not supported by simchain")

var _ chain.Backend = (*Chain)(nil)

// Call is one journaled transaction addressed to a contract. The deployment
// transaction is journaled with the "constructor" method name.
type Call struct {
	// From is the recovered transaction sender.
	From common.Address
	// Method is the resolved method name, or the hex selector when the
	// method is not interpreted.
	Method string
	// Args are the unpacked call arguments.
	Args []any
	// TxHash is the hash of the journaled transaction.
	TxHash common.Hash
	// Reverted is set when the call failed and no state was changed.
	Reverted bool
}

type account struct {
	nonce   uint64
	balance *big.Int
}

type contract struct {
	code     []byte
	ctorArgs []any

	features access.Mask
	roles    map[common.Address]access.Mask
	now32    uint32
	dataRoot [32]byte
}

// Chain is an in-memory test double of an Ethereum-like network.
type Chain struct {
	mu sync.Mutex

	chainID   *big.Int
	signer    types.Signer
	headers   []*types.Header
	accounts  map[common.Address]*account
	contracts map[common.Address]*contract
	artifacts map[string]*artifact.Artifact
	txs       map[common.Hash]*types.Transaction
	receipts  map[common.Hash]*types.Receipt
	calls     map[common.Address][]Call
}

// New returns a Chain with the DefaultChainID and all well-known development
// accounts funded with 10000 ether each.
func New() *Chain {
	c := &Chain{
		chainID:   big.NewInt(DefaultChainID),
		accounts:  make(map[common.Address]*account),
		contracts: make(map[common.Address]*contract),
		artifacts: make(map[string]*artifact.Artifact),
		txs:       make(map[common.Hash]*types.Transaction),
		receipts:  make(map[common.Hash]*types.Receipt),
		calls:     make(map[common.Address][]Call),
	}
	c.signer = types.LatestSignerForChainID(c.chainID)
	c.headers = []*types.Header{{
		Number:     big.NewInt(0),
		Time:       genesisTime,
		GasLimit:   blockGasLimit,
		BaseFee:    big.NewInt(params.InitialBaseFee),
		Difficulty: new(big.Int),
	}}
	funds := new(big.Int).Mul(big.NewInt(10000), big.NewInt(params.Ether))
	for i := 0; i < chain.DevAccounts(); i++ {
		c.accounts[chain.DevAddress(i)] = &account{balance: new(big.Int).Set(funds)}
	}
	return c
}

// RegisterArtifact makes the chain aware of a compiled contract, letting it
// decode constructor arguments of deployments carrying the artifact
// bytecode. Artifacts are keyed by name, registering twice overrides.
func (c *Chain) RegisterArtifact(art *artifact.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifacts[art.Name] = art
}

// Calls returns the journal of transactions addressed to the given contract
// in execution order, starting with its deployment.
func (c *Chain) Calls(addr common.Address) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls[addr])
}

// Balance returns the current balance of the given account.
func (c *Chain) Balance(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.account(addr).balance)
}

// ChainID implements the chain.Backend interface.
func (c *Chain) ChainID(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// PendingNonceAt implements the chain.Backend interface. Since every
// transaction is mined immediately there is no distinct pending state.
func (c *Chain) PendingNonceAt(_ context.Context, addr common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account(addr).nonce, nil
}

// SuggestGasPrice implements the chain.Backend interface.
func (c *Chain) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	return big.NewInt(2 * params.InitialBaseFee), nil
}

// SuggestGasTipCap implements the chain.Backend interface.
func (c *Chain) SuggestGasTipCap(_ context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

// EstimateGas implements the chain.Backend interface. The estimate is a
// deterministic function of the call data size. Calls that would revert fail
// to estimate, like they do on a real node.
func (c *Chain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.To == nil {
		return params.TxGasContractCreation + params.TxDataNonZeroGasEIP2028*uint64(len(msg.Data)), nil
	}
	if ct := c.contracts[*msg.To]; ct != nil && len(msg.Data) > 0 {
		if _, err := c.dispatch(ct, msg.Data, false); err != nil {
			return 0, err
		}
	}
	return params.TxGas + params.TxDataNonZeroGasEIP2028*uint64(len(msg.Data)), nil
}

// CallContract implements the chain.Backend interface. Calls to accounts
// without code return nothing, like on a real node.
func (c *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.To == nil {
		return nil, errors.New("missing call recipient")
	}
	ct := c.contracts[*msg.To]
	if ct == nil || len(msg.Data) == 0 {
		return nil, nil
	}
	return c.dispatch(ct, msg.Data, false)
}

// CodeAt implements the chain.Backend interface.
func (c *Chain) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ct := c.contracts[addr]; ct != nil {
		return slices.Clone(ct.code), nil
	}
	return nil, nil
}

// TransactionReceipt implements the chain.Backend interface.
func (c *Chain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// HeaderByNumber implements the chain.Backend interface, nil selects the
// latest header.
func (c *Chain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := int64(len(c.headers)) - 1
	if number != nil {
		idx = number.Int64()
	}
	if idx < 0 || idx >= int64(len(c.headers)) {
		return nil, ethereum.NotFound
	}
	return types.CopyHeader(c.headers[idx]), nil
}

// SendTransaction implements the chain.Backend interface. The transaction is
// executed and mined into its own block before the method returns. Execution
// failures do not fail the submission, they produce a receipt with the
// failed status.
func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}
	if _, ok := c.txs[tx.Hash()]; ok {
		return errors.New("already known")
	}
	acc := c.account(from)
	if tx.Nonce() != acc.nonce {
		return fmt.Errorf("invalid nonce %d for %s, expected %d", tx.Nonce(), from, acc.nonce)
	}
	if acc.balance.Cmp(tx.Value()) < 0 {
		return fmt.Errorf("insufficient funds for %s", from)
	}
	acc.nonce++

	status := types.ReceiptStatusSuccessful
	var created common.Address
	switch {
	case tx.To() == nil:
		created = crypto.CreateAddress(from, tx.Nonce())
		c.deploy(created, from, tx)
	case c.contracts[*tx.To()] != nil:
		if err := c.execute(c.contracts[*tx.To()], from, tx); err != nil {
			status = types.ReceiptStatusFailed
		}
	}
	if status == types.ReceiptStatusSuccessful && tx.Value().Sign() > 0 {
		acc.balance.Sub(acc.balance, tx.Value())
		to := created
		if tx.To() != nil {
			to = *tx.To()
		}
		c.account(to).balance.Add(c.account(to).balance, tx.Value())
	}

	head := c.mine()
	gasUsed := params.TxGas + params.TxDataNonZeroGasEIP2028*uint64(len(tx.Data()))
	if tx.To() == nil {
		gasUsed += params.TxGasContractCreation - params.TxGas
	}
	c.txs[tx.Hash()] = tx
	c.receipts[tx.Hash()] = &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: gasUsed,
		TxHash:            tx.Hash(),
		ContractAddress:   created,
		GasUsed:           gasUsed,
		EffectiveGasPrice: tx.GasPrice(),
		BlockHash:         head.Hash(),
		BlockNumber:       new(big.Int).Set(head.Number),
		Logs:              []*types.Log{},
	}
	return nil
}

func (c *Chain) account(addr common.Address) *account {
	acc, ok := c.accounts[addr]
	if !ok {
		acc = &account{balance: new(big.Int)}
		c.accounts[addr] = acc
	}
	return acc
}

func (c *Chain) mine() *types.Header {
	parent := c.headers[len(c.headers)-1]
	head := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		Time:       parent.Time + 1,
		GasLimit:   blockGasLimit,
		BaseFee:    big.NewInt(params.InitialBaseFee),
		Difficulty: new(big.Int),
	}
	c.headers = append(c.headers, head)
	return head
}

func (c *Chain) deploy(addr, from common.Address, tx *types.Transaction) {
	ct := &contract{
		code:  slices.Clone(tx.Data()),
		roles: map[common.Address]access.Mask{from: access.FullPrivileges},
	}
	for _, art := range c.artifacts {
		if len(art.Bytecode) == 0 || !bytes.HasPrefix(tx.Data(), art.Bytecode) {
			continue
		}
		args, err := art.ABI.Constructor.Inputs.Unpack(tx.Data()[len(art.Bytecode):])
		if err != nil {
			continue
		}
		ct.ctorArgs = args
		break
	}
	c.contracts[addr] = ct
	c.calls[addr] = append(c.calls[addr], Call{
		From:   from,
		Method: "constructor",
		Args:   ct.ctorArgs,
		TxHash: tx.Hash(),
	})
}

func (c *Chain) execute(ct *contract, from common.Address, tx *types.Transaction) error {
	to := *tx.To()
	if len(tx.Data()) == 0 {
		c.calls[to] = append(c.calls[to], Call{From: from, Method: "receive", TxHash: tx.Hash()})
		return nil
	}
	entry := Call{From: from, Method: selectorString(tx.Data()), TxHash: tx.Hash()}
	_, err := c.dispatch(ct, tx.Data(), true)
	if err == nil {
		if method, mErr := interpretABI.MethodById(tx.Data()[:4]); mErr == nil {
			entry.Method = method.Name
			entry.Args, _ = method.Inputs.Unpack(tx.Data()[4:])
		}
	}
	entry.Reverted = err != nil
	c.calls[to] = append(c.calls[to], entry)
	return err
}

func selectorString(data []byte) string {
	if len(data) < 4 {
		return fmt.Sprintf("0x%x", data)
	}
	return fmt.Sprintf("0x%x", data[:4])
}
