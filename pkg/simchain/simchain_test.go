package simchain_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/personae-labs/inft-go/internal/testenv"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/simchain"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/stretchr/testify/require"
)

// adminABI covers the administrative methods the fixtures do not declare
// themselves plus one method no stub contract supports.
var adminABI = artifact.MustParseABI(`[
	{"type": "function", "name": "getRole", "stateMutability": "view", "inputs": [{"name": "_operator", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "updateRole", "stateMutability": "nonpayable", "inputs": [{"name": "_operator", "type": "address"}, {"name": "_role", "type": "uint256"}], "outputs": []},
	{"type": "function", "name": "isOperatorInRole", "stateMutability": "view", "inputs": [{"name": "_operator", "type": "address"}, {"name": "_required", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "isFeatureEnabled", "stateMutability": "view", "inputs": [{"name": "_required", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "inputDataRoot", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "bytes32"}]},
	{"type": "function", "name": "setInputDataRoot", "stateMutability": "nonpayable", "inputs": [{"name": "_root", "type": "bytes32"}], "outputs": []},
	{"type": "function", "name": "decimals", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]},
	{"type": "function", "name": "totalSupply", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "targetContract", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "mint", "stateMutability": "nonpayable", "inputs": [{"name": "_to", "type": "address"}, {"name": "_value", "type": "uint256"}], "outputs": []}
]`)

func TestGenesis(t *testing.T) {
	bc := simchain.New()
	ctx := context.Background()

	id, err := bc.ChainID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, simchain.DefaultChainID, id.Int64())

	head, err := bc.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, head.Number.Int64())
	require.NotNil(t, head.BaseFee)

	funds := new(big.Int).Mul(big.NewInt(10000), big.NewInt(params.Ether))
	for i := 0; i < chain.DevAccounts(); i++ {
		require.Equal(t, funds, bc.Balance(chain.DevAddress(i)))

		nonce, err := bc.PendingNonceAt(ctx, chain.DevAddress(i))
		require.NoError(t, err)
		require.Zero(t, nonce)
	}
	require.Zero(t, bc.Balance(common.Address{1, 2, 3}).Sign())
}

func TestDeploy(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := env.Artifact(t, token.PodContract)
	addr, tx, err := acc.Deploy(ctx, art, "Personality Pod", "POD")
	require.NoError(t, err)
	require.Equal(t, crypto.CreateAddress(acc.Sender(), 0), addr)

	r, err := acc.Wait(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, r.Status)
	require.Equal(t, addr, r.ContractAddress)
	require.EqualValues(t, 1, r.BlockNumber.Int64())

	code, err := acc.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	calls := env.Chain.Calls(addr)
	require.Len(t, calls, 1)
	require.Equal(t, "constructor", calls[0].Method)
	require.Equal(t, []any{"Personality Pod", "POD"}, calls[0].Args)
	require.Equal(t, acc.Sender(), calls[0].From)
	require.Equal(t, tx.Hash(), calls[0].TxHash)

	res, err := acc.Call(ctx, addr, art.ABI, "name")
	require.NoError(t, err)
	require.Equal(t, "Personality Pod", res[0])

	res, err = acc.Call(ctx, addr, art.ABI, "symbol")
	require.NoError(t, err)
	require.Equal(t, "POD", res[0])

	// The deployer starts with every role and feature bit.
	res, err = acc.Call(ctx, addr, adminABI, "getRole", acc.Sender())
	require.NoError(t, err)
	require.Equal(t, access.FullPrivileges.Big(), res[0])

	res, err = acc.Call(ctx, addr, adminABI, "decimals")
	require.NoError(t, err)
	require.Equal(t, uint8(18), res[0])

	res, err = acc.Call(ctx, addr, adminABI, "totalSupply")
	require.NoError(t, err)
	require.Zero(t, res[0].(*big.Int).Sign())
}

func TestDeployUnknownBytecode(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := &artifact.Artifact{Name: "Mystery", Bytecode: []byte{0x60, 0x80, 0xfd}}
	addr, tx, err := acc.Deploy(ctx, art)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	calls := env.Chain.Calls(addr)
	require.Len(t, calls, 1)
	require.Equal(t, "constructor", calls[0].Method)
	require.Empty(t, calls[0].Args)

	// Nothing to echo without captured constructor arguments.
	res, err := acc.Call(ctx, addr, env.Artifact(t, token.PodContract).ABI, "name")
	require.NoError(t, err)
	require.Equal(t, "", res[0])
}

func TestAdminState(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := env.Artifact(t, token.ALIContract)
	addr, tx, err := acc.Deploy(ctx, art, chain.DevAddress(0))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	tx, err = acc.Transact(ctx, addr, art.ABI, "updateFeatures", big.NewInt(3))
	require.NoError(t, err)
	r, err := acc.Wait(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, r.Status)

	res, err := acc.Call(ctx, addr, art.ABI, "features")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3), res[0])

	res, err = acc.Call(ctx, addr, adminABI, "isFeatureEnabled", big.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, true, res[0])
	res, err = acc.Call(ctx, addr, adminABI, "isFeatureEnabled", big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, false, res[0])

	operator := chain.DevAddress(5)
	tx, err = acc.Transact(ctx, addr, adminABI, "updateRole", operator, big.NewInt(0x30000))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	res, err = acc.Call(ctx, addr, adminABI, "getRole", operator)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0x30000), res[0])

	res, err = acc.Call(ctx, addr, adminABI, "isOperatorInRole", operator, big.NewInt(0x10000))
	require.NoError(t, err)
	require.Equal(t, true, res[0])
	res, err = acc.Call(ctx, addr, adminABI, "isOperatorInRole", operator, big.NewInt(0x40000))
	require.NoError(t, err)
	require.Equal(t, false, res[0])

	// The journal keeps resolved names and unpacked arguments.
	calls := env.Chain.Calls(addr)
	require.Len(t, calls, 3)
	require.Equal(t, "updateFeatures", calls[1].Method)
	require.Equal(t, []any{big.NewInt(3)}, calls[1].Args)
	require.Equal(t, "updateRole", calls[2].Method)
	require.Equal(t, []any{operator, big.NewInt(0x30000)}, calls[2].Args)
}

func TestNow32(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := env.Artifact(t, token.StakingContract)
	addr, tx, err := acc.Deploy(ctx, art, chain.DevAddress(1))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	// Without an override now32 echoes the latest block timestamp.
	head, err := env.Chain.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	res, err := acc.Call(ctx, addr, art.ABI, "now32")
	require.NoError(t, err)
	require.Equal(t, uint32(head.Time), res[0])

	tx, err = acc.Transact(ctx, addr, art.ABI, "setNow32", uint32(1_500_000_000))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	res, err = acc.Call(ctx, addr, art.ABI, "now32")
	require.NoError(t, err)
	require.Equal(t, uint32(1_500_000_000), res[0])

	// Zero clears the override.
	tx, err = acc.Transact(ctx, addr, art.ABI, "setNow32", uint32(0))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	head, err = env.Chain.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	res, err = acc.Call(ctx, addr, art.ABI, "now32")
	require.NoError(t, err)
	require.Equal(t, uint32(head.Time), res[0])
}

func TestInputDataRoot(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := env.Artifact(t, token.DropContract)
	nft := chain.DevAddress(2)
	addr, tx, err := acc.Deploy(ctx, art, nft)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	res, err := acc.Call(ctx, addr, art.ABI, "targetContract")
	require.NoError(t, err)
	require.Equal(t, nft, res[0])

	res, err = acc.Call(ctx, addr, adminABI, "inputDataRoot")
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, res[0])

	root := [32]byte{0xde, 0xad, 0xbe, 0xef}
	tx, err = acc.Transact(ctx, addr, adminABI, "setInputDataRoot", root)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	res, err = acc.Call(ctx, addr, adminABI, "inputDataRoot")
	require.NoError(t, err)
	require.Equal(t, root, res[0])
}

func TestUnsupportedMethod(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	art := env.Artifact(t, token.ALIContract)
	addr, tx, err := acc.Deploy(ctx, art, chain.DevAddress(0))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	// Calls and estimates fail right away.
	_, err = acc.Call(ctx, addr, adminABI, "mint", chain.DevAddress(1), big.NewInt(10))
	require.ErrorIs(t, err, simchain.ErrNotSupported)
	_, err = acc.Transact(ctx, addr, adminABI, "mint", chain.DevAddress(1), big.NewInt(10))
	require.ErrorIs(t, err, simchain.ErrNotSupported)

	// With a fixed gas limit the transaction goes through and reverts.
	fixed, err := chain.NewTunedActor(ctx, env.Chain, chain.DevKey(0), chain.Options{GasLimit: 100_000})
	require.NoError(t, err)
	tx, err = fixed.Transact(ctx, addr, adminABI, "mint", chain.DevAddress(1), big.NewInt(10))
	require.NoError(t, err)
	r, err := fixed.Wait(ctx, tx)
	require.ErrorIs(t, err, chain.ErrReverted)
	require.Equal(t, types.ReceiptStatusFailed, r.Status)

	calls := env.Chain.Calls(addr)
	last := calls[len(calls)-1]
	require.True(t, last.Reverted)
	require.Equal(t, "0x40c10f19", last.Method)
}

func TestPlainTransfers(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	amount := big.NewInt(params.Ether)
	tx, err := acc.Send(ctx, to, amount)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, amount, env.Chain.Balance(to))

	// Contracts accept plain value too.
	addr, tx, err := acc.Deploy(ctx, env.Artifact(t, token.ALIContract), chain.DevAddress(0))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	tx, err = acc.Send(ctx, addr, big.NewInt(42))
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	require.EqualValues(t, 42, env.Chain.Balance(addr).Int64())

	calls := env.Chain.Calls(addr)
	require.Equal(t, "receive", calls[len(calls)-1].Method)

	// A fresh key has no funds to move.
	poorKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	poor, err := chain.NewActor(ctx, env.Chain, poorKey)
	require.NoError(t, err)
	_, err = poor.Send(ctx, to, big.NewInt(1))
	require.ErrorContains(t, err, "insufficient funds")
}

func TestNonceValidation(t *testing.T) {
	env := testenv.New(t)
	ctx := context.Background()

	signer := types.LatestSignerForChainID(big.NewInt(simchain.DefaultChainID))
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    7,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      params.TxGas,
		GasPrice: big.NewInt(2 * params.InitialBaseFee),
	}), signer, chain.DevKey(3))
	require.NoError(t, err)
	require.ErrorContains(t, env.Chain.SendTransaction(ctx, tx), "invalid nonce")

	tx, err = types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    0,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      params.TxGas,
		GasPrice: big.NewInt(2 * params.InitialBaseFee),
	}), signer, chain.DevKey(3))
	require.NoError(t, err)
	require.NoError(t, env.Chain.SendTransaction(ctx, tx))
	require.ErrorContains(t, env.Chain.SendTransaction(ctx, tx), "already known")
}

func TestReceiptNotFound(t *testing.T) {
	bc := simchain.New()
	_, err := bc.TransactionReceipt(context.Background(), common.HexToHash("0xdead"))
	require.ErrorIs(t, err, ethereum.NotFound)
}

func TestHeaderChain(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx, err := acc.Send(ctx, chain.DevAddress(9), big.NewInt(int64(i+1)))
		require.NoError(t, err)
		_, err = acc.Wait(ctx, tx)
		require.NoError(t, err)
	}

	head, err := env.Chain.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, head.Number.Int64())

	for n := int64(1); n <= 3; n++ {
		cur, err := env.Chain.HeaderByNumber(ctx, big.NewInt(n))
		require.NoError(t, err)
		prev, err := env.Chain.HeaderByNumber(ctx, big.NewInt(n-1))
		require.NoError(t, err)
		require.Equal(t, prev.Hash(), cur.ParentHash)
		require.Equal(t, prev.Time+1, cur.Time)
	}

	_, err = env.Chain.HeaderByNumber(ctx, big.NewInt(42))
	require.ErrorIs(t, err, ethereum.NotFound)
}
