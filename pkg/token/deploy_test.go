package token_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/personae-labs/inft-go/internal/testenv"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/stretchr/testify/require"
)

func TestDeployALI(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ctx := context.Background()

	holder := chain.DevAddress(2)
	ali, tx, err := token.DeployALI(ctx, acc, env.Artifact(t, token.ALIContract), holder)
	require.NoError(t, err)
	r, err := acc.Wait(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, ali.Address(), r.ContractAddress)

	calls := env.Chain.Calls(ali.Address())
	require.Len(t, calls, 1)
	require.Equal(t, []any{holder}, calls[0].Args)

	dec, err := ali.Decimals(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 18, dec)

	supply, err := ali.TotalSupply(ctx)
	require.NoError(t, err)
	require.Zero(t, supply.Sign())

	_, _, err = token.DeployALI(ctx, acc, nil, holder)
	require.ErrorContains(t, err, "no artifact for AliERC20")
}

func TestDeployPod(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	pod := deployPod(t, env, acc)
	ctx := context.Background()

	name, err := pod.Name(ctx)
	require.NoError(t, err)
	require.Equal(t, "Personality Pod", name)

	symbol, err := pod.Symbol(ctx)
	require.NoError(t, err)
	require.Equal(t, "POD", symbol)

	supply, err := pod.TotalSupply(ctx)
	require.NoError(t, err)
	require.Zero(t, supply.Sign())

	// Raw calls pass through for methods without a typed accessor.
	res, err := pod.Call(ctx, "symbol")
	require.NoError(t, err)
	require.Equal(t, "POD", res[0])
}

func TestDeployINFT(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ali := deployALI(t, env, acc)
	ctx := context.Background()

	inft, tx, err := token.DeployINFT(ctx, acc, env.Artifact(t, token.INFTContract), ali.Address())
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	linked, err := inft.AliContract(ctx)
	require.NoError(t, err)
	require.Equal(t, ali.Address(), linked)

	supply, err := inft.TotalSupply(ctx)
	require.NoError(t, err)
	require.Zero(t, supply.Sign())
}

func TestDeployDrop(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	pod := deployPod(t, env, acc)
	ctx := context.Background()

	drop, tx, err := token.DeployDrop(ctx, acc, env.Artifact(t, token.DropContract), pod.Address())
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	target, err := drop.TargetContract(ctx)
	require.NoError(t, err)
	require.Equal(t, pod.Address(), target)

	root, err := drop.InputDataRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, root)

	next := [32]byte{0xab, 0xcd}
	tx, err = drop.SetInputDataRoot(ctx, next)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	root, err = drop.InputDataRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, next, root)
}

func TestDeployStaking(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	pod := deployPod(t, env, acc)
	ctx := context.Background()

	staking, tx, err := token.DeployStaking(ctx, acc, env.Artifact(t, token.StakingContract), pod.Address())
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	target, err := staking.TargetContract(ctx)
	require.NoError(t, err)
	require.Equal(t, pod.Address(), target)

	head, err := env.Chain.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	now, err := staking.Now32(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(head.Time), now)

	tx, err = staking.SetNow32(ctx, 7_000_000)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	now, err = staking.Now32(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 7_000_000, now)
}

// The stub chain has no token logic, but the journal still pins the call
// data the handles produce.
func TestERC20CallData(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ali := deployALI(t, env, acc)
	ctx := context.Background()

	fixed, err := chain.NewTunedActor(ctx, env.Chain, chain.DevKey(0), chain.Options{GasLimit: 100_000})
	require.NoError(t, err)
	bound := token.NewALI(fixed, ali.Address())

	tx, err := bound.Transfer(ctx, chain.DevAddress(1), big.NewInt(100))
	require.NoError(t, err)
	_, err = fixed.Wait(ctx, tx)
	require.ErrorIs(t, err, chain.ErrReverted)

	tx, err = bound.Mint(ctx, chain.DevAddress(1), big.NewInt(100))
	require.NoError(t, err)
	_, err = fixed.Wait(ctx, tx)
	require.ErrorIs(t, err, chain.ErrReverted)

	calls := env.Chain.Calls(ali.Address())
	require.Len(t, calls, 3)
	require.Equal(t, "0xa9059cbb", calls[1].Method) // transfer(address,uint256)
	require.Equal(t, "0x40c10f19", calls[2].Method) // mint(address,uint256)
	require.True(t, calls[1].Reverted)
	require.True(t, calls[2].Reverted)
}
