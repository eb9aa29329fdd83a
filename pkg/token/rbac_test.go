package token_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/personae-labs/inft-go/internal/testenv"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/stretchr/testify/require"
)

func deployALI(t *testing.T, env *testenv.Env, acc *chain.Actor) *token.ALI {
	ali, tx, err := token.DeployALI(context.Background(), acc, env.Artifact(t, token.ALIContract), acc.Sender())
	require.NoError(t, err)
	_, err = acc.Wait(context.Background(), tx)
	require.NoError(t, err)
	return ali
}

func deployPod(t *testing.T, env *testenv.Env, acc *chain.Actor) *token.Pod {
	pod, tx, err := token.DeployPod(context.Background(), acc, env.Artifact(t, token.PodContract), "Personality Pod", "POD")
	require.NoError(t, err)
	_, err = acc.Wait(context.Background(), tx)
	require.NoError(t, err)
	return pod
}

func TestFeatureLifecycle(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ali := deployALI(t, env, acc)
	ctx := context.Background()

	f, err := ali.Features(ctx)
	require.NoError(t, err)
	require.True(t, f.IsZero())

	requested := access.Union(access.FeatureTransfers, access.FeatureTransfersOnBehalf)
	tx, err := ali.UpdateFeatures(ctx, requested)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	f, err = ali.Features(ctx)
	require.NoError(t, err)
	require.True(t, f.Equal(requested))
	require.True(t, f.Has(access.FeatureTransfers))
	require.False(t, f.Has(access.FeatureOwnBurns))

	on, err := ali.IsFeatureEnabled(ctx, access.FeatureTransfers)
	require.NoError(t, err)
	require.True(t, on)
	on, err = ali.IsFeatureEnabled(ctx, access.FeatureUnsafeTransfers)
	require.NoError(t, err)
	require.False(t, on)

	tx, err = ali.UpdateFeatures(ctx, access.Mask{})
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	f, err = ali.Features(ctx)
	require.NoError(t, err)
	require.True(t, f.IsZero())
}

func TestRoleLifecycle(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	pod := deployPod(t, env, acc)
	ctx := context.Background()

	// The deployer starts with full privileges.
	role, err := pod.RoleOf(ctx, acc.Sender())
	require.NoError(t, err)
	require.True(t, role.Equal(access.FullPrivileges))

	operator := chain.DevAddress(4)
	role, err = pod.RoleOf(ctx, operator)
	require.NoError(t, err)
	require.True(t, role.IsZero())

	tx, err := pod.UpdateRole(ctx, operator, access.RoleTokenCreator)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	role, err = pod.RoleOf(ctx, operator)
	require.NoError(t, err)
	require.True(t, role.Equal(access.RoleTokenCreator))

	ok, err := pod.IsOperatorInRole(ctx, operator, access.RoleTokenCreator)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = pod.IsOperatorInRole(ctx, operator, access.RoleTokenDestroyer)
	require.NoError(t, err)
	require.False(t, ok)
	// The whole required mask must be held.
	ok, err = pod.IsOperatorInRole(ctx, operator, access.Union(access.RoleTokenCreator, access.RoleTokenDestroyer))
	require.NoError(t, err)
	require.False(t, ok)

	tx, err = pod.UpdateRole(ctx, operator, access.Mask{})
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)
	role, err = pod.RoleOf(ctx, operator)
	require.NoError(t, err)
	require.True(t, role.IsZero())
}

func TestKeylessReader(t *testing.T) {
	env := testenv.New(t)
	acc := env.Actor(t, 0)
	ali := deployALI(t, env, acc)
	ctx := context.Background()

	tx, err := ali.UpdateFeatures(ctx, access.FeatureAll)
	require.NoError(t, err)
	_, err = acc.Wait(ctx, tx)
	require.NoError(t, err)

	// Reading needs no signing key at all.
	reader := token.NewALIReader(chain.NewInvoker(env.Chain, common.Address{}), ali.Address())
	f, err := reader.Features(ctx)
	require.NoError(t, err)
	require.True(t, f.Equal(access.FeatureAll))

	role, err := reader.RoleOf(ctx, acc.Sender())
	require.NoError(t, err)
	require.True(t, role.Equal(access.FullPrivileges))
}
