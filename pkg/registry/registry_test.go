package registry_test

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/stretchr/testify/require"
)

func testRecord(name string) registry.Record {
	return registry.Record{
		Name:       name,
		Address:    common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		TxHash:     common.HexToHash("0x3b1e4f2cf7f0a0f4f1a3b9b05fb4f1c0c4f6d3b2a1908070605040302010ffee"),
		Block:      7,
		Deployer:   common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		DeployedAt: time.Unix(1_700_000_100, 0).UTC(),
		Session:    uuid.MustParse("8c297b29-0d32-4371-a8f1-5b0d3f2a9c11"),
	}
}

func TestPutGet(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "deploy", "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	chainID := big.NewInt(1337)
	rec := testRecord("AliERC20")
	require.NoError(t, reg.Put(chainID, rec))

	got, err := reg.Get(chainID, "AliERC20")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	_, err = reg.Get(chainID, "PersonalityPod")
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, err = reg.Get(big.NewInt(1), "AliERC20")
	require.ErrorIs(t, err, registry.ErrNotFound)

	require.ErrorContains(t, reg.Put(chainID, registry.Record{}), "no name")
}

func TestPutOverwrites(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	chainID := big.NewInt(1337)
	rec := testRecord("AliERC20")
	require.NoError(t, reg.Put(chainID, rec))

	rec.Address = common.HexToAddress("0x0000000000000000000000000000000000001234")
	rec.Block = 42
	require.NoError(t, reg.Put(chainID, rec))

	got, err := reg.Get(chainID, "AliERC20")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	recs, err := reg.List(chainID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestListOrdered(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	chainID := big.NewInt(1337)
	for _, name := range []string{"PersonalityPod", "AliERC20", "NFTStaking"} {
		require.NoError(t, reg.Put(chainID, testRecord(name)))
	}

	recs, err := reg.List(chainID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "AliERC20", recs[0].Name)
	require.Equal(t, "NFTStaking", recs[1].Name)
	require.Equal(t, "PersonalityPod", recs[2].Name)

	recs, err = reg.List(big.NewInt(5))
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestNetworksIsolated(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	devnet := testRecord("AliERC20")
	mainnet := testRecord("AliERC20")
	mainnet.Address = common.HexToAddress("0x9876000000000000000000000000000000000000")
	require.NoError(t, reg.Put(big.NewInt(1337), devnet))
	require.NoError(t, reg.Put(big.NewInt(1), mainnet))

	got, err := reg.Get(big.NewInt(1337), "AliERC20")
	require.NoError(t, err)
	require.Equal(t, devnet.Address, got.Address)
	got, err = reg.Get(big.NewInt(1), "AliERC20")
	require.NoError(t, err)
	require.Equal(t, mainnet.Address, got.Address)
}

func TestDelete(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	chainID := big.NewInt(1337)
	require.NoError(t, reg.Put(chainID, testRecord("AliERC20")))
	require.NoError(t, reg.Delete(chainID, "AliERC20"))

	_, err = reg.Get(chainID, "AliERC20")
	require.ErrorIs(t, err, registry.ErrNotFound)
	require.ErrorIs(t, reg.Delete(chainID, "AliERC20"), registry.ErrNotFound)
	require.ErrorIs(t, reg.Delete(big.NewInt(9), "AliERC20"), registry.ErrNotFound)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	chainID := big.NewInt(1337)

	reg, err := registry.Open(path)
	require.NoError(t, err)
	rec := testRecord("IntelligentNFT")
	require.NoError(t, reg.Put(chainID, rec))
	require.NoError(t, reg.Close())

	reg, err = registry.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })
	got, err := reg.Get(chainID, "IntelligentNFT")
	require.NoError(t, err)
	require.Equal(t, rec, got)
}
