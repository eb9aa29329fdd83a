package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const erc20ArtifactJSON = `{
	"contractName": "AliERC20",
	"abi": [
		{"inputs":[{"internalType":"address","name":"_initialHolder","type":"address"}],"stateMutability":"nonpayable","type":"constructor"},
		{"inputs":[],"name":"features","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"internalType":"uint256","name":"_mask","type":"uint256"}],"name":"updateFeatures","outputs":[],"stateMutability":"nonpayable","type":"function"}
	],
	"bytecode": "0x6080604052"
}`

func TestFromJSON(t *testing.T) {
	a, err := FromJSON([]byte(erc20ArtifactJSON))
	require.NoError(t, err)
	require.Equal(t, "AliERC20", a.Name)
	require.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
	require.Contains(t, a.ABI.Methods, "features")
	require.Contains(t, a.ABI.Methods, "updateFeatures")
	require.Len(t, a.ABI.Constructor.Inputs, 1)
	require.NotEmpty(t, a.RawABI)
}

func TestFromJSONErrors(t *testing.T) {
	_, err := FromJSON([]byte(`{`))
	require.Error(t, err)

	_, err = FromJSON([]byte(`{"contractName": "X", "bytecode": "0x00"}`))
	require.ErrorContains(t, err, "no ABI")

	_, err = FromJSON([]byte(`{"abi": []}`))
	require.ErrorContains(t, err, "no ABI")

	_, err = FromJSON([]byte(`{"abi": "nope"}`))
	require.Error(t, err)

	const viewOnly = `[{"inputs":[],"name":"features","outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"}]`
	_, err = FromJSON([]byte(`{"abi": ` + viewOnly + `, "bytecode": "0x123"}`))
	require.ErrorContains(t, err, "invalid bytecode")

	_, err = FromJSON([]byte(`{"abi": ` + viewOnly + `, "bytecode": "zz"}`))
	require.Error(t, err)
}

func TestFromJSONBytecodeObject(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "NFTStaking.json"))
	require.NoError(t, err)
	a, err := FromJSON(data)
	require.NoError(t, err)
	require.Empty(t, a.Name) // Foundry artifacts carry no contractName.
	require.NotEmpty(t, a.Bytecode)
	require.Contains(t, a.ABI.Methods, "now32")
	require.Contains(t, a.ABI.Methods, "setNow32")
}

func TestPackConstructor(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "PersonalityPod.json"))
	require.NoError(t, err)
	a, err := FromJSON(data)
	require.NoError(t, err)

	packedArgs, err := a.ABI.Pack("", "Personality Pod", "POD")
	require.NoError(t, err)
	deployData, err := a.PackConstructor("Personality Pod", "POD")
	require.NoError(t, err)
	require.Equal(t, a.Bytecode, deployData[:len(a.Bytecode)])
	require.Equal(t, packedArgs, deployData[len(a.Bytecode):])

	_, err = a.PackConstructor(42)
	require.Error(t, err)

	noCode := &Artifact{Name: "Iface", ABI: a.ABI}
	_, err = noCode.PackConstructor("x", "y")
	require.ErrorContains(t, err, "no bytecode")
}

func TestMustParseABI(t *testing.T) {
	a := MustParseABI(`[{"inputs":[],"name":"features","outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"}]`)
	require.Contains(t, a.Methods, "features")
	require.Panics(t, func() { MustParseABI("{") })
}

func TestStore(t *testing.T) {
	s := NewStore("testdata")

	a, err := s.Artifact("PersonalityPod")
	require.NoError(t, err)
	require.Equal(t, "PersonalityPod", a.Name)

	again, err := s.Artifact("PersonalityPod")
	require.NoError(t, err)
	require.Same(t, a, again)

	st, err := s.Artifact("NFTStaking")
	require.NoError(t, err)
	require.Equal(t, "NFTStaking", st.Name) // Defaults to the file name.

	_, err = s.Artifact("Unknown")
	require.Error(t, err)
	require.ErrorContains(t, err, "Unknown")
}
