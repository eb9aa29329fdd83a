// Package testenv wires a simulated chain together with a compiled artifact
// set for the whole contract suite. It is shared by tests across packages.
package testenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/simchain"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/stretchr/testify/require"
)

// Artifact fixtures cover both compiler output layouts: plain hex bytecode
// strings and nested bytecode objects. Bytecodes are synthetic, the chain
// stub never executes them, but they have to be distinct so that deployments
// resolve to the right artifact.
var artifactJSON = map[string]string{
	token.ALIContract: `{
	  "_format": "hh-sol-artifact-1",
	  "contractName": "AliERC20",
	  "sourceName": "contracts/AliERC20.sol",
	  "abi": [
	    {"type": "constructor", "stateMutability": "nonpayable", "inputs": [{"name": "_initialHolder", "type": "address"}]},
	    {"type": "function", "name": "features", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	    {"type": "function", "name": "updateFeatures", "stateMutability": "nonpayable", "inputs": [{"name": "_mask", "type": "uint256"}], "outputs": []},
	    {"type": "function", "name": "transfer", "stateMutability": "nonpayable", "inputs": [{"name": "_to", "type": "address"}, {"name": "_value", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]}
	  ],
	  "bytecode": "0x60806040523480156100115760a1015b600080fd",
	  "deployedBytecode": "0x60806040523480155b600080fd",
	  "linkReferences": {},
	  "deployedLinkReferences": {}
	}`,
	token.PodContract: `{
	  "_format": "hh-sol-artifact-1",
	  "contractName": "PersonalityPod",
	  "sourceName": "contracts/PersonalityPod.sol",
	  "abi": [
	    {"type": "constructor", "stateMutability": "nonpayable", "inputs": [{"name": "_name", "type": "string"}, {"name": "_symbol", "type": "string"}]},
	    {"type": "function", "name": "name", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	    {"type": "function", "name": "symbol", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]}
	  ],
	  "bytecode": "0x60806040523480156100225760b2025b600080fd",
	  "deployedBytecode": "0x60806040523480255b600080fd",
	  "linkReferences": {},
	  "deployedLinkReferences": {}
	}`,
	token.INFTContract: `{
	  "_format": "hh-sol-artifact-1",
	  "contractName": "IntelligentNFT",
	  "sourceName": "contracts/IntelligentNFT.sol",
	  "abi": [
	    {"type": "constructor", "stateMutability": "nonpayable", "inputs": [{"name": "_ali", "type": "address"}]},
	    {"type": "function", "name": "aliContract", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]}
	  ],
	  "bytecode": "0x60806040523480156100335760c3035b600080fd",
	  "deployedBytecode": "0x60806040523480355b600080fd",
	  "linkReferences": {},
	  "deployedLinkReferences": {}
	}`,
	token.DropContract: `{
	  "abi": [
	    {"type": "constructor", "stateMutability": "nonpayable", "inputs": [{"name": "_nft", "type": "address"}]},
	    {"type": "function", "name": "targetContract", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]}
	  ],
	  "bytecode": {
	    "object": "0x60806040523480156100445760d4045b600080fd",
	    "sourceMap": "59:1191:0:-:0;;;;;;;;;",
	    "linkReferences": {}
	  }
	}`,
	token.StakingContract: `{
	  "abi": [
	    {"type": "constructor", "stateMutability": "nonpayable", "inputs": [{"name": "_nft", "type": "address"}]},
	    {"type": "function", "name": "now32", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint32"}]},
	    {"type": "function", "name": "setNow32", "stateMutability": "nonpayable", "inputs": [{"name": "_now32", "type": "uint32"}], "outputs": []}
	  ],
	  "bytecode": {
	    "object": "0x60806040523480156100555760e5055b600080fd",
	    "sourceMap": "59:2202:0:-:0;;;;;;;;;",
	    "linkReferences": {}
	  }
	}`,
}

// Env is a simulated chain with the suite artifacts registered on it.
type Env struct {
	Chain     *simchain.Chain
	Artifacts *artifact.Store
}

// New creates a fresh chain and writes the artifact fixtures to a temporary
// directory served by Env.Artifacts.
func New(t testing.TB) *Env {
	dir := t.TempDir()
	for name, data := range artifactJSON {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(data), 0o644))
	}

	env := &Env{
		Chain:     simchain.New(),
		Artifacts: artifact.NewStore(dir),
	}
	for name := range artifactJSON {
		env.Chain.RegisterArtifact(env.Artifact(t, name))
	}
	return env
}

// Artifact loads a fixture artifact by contract name.
func (e *Env) Artifact(t testing.TB, name string) *artifact.Artifact {
	art, err := e.Artifacts.Artifact(name)
	require.NoError(t, err)
	return art
}

// Actor returns an actor signing with the i-th development key.
func (e *Env) Actor(t testing.TB, i int) *chain.Actor {
	acc, err := chain.NewActor(context.Background(), e.Chain, chain.DevKey(i))
	require.NoError(t, err)
	return acc
}
