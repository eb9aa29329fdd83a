package simchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

// interpretABI covers every method the chain understands. It is the
// administrative interface shared by the suite contracts plus the metadata
// views the chain answers from captured constructor arguments or constants.
var interpretABI = artifact.MustParseABI(`[
	{"type": "function", "name": "features", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "updateFeatures", "stateMutability": "nonpayable", "inputs": [{"name": "_mask", "type": "uint256"}], "outputs": []},
	{"type": "function", "name": "getRole", "stateMutability": "view", "inputs": [{"name": "_operator", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "updateRole", "stateMutability": "nonpayable", "inputs": [{"name": "_operator", "type": "address"}, {"name": "_role", "type": "uint256"}], "outputs": []},
	{"type": "function", "name": "isOperatorInRole", "stateMutability": "view", "inputs": [{"name": "_operator", "type": "address"}, {"name": "_required", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "isFeatureEnabled", "stateMutability": "view", "inputs": [{"name": "_required", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "now32", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint32"}]},
	{"type": "function", "name": "setNow32", "stateMutability": "nonpayable", "inputs": [{"name": "_now32", "type": "uint32"}], "outputs": []},
	{"type": "function", "name": "inputDataRoot", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "bytes32"}]},
	{"type": "function", "name": "setInputDataRoot", "stateMutability": "nonpayable", "inputs": [{"name": "_root", "type": "bytes32"}], "outputs": []},
	{"type": "function", "name": "name", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "symbol", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "decimals", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]},
	{"type": "function", "name": "totalSupply", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "targetContract", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "aliContract", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]}
]`)

// dispatch interprets a single contract call. With mutate unset it behaves
// like eth_call: writes are accepted but no state is changed. Callers must
// hold c.mu.
func (c *Chain) dispatch(ct *contract, data []byte, mutate bool) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: malformed call data", ErrNotSupported)
	}
	method, err := interpretABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: selector %s", ErrNotSupported, selectorString(data))
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpacking %s call: %w", method.Name, err)
	}

	switch method.Name {
	case "features":
		return method.Outputs.Pack(ct.features.Big())
	case "updateFeatures":
		mask, err := access.FromBig(args[0].(*big.Int))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method.Name, err)
		}
		if mutate {
			ct.features = mask
		}
		return nil, nil
	case "getRole":
		return method.Outputs.Pack(ct.roles[args[0].(common.Address)].Big())
	case "updateRole":
		role, err := access.FromBig(args[1].(*big.Int))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method.Name, err)
		}
		if mutate {
			ct.roles[args[0].(common.Address)] = role
		}
		return nil, nil
	case "isOperatorInRole":
		required, err := access.FromBig(args[1].(*big.Int))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method.Name, err)
		}
		return method.Outputs.Pack(ct.roles[args[0].(common.Address)].Has(required))
	case "isFeatureEnabled":
		required, err := access.FromBig(args[0].(*big.Int))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method.Name, err)
		}
		return method.Outputs.Pack(ct.features.Has(required))
	case "now32":
		now := ct.now32
		if now == 0 {
			now = uint32(c.headers[len(c.headers)-1].Time)
		}
		return method.Outputs.Pack(now)
	case "setNow32":
		if mutate {
			ct.now32 = args[0].(uint32)
		}
		return nil, nil
	case "inputDataRoot":
		return method.Outputs.Pack(ct.dataRoot)
	case "setInputDataRoot":
		if mutate {
			ct.dataRoot = args[0].([32]byte)
		}
		return nil, nil
	case "name":
		return method.Outputs.Pack(ct.ctorString(0))
	case "symbol":
		return method.Outputs.Pack(ct.ctorString(1))
	case "decimals":
		return method.Outputs.Pack(uint8(18))
	case "totalSupply":
		return method.Outputs.Pack(new(big.Int))
	case "targetContract", "aliContract":
		return method.Outputs.Pack(ct.ctorAddress(0))
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSupported, method.Name)
	}
}

// ctorString returns the i-th string among the captured constructor
// arguments, counting string arguments only.
func (ct *contract) ctorString(i int) string {
	for _, arg := range ct.ctorArgs {
		s, ok := arg.(string)
		if !ok {
			continue
		}
		if i == 0 {
			return s
		}
		i--
	}
	return ""
}

// ctorAddress returns the i-th address among the captured constructor
// arguments, counting address arguments only.
func (ct *contract) ctorAddress(i int) common.Address {
	for _, arg := range ct.ctorArgs {
		a, ok := arg.(common.Address)
		if !ok {
			continue
		}
		if i == 0 {
			return a
		}
		i--
	}
	return common.Address{}
}
