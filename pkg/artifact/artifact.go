// Package artifact deals with compiled contract artifacts produced by
// Solidity toolchains. The kit never compiles contracts itself, artifacts
// come from the contract repository build output. Both Hardhat-style
// artifacts (bytecode is a hex string) and Foundry-style ones (bytecode is
// an object with a hex string inside) are accepted.
package artifact

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a parsed compiled contract. Bytecode may be empty for
// interface-only artifacts, deployment requires it while attaching to an
// already deployed contract does not.
type Artifact struct {
	// Name is the contract name from the artifact file.
	Name string
	// ABI is the parsed contract interface.
	ABI abi.ABI
	// RawABI is the original JSON ABI definition.
	RawABI json.RawMessage
	// Bytecode is the creation bytecode without constructor arguments.
	Bytecode []byte
}

// FromJSON parses an artifact file. The artifact must carry an ABI, the
// bytecode field is optional and can be either a hex string or an object
// with a hex string in its "object" field.
func FromJSON(data []byte) (*Artifact, error) {
	var raw struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	switch strings.TrimSpace(string(raw.ABI)) {
	case "", "null", "[]":
		return nil, errors.New("artifact has no ABI")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("invalid ABI: %w", err)
	}
	code, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}
	return &Artifact{
		Name:     raw.ContractName,
		ABI:      parsed,
		RawABI:   raw.ABI,
		Bytecode: code,
	}, nil
}

// PackConstructor returns the creation bytecode with ABI-encoded constructor
// arguments appended, ready to be used as deployment transaction data.
func (a *Artifact) PackConstructor(args ...any) ([]byte, error) {
	if len(a.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no bytecode", a.Name)
	}
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("constructor arguments: %w", err)
	}
	data := make([]byte, 0, len(a.Bytecode)+len(packed))
	data = append(data, a.Bytecode...)
	data = append(data, packed...)
	return data, nil
}

// MustParseABI parses a JSON ABI definition and panics if it is invalid.
// Intended for ABI constants kept in the source code.
func MustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if objErr := json.Unmarshal(raw, &obj); objErr != nil {
			return nil, err
		}
		s = obj.Object
	}
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	return b, nil
}
