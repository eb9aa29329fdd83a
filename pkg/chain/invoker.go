package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Invoker performs read-only contract calls on behalf of some address. It is
// the non-transactional half of Actor which can also be used on its own when
// no signing key is available (chain inspection commands, tests).
type Invoker struct {
	backend Backend
	from    common.Address
}

// NewInvoker returns an Invoker performing calls on behalf of from. The zero
// address works for view methods that do not inspect the caller.
func NewInvoker(b Backend, from common.Address) *Invoker {
	return &Invoker{backend: b, from: from}
}

// Backend returns the Backend this Invoker operates on.
func (v *Invoker) Backend() Backend {
	return v.backend
}

// From returns the address calls are performed on behalf of.
func (v *Invoker) From() common.Address {
	return v.from
}

// Call executes a read-only contract call against the latest state and
// returns unpacked results.
func (v *Invoker) Call(ctx context.Context, to common.Address, cabi abi.ABI, method string, args ...any) ([]any, error) {
	return v.CallAt(ctx, nil, to, cabi, method, args...)
}

// CallAt is Call against the state at the given block, nil meaning the
// latest one.
func (v *Invoker) CallAt(ctx context.Context, block *big.Int, to common.Address, cabi abi.ABI, method string, args ...any) ([]any, error) {
	input, err := cabi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	out, err := v.backend.CallContract(ctx, ethereum.CallMsg{From: v.from, To: &to, Data: input}, block)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	res, err := cabi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s result: %w", method, err)
	}
	return res, nil
}

// CodeAt returns the code currently stored at the given address. An empty
// result means there is no contract there.
func (v *Invoker) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return v.backend.CodeAt(ctx, addr, nil)
}
