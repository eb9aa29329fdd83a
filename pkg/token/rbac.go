package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
)

// rbacABIJSON is the administrative slice of every suite contract interface,
// spliced into each contract ABI below. Features are a bitmask global to the
// contract, roles are per-operator bitmasks, see package access for the bit
// vocabulary.
const rbacABIJSON = `{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"_by","type":"address"},{"indexed":true,"internalType":"address","name":"_to","type":"address"},{"indexed":false,"internalType":"uint256","name":"_requested","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"_actual","type":"uint256"}],"name":"RoleUpdated","type":"event"},` +
	`{"inputs":[],"name":"features","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_mask","type":"uint256"}],"name":"updateFeatures","outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_operator","type":"address"}],"name":"getRole","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_operator","type":"address"},{"internalType":"uint256","name":"_role","type":"uint256"}],"name":"updateRole","outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"internalType":"address","name":"_operator","type":"address"},{"internalType":"uint256","name":"_required","type":"uint256"}],"name":"isOperatorInRole","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"internalType":"uint256","name":"_required","type":"uint256"}],"name":"isFeatureEnabled","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}`

// adminABI is the administrative interface on its own, enough to manage
// permissions of any suite contract without knowing its concrete type.
var adminABI = artifact.MustParseABI(`[` + rbacABIJSON + `]`)

// RBACReader provides read-only access to the permission state shared by all
// suite contracts.
type RBACReader struct {
	ContractReader
}

// RBACWriter changes the permission state of a suite contract. The sender
// must hold the corresponding permission bits for updates to have effect,
// the contracts silently reduce the requested mask to the allowed one.
type RBACWriter struct {
	ContractWriter
}

// RBAC is a complete administrative handle for an arbitrary suite contract.
type RBAC struct {
	RBACReader
	RBACWriter
}

// NewRBACReader returns a read-only administrative handle for a contract at
// the given address.
func NewRBACReader(inv Invoker, addr common.Address) *RBACReader {
	return &RBACReader{newContractReader(inv, adminABI, addr)}
}

// NewRBAC returns an administrative handle for a contract at the given
// address.
func NewRBAC(actor Actor, addr common.Address) *RBAC {
	return &RBAC{
		RBACReader: *NewRBACReader(actor, addr),
		RBACWriter: RBACWriter{newContractWriter(actor, adminABI, addr)},
	}
}

// Address returns the address of the contract.
func (c *RBAC) Address() common.Address {
	return c.RBACWriter.Address()
}

// Features implements the `features` method and returns the set of feature
// flags currently enabled on the contract.
func (r *RBACReader) Features(ctx context.Context) (access.Mask, error) {
	v, err := r.callBig(ctx, "features")
	if err != nil {
		return access.Mask{}, err
	}
	return access.FromBig(v)
}

// RoleOf implements the `getRole` method and returns the role mask currently
// assigned to the given operator.
func (r *RBACReader) RoleOf(ctx context.Context, operator common.Address) (access.Mask, error) {
	v, err := r.callBig(ctx, "getRole", operator)
	if err != nil {
		return access.Mask{}, err
	}
	return access.FromBig(v)
}

// IsOperatorInRole implements the `isOperatorInRole` method and reports
// whether the operator holds every permission of the required mask.
func (r *RBACReader) IsOperatorInRole(ctx context.Context, operator common.Address, required access.Mask) (bool, error) {
	return r.callBool(ctx, "isOperatorInRole", operator, required.Big())
}

// IsFeatureEnabled implements the `isFeatureEnabled` method and reports
// whether every feature of the required mask is enabled on the contract.
func (r *RBACReader) IsFeatureEnabled(ctx context.Context, required access.Mask) (bool, error) {
	return r.callBool(ctx, "isFeatureEnabled", required.Big())
}

// UpdateFeatures creates and sends a transaction setting the contract
// feature flags to the given mask.
func (w *RBACWriter) UpdateFeatures(ctx context.Context, mask access.Mask) (*types.Transaction, error) {
	return w.Transact(ctx, "updateFeatures", mask.Big())
}

// UpdateRole creates and sends a transaction setting the operator role to
// the given mask. Passing a zero mask revokes all permissions.
func (w *RBACWriter) UpdateRole(ctx context.Context, operator common.Address, role access.Mask) (*types.Transaction, error) {
	return w.Transact(ctx, "updateRole", operator, role.Big())
}
