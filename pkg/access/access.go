// Package access defines the feature flag and role bitmask vocabulary of the
// iNFT protocol contracts.
//
// All contracts of the suite share one access control scheme: a 256-bit word
// interpreted as a set of global feature flags when assigned to the contract
// itself and as a set of permissions (a role) when assigned to an operator
// address. The low 16 bits are reserved for feature flags, the rest are
// roles. Bit 255 allows the holder to change permissions of other operators.
// Bit positions are contract-specific, so the same position may carry a
// different meaning for different contracts of the suite.
package access

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Mask is a 256-bit set of feature flags or role permissions. The zero value
// is the empty mask. Masks are immutable, all operations return new values.
type Mask struct {
	bits uint256.Int
}

// Feature flags and roles of the ALI ERC20 and Personality Pod ERC721 tokens.
var (
	// FeatureTransfers enables transfers performed by token owners.
	FeatureTransfers = Bit(0)
	// FeatureTransfersOnBehalf enables transfers performed by approved operators.
	FeatureTransfersOnBehalf = Bit(1)
	// FeatureUnsafeTransfers allows ERC721 transfers bypassing the receiver check.
	FeatureUnsafeTransfers = Bit(2)
	// FeatureOwnBurns enables burns performed by token owners.
	FeatureOwnBurns = Bit(3)
	// FeatureBurnsOnBehalf enables burns performed by approved operators.
	FeatureBurnsOnBehalf = Bit(4)

	// RoleTokenCreator allows an operator to mint tokens.
	RoleTokenCreator = Bit(16)
	// RoleTokenDestroyer allows an operator to burn tokens.
	RoleTokenDestroyer = Bit(17)
	// RoleERC20Receiver allows an address to receive tokens when unsafe
	// transfers are restricted.
	RoleERC20Receiver = Bit(18)
	// RoleERC20Sender allows an address to send tokens when unsafe transfers
	// are restricted.
	RoleERC20Sender = Bit(19)
	// RoleURIManager allows an operator to change token and base URIs.
	RoleURIManager = Bit(20)
)

// Feature flags and roles of the Personality Drop airdrop contract.
var (
	// FeatureRedeemActive enables airdrop redemption.
	FeatureRedeemActive = Bit(0)
	// RoleDataManager allows an operator to set the input data root.
	RoleDataManager = Bit(16)
)

// Feature flags and roles of the NFT staking contract.
var (
	// FeatureStaking enables staking of tokens.
	FeatureStaking = Bit(0)
	// FeatureUnstaking enables unstaking of previously staked tokens.
	FeatureUnstaking = Bit(1)
	// RoleRescueManager allows an operator to rescue accidentally sent tokens.
	RoleRescueManager = Bit(16)
)

// Masks spanning whole bit ranges.
var (
	// FeatureAll is the set of all possible feature flags, the low 16 bits.
	FeatureAll = Mask{bits: *uint256.NewInt(0xffff)}
	// RoleAccessManager allows an operator to change permissions of other
	// operators. The manager can only delegate bits from its own role.
	RoleAccessManager = Bit(255)
	// FullPrivileges is the set of all features and roles. Contract deployers
	// hold it initially.
	FullPrivileges = Mask{bits: *new(uint256.Int).Not(new(uint256.Int))}
)

// Bit returns a mask with the single bit n set. Bits are numbered from zero
// (the least significant one), n must not exceed 255.
func Bit(n uint) Mask {
	if n > 255 {
		panic(fmt.Sprintf("access: bit %d out of range", n))
	}
	var m Mask
	m.bits.Lsh(uint256.NewInt(1), n)
	return m
}

// Union returns a mask with the bits of all of the given masks set.
func Union(masks ...Mask) Mask {
	var m Mask
	for i := range masks {
		m.bits.Or(&m.bits, &masks[i].bits)
	}
	return m
}

// Union returns a mask combining the bits of m and all of the given masks.
func (m Mask) Union(others ...Mask) Mask {
	out := m
	for i := range others {
		out.bits.Or(&out.bits, &others[i].bits)
	}
	return out
}

// Intersect returns a mask with the bits present in both m and other.
func (m Mask) Intersect(other Mask) Mask {
	var out Mask
	out.bits.And(&m.bits, &other.bits)
	return out
}

// Without returns a copy of m with all bits of other cleared.
func (m Mask) Without(other Mask) Mask {
	var out Mask
	out.bits.Not(&other.bits)
	out.bits.And(&m.bits, &out.bits)
	return out
}

// Has reports whether every bit of sub is set in m.
func (m Mask) Has(sub Mask) bool {
	var tmp uint256.Int
	return tmp.And(&m.bits, &sub.bits).Eq(&sub.bits)
}

// IsZero reports whether no bits are set.
func (m Mask) IsZero() bool {
	return m.bits.IsZero()
}

// Equal reports whether both masks have the same set of bits.
func (m Mask) Equal(other Mask) bool {
	return m.bits.Eq(&other.bits)
}

// Big returns the mask as a big integer suitable for ABI packing.
func (m Mask) Big() *big.Int {
	return m.bits.ToBig()
}

// FromBig converts a big integer (usually one unpacked from an ABI-encoded
// response) to a mask. It fails if i is negative or wider than 256 bits.
func FromBig(i *big.Int) (Mask, error) {
	var m Mask
	if i == nil {
		return m, nil
	}
	if i.Sign() < 0 {
		return m, fmt.Errorf("negative mask: %s", i)
	}
	b, overflow := uint256.FromBig(i)
	if overflow {
		return m, fmt.Errorf("mask out of range: %s", i)
	}
	m.bits = *b
	return m, nil
}

// ParseMask converts a string to a mask. Both 0x-prefixed hexadecimal and
// decimal forms are accepted.
func ParseMask(s string) (Mask, error) {
	var m Mask
	if err := m.bits.UnmarshalText([]byte(s)); err != nil {
		return m, fmt.Errorf("invalid mask %q: %w", s, err)
	}
	return m, nil
}

// String implements the fmt.Stringer interface. Masks are 0x-prefixed
// hexadecimal strings.
func (m Mask) String() string {
	return m.bits.Hex()
}

// MarshalJSON implements the json marshaller interface.
func (m Mask) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (m *Mask) UnmarshalJSON(data []byte) error {
	if len(data) > 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	return m.setFromString(string(data))
}

// MarshalYAML implements the yaml marshaller interface.
func (m Mask) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML implements the yaml unmarshaler interface.
func (m *Mask) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return m.setFromString(s)
}

func (m *Mask) setFromString(s string) error {
	p, err := ParseMask(s)
	if err != nil {
		return err
	}
	*m = p
	return nil
}
