package ipaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lukechampine.com/uint128"
)

// ErrInvalidRange is returned (wrapped) for malformed CIDR text or a prefix
// length outside the family width.
var ErrInvalidRange = errors.New("invalid cidr range")

// Range is an immutable CIDR range: a base address and a prefix length.
type Range struct {
	base Address
	bits int
}

// NewRange returns the range of addresses sharing the top bits of base.
// bits must lie in [0, base.Bits()].
func NewRange(base Address, bits int) (Range, error) {
	if !base.IsValid() {
		return Range{}, fmt.Errorf("%w: invalid base address", ErrInvalidRange)
	}
	if bits < 0 || bits > base.Bits() {
		return Range{}, fmt.Errorf("%w: prefix length %d out of [0, %d] for %s",
			ErrInvalidRange, bits, base.Bits(), base.Family())
	}
	return Range{base: base, bits: bits}, nil
}

// ParseRange parses "base/length" notation, e.g. "173.245.48.0/20".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	addr, length, ok := strings.Cut(s, "/")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q: missing '/'", ErrInvalidRange, s)
	}

	base, err := Parse(addr)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
	}

	bits, err := parsePrefixLength(length)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	return NewRange(base, bits)
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parsePrefixLength(s string) (int, error) {
	if s == "" || len(s) > 3 {
		return 0, fmt.Errorf("bad prefix length %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("bad prefix length %q", s)
		}
	}
	return strconv.Atoi(s)
}

// Base returns the range base address as given.
func (r Range) Base() Address { return r.base }

// Bits returns the prefix length.
func (r Range) Bits() int { return r.bits }

// Family returns the family of the base address.
func (r Range) Family() Family { return r.base.family }

// Contains reports whether a lies within r. Addresses of the other family,
// and the zero Address, are never contained.
func (r Range) Contains(a Address) bool {
	if !r.base.IsValid() || a.family != r.base.family {
		return false
	}
	m := mask(r.base.Bits(), r.bits)
	return a.value.And(m).Equals(r.base.value.And(m))
}

func (r Range) String() string {
	return r.base.String() + "/" + strconv.Itoa(r.bits)
}

// mask returns a value with the top prefix bits of a width-bit word set.
func mask(width, prefix int) uint128.Uint128 {
	return lowOnes(width).Xor(lowOnes(width - prefix))
}

func lowOnes(n int) uint128.Uint128 {
	return uint128.Max.Rsh(uint(128 - n))
}
