// Package ipaddr converts textual IPv4 and IPv6 addresses into fixed-width
// unsigned integers and tests CIDR range membership on them.
package ipaddr

import (
	"strconv"
	"strings"

	"lukechampine.com/uint128"
)

// Family is the address family of an Address or Range.
type Family uint8

const (
	Unknown Family = iota // Unknown is the family of the zero Address.
	IPv4                  // IPv4 addresses are 32 bits wide.
	IPv6                  // IPv6 addresses are 128 bits wide.
)

// Bits returns the address width of the family in bits.
func (f Family) Bits() int {
	switch f {
	case IPv4:
		return 32
	case IPv6:
		return 128
	}
	return 0
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	}
	return "unknown"
}

// Address is an immutable IPv4 or IPv6 address held as an unsigned integer.
// IPv4 addresses use only the low 32 bits of the value.
//
// The zero Address is invalid and never contained in any Range.
type Address struct {
	family Family
	value  uint128.Uint128
}

// AddrFrom4 returns the IPv4 address with the given integer value.
func AddrFrom4(v uint32) Address {
	return Address{family: IPv4, value: uint128.From64(uint64(v))}
}

// AddrFrom16 returns the IPv6 address with the given integer value.
func AddrFrom16(v uint128.Uint128) Address {
	return Address{family: IPv6, value: v}
}

// Family returns the address family.
func (a Address) Family() Family { return a.family }

// Bits returns the address width in bits: 32, 128, or 0 for the zero Address.
func (a Address) Bits() int { return a.family.Bits() }

// IsValid reports whether a was produced by a successful parse or constructor.
func (a Address) IsValid() bool { return a.family != Unknown }

// Uint128 returns the integer value of the address.
func (a Address) Uint128() uint128.Uint128 { return a.value }

// Uint32 returns the low 32 bits of the value. It is the full value for IPv4.
func (a Address) Uint32() uint32 { return uint32(a.value.Lo) }

// String returns the dotted-quad form for IPv4 and the RFC 5952 form for IPv6.
func (a Address) String() string {
	switch a.family {
	case IPv4:
		return formatIPv4(a.Uint32())
	case IPv6:
		return formatIPv6(a.value)
	}
	return "invalid IP"
}

func formatIPv4(v uint32) string {
	var b strings.Builder
	for i := 3; i >= 0; i-- {
		b.WriteString(strconv.Itoa(int(v >> (8 * i) & 0xff)))
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func formatIPv6(v uint128.Uint128) string {
	var groups [8]uint16
	for i := range groups {
		groups[i] = uint16(v.Rsh(uint(112 - 16*i)).Lo)
	}

	// longest run of two or more zero groups, leftmost on ties
	zeroStart, zeroLen := -1, 1
	for i := 0; i < len(groups); {
		if groups[i] != 0 {
			i++
			continue
		}
		j := i
		for j < len(groups) && groups[j] == 0 {
			j++
		}
		if j-i > zeroLen {
			zeroStart, zeroLen = i, j-i
		}
		i = j
	}

	var b strings.Builder
	for i := 0; i < len(groups); i++ {
		if i == zeroStart {
			b.WriteString("::")
			i += zeroLen - 1
			continue
		}
		if i > 0 && i != zeroStart+zeroLen {
			b.WriteByte(':')
		}
		b.WriteString(strconv.FormatUint(uint64(groups[i]), 16))
	}
	return b.String()
}
