package ipaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lukechampine.com/uint128"
)

// ErrInvalidAddress is returned (wrapped) for text that is not a well-formed
// IPv4 or IPv6 literal.
var ErrInvalidAddress = errors.New("invalid ip address")

// Parse converts a textual IPv4 or IPv6 address into an Address.
//
// IPv4 must be four decimal octets without leading zeros. IPv6 accepts the
// "::" shorthand, which is expanded to the number of zero groups it stands
// for, and a trailing dotted quad. Zones are rejected.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, ":"):
		return parseIPv6(s)
	case strings.Contains(s, "."):
		return parseIPv4(s)
	}
	return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
}

// MustParse is like Parse but panics on error. Use it for compiled-in literals.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func parseIPv4(s string) (Address, error) {
	v, err := parseDottedQuad(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return AddrFrom4(v), nil
}

func parseDottedQuad(s string) (uint32, error) {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return 0, fmt.Errorf("want 4 octets, got %d", len(octets))
	}

	var v uint32
	for _, o := range octets {
		if o == "" {
			return 0, errors.New("empty octet")
		}
		if len(o) > 1 && o[0] == '0' {
			return 0, fmt.Errorf("octet %q has a leading zero", o)
		}
		n, err := strconv.ParseUint(o, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("octet %q out of range or not decimal", o)
		}
		v = v<<8 | uint32(n)
	}
	return v, nil
}

func parseIPv6(s string) (Address, error) {
	fail := func(reason string) (Address, error) {
		return Address{}, fmt.Errorf("%w: %q: %s", ErrInvalidAddress, s, reason)
	}

	if strings.Contains(s, "%") {
		return fail("zones are not supported")
	}

	head, tail, elided := strings.Cut(s, "::")
	if elided && strings.Contains(tail, "::") {
		return fail("more than one '::'")
	}

	front, err := parseGroups(head, !elided)
	if err != nil {
		return fail(err.Error())
	}
	back, err := parseGroups(tail, elided)
	if err != nil {
		return fail(err.Error())
	}

	n := len(front) + len(back)
	switch {
	case elided && n > 7:
		return fail("'::' must stand for at least one group")
	case !elided && n != 8:
		return fail(fmt.Sprintf("want 8 groups, got %d", n))
	}

	var groups [8]uint16
	copy(groups[:], front)
	copy(groups[8-len(back):], back)

	var v uint128.Uint128
	for _, g := range groups {
		v = v.Lsh(16).Or64(uint64(g))
	}
	return AddrFrom16(v), nil
}

// parseGroups parses a run of colon-separated hex groups. When last is set the
// run ends the address and its final field may be a dotted quad.
func parseGroups(s string, last bool) ([]uint16, error) {
	if s == "" {
		return nil, nil
	}

	fields := strings.Split(s, ":")
	groups := make([]uint16, 0, len(fields)+1)
	for i, f := range fields {
		if last && i == len(fields)-1 && strings.Contains(f, ".") {
			v, err := parseDottedQuad(f)
			if err != nil {
				return nil, fmt.Errorf("embedded ipv4: %v", err)
			}
			groups = append(groups, uint16(v>>16), uint16(v))
			continue
		}
		if f == "" || len(f) > 4 {
			return nil, fmt.Errorf("bad group %q", f)
		}
		g, err := strconv.ParseUint(f, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("group %q is not hex", f)
		}
		groups = append(groups, uint16(g))
	}
	if len(groups) > 8 {
		return nil, fmt.Errorf("too many groups")
	}
	return groups, nil
}
