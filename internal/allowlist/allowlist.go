// Package allowlist holds ordered, immutable sets of CIDR ranges.
package allowlist

import (
	"fmt"
	"strings"

	"github.com/and161185/edge-gatekeeper/internal/ipaddr"
)

// AllowList is an ordered sequence of ranges fixed at construction.
// The zero value is an empty list that allows nothing.
type AllowList struct {
	ranges []ipaddr.Range
}

// New parses the given CIDR strings in order. Blank entries are skipped.
func New(cidrs ...string) (AllowList, error) {
	ranges := make([]ipaddr.Range, 0, len(cidrs))
	for _, raw := range cidrs {
		cidr := strings.TrimSpace(raw)
		if cidr == "" {
			continue
		}
		r, err := ipaddr.ParseRange(cidr)
		if err != nil {
			return AllowList{}, fmt.Errorf("allow list entry %q: %w", cidr, err)
		}
		ranges = append(ranges, r)
	}
	return AllowList{ranges: ranges}, nil
}

// MustNew is like New but panics on error.
func MustNew(cidrs ...string) AllowList {
	l, err := New(cidrs...)
	if err != nil {
		panic(err)
	}
	return l
}

// FromRanges builds a list from already-parsed ranges.
func FromRanges(ranges ...ipaddr.Range) AllowList {
	return AllowList{ranges: append([]ipaddr.Range(nil), ranges...)}
}

// Match returns the first range containing a.
func (l AllowList) Match(a ipaddr.Address) (ipaddr.Range, bool) {
	for _, r := range l.ranges {
		if r.Contains(a) {
			return r, true
		}
	}
	return ipaddr.Range{}, false
}

// Contains reports whether any range in the list contains a.
func (l AllowList) Contains(a ipaddr.Address) bool {
	_, ok := l.Match(a)
	return ok
}

// Len returns the number of ranges.
func (l AllowList) Len() int { return len(l.ranges) }

// Ranges returns a copy of the ranges in list order.
func (l AllowList) Ranges() []ipaddr.Range {
	return append([]ipaddr.Range(nil), l.ranges...)
}

func (l AllowList) String() string {
	parts := make([]string, len(l.ranges))
	for i, r := range l.ranges {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
