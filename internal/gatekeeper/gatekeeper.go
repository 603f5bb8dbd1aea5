// Package gatekeeper decides whether a request claims to originate from an
// allowed reverse-proxy address.
//
// A request passes when the client-address header parses as an IPv4 or IPv6
// address contained in the allow list. Everything else is blocked, and the
// returned error says why.
package gatekeeper

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/and161185/edge-gatekeeper/internal/allowlist"
	"github.com/and161185/edge-gatekeeper/internal/ipaddr"
)

// DefaultHeader is the header Cloudflare uses to convey the original client address.
const DefaultHeader = "CF-Connecting-IP"

var (
	ErrMissingOrigin     = errors.New("client address header missing")
	ErrUnparsableAddress = errors.New("client address unparsable")
	ErrNoRangeMatch      = errors.New("client address not in allow list")
)

// Block reasons, as returned by Reason.
const (
	ReasonMissingOrigin     = "missing_origin"
	ReasonUnparsableAddress = "unparsable_address"
	ReasonNoRangeMatch      = "no_range_match"
)

// Gatekeeper checks requests against a fixed allow list. It holds no mutable
// state and is safe for concurrent use.
type Gatekeeper struct {
	header string
	allow  allowlist.AllowList
}

// New returns a Gatekeeper reading the client address from header.
// An empty header selects DefaultHeader.
func New(header string, allow allowlist.AllowList) *Gatekeeper {
	if header == "" {
		header = DefaultHeader
	}
	return &Gatekeeper{header: http.CanonicalHeaderKey(header), allow: allow}
}

// Header returns the canonical name of the header the gatekeeper reads.
func (g *Gatekeeper) Header() string { return g.header }

// Check returns nil when r may pass, or one of ErrMissingOrigin,
// ErrUnparsableAddress and ErrNoRangeMatch (possibly wrapped).
func (g *Gatekeeper) Check(r *http.Request) error {
	raw := strings.TrimSpace(r.Header.Get(g.header))
	if raw == "" {
		return ErrMissingOrigin
	}
	return g.CheckAddress(raw)
}

// CheckAddress applies the parse and membership steps to a raw address.
func (g *Gatekeeper) CheckAddress(raw string) error {
	addr, err := ipaddr.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnparsableAddress, err)
	}
	if !g.allow.Contains(addr) {
		return fmt.Errorf("%w: %s", ErrNoRangeMatch, addr)
	}
	return nil
}

// Reason maps a Check error to a stable label. It returns "" for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingOrigin):
		return ReasonMissingOrigin
	case errors.Is(err, ErrUnparsableAddress):
		return ReasonUnparsableAddress
	case errors.Is(err, ErrNoRangeMatch):
		return ReasonNoRangeMatch
	}
	return "unknown"
}
