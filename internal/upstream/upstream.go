// Package upstream builds the handler passed requests are forwarded to.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

var ErrInvalidTarget = errors.New("invalid upstream url")

// ErrorCounter is told about every failed round trip.
type ErrorCounter interface {
	IncUpstreamError()
}

// New returns a reverse proxy to target, which must be an absolute http or
// https URL. The origin sees the target's Host; the client's Host travels in
// X-Forwarded-Host. Round-trip failures are logged and answered with 502.
func New(target string, logger *zap.SugaredLogger, counter ErrorCounter) (http.Handler, error) {
	u, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Errorf("upstream %s failed for %s %s: %v", u.Host, r.Method, r.RequestURI, err)
			if counter != nil {
				counter.IncUpstreamError()
			}
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}
	return proxy, nil
}

// ParseTarget validates an upstream URL.
func ParseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidTarget, target)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidTarget, target)
	}
	return u, nil
}
