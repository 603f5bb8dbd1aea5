// Package middleware provides HTTP middleware for the gatekeeper server.
package middleware

import (
	"io"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
)

const forbiddenBody = "Forbidden"

// Observer is told about every decision; err is nil when the request passed.
type Observer interface {
	ObserveDecision(err error)
}

// GateOption configures the Gatekeeper middleware.
type GateOption func(*gateConfig)

type gateConfig struct {
	logger   *zap.SugaredLogger
	observer Observer
}

// WithLogger logs blocked requests at debug level. A nil logger is ignored.
func WithLogger(logger *zap.SugaredLogger) GateOption {
	return func(c *gateConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports decisions to o.
func WithObserver(o Observer) GateOption {
	return func(c *gateConfig) { c.observer = o }
}

// Gatekeeper answers 403 "Forbidden" to requests gk blocks and hands the rest
// to next untouched.
func Gatekeeper(gk *gatekeeper.Gatekeeper, opts ...GateOption) func(http.Handler) http.Handler {
	cfg := gateConfig{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := gk.Check(r)
			if cfg.observer != nil {
				cfg.observer.ObserveDecision(err)
			}
			if err != nil {
				cfg.logger.Debugf("blocked request: request_id=%s reason=%s %s=%q uri=%s err=%v",
					chiMiddleware.GetReqID(r.Context()), gatekeeper.Reason(err),
					gk.Header(), r.Header.Get(gk.Header()), r.RequestURI, err)
				forbid(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbid(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = io.WriteString(w, forbiddenBody)
}
