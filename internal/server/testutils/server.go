package testutils

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/edge-gatekeeper/internal/allowlist"
	"github.com/and161185/edge-gatekeeper/internal/config"
	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
	"github.com/and161185/edge-gatekeeper/internal/metrics"
	"github.com/and161185/edge-gatekeeper/internal/server"
)

// NewTestConfig returns a config with a silent logger and ephemeral ports.
func NewTestConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Addr:            "127.0.0.1:0",
		Upstream:        "http://127.0.0.1:8081",
		ClientIPHeader:  gatekeeper.DefaultHeader,
		ShutdownTimeout: 1,
		Logger:          zap.NewNop().Sugar(),
	}
}

// NewTestServer returns a server gating next with the Cloudflare list.
func NewTestServer(next http.Handler, m *metrics.Metrics) *server.Server {
	cfg := NewTestConfig()
	gk := gatekeeper.New(cfg.ClientIPHeader, allowlist.Cloudflare())
	return server.NewServer(cfg, gk, next, m)
}
