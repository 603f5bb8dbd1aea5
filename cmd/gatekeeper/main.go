// Command gatekeeper is a reverse proxy that only forwards requests whose
// client address header lies inside Cloudflare's published ranges.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/edge-gatekeeper/internal/allowlist"
	"github.com/and161185/edge-gatekeeper/internal/buildinfo"
	"github.com/and161185/edge-gatekeeper/internal/config"
	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
	"github.com/and161185/edge-gatekeeper/internal/metrics"
	"github.com/and161185/edge-gatekeeper/internal/server"
	"github.com/and161185/edge-gatekeeper/internal/upstream"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := config.NewServerConfig()
	defer func() { _ = config.Logger.Sync() }()

	buildinfo.New(buildVersion, buildDate, buildCommit).Log(config.Logger)

	if err := config.Validate(); err != nil {
		config.Logger.Fatalf("invalid config: %v", err)
	}

	allow := allowlist.Cloudflare()
	m := metrics.New()

	next, err := upstream.New(config.Upstream, config.Logger, m)
	if err != nil {
		config.Logger.Fatal(err)
	}

	config.Logger.Infof("Server config: Addr=%s, Upstream=%s, ClientIPHeader=%s, MetricsAddr=%q, Ranges=%d",
		config.Addr,
		config.Upstream,
		config.ClientIPHeader,
		config.MetricsAddr,
		allow.Len(),
	)

	gk := gatekeeper.New(config.ClientIPHeader, allow)
	srv := server.NewServer(config, gk, next, m)
	if err := srv.Run(ctx); err != nil {
		config.Logger.Fatal(err)
	}
}
