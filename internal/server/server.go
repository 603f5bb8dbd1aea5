// Package server wires the gatekeeper middleware in front of the next handler
// and runs the HTTP listeners.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/edge-gatekeeper/internal/config"
	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
	"github.com/and161185/edge-gatekeeper/internal/metrics"
	"github.com/and161185/edge-gatekeeper/internal/server/middleware"
)

// Server serves every request through the gatekeeper to next.
type Server struct {
	config  *config.ServerConfig
	logger  *zap.SugaredLogger
	gate    *gatekeeper.Gatekeeper
	next    http.Handler
	metrics *metrics.Metrics
}

// NewServer returns a Server. m may be nil, in which case no metrics are
// recorded or served. A config without Logger logs nothing.
func NewServer(cfg *config.ServerConfig, gate *gatekeeper.Gatekeeper, next http.Handler, m *metrics.Metrics) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		config:  cfg,
		logger:  logger,
		gate:    gate,
		next:    next,
		metrics: m,
	}
}

// Router returns the gated handler chain.
func (srv *Server) Router() http.Handler {
	opts := []middleware.GateOption{middleware.WithLogger(srv.logger)}
	if srv.metrics != nil {
		opts = append(opts, middleware.WithObserver(srv.metrics))
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.logger))
	router.Use(middleware.Gatekeeper(srv.gate, opts...))
	router.Handle("/*", srv.next)
	return router
}

// MetricsRouter returns the ungated metrics handler chain. Without metrics
// every path answers 404.
func (srv *Server) MetricsRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", srv.metrics.Handler())
	return router
}

// Run serves until ctx is cancelled, then shuts the listeners down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	servers := []*http.Server{{
		Addr:              srv.config.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if srv.config.MetricsAddr != "" && srv.metrics != nil {
		servers = append(servers, &http.Server{
			Addr:              srv.config.MetricsAddr,
			Handler:           srv.MetricsRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		g.Go(func() error {
			srv.logger.Infof("listening on %s", hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.config.ShutdownTimeoutDuration())
		defer cancel()

		var errs []error
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
