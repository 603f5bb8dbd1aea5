// Package metrics exposes Prometheus counters for gatekeeper decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
)

const (
	VerdictPass  = "pass"
	VerdictBlock = "block"
)

// Metrics wraps a dedicated registry with the gatekeeper collectors.
type Metrics struct {
	registry       *prometheus.Registry
	decisions      *prometheus.CounterVec
	upstreamErrors prometheus.Counter
}

// New creates a registry and registers process, runtime and gatekeeper metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_decisions_total",
		Help: "Total number of gatekeeper decisions by verdict and block reason.",
	}, []string{"verdict", "reason"})

	upstreamErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_upstream_errors_total",
		Help: "Total number of passed requests the upstream failed to serve.",
	})

	registry.MustRegister(decisions, upstreamErrors)

	return &Metrics{
		registry:       registry,
		decisions:      decisions,
		upstreamErrors: upstreamErrors,
	}
}

// Handler exposes the metrics registry via HTTP. A nil Metrics serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision counts one gatekeeper decision. A nil err is a pass.
func (m *Metrics) ObserveDecision(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.decisions.WithLabelValues(VerdictPass, "").Inc()
		return
	}
	m.decisions.WithLabelValues(VerdictBlock, gatekeeper.Reason(err)).Inc()
}

// IncUpstreamError counts a failed proxy round trip.
func (m *Metrics) IncUpstreamError() {
	if m == nil {
		return
	}
	m.upstreamErrors.Inc()
}
