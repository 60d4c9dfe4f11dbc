// Package observability holds the Prometheus metrics exposed on /metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for auth request counters.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeConflict    = "conflict"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Metrics contains the service's Prometheus collectors.
type Metrics struct {
	registry            *prometheus.Registry
	AuthRequests        *prometheus.CounterVec
	ActivitySubscribers prometheus.Gauge
}

// NewMetrics creates a private registry with Go runtime collectors and the
// service's own metrics registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AuthRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mantaflow_auth_requests_total",
				Help: "Total number of authentication requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ActivitySubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mantaflow_activity_subscribers",
			Help: "Number of clients currently streaming the activity feed",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthRequests,
		m.ActivitySubscribers,
	)
	return m
}

// RecordAuth increments the auth request counter.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthRequests.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
