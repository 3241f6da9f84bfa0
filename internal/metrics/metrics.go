// Package metrics exposes Sentinel's own operational health as
// Prometheus collectors, grounded on the teacher's
// cmd/pulse-sensor-proxy/metrics.go pattern: a private registry, a
// small struct of named collectors, and nil-receiver-safe record
// helpers so instrumentation call sites never need a nil check.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veris-memory/sentinel/internal/result"
)

// Metrics holds Sentinel's Prometheus collectors.
type Metrics struct {
	checksTotal            *prometheus.CounterVec
	alertsDispatchedTotal  *prometheus.CounterVec
	probeLatencySeconds    *prometheus.HistogramVec
	registry               *prometheus.Registry
}

// New creates and registers Sentinel's metrics against a private
// registry, so instantiating more than one in tests never collides
// with the default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_checks_total",
				Help: "Total check executions by check_id and status.",
			},
			[]string{"check_id", "status"},
		),
		alertsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_alerts_dispatched_total",
				Help: "Total alerts dispatched by channel and severity.",
			},
			[]string{"channel", "severity"},
		),
		probeLatencySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_probe_latency_seconds",
				Help:    "Check execution latency by check_id.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"check_id"},
		),
		registry: reg,
	}

	reg.MustRegister(m.checksTotal, m.alertsDispatchedTotal, m.probeLatencySeconds)
	return m
}

// Handler returns the HTTP handler to mount at /internal/metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCheck records one check execution's outcome and latency.
func (m *Metrics) RecordCheck(r result.Result) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(r.CheckID, string(r.Status)).Inc()
	m.probeLatencySeconds.WithLabelValues(r.CheckID).Observe(r.LatencyMS / 1000)
}

// RecordAlertDispatch records one alert dispatched through a channel.
func (m *Metrics) RecordAlertDispatch(channel, severity string) {
	if m == nil {
		return
	}
	m.alertsDispatchedTotal.WithLabelValues(channel, severity).Inc()
}
