// Package metrics holds the Prometheus collectors for the dashboard API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomePending  = "pending"
)

// Metrics groups every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Uploads        *prometheus.CounterVec
	Rows           *prometheus.CounterVec
	PendingUploads prometheus.Gauge
	Evictions      prometheus.Counter
	RPCRequests    *prometheus.CounterVec
	RPCDuration    *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "uploads_total",
			Help:      "Uploads processed by file type, mode and outcome.",
		}, []string{"file_type", "mode", "outcome"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "rows_total",
			Help:      "Normalized rows by file type and outcome.",
		}, []string{"file_type", "outcome"}),
		PendingUploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "pending_chunked_uploads",
			Help:      "Chunked uploads waiting for more parts.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "chunk_evictions_total",
			Help:      "Chunked uploads dropped before completion.",
		}),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Uploads, m.Rows, m.PendingUploads, m.Evictions, m.RPCRequests, m.RPCDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUpload records one upload and its row counts.
func (m *Metrics) ObserveUpload(fileType, mode, outcome string, accepted, skipped int) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(fileType, mode, outcome).Inc()
	if accepted > 0 {
		m.Rows.WithLabelValues(fileType, OutcomeAccepted).Add(float64(accepted))
	}
	if skipped > 0 {
		m.Rows.WithLabelValues(fileType, OutcomeSkipped).Add(float64(skipped))
	}
}

// ObserveRPC records one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// SetPending records the number of pending chunked uploads.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingUploads.Set(float64(n))
}

// AddEvictions counts dropped chunked uploads.
func (m *Metrics) AddEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Evictions.Add(float64(n))
}
