// Package telemetry holds the Prometheus metrics for the engine and its
// HTTP surface.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the registry of engine metrics.
type Metrics struct {
	registry *prometheus.Registry

	ScanDuration   *prometheus.HistogramVec
	SignalsEmitted *prometheus.CounterVec
	SnapshotTotal  prometheus.Counter
	SnapshotErrors prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// New creates and registers all engine metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vnsignal_scan_duration_seconds",
				Help:    "Duration of each engine scan stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"stage"},
		),
		SignalsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vnsignal_signals_emitted_total",
				Help: "Raw signals emitted by producer source",
			},
			[]string{"source"},
		),
		SnapshotTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vnsignal_market_snapshots_total",
			Help: "Market state snapshots computed",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vnsignal_market_snapshot_errors_total",
			Help: "Market state snapshot computations that failed",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vnsignal_cache_hits_total",
			Help: "Snapshot cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vnsignal_cache_misses_total",
			Help: "Snapshot cache misses",
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vnsignal_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vnsignal_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.ScanDuration, m.SignalsEmitted,
		m.SnapshotTotal, m.SnapshotErrors,
		m.CacheHits, m.CacheMisses,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
