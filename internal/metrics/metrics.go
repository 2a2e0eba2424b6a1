// Package metrics holds the Prometheus collectors exported by leapmap.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leapmap"

// Geocode outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Metrics is a private registry plus the collectors registered on it.
// Each server (and each test) gets its own, so nothing leaks through the
// global default registry.
type Metrics struct {
	registry *prometheus.Registry

	GeocodeRequests *prometheus.CounterVec
	GeocodeLatency  prometheus.Histogram
	GeocodeCache    *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	Workspaces      prometheus.Gauge
	Exports         *prometheus.CounterVec
}

// New builds and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "requests_total",
			Help:      "Geocode actions by outcome.",
		}, []string{"outcome"}),
		GeocodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "upstream_seconds",
			Help:      "Latency of upstream geocoding calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "cache_lookups_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "CSV uploads by outcome.",
		}, []string{"outcome"}),
		Workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces",
			Help:      "Live browser workspaces.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		m.GeocodeRequests,
		m.GeocodeLatency,
		m.GeocodeCache,
		m.Uploads,
		m.Workspaces,
		m.Exports,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveGeocode records one upstream call.
func (m *Metrics) ObserveGeocode(started time.Time, err error) {
	if m == nil {
		return
	}
	m.GeocodeLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		m.GeocodeRequests.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.GeocodeRequests.WithLabelValues(OutcomeOK).Inc()
}

// Stale records a geocode result discarded because a newer one was issued.
func (m *Metrics) Stale() {
	if m == nil {
		return
	}
	m.GeocodeRequests.WithLabelValues(OutcomeStale).Inc()
}

// CacheLookup records hits and misses for one batch.
func (m *Metrics) CacheLookup(hits, misses int) {
	if m == nil {
		return
	}
	m.GeocodeCache.WithLabelValues("hit").Add(float64(hits))
	m.GeocodeCache.WithLabelValues("miss").Add(float64(misses))
}

// Upload records one upload attempt.
func (m *Metrics) Upload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Uploads.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.Uploads.WithLabelValues(OutcomeOK).Inc()
}

// Export records one export in the given format.
func (m *Metrics) Export(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// SetWorkspaces publishes the live workspace count.
func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.Workspaces.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format. A nil
// Metrics serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
