// Package telemetry exposes Prometheus metrics describing the
// analyzer's own behavior: request throughput, per-detector latency and
// failure counts, and alerts emitted. It complements the teacher's use
// of Prometheus as a metric data *source* by making this service a
// metric *producer* in the same ecosystem.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered against a private registry,
// so multiple Metrics instances (e.g. in tests) never collide on the
// default global registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	DetectorDuration *prometheus.HistogramVec
	DetectorFailures *prometheus.CounterVec
	AlertsEmitted    *prometheus.CounterVec
}

// New builds and registers the analyzer's metric collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nc_analyzer",
			Name:      "requests_total",
			Help:      "Total number of analysis requests processed, by outcome.",
		}, []string{"outcome"}),
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nc_analyzer",
			Name:      "request_duration_seconds",
			Help:      "End-to-end analysis request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{}),
		DetectorDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nc_analyzer",
			Name:      "detector_duration_seconds",
			Help:      "Per-detector stage latency within a request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"detector"}),
		DetectorFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nc_analyzer",
			Name:      "detector_failures_total",
			Help:      "Detector stages that returned an error and were scored as failures.",
		}, []string{"detector"}),
		AlertsEmitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nc_analyzer",
			Name:      "alerts_emitted_total",
			Help:      "Alerts synthesized from analysis results, by severity.",
		}, []string{"severity"}),
	}
	return m
}

// Handler returns the HTTP handler that serves this registry's metrics
// in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
