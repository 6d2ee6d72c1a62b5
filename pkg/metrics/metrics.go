// Package metrics exposes Prometheus instrumentation for the object
// service: per-method request counts and latencies plus coordinator
// outcome counters (uploads, deletes, rollbacks, swept remnants).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UploadsTotal    prometheus.Counter
	DeletesTotal    prometheus.Counter
	RollbacksTotal  *prometheus.CounterVec
	SweptObjects    prometheus.Counter
}

// New creates the service collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	return &Metrics{
		registry: reg,
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eoss_http_requests_total",
				Help: "Total HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eoss_http_request_duration_milliseconds",
				Help:    "HTTP request latency in milliseconds",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"method"},
		),
		UploadsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "eoss_object_uploads_total",
				Help: "Successfully closed object uploads",
			},
		),
		DeletesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "eoss_object_deletes_total",
				Help: "Successfully deleted objects",
			},
		),
		RollbacksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eoss_upload_rollbacks_total",
				Help: "Upload rollbacks by outcome (ok or partial)",
			},
			[]string{"outcome"},
		),
		SweptObjects: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "eoss_swept_objects_total",
				Help: "Partial uploads collected by the crash-recovery sweep",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
