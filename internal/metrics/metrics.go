// Package metrics exposes Prometheus metrics for the editor service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PassLatencyBuckets cover a draft pass on a small poster up to a 3x capture
// of a large one.
var PassLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds all collectors of the service.
type Metrics struct {
	// ExportsTotal counts finished exports by result (success, failure, busy).
	ExportsTotal *prometheus.CounterVec

	// ExportPassDuration tracks the duration of the warmup and capture passes.
	ExportPassDuration *prometheus.HistogramVec

	// PointerEventsTotal counts pointer events by kind.
	PointerEventsTotal *prometheus.CounterVec

	// UploadsTotal counts base image uploads by result.
	UploadsTotal *prometheus.CounterVec

	// ActiveSessions tracks editing sessions held in memory.
	ActiveSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posterqr_exports_total",
				Help: "Exports by result",
			},
			[]string{"result"},
		),
		ExportPassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "posterqr_export_pass_duration_seconds",
				Help:    "Duration of export passes in seconds",
				Buckets: PassLatencyBuckets,
			},
			[]string{"pass", "status"},
		),
		PointerEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posterqr_pointer_events_total",
				Help: "Pointer events received by kind",
			},
			[]string{"kind"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posterqr_uploads_total",
				Help: "Base image uploads by result",
			},
			[]string{"result"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posterqr_active_sessions",
			Help: "Editing sessions held in memory",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.ExportsTotal, m.ExportPassDuration, m.PointerEventsTotal, m.UploadsTotal, m.ActiveSessions)
	return m
}

// ObservePass implements export.Observer.
func (m *Metrics) ObservePass(pass string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ExportPassDuration.WithLabelValues(pass, status).Observe(d.Seconds())
}

// ObserveExport implements export.Observer.
func (m *Metrics) ObserveExport(result string) {
	m.ExportsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
