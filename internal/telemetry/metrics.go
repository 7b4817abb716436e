// Package telemetry exposes Prometheus metrics for resolutions, registry
// reloads and batch runs. Metrics live in their own registry so several
// Metrics values never collide.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

const namespace = "ctxindex"

// Metrics records ctxindex activity.
type Metrics struct {
	registry *prometheus.Registry

	Resolutions *prometheus.CounterVec
	Selected    *prometheus.CounterVec
	Candidates  prometheus.Histogram
	Reloads     *prometheus.CounterVec
	BatchItems  *prometheus.CounterVec
}

var _ resolver.Observer = (*Metrics)(nil)

// New creates metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Index resolutions by selection reason.",
			},
			[]string{"reason", "fallback"},
		),
		Selected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "selected_total",
				Help:      "Resolutions won by each index.",
			},
			[]string{"index"},
		),
		Candidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "candidates",
				Help:      "Candidate indexes considered per resolution.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8},
			},
		),
		Reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "reloads_total",
				Help:      "Configuration reloads by result.",
			},
			[]string{"result"},
		),
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "items_total",
				Help:      "Batch items by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveResolution records one resolution.
func (m *Metrics) ObserveResolution(exp resolver.Explanation) {
	m.Resolutions.WithLabelValues(string(exp.Reason), strconv.FormatBool(exp.Fallback)).Inc()
	m.Candidates.Observe(float64(len(exp.Candidates)))
	if exp.IndexName != "" {
		m.Selected.WithLabelValues(exp.IndexName).Inc()
	}
}

// ObserveReload records a registry reload outcome.
func (m *Metrics) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Reloads.WithLabelValues(result).Inc()
}

// ObserveBatchItem records one batch item outcome such as "indexed",
// "unresolved" or "failed".
func (m *Metrics) ObserveBatchItem(outcome string) {
	m.BatchItems.WithLabelValues(outcome).Inc()
}

// Registry returns the Prometheus registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
