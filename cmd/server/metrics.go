package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamcoop/easyrules/internal/logger"
	"github.com/liamcoop/easyrules/rules"
)

// Metrics exposes registry and evaluation counters on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
}

// NewMetrics registers collectors for the given rule registry
func NewMetrics(registry *rules.Registry) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyrules_condition_evaluations_total",
			Help: "Rule condition evaluations by result (matched, unmatched, error).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.evaluations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "easyrules_registered_rules",
			Help: "Number of rules currently registered.",
		}, func() float64 {
			return float64(registry.Len())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "easyrules_priority_ties_total",
			Help: "Registrations that tied an existing rule on precedence.",
		}, func() float64 {
			return float64(logger.TotalPriorityTies.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "easyrules_condition_errors_total",
			Help: "Conditions that failed to evaluate.",
		}, func() float64 {
			return float64(logger.TotalConditionErrors.Load())
		}),
	)

	return m
}

// ObserveResults counts each evaluation result
func (m *Metrics) ObserveResults(results []*rules.EvaluationResult) {
	for _, result := range results {
		switch {
		case result.Error != nil:
			m.evaluations.WithLabelValues("error").Inc()
		case result.Matched:
			m.evaluations.WithLabelValues("matched").Inc()
		default:
			m.evaluations.WithLabelValues("unmatched").Inc()
		}
	}
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
