package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tundr_bench"

// Metrics are the Prometheus collectors of the evaluation service.
type Metrics struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	problems    prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Number of objective evaluations by problem and outcome.",
		}, []string{"problem", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating objective functions.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"problem"}),
		problems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "problems",
			Help:      "Number of problem instances served.",
		}),
	}
}
