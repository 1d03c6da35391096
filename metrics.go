package jwtguard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records validation outcomes. result is one of the values returned
// by core.Result.
type Metrics interface {
	ObserveValidation(result string, duration time.Duration)
}

// NoopMetrics is a default metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) ObserveValidation(string, time.Duration) {}

// PrometheusMetrics implements Metrics using Prometheus.
type PrometheusMetrics struct {
	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the jwtguard collectors and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jwtguard_validations_total",
				Help: "Number of bearer token validations by result.",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jwtguard_validation_duration_seconds",
				Help:    "Time spent validating a bearer token, by result.",
				Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.validations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveValidation(result string, duration time.Duration) {
	m.validations.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(duration.Seconds())
}
