package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus instruments. A nil *Metrics is
// valid and records nothing, which keeps tests and one-off tools simple.
type Metrics struct {
	generationAttempts prometheus.Counter
	fallbacks          prometheus.Counter
	failures           *prometheus.CounterVec
	resourcesDropped   prometheus.Counter
	planDuration       prometheus.Histogram
}

// NewMetrics registers the pipeline instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generationAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwise_generation_attempts_total",
			Help: "Content-generation calls made against the backend, including retries.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwise_fallback_plans_total",
			Help: "Requests answered with a locally synthesized fallback plan.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathwise_generation_failures_total",
			Help: "Terminal pipeline failures by classification.",
		}, []string{"kind"}),
		resourcesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwise_resources_dropped_total",
			Help: "Resources removed because their URL failed validation.",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathwise_plan_duration_seconds",
			Help:    "End-to-end plan generation latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
	reg.MustRegister(m.generationAttempts, m.fallbacks, m.failures, m.resourcesDropped, m.planDuration)
	return m
}

func (m *Metrics) attempt() {
	if m != nil {
		m.generationAttempts.Inc()
	}
}

func (m *Metrics) fallback() {
	if m != nil {
		m.fallbacks.Inc()
	}
}

func (m *Metrics) failure(kind FailureKind) {
	if m != nil {
		m.failures.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) dropped(n int) {
	if m != nil && n > 0 {
		m.resourcesDropped.Add(float64(n))
	}
}

func (m *Metrics) observeDuration(seconds float64) {
	if m != nil {
		m.planDuration.Observe(seconds)
	}
}
