package orchestrator

import (
	"github.com/Harshitk-cp/proofstream/internal/llmerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate attempt outcomes.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeAborted = "aborted"
)

// Metrics records candidate-loop activity. A nil *Metrics records nothing.
type Metrics struct {
	attempts  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// attempts counts candidate attempts by provider and outcome
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofstream_candidate_attempts_total",
			Help: "Candidate attempts by provider and outcome",
		}, []string{"provider", "outcome"}),

		// errors counts classified candidate failures
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofstream_candidate_errors_total",
			Help: "Classified candidate failures by error kind",
		}, []string{"kind"}),

		// exhausted counts requests whose whole candidate chain failed
		exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofstream_chain_exhausted_total",
			Help: "Requests that exhausted their candidate chain, by flow",
		}, []string{"flow"}),

		// duration tracks model stream time per provider
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofstream_model_stream_duration_seconds",
			Help:    "Model stream duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}, []string{"provider"}),
	}
}

func (m *Metrics) attempt(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) failure(kind llmerr.Kind) {
	if m == nil {
		return
	}
	label := string(kind)
	if label == "" {
		label = "UNKNOWN"
	}
	m.errors.WithLabelValues(label).Inc()
}

func (m *Metrics) chainExhausted(flow string) {
	if m == nil {
		return
	}
	m.exhausted.WithLabelValues(flow).Inc()
}
