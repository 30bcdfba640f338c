package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SubmissionOutcomes *prometheus.CounterVec
	SubmissionRetries  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		SubmissionOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_submissions_total",
				Help: "Quiz submissions by outcome",
			},
			[]string{"outcome"},
		),
		SubmissionRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quiz_submission_retries_total",
				Help: "Read-modify-write retries caused by version conflicts",
			},
		),
	}
	reg.MustRegister(m.RequestCounter, m.RequestDuration, m.SubmissionOutcomes, m.SubmissionRetries)
	return m
}

// ObserveSubmission counts a submission outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveRetry counts a version-conflict retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.SubmissionRetries.Inc()
}
