package app

import (
	"time"

	"classroom-quiz-service/internal/metrics"
)

type options struct {
	now      func() time.Time
	retries  int
	metrics  *metrics.Metrics
	notifier *NotificationService
}

// Option customizes the services in this package.
type Option func(*options)

// WithClock replaces time.Now, mainly for deterministic window checks in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSubmitRetries bounds version-conflict retries per quiz mutation.
func WithSubmitRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithMetrics records submission outcomes and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithNotifier fans quiz events out to user inboxes.
func WithNotifier(n *NotificationService) Option {
	return func(o *options) { o.notifier = n }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, retries: defaultSubmitRetries}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
