package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcome and latency of checkout attempts.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	blocked  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	blocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_blocked_total",
		Help: "Checkouts blocked during validation, by conflict reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, attempts, blocked)
	return &CheckoutMetrics{
		duration: duration,
		attempts: attempts,
		blocked:  blocked,
	}
}

// ObserveDuration records the duration for the given terminal outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncAttempt increments the attempt counter for the given outcome.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBlocked increments the blocked counter for the given conflict reason.
func (c *CheckoutMetrics) IncBlocked(reason string) {
	if c == nil || c.blocked == nil {
		return
	}
	c.blocked.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
