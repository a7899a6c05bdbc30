package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OperationMetrics records the lifecycle of a service operation.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// SubmissionMetrics adds flag submission outcomes to OperationMetrics.
type SubmissionMetrics interface {
	OperationMetrics
	RecordSubmission(ctx context.Context, challenge, outcome string)
	RecordPointsAwarded(ctx context.Context, challenge string, points float64)
}

type prometheusMetrics struct {
	attempts    *prometheus.CounterVec
	successes   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	points      *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer) SubmissionMetrics {
	f := promauto.With(reg)
	return &prometheusMetrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medusa",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medusa",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medusa",
			Name:      "operation_failures_total",
			Help:      "Service operations that failed or panicked.",
		}, []string{"operation", "service"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medusa",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medusa",
			Name:      "flag_submissions_total",
			Help:      "Flag submissions by challenge and outcome.",
		}, []string{"challenge", "outcome"}),
		points: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medusa",
			Name:      "points_awarded",
			Help:      "Final points awarded per correct submission.",
			Buckets:   []float64{50, 100, 200, 300, 450, 600, 750, 1000},
		}, []string{"challenge"}),
	}
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordSubmission(_ context.Context, challenge, outcome string) {
	m.submissions.WithLabelValues(challenge, outcome).Inc()
}

func (m *prometheusMetrics) RecordPointsAwarded(_ context.Context, challenge string, points float64) {
	m.points.WithLabelValues(challenge).Observe(points)
}

type noop struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() SubmissionMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordSubmission(context.Context, string, string)                       {}
func (noop) RecordPointsAwarded(context.Context, string, float64)                   {}
