// Package telemetry holds the metrics contract used by service wrappers and
// its Prometheus implementation.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the operation-level contract every service records against.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// DomainMetrics adds the counters specific to the scoring core.
type DomainMetrics interface {
	Metrics
	RecordSubmission(ctx context.Context, correct bool)
	RecordFirstBlood(ctx context.Context)
	RecordRecalculation(ctx context.Context, challenges int, duration time.Duration)
}

const namespace = "ctf"

// Prometheus implements DomainMetrics on a prometheus registry.
type Prometheus struct {
	attempts    *prometheus.CounterVec
	successes   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	firstBloods prometheus.Counter
	recalcRuns  prometheus.Counter
	recalcSize  prometheus.Gauge
	recalcTime  prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	labels := []string{"operation", "service"}
	p := &Prometheus{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations completed without infrastructure error.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an infrastructure error or panicked.",
		}, labels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Recorded flag submissions by verdict.",
		}, []string{"verdict"}),
		firstBloods: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "first_bloods_total",
			Help:      "Challenges solved for the first time.",
		}),
		recalcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_recalculations_total",
			Help:      "Completed dynamic score recalculation runs.",
		}),
		recalcSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score_recalculation_challenges",
			Help:      "Challenges processed by the last recalculation run.",
		}),
		recalcTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_recalculation_duration_seconds",
			Help:      "Duration of recalculation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	reg.MustRegister(
		p.attempts, p.successes, p.failures, p.durations,
		p.submissions, p.firstBloods, p.recalcRuns, p.recalcSize, p.recalcTime,
	)
	return p
}

func (p *Prometheus) RecordOperationAttempt(_ context.Context, operation, service string) {
	p.attempts.WithLabelValues(operation, service).Inc()
}

func (p *Prometheus) RecordOperationSuccess(_ context.Context, operation, service string) {
	p.successes.WithLabelValues(operation, service).Inc()
}

func (p *Prometheus) RecordOperationFailure(_ context.Context, operation, service string) {
	p.failures.WithLabelValues(operation, service).Inc()
}

func (p *Prometheus) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	p.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (p *Prometheus) RecordSubmission(_ context.Context, correct bool) {
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	p.submissions.WithLabelValues(verdict).Inc()
}

func (p *Prometheus) RecordFirstBlood(_ context.Context) {
	p.firstBloods.Inc()
}

func (p *Prometheus) RecordRecalculation(_ context.Context, challenges int, duration time.Duration) {
	p.recalcRuns.Inc()
	p.recalcSize.Set(float64(challenges))
	p.recalcTime.Observe(duration.Seconds())
}

// Noop discards everything.
type Noop struct{}

// NewNoop returns a metrics sink that records nothing.
func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (Noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (Noop) RecordOperationFailure(context.Context, string, string)                 {}
func (Noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (Noop) RecordSubmission(context.Context, bool)                                 {}
func (Noop) RecordFirstBlood(context.Context)                                       {}
func (Noop) RecordRecalculation(context.Context, int, time.Duration)                {}

var (
	_ DomainMetrics = (*Prometheus)(nil)
	_ DomainMetrics = (*Noop)(nil)
)
