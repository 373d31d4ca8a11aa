package observability

import (
	"log/slog"
	"time"
)

// Timer tracks the duration of an operation and records it as a metric.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
}

// StartTimer creates a new timer for the given operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
	}
}

// WithLogger logs the duration at debug level on stop.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics adds a metrics collector to the timer.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags adds tags to the timer for metrics labeling.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records the duration under MetricHandlerDuration tagged with the
// operation and outcome.
func (t *Timer) Stop(outcome string) time.Duration {
	duration := time.Since(t.start)

	if t.logger != nil {
		t.logger.Debug("operation completed",
			"operation", t.operation,
			OutcomeKey, outcome,
			DurationKey, duration.Milliseconds(),
		)
	}

	if t.metrics != nil {
		tags := make([]Tag, 0, len(t.tags)+2)
		tags = append(tags, t.tags...)
		tags = append(tags, T("operation", t.operation), T(OutcomeKey, outcome))
		t.metrics.Timing(MetricHandlerDuration, duration, tags...)
	}

	return duration
}

// Elapsed returns the elapsed time without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
