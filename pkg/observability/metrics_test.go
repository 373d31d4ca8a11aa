package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}

	m.Counter("test", 1)
	m.Gauge("test", 1.0)
	m.Timing("test", time.Second)
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricChatEvents, 1)
		m.Counter(MetricChatEvents, 1)
		m.Counter(MetricChatEvents, 1)

		assert.Equal(t, int64(3), m.GetCounter(MetricChatEvents))
	})

	t.Run("Counter with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricEnrollments, 1, T(OutcomeKey, "enrolled"))
		m.Counter(MetricEnrollments, 1, T(OutcomeKey, "failed"))
		m.Counter(MetricEnrollments, 1, T(OutcomeKey, "enrolled"))

		assert.Equal(t, int64(2), m.GetCounter(MetricEnrollments, T(OutcomeKey, "enrolled")))
		assert.Equal(t, int64(1), m.GetCounter(MetricEnrollments, T(OutcomeKey, "failed")))
	})

	t.Run("Gauge", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge(MetricTrackedRecords, 3)
		assert.Equal(t, 3.0, m.GetGauge(MetricTrackedRecords))

		m.Gauge(MetricTrackedRecords, 4)
		assert.Equal(t, 4.0, m.GetGauge(MetricTrackedRecords))
	})

	t.Run("Timing", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Timing(MetricHandlerDuration, 100*time.Millisecond)
		m.Timing(MetricHandlerDuration, 300*time.Millisecond)

		assert.Equal(t, int64(2), m.GetTimingCount(MetricHandlerDuration))
		summary := m.Snapshot().Timings[MetricHandlerDuration]
		assert.Equal(t, int64(2), summary.Count)
		assert.InDelta(t, 400.0, summary.TotalMS, 0.001)
		assert.InDelta(t, 300.0, summary.MaxMS, 0.001)
	})

	t.Run("Snapshot is a copy", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("c", 1, T("a", "1"))

		snap := m.Snapshot()
		m.Counter("c", 1, T("a", "1"))

		assert.Equal(t, int64(1), snap.Counters["c{a=1}"])
		assert.Equal(t, int64(2), m.GetCounter("c", T("a", "1")))
	})

	t.Run("Reset", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter("test", 1)
		m.Gauge("test", 1.0)
		m.Timing("test", time.Second)

		m.Reset()

		assert.Equal(t, int64(0), m.GetCounter("test"))
		assert.Equal(t, 0.0, m.GetGauge("test"))
		assert.Equal(t, int64(0), m.GetTimingCount("test"))
	})
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		tags     []Tag
		expected string
	}{
		{
			name:     "no tags",
			metric:   "events",
			expected: "events",
		},
		{
			name:     "single tag",
			metric:   "events",
			tags:     []Tag{T("type", "message")},
			expected: "events{type=message}",
		},
		{
			name:     "tags are sorted",
			metric:   "events",
			tags:     []Tag{T("type", "reaction"), T("outcome", "enrolled")},
			expected: "events{outcome=enrolled,type=reaction}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatKey(tt.metric, tt.tags))
		})
	}
}
