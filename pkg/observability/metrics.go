package observability

import (
	"sort"
	"sync"
	"time"
)

// Metrics provides an interface for recording application metrics.
type Metrics interface {
	// Counter increments a counter metric.
	Counter(name string, value int64, tags ...Tag)

	// Gauge sets a gauge metric to the given value.
	Gauge(name string, value float64, tags ...Tag)

	// Timing records a duration.
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag represents a key-value pair for metric labeling.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

func (NoopMetrics) Counter(name string, value int64, tags ...Tag) {}
func (NoopMetrics) Gauge(name string, value float64, tags ...Tag) {}
func (NoopMetrics) Timing(name string, duration time.Duration, tags ...Tag) {}

// InMemoryMetrics keeps metrics in process. It backs the /metrics endpoint.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*timingStats
}

type timingStats struct {
	count int64
	total time.Duration
	max   time.Duration
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*timingStats),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[formatKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := formatKey(name, tags)
	s, ok := m.timings[key]
	if !ok {
		s = &timingStats{}
		m.timings[key] = s
	}
	s.count++
	s.total += duration
	if duration > s.max {
		s.max = duration
	}
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns the current value of a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetTimingCount returns how many durations were recorded.
func (m *InMemoryMetrics) GetTimingCount(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.timings[formatKey(name, tags)]; ok {
		return s.count
	}
	return 0
}

// TimingSummary aggregates recorded durations.
type TimingSummary struct {
	Count   int64   `json:"count"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Counters map[string]int64         `json:"counters"`
	Gauges   map[string]float64       `json:"gauges"`
	Timings  map[string]TimingSummary `json:"timings"`
}

// Snapshot copies the current metric values.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]TimingSummary, len(m.timings)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.gauges {
		snap.Gauges[k] = v
	}
	for k, s := range m.timings {
		snap.Timings[k] = TimingSummary{
			Count:   s.count,
			TotalMS: float64(s.total) / float64(time.Millisecond),
			MaxMS:   float64(s.max) / float64(time.Millisecond),
		}
	}
	return snap
}

// Reset clears all recorded metrics.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timings = make(map[string]*timingStats)
}

// formatKey renders name and tags as name{k=v,...} with tags sorted by key.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	key := name + "{"
	for i, t := range sorted {
		if i > 0 {
			key += ","
		}
		key += t.Key + "=" + t.Value
	}
	return key + "}"
}

// Metric names.
const (
	MetricChatEvents       = "meetbridge.chat.events"
	MetricHandlerDuration  = "meetbridge.handler.duration"
	MetricHandlerPanics    = "meetbridge.handler.panics"
	MetricMeetingsTracked  = "meetbridge.meetings.tracked"
	MetricEnrollments      = "meetbridge.enrollments"
	MetricAttendeeAdd      = "meetbridge.calendar.attendee_add"
	MetricProfileCacheHits = "meetbridge.profile_cache.hits"
	MetricProfileCacheMiss = "meetbridge.profile_cache.misses"
	MetricEventsPublished  = "meetbridge.events.published"
	MetricEventsConsumed   = "meetbridge.events.consumed"
	MetricTrackedRecords   = "meetbridge.store.records"
)
