// Scheduler internal metrics: per-event-description counters, exposed as a
// snapshot map and, optionally, as Prometheus-exposition-style text. This
// generalizes a per-task stats layout (indexed by task id) to
// per-event-description stats, since plain Event/Handle submissions (C2)
// don't carry a task id the way a periodic generator would.

package eventsched_internal

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	units "github.com/docker/go-units"
)

const (
	// Indexes into EventStats.Uint64Stats. No scheduler in this package
	// records EVENT_STATS_TOTAL_RUNTIME_USEC, so that slot stays 0.
	EVENT_STATS_SCHEDULED_COUNT = iota
	EVENT_STATS_EXECUTED_COUNT
	EVENT_STATS_FAILED_COUNT
	EVENT_STATS_CANCELLED_COUNT
	EVENT_STATS_TOTAL_RUNTIME_USEC
	EVENT_STATS_UINT64_LEN
)

type EventStats struct {
	Uint64Stats []uint64
}

func newEventStats() *EventStats {
	return &EventStats{Uint64Stats: make([]uint64, EVENT_STATS_UINT64_LEN)}
}

// SchedulerStats maps an event description to its accumulated stats.
type SchedulerStats map[string]*EventStats

type schedulerMetrics struct {
	mu    sync.Mutex
	stats SchedulerStats
}

func newSchedulerMetrics() *schedulerMetrics {
	return &schedulerMetrics{stats: make(SchedulerStats)}
}

func (m *schedulerMetrics) get(desc string) *EventStats {
	st := m.stats[desc]
	if st == nil {
		st = newEventStats()
		m.stats[desc] = st
	}
	return st
}

func (m *schedulerMetrics) recordScheduled(desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(desc).Uint64Stats[EVENT_STATS_SCHEDULED_COUNT]++
}

func (m *schedulerMetrics) recordExecuted(desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(desc).Uint64Stats[EVENT_STATS_EXECUTED_COUNT]++
}

func (m *schedulerMetrics) recordFailed(desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(desc).Uint64Stats[EVENT_STATS_FAILED_COUNT]++
}

func (m *schedulerMetrics) recordCancelled(desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(desc).Uint64Stats[EVENT_STATS_CANCELLED_COUNT]++
}

// snapshot returns a deep copy of the current stats.
func (m *schedulerMetrics) snapshot() SchedulerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	to := make(SchedulerStats, len(m.stats))
	for desc, st := range m.stats {
		toSt := newEventStats()
		copy(toSt.Uint64Stats, st.Uint64Stats)
		to[desc] = toSt
	}
	return to
}

var metricsStatNames = [EVENT_STATS_UINT64_LEN]string{
	EVENT_STATS_SCHEDULED_COUNT:    "eventsched_event_scheduled_total",
	EVENT_STATS_EXECUTED_COUNT:     "eventsched_event_executed_total",
	EVENT_STATS_FAILED_COUNT:       "eventsched_event_failed_total",
	EVENT_STATS_CANCELLED_COUNT:    "eventsched_event_cancelled_total",
	EVENT_STATS_TOTAL_RUNTIME_USEC: "eventsched_event_runtime_usec_total",
}

// WriteMetrics renders stats as Prometheus-exposition-style text lines,
// labeled with the given scheduler name, via plain fmt.Fprintf into buf
// rather than pulling in a metrics client library for a handful of
// counters.
func WriteMetrics(buf *bytes.Buffer, schedulerName string, stats SchedulerStats) {
	for desc, st := range stats {
		for idx, name := range metricsStatNames {
			fmt.Fprintf(
				buf,
				"%s{scheduler=%q,event=%q} %d\n",
				name, schedulerName, desc, st.Uint64Stats[idx],
			)
		}
	}
}

// humanRuntime renders a microsecond count the way logs want to see it,
// reusing go-units' duration humanizer rather than hand-rolling one.
func humanRuntime(usec uint64) string {
	return units.HumanDuration(time.Duration(usec) * time.Microsecond)
}
