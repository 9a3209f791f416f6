package eventsched_internal

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSchedulerMetricsRecordAccumulatesPerDescription(t *testing.T) {
	m := newSchedulerMetrics()
	m.recordScheduled("a")
	m.recordScheduled("a")
	m.recordExecuted("a")
	m.recordFailed("a")
	m.recordCancelled("b")

	snap := m.snapshot()

	a, ok := snap["a"]
	if !ok {
		t.Fatalf("snapshot missing entry for \"a\"")
	}
	if got := a.Uint64Stats[EVENT_STATS_SCHEDULED_COUNT]; got != 2 {
		t.Errorf("a scheduled count = %d, want 2", got)
	}
	if got := a.Uint64Stats[EVENT_STATS_EXECUTED_COUNT]; got != 1 {
		t.Errorf("a executed count = %d, want 1", got)
	}
	if got := a.Uint64Stats[EVENT_STATS_FAILED_COUNT]; got != 1 {
		t.Errorf("a failed count = %d, want 1", got)
	}

	b, ok := snap["b"]
	if !ok {
		t.Fatalf("snapshot missing entry for \"b\"")
	}
	if got := b.Uint64Stats[EVENT_STATS_CANCELLED_COUNT]; got != 1 {
		t.Errorf("b cancelled count = %d, want 1", got)
	}
}

func TestSchedulerMetricsSnapshotIsADeepCopy(t *testing.T) {
	m := newSchedulerMetrics()
	m.recordScheduled("a")

	snap := m.snapshot()
	snap["a"].Uint64Stats[EVENT_STATS_SCHEDULED_COUNT] = 999

	snap2 := m.snapshot()
	if got := snap2["a"].Uint64Stats[EVENT_STATS_SCHEDULED_COUNT]; got != 1 {
		t.Errorf("mutating a snapshot leaked into live stats: got %d, want 1", got)
	}
}

func TestWriteMetricsEmitsOneLinePerStat(t *testing.T) {
	m := newSchedulerMetrics()
	m.recordScheduled("tick")
	m.recordExecuted("tick")

	var buf bytes.Buffer
	WriteMetrics(&buf, "sched1", m.snapshot())

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != EVENT_STATS_UINT64_LEN {
		t.Fatalf("line count = %d, want %d:\n%s", len(lines), EVENT_STATS_UINT64_LEN, out)
	}
	if !strings.Contains(out, `eventsched_event_scheduled_total{scheduler="sched1",event="tick"} 1`) {
		t.Errorf("missing expected scheduled-count line:\n%s", out)
	}
	if !strings.Contains(out, `eventsched_event_executed_total{scheduler="sched1",event="tick"} 1`) {
		t.Errorf("missing expected executed-count line:\n%s", out)
	}
}

func TestHumanRuntimeRendersSecondsAndBelow(t *testing.T) {
	got := humanRuntime(uint64(2500 * time.Millisecond / time.Microsecond))
	if got == "" {
		t.Fatalf("humanRuntime returned empty string")
	}
	if !strings.Contains(got, "2") {
		t.Errorf("humanRuntime(2.5s) = %q, want it to mention 2 seconds", got)
	}
}
