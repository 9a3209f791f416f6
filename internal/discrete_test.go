package eventsched_internal

import (
	"errors"
	"testing"
)

func newPausedDiscreteScheduler() *DiscreteScheduler {
	cfg := DefaultDiscreteSchedulerConfig()
	s := NewDiscreteScheduler(cfg)
	s.Pause()
	return s
}

// TestDiscreteSchedulerPriorityOrdering is scenario E1: events scheduled out
// of insertion order run back in (t, seq) order, and now() lands exactly on
// the bound even though the last event ran earlier than it.
func TestDiscreteSchedulerPriorityOrdering(t *testing.T) {
	s := newPausedDiscreteScheduler()
	var order []string
	record := func(name string) EventBody { return func() { order = append(order, name) } }

	if _, err := s.Schedule(3, record("A"), "A", false); err != nil {
		t.Fatalf("Schedule(3, A): %v", err)
	}
	if _, err := s.Schedule(2, record("B"), "B", false); err != nil {
		t.Fatalf("Schedule(2, B): %v", err)
	}
	if _, err := s.Schedule(0, record("C"), "C", false); err != nil {
		t.Fatalf("Schedule(0, C): %v", err)
	}

	if err := s.RunUntilTime(3); err != nil {
		t.Fatalf("RunUntilTime(3): %v", err)
	}

	wantOrder := []string{"C", "B", "A"}
	if len(order) != len(wantOrder) {
		t.Fatalf("invocation order = %v, want %v", order, wantOrder)
	}
	for i, name := range wantOrder {
		if order[i] != name {
			t.Errorf("invocation order[%d] = %q, want %q (full order: %v)", i, order[i], name, order)
		}
	}
	if got := s.Now(); got != 3 {
		t.Errorf("Now() = %v, want 3", got)
	}
}

// TestDiscreteSchedulerCancelMidQueue is scenario E2.
func TestDiscreteSchedulerCancelMidQueue(t *testing.T) {
	s := newPausedDiscreteScheduler()
	var xRan, yRan bool

	h, err := s.Schedule(10, func() { xRan = true }, "X", false)
	if err != nil {
		t.Fatalf("Schedule(10, X): %v", err)
	}
	if _, err := s.Schedule(20, func() { yRan = true }, "Y", false); err != nil {
		t.Fatalf("Schedule(20, Y): %v", err)
	}

	if got := s.QueueSize(); got != 2 {
		t.Fatalf("QueueSize() before cancel = %d, want 2", got)
	}

	h.Cancel()

	if err := s.RunUntilTime(30); err != nil {
		t.Fatalf("RunUntilTime(30): %v", err)
	}

	if xRan {
		t.Errorf("cancelled event X ran")
	}
	if !yRan {
		t.Errorf("event Y did not run")
	}
	if got := s.QueueSize(); got != 0 {
		t.Errorf("QueueSize() after run = %d, want 0", got)
	}
}

// TestDiscreteSchedulerDaemonInterleaving is scenario E3.
func TestDiscreteSchedulerDaemonInterleaving(t *testing.T) {
	s := newPausedDiscreteScheduler()
	var aRan, d20Ran, d60Ran bool

	if _, err := s.Schedule(50, func() { aRan = true }, "A", false); err != nil {
		t.Fatalf("Schedule(50, A): %v", err)
	}
	if _, err := s.Schedule(20, func() { d20Ran = true }, "D20", true); err != nil {
		t.Fatalf("Schedule(20, D20): %v", err)
	}
	if _, err := s.Schedule(60, func() { d60Ran = true }, "D60", true); err != nil {
		t.Fatalf("Schedule(60, D60): %v", err)
	}

	if s.HasOnlyDaemonEvents() {
		t.Fatalf("HasOnlyDaemonEvents() = true before running, want false (A is non-daemon)")
	}

	if err := s.RunUntilTime(55); err != nil {
		t.Fatalf("RunUntilTime(55): %v", err)
	}

	if !aRan {
		t.Errorf("A did not run")
	}
	if !d20Ran {
		t.Errorf("D20 did not run")
	}
	if d60Ran {
		t.Errorf("D60 ran early")
	}
	if !s.HasOnlyDaemonEvents() {
		t.Errorf("HasOnlyDaemonEvents() = false after running A and D20, want true (only D60 left)")
	}
}

func TestDiscreteSchedulerScheduleRejectsPastTime(t *testing.T) {
	s := newPausedDiscreteScheduler()
	s.RunUntilTime(10)
	if _, err := s.Schedule(5, func() {}, "e", false); !errors.Is(err, ErrTimeInPast) {
		t.Errorf("Schedule(5) after now()=10: err = %v, want ErrTimeInPast", err)
	}
}

func TestDiscreteSchedulerBoundedRunExactness(t *testing.T) {
	s := newPausedDiscreteScheduler()
	s.Schedule(2, func() {}, "e", false)
	if err := s.RunForDuration(10); err != nil {
		t.Fatalf("RunForDuration(10): %v", err)
	}
	if got := s.Now(); got != 10 {
		t.Errorf("Now() = %v, want 10 (the bound, not the last event's time)", got)
	}
}

func TestDiscreteSchedulerRunForDurationRejectsNegative(t *testing.T) {
	s := newPausedDiscreteScheduler()
	if err := s.RunForDuration(-1); !errors.Is(err, ErrIllegalArgument) {
		t.Errorf("RunForDuration(-1): err = %v, want ErrIllegalArgument", err)
	}
}

func TestDiscreteSchedulerRunForDurationRequiresPaused(t *testing.T) {
	s := NewDiscreteScheduler(DefaultDiscreteSchedulerConfig())
	if err := s.RunForDuration(1); !errors.Is(err, ErrIllegalState) {
		t.Errorf("RunForDuration on a non-paused scheduler: err = %v, want ErrIllegalState", err)
	}
}

// TestDiscreteSchedulerPauseDuringBoundedRunIsIllegalState exercises the
// Open Question decision: a body that calls Pause() while a bounded run
// (RunForDuration/RunUntilTime) is in progress yields ErrIllegalState
// rather than a guessed continuation semantics, once that body returns.
func TestDiscreteSchedulerPauseDuringBoundedRunIsIllegalState(t *testing.T) {
	s := newPausedDiscreteScheduler()
	s.Schedule(1, func() { s.Pause() }, "pauser", false)
	s.Schedule(2, func() {}, "second", false)

	err := s.RunForDuration(5)
	if !errors.Is(err, ErrIllegalState) {
		t.Errorf("RunForDuration() after a body paused mid-run: err = %v, want ErrIllegalState", err)
	}
}

func TestDiscreteSchedulerQuietPostStop(t *testing.T) {
	s := NewDiscreteScheduler(DefaultDiscreteSchedulerConfig())
	s.Stop()

	bodyRan := false
	h, err := s.Schedule(0, func() { bodyRan = true }, "e", false)
	if err != nil {
		t.Errorf("Schedule after Stop: err = %v, want nil (quiet rejection)", err)
	}
	if h != nil {
		t.Errorf("Schedule after Stop: handle = %v, want nil", h)
	}
	if bodyRan {
		t.Errorf("body ran after Stop")
	}
}

func TestDiscreteSchedulerFailureRoutingCanStopScheduler(t *testing.T) {
	cfg := DefaultDiscreteSchedulerConfig()
	cfg.StopOnFailure = true
	s := NewDiscreteScheduler(cfg)
	s.Pause()

	var gotDesc string
	var gotErr error
	s.RegisterFailureListener(func(desc string, err error) {
		gotDesc = desc
		gotErr = err
	})

	s.Schedule(0, func() { panic("boom") }, "failing", false)
	s.Schedule(1, func() {}, "never-runs", false)

	s.RunForDuration(10)

	if gotDesc != "failing" {
		t.Errorf("failure listener desc = %q, want %q", gotDesc, "failing")
	}
	if !errors.Is(gotErr, ErrEventBodyFailure) {
		t.Errorf("failure listener err = %v, want wrapping ErrEventBodyFailure", gotErr)
	}
	if !s.IsStopped() {
		t.Errorf("IsStopped() = false after a StopOnFailure failure, want true")
	}
}

func TestDiscreteSchedulerScheduleInAndScheduleNow(t *testing.T) {
	s := newPausedDiscreteScheduler()
	s.RunForDuration(10)

	h, err := s.ScheduleIn(5, func() {}, "delayed", false)
	if err != nil {
		t.Fatalf("ScheduleIn: %v", err)
	}
	if h == nil {
		t.Fatalf("ScheduleIn returned nil handle")
	}

	var nowRan bool
	if _, err := s.ScheduleNow(func() { nowRan = true }, "now"); err != nil {
		t.Fatalf("ScheduleNow: %v", err)
	}
	s.RunForDuration(0)
	if !nowRan {
		t.Errorf("ScheduleNow body did not run at the current bound")
	}
}

// --- PassiveScheduler ---

func TestPassiveSchedulerExecuteOverdueEvents(t *testing.T) {
	clock := NewVirtualTimeProvider(0)
	clock.SetTime(10)
	p := NewPassiveScheduler(clock, true)

	var early, late bool
	p.Schedule(5, func() { early = true }, "early", false)
	p.Schedule(20, func() { late = true }, "late", false)

	p.ExecuteOverdueEvents()

	if !early {
		t.Errorf("overdue event did not run")
	}
	if late {
		t.Errorf("future event ran early")
	}
	if got := p.QueueSize(); got != 1 {
		t.Errorf("QueueSize() after ExecuteOverdueEvents = %d, want 1", got)
	}
}

func TestPassiveSchedulerExecuteAllEvents(t *testing.T) {
	clock := NewVirtualTimeProvider(0)
	p := NewPassiveScheduler(clock, true)
	var ran int
	p.Schedule(1000, func() { ran++ }, "a", false)
	p.Schedule(2000, func() { ran++ }, "b", false)

	p.ExecuteAllEvents()

	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if got := p.QueueSize(); got != 0 {
		t.Errorf("QueueSize() after ExecuteAllEvents = %d, want 0", got)
	}
}

func TestPassiveSchedulerResetClearsQueue(t *testing.T) {
	clock := NewVirtualTimeProvider(0)
	p := NewPassiveScheduler(clock, true)
	p.Schedule(0, func() {}, "a", false)
	p.Reset()
	if got := p.QueueSize(); got != 0 {
		t.Errorf("QueueSize() after Reset = %d, want 0", got)
	}
}

func TestPassiveSchedulerHasOnlyDaemonEvents(t *testing.T) {
	clock := NewVirtualTimeProvider(0)
	p := NewPassiveScheduler(clock, true)
	p.Schedule(0, func() {}, "daemon", true)
	if !p.HasOnlyDaemonEvents() {
		t.Errorf("HasOnlyDaemonEvents() = false with only a daemon event queued")
	}
	p.Schedule(0, func() {}, "non-daemon", false)
	if p.HasOnlyDaemonEvents() {
		t.Errorf("HasOnlyDaemonEvents() = true with a non-daemon event queued")
	}
}
