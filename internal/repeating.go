// Repeating-work builder (C8): produces self-rescheduling events with
// period validation and cancellation propagation, generalizing the
// teacher's GeneratorBase periodic-task pattern (generator_base.go) from a
// single hard-coded metrics-generation body to an arbitrary caller body.

package eventsched_internal

import (
	"fmt"
	"time"
)

var repeatLog = NewCompLogger("repeat")

// RepeatingScheduler is the minimal capability the repeating-work builder
// needs from a scheduler: schedule at an absolute virtual time.
type RepeatingScheduler interface {
	Schedule(t float64, body EventBody, desc string, daemon bool) (*Handle, error)
	Now() float64
}

// RepeatingHandle cancels the chain: once cancelled, no further iteration
// is scheduled, including one already in flight whose body is executing
// (the in-flight body still completes, but does not reschedule).
type RepeatingHandle struct {
	inner *Handle // handle of the currently-pending (or currently-running) iteration
}

func (h *RepeatingHandle) Cancel() {
	if h == nil {
		return
	}
	h.inner.Cancel()
}

func (h *RepeatingHandle) IsCancelled() bool {
	if h == nil {
		return false
	}
	return h.inner.IsCancelled()
}

// StartAt schedules body to run at firstTime and then every period
// thereafter, until the returned handle is cancelled. body receives the
// virtual time it was scheduled for. period must be strictly positive.
func StartAt(
	sched RepeatingScheduler,
	firstTime, period float64,
	desc string,
	body func(scheduledAt float64),
	daemon bool,
) (*RepeatingHandle, error) {
	if period <= 0 {
		return nil, ErrIllegalArgument
	}

	rh := &RepeatingHandle{}
	repeatLog.Debugf("start %q: first=%v period=%s", desc, firstTime, humanPeriod(0, period))

	var reschedule func(at float64)
	reschedule = func(at float64) {
		h, err := sched.Schedule(at, func() {
			// If cancelled between being popped off the queue and invoked,
			// the scheduler itself already skips invocation; this check
			// additionally prevents scheduling the *next* iteration when
			// cancellation happens concurrently with this very invocation.
			if rh.IsCancelled() {
				return
			}
			body(at)
			if !rh.IsCancelled() {
				reschedule(at + period)
			}
		}, desc, daemon)
		if err != nil {
			repeatLog.Warnf("repeating task %q: failed to reschedule at %v: %v", desc, at, err)
			return
		}
		if h == nil {
			// Quiet rejection: the scheduler has stopped.
			return
		}
		rh.inner = h
	}

	reschedule(firstTime)
	return rh, nil
}

// StartIn is the delay-based form of StartAt.
func StartIn(
	sched RepeatingScheduler,
	firstDelay, period float64,
	desc string,
	body func(scheduledAt float64),
	daemon bool,
) (*RepeatingHandle, error) {
	return StartAt(sched, sched.Now()+firstDelay, period, desc, body, daemon)
}

// humanPeriod renders a virtual period for logging when the scheduler's
// time unit is known, else falls back to the bare scalar.
func humanPeriod(unit time.Duration, period float64) string {
	if unit == 0 {
		return fmt.Sprintf("%g", period)
	}
	return humanRuntime(uint64(period * float64(unit) / float64(time.Microsecond)))
}

// PassiveSchedulerRepeating, BusyLoopRepeating and RealtimeRepeating adapt
// schedulers whose native Schedule doesn't return an error (quiet rejection
// is instead signalled by a nil *Handle) to the RepeatingScheduler contract,
// so StartAt/StartIn can drive any of C4's PassiveScheduler, C5 or C6.

type PassiveSchedulerRepeating struct{ *PassiveScheduler }

func (a PassiveSchedulerRepeating) Schedule(t float64, body EventBody, desc string, daemon bool) (*Handle, error) {
	return a.PassiveScheduler.Schedule(t, body, desc, daemon), nil
}

type BusyLoopRepeating struct{ *BusyLoopScheduler }

func (a BusyLoopRepeating) Schedule(t float64, body EventBody, desc string, daemon bool) (*Handle, error) {
	return a.BusyLoopScheduler.Schedule(t, body, desc, daemon), nil
}

type RealtimeRepeating struct{ *RealtimeExecutorScheduler }

func (a RealtimeRepeating) Schedule(t float64, body EventBody, desc string, daemon bool) (*Handle, error) {
	return a.RealtimeExecutorScheduler.DoAt(t, body, desc, daemon), nil
}
