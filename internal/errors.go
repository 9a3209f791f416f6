// Error kinds, per the scheduler's error handling design.
//
// These are sentinel errors rather than exceptions: submission-time failures
// are returned (and may be wrapped with context via %w), execution-time
// failures are routed to failure listeners (see failure.go) and never
// propagate back to the submitter.

package eventsched_internal

import "errors"

var (
	// ErrTimeUnitNotSpecified is returned by unit-aware API paths (DoAtInstant,
	// DoInDuration, ...) on a scheduler configured without a TimeUnit.
	ErrTimeUnitNotSpecified = errors.New("time unit not specified for this scheduler")

	// ErrTimeInPast is returned by a discrete scheduler when asked to schedule
	// an event at t < now().
	ErrTimeInPast = errors.New("scheduled time is in the past")

	// ErrIllegalArgument is returned for a non-positive repeating-work period,
	// a negative bounded-run duration, or a bounded-run target already passed.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrIllegalState is returned when a bounded-run API is invoked while the
	// scheduler isn't paused, reentrantly, or on an invalid pause/unpause
	// sequence.
	ErrIllegalState = errors.New("illegal scheduler state")

	// ErrEventBodyFailure wraps a panic/error recovered from an event body. It
	// is delivered to registered failure listeners and is never returned to a
	// submitter.
	ErrEventBodyFailure = errors.New("event body failure")
)
