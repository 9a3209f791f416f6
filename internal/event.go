// Event record: an immutable description of one scheduled unit of work,
// plus the narrow cancellation capability handed back to submitters.

package eventsched_internal

import "sync/atomic"

// EventBody is a unit of scheduled work: no arguments, no return.
type EventBody func()

// nextSeq is the process-wide monotonic insertion-sequence generator. Two
// events submitted anywhere in the process never share a sequence number,
// which is what makes the (t, seq) ordering a total order even across
// schedulers sharing a backing store (C7).
var nextSeq uint64

func allocSeq() uint64 {
	return atomic.AddUint64(&nextSeq, 1)
}

// Event is an immutable record once constructed, save for the cancelled
// flag, which is mutable and monotonic false->true. Identity is reference
// identity: two Events with identical fields are still distinct.
type Event struct {
	// Scheduled virtual (or wall-scalar) time.
	t float64
	// Monotonic insertion sequence, used as the tie-break when t is equal.
	seq uint64
	// Human-readable description, used in logs and failure routing.
	desc string
	// The callable body.
	body EventBody
	// Daemon events don't keep a scheduler alive for termination purposes.
	daemon bool
	// cancelled is flipped exactly once, false->true, by Handle.Cancel.
	cancelled atomic.Bool
}

// NewEvent constructs an Event. body may be nil, in which case invoking the
// event is a no-op.
func NewEvent(t float64, body EventBody, desc string, daemon bool) *Event {
	return &Event{
		t:      t,
		seq:    allocSeq(),
		desc:   desc,
		body:   body,
		daemon: daemon,
	}
}

func (e *Event) Time() float64       { return e.t }
func (e *Event) Seq() uint64         { return e.seq }
func (e *Event) Description() string { return e.desc }
func (e *Event) IsDaemon() bool      { return e.daemon }
func (e *Event) IsCancelled() bool   { return e.cancelled.Load() }

// cancel marks the event cancelled; idempotent. Returns true the first time
// it actually flips the flag (used by ready-queue disciplines that need to
// adjust occupancy counters exactly once).
func (e *Event) cancel() bool {
	return e.cancelled.CompareAndSwap(false, true)
}

// invoke runs the event body, if any. Panics are not recovered here: the
// caller (the scheduler loop, via failure.go) is responsible for wrapping
// invocation in the failure-routing guard.
func (e *Event) invoke() {
	if e.body != nil {
		e.body()
	}
}

// Less implements the (t, seq) ordering invariant used everywhere events
// are ranked.
func Less(a, b *Event) bool {
	if a.t != b.t {
		return a.t < b.t
	}
	return a.seq < b.seq
}

// Handle is the narrow capability returned to a submitter: cancel() and
// isCancelled(), bound to a single Event. A nil *Handle is the "quiet
// rejection" return value used by post-stop submissions: Cancel and
// IsCancelled are safe no-ops on a nil *Handle.
type Handle struct {
	event *Event
}

func newHandle(e *Event) *Handle {
	return &Handle{event: e}
}

// Cancel is idempotent; cancelling an already-fired event is a no-op.
func (h *Handle) Cancel() {
	if h == nil || h.event == nil {
		return
	}
	h.event.cancel()
}

func (h *Handle) IsCancelled() bool {
	if h == nil || h.event == nil {
		return false
	}
	return h.event.IsCancelled()
}

// Description exposes the underlying event's description, useful for
// logging from code holding only a Handle.
func (h *Handle) Description() string {
	if h == nil || h.event == nil {
		return ""
	}
	return h.event.desc
}
