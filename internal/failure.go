// Failure routing: every event invocation is wrapped so that a panic in the
// body is captured, delivered to registered failure listeners in
// registration order, and optionally stops the owning scheduler.

package eventsched_internal

import (
	"fmt"
	"sync"
)

var failureLog = NewCompLogger("failure")

// FailureListener receives the event's description and the recovered error
// for every event body that failed. It is never invoked concurrently with
// itself for the same scheduler, since invocation happens on the single
// logical thread of the owning scheduler.
type FailureListener func(desc string, err error)

// failureRouter is embedded by each scheduler variant; StopOnFailure
// controls whether a routed failure also requests the owning scheduler to
// stop (default true).
type failureRouter struct {
	mu            sync.Mutex
	listeners     []FailureListener
	stopOnFailure bool
}

func newFailureRouter(stopOnFailure bool) *failureRouter {
	return &failureRouter{stopOnFailure: stopOnFailure}
}

func (fr *failureRouter) register(l FailureListener) {
	if l == nil {
		return
	}
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.listeners = append(fr.listeners, l)
}

func (fr *failureRouter) snapshot() []FailureListener {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	out := make([]FailureListener, len(fr.listeners))
	copy(out, fr.listeners)
	return out
}

// route delivers err (already wrapped as ErrEventBodyFailure) for desc to
// every registered listener, in registration order, and reports whether the
// owning scheduler should stop as a consequence.
func (fr *failureRouter) route(desc string, err error) (shouldStop bool) {
	for _, l := range fr.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					failureLog.Errorf("failure listener panicked handling %q: %v", desc, r)
				}
			}()
			l(desc, err)
		}()
	}
	return fr.stopOnFailure
}

// invokeGuarded runs e's body, recovering any panic and routing it through
// fr. It returns true if the invocation failed (and, via fr, whether the
// scheduler should stop as a result).
func invokeGuarded(e *Event, fr *failureRouter) (failed bool, shouldStop bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: %v", ErrEventBodyFailure, e.desc, r)
			failed = true
			shouldStop = fr.route(e.desc, err)
		}
	}()
	e.invoke()
	return false, false
}
