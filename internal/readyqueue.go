// Ready queues (C3): four interchangeable disciplines serving the busy-loop
// dispatcher (C6). All four share the tie-break rule: immediates drain
// before scheduled work, and within each bucket insertion order (sequence
// number) is preserved; NextDue skips (and drops) cancelled events.

package eventsched_internal

import "container/heap"

// ReadyQueueDiscipline names the four disciplines, used by config and the
// ready-queue factory (§6's "ready-queue factory ... parameterised by
// discipline and (for ring) size/overflow").
type ReadyQueueDiscipline string

const (
	DisciplineSwitching   ReadyQueueDiscipline = "switching"
	DisciplinePriority    ReadyQueueDiscipline = "priority"
	DisciplineRing        ReadyQueueDiscipline = "ring"
	DisciplineSplitRing   ReadyQueueDiscipline = "split_ring"
	RING_DEFAULT_CAPACITY                      = 64
)

// ReadyQueue is the common contract for all four disciplines.
type ReadyQueue interface {
	// AddImmediate pushes an event whose t == now at submission time.
	AddImmediate(e *Event)
	// AddScheduled pushes a future event.
	AddScheduled(e *Event)
	// Remove attempts to take e out of the structure; returns true if found.
	// Ring-backed disciplines (and the switching discipline's immediate
	// lists) defer physical removal to surfacing time: for an entry found
	// there, Remove leaves it in place (the caller has already set its
	// cancelled flag, so NextDue drops it) and still returns true.
	Remove(e *Event) bool
	// NextDue returns (and removes) the next event whose t <= now, skipping
	// and dropping any cancelled event encountered along the way. Returns
	// nil if nothing is due.
	NextDue(now float64) *Event
	Size() int
	HasOnlyDaemonEvents() bool
}

// eventHeap is a (t, seq)-ordered min-heap of *Event, shared by all four
// disciplines for the "future work" side.
type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return Less(h[i], h[j]) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)         { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// popDueCancelledSkipping pops and discards cancelled heap entries until it
// finds a live one with t <= now, or the heap is exhausted.
func popDueCancelledSkipping(h *eventHeap, now float64) *Event {
	for h.Len() > 0 {
		top := (*h)[0]
		if top.t > now {
			return nil
		}
		heap.Pop(h)
		if top.IsCancelled() {
			continue
		}
		return top
	}
	return nil
}

func removeFromHeap(h *eventHeap, e *Event) bool {
	for i, candidate := range *h {
		if candidate == e {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

func heapHasOnlyDaemon(h eventHeap) bool {
	for _, e := range h {
		if !e.IsDaemon() && !e.IsCancelled() {
			return false
		}
	}
	return true
}

// --- Priority discipline: a single min-heap, immediates stored with t==now ---

type priorityQueue struct {
	h eventHeap
}

// NewPriorityReadyQueue is the simplest correctness baseline, used as the
// reference implementation against which the other three are tested.
func NewPriorityReadyQueue() ReadyQueue {
	return &priorityQueue{}
}

func (q *priorityQueue) AddImmediate(e *Event) { heap.Push(&q.h, e) }
func (q *priorityQueue) AddScheduled(e *Event) { heap.Push(&q.h, e) }
func (q *priorityQueue) Remove(e *Event) bool  { return removeFromHeap(&q.h, e) }
func (q *priorityQueue) NextDue(now float64) *Event {
	return popDueCancelledSkipping(&q.h, now)
}
func (q *priorityQueue) Size() int { return q.h.Len() }
func (q *priorityQueue) HasOnlyDaemonEvents() bool {
	return heapHasOnlyDaemon(q.h)
}

// --- Switching discipline: two lists for immediates (writer/reader swap), heap for future ---

type switchingQueue struct {
	writeList []*Event // writer appends here
	readList  []*Event // reader drains from the front here
	readPos   int
	future    eventHeap
}

// NewSwitchingReadyQueue minimises contention between a producer submitting
// immediates and the consumer draining them: the writer always appends to
// writeList; the reader swaps writeList/readList in only once readList is
// exhausted.
func NewSwitchingReadyQueue() ReadyQueue {
	return &switchingQueue{}
}

func (q *switchingQueue) AddImmediate(e *Event) {
	q.writeList = append(q.writeList, e)
}

func (q *switchingQueue) AddScheduled(e *Event) {
	heap.Push(&q.future, e)
}

func (q *switchingQueue) swapIfDrained() {
	if q.readPos >= len(q.readList) {
		q.readList, q.writeList = q.writeList, q.readList[:0]
		q.readPos = 0
	}
}

func (q *switchingQueue) nextImmediate() *Event {
	for {
		q.swapIfDrained()
		if q.readPos >= len(q.readList) {
			return nil
		}
		e := q.readList[q.readPos]
		q.readList[q.readPos] = nil
		q.readPos++
		if e.IsCancelled() {
			continue
		}
		return e
	}
}

func (q *switchingQueue) Remove(e *Event) bool {
	for i := q.readPos; i < len(q.readList); i++ {
		if q.readList[i] == e {
			return true // cancellation flag already set by caller; skipped on surfacing
		}
	}
	for _, c := range q.writeList {
		if c == e {
			return true
		}
	}
	return removeFromHeap(&q.future, e)
}

func (q *switchingQueue) NextDue(now float64) *Event {
	// Immediates always drain before scheduled work, per the cross-discipline
	// tie-break rule.
	if e := q.nextImmediate(); e != nil {
		return e
	}
	return popDueCancelledSkipping(&q.future, now)
}

func (q *switchingQueue) Size() int {
	pending := (len(q.readList) - q.readPos) + len(q.writeList)
	return pending + q.future.Len()
}

func (q *switchingQueue) HasOnlyDaemonEvents() bool {
	for i := q.readPos; i < len(q.readList); i++ {
		if e := q.readList[i]; e != nil && !e.IsDaemon() && !e.IsCancelled() {
			return false
		}
	}
	for _, e := range q.writeList {
		if !e.IsDaemon() && !e.IsCancelled() {
			return false
		}
	}
	return heapHasOnlyDaemon(q.future)
}
