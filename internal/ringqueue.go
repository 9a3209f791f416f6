// Ring-buffer-backed ready-queue disciplines: a fixed-capacity circular
// buffer for immediates, with an overflow fallback list, plus the
// min-heap for scheduled (future) work shared with the other disciplines.
//
// Cancelled entries that land in the middle of a ring remain physically in
// place (and still count toward Size()) until they surface via NextDue.

package eventsched_internal

import "container/heap"

// ringBuffer is a fixed-capacity circular FIFO of *Event with an overflow
// fallback. Once overflowing, new pushes go to the overflow list (not back
// into freed ring slots) until the overflow list fully drains, which keeps
// FIFO order intact across the ring/overflow boundary.
type ringBuffer struct {
	buf         []*Event
	head, count int
	overflow    []*Event
	overflowing bool
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = RING_DEFAULT_CAPACITY
	}
	return &ringBuffer{buf: make([]*Event, capacity)}
}

func (r *ringBuffer) push(e *Event) {
	if !r.overflowing && r.count < len(r.buf) {
		tail := (r.head + r.count) % len(r.buf)
		r.buf[tail] = e
		r.count++
		return
	}
	r.overflowing = true
	r.overflow = append(r.overflow, e)
}

func (r *ringBuffer) pop() *Event {
	if r.count > 0 {
		e := r.buf[r.head]
		r.buf[r.head] = nil
		r.head = (r.head + 1) % len(r.buf)
		r.count--
		return e
	}
	if len(r.overflow) > 0 {
		e := r.overflow[0]
		r.overflow[0] = nil
		r.overflow = r.overflow[1:]
		if len(r.overflow) == 0 {
			r.overflow = nil
			r.overflowing = false
		}
		return e
	}
	return nil
}

func (r *ringBuffer) size() int { return r.count + len(r.overflow) }

func (r *ringBuffer) contains(e *Event) bool {
	for i := 0; i < r.count; i++ {
		if r.buf[(r.head+i)%len(r.buf)] == e {
			return true
		}
	}
	for _, c := range r.overflow {
		if c == e {
			return true
		}
	}
	return false
}

func (r *ringBuffer) hasOnlyDaemon() bool {
	for i := 0; i < r.count; i++ {
		if e := r.buf[(r.head+i)%len(r.buf)]; e != nil && !e.IsDaemon() && !e.IsCancelled() {
			return false
		}
	}
	for _, e := range r.overflow {
		if e != nil && !e.IsDaemon() && !e.IsCancelled() {
			return false
		}
	}
	return true
}

func (r *ringBuffer) nextLive() *Event {
	for {
		e := r.pop()
		if e == nil {
			return nil
		}
		if e.IsCancelled() {
			continue
		}
		return e
	}
}

// --- Ring discipline ---

type ringQueue struct {
	ring   *ringBuffer
	future eventHeap
}

// NewRingReadyQueue polls the ring buffer first; size is the initial ring
// capacity (immediates beyond it spill to the overflow fallback list).
func NewRingReadyQueue(size int) ReadyQueue {
	return &ringQueue{ring: newRingBuffer(size)}
}

func (q *ringQueue) AddImmediate(e *Event) { q.ring.push(e) }
func (q *ringQueue) AddScheduled(e *Event) { heapPushFuture(&q.future, e) }

func (q *ringQueue) Remove(e *Event) bool {
	if q.ring.contains(e) {
		return true // cancellation flag set by caller; discarded on surfacing
	}
	return removeFromHeap(&q.future, e)
}

func (q *ringQueue) NextDue(now float64) *Event {
	if e := q.ring.nextLive(); e != nil {
		return e
	}
	return popDueCancelledSkipping(&q.future, now)
}

func (q *ringQueue) Size() int { return q.ring.size() + q.future.Len() }

func (q *ringQueue) HasOnlyDaemonEvents() bool {
	return q.ring.hasOnlyDaemon() && heapHasOnlyDaemon(q.future)
}

// --- Split ring discipline ---

// splitRingQueue partitions the ring into two halves by role (producer
// half, consumer half) to reduce cache ping-pong between the scheduler
// thread draining events and submitter threads adding them: the writer
// always targets the current producer half; once it fills, the halves swap
// roles, mirroring the switching discipline's swap-on-drain but over two
// fixed-size rings instead of two growable lists.
type splitRingQueue struct {
	halves     [2]*ringBuffer
	produceIdx int
	consumeIdx int
	future     eventHeap
}

// NewSplitRingReadyQueue splits a ring of the given total size into two
// equal halves (minimum capacity 1 each).
func NewSplitRingReadyQueue(size int) ReadyQueue {
	if size <= 0 {
		size = RING_DEFAULT_CAPACITY
	}
	half := size / 2
	if half < 1 {
		half = 1
	}
	return &splitRingQueue{
		halves: [2]*ringBuffer{newRingBuffer(half), newRingBuffer(half)},
	}
}

func (q *splitRingQueue) AddImmediate(e *Event) {
	producer := q.halves[q.produceIdx]
	if producer.count >= len(producer.buf) && !producer.overflowing {
		// Current producer half is full: hand off to the other half if it's
		// drained, otherwise let this half start overflowing rather than
		// stall the writer.
		other := q.halves[1-q.produceIdx]
		if other.size() == 0 {
			q.produceIdx = 1 - q.produceIdx
			producer = q.halves[q.produceIdx]
		}
	}
	producer.push(e)
}

func (q *splitRingQueue) AddScheduled(e *Event) { heapPushFuture(&q.future, e) }

func (q *splitRingQueue) Remove(e *Event) bool {
	if q.halves[0].contains(e) || q.halves[1].contains(e) {
		return true
	}
	return removeFromHeap(&q.future, e)
}

func (q *splitRingQueue) NextDue(now float64) *Event {
	for tries := 0; tries < 2; tries++ {
		consumer := q.halves[q.consumeIdx]
		if e := consumer.nextLive(); e != nil {
			return e
		}
		// Consumer half drained: if the producer has moved to the other
		// half, or this half has residual overflow-free emptiness, flip.
		if q.consumeIdx != q.produceIdx {
			q.consumeIdx = 1 - q.consumeIdx
			continue
		}
		break
	}
	return popDueCancelledSkipping(&q.future, now)
}

func (q *splitRingQueue) Size() int {
	return q.halves[0].size() + q.halves[1].size() + q.future.Len()
}

func (q *splitRingQueue) HasOnlyDaemonEvents() bool {
	return q.halves[0].hasOnlyDaemon() && q.halves[1].hasOnlyDaemon() && heapHasOnlyDaemon(q.future)
}

func heapPushFuture(h *eventHeap, e *Event) {
	heap.Push(h, e)
}
