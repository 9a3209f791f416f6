// Busy-loop scheduler (C6): a dedicated worker goroutine that repeatedly
// polls one of the four ready-queue disciplines (C3) rather than blocking on
// a condition variable, trading CPU for the lowest possible dispatch
// latency. The dispatcher loop's shape follows the usual stopCh-driven
// worker pattern, with the blocking wait replaced by a short-yield-and-repoll.

package eventsched_internal

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var busyLoopLog = NewCompLogger("busyloop")

type BusyLoopConfig struct {
	Name       string               `yaml:"name"`
	Discipline ReadyQueueDiscipline `yaml:"discipline"`
	RingSize   int                  `yaml:"ring_size"`
	// IdleYield is how long the worker sleeps between polls when the queue
	// is empty; 0 means runtime.Gosched() only (pure spin).
	IdleYield     time.Duration `yaml:"idle_yield"`
	StopOnFailure bool          `yaml:"stop_on_failure"`
}

func DefaultBusyLoopConfig() *BusyLoopConfig {
	return &BusyLoopConfig{
		Name:          "busyloop",
		Discipline:    DisciplineSwitching,
		IdleYield:     time.Microsecond * 50,
		StopOnFailure: true,
	}
}

func newReadyQueue(cfg *BusyLoopConfig) ReadyQueue {
	switch cfg.Discipline {
	case DisciplinePriority:
		return NewPriorityReadyQueue()
	case DisciplineRing:
		return NewRingReadyQueue(cfg.RingSize)
	case DisciplineSplitRing:
		return NewSplitRingReadyQueue(cfg.RingSize)
	default:
		return NewSwitchingReadyQueue()
	}
}

// BusyLoopScheduler dispatches events as soon as their time is due, by
// continuously polling its ready queue from a single dedicated goroutine.
type BusyLoopScheduler struct {
	name string
	wall *WallTimeProvider
	q    ReadyQueue
	qmu  sync.Mutex

	idleYield time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	stopped  atomic.Bool

	fr      *failureRouter
	metrics *schedulerMetrics

	wg sync.WaitGroup
}

// NewBusyLoopScheduler creates and starts the polling worker.
func NewBusyLoopScheduler(cfg *BusyLoopConfig) *BusyLoopScheduler {
	if cfg == nil {
		cfg = DefaultBusyLoopConfig()
	}
	s := &BusyLoopScheduler{
		name:      cfg.Name,
		wall:      NewWallTimeProvider(time.Millisecond),
		q:         newReadyQueue(cfg),
		idleYield: cfg.IdleYield,
		stopCh:    make(chan struct{}),
		fr:        newFailureRouter(cfg.StopOnFailure),
		metrics:   newSchedulerMetrics(),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *BusyLoopScheduler) Now() float64 { return s.wall.Now() }

func (s *BusyLoopScheduler) IsStopped() bool { return s.stopped.Load() }

func (s *BusyLoopScheduler) QueueSize() int {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return s.q.Size()
}

func (s *BusyLoopScheduler) HasOnlyDaemonEvents() bool {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return s.q.HasOnlyDaemonEvents()
}

func (s *BusyLoopScheduler) RegisterFailureListener(l FailureListener) { s.fr.register(l) }

// Schedule submits an event at wall-scalar time t. Events with t<=now() are
// enqueued as immediates (the ready queue's fast path); later events go to
// the scheduled (future) side.
func (s *BusyLoopScheduler) Schedule(t float64, body EventBody, desc string, daemon bool) *Handle {
	if s.stopped.Load() {
		return nil
	}
	e := NewEvent(t, body, desc, daemon)
	s.qmu.Lock()
	if t <= s.wall.Now() {
		s.q.AddImmediate(e)
	} else {
		s.q.AddScheduled(e)
	}
	s.qmu.Unlock()
	s.metrics.recordScheduled(desc)
	return newHandle(e)
}

func (s *BusyLoopScheduler) ScheduleIn(delay float64, body EventBody, desc string, daemon bool) *Handle {
	return s.Schedule(s.Now()+delay, body, desc, daemon)
}

// Cancel marks the handle cancelled; the event stays physically in the
// ready queue, and so counts toward QueueSize, until it surfaces via
// NextDue and is dropped there: a cancelled-but-not-yet-due event keeps
// occupying the queue until its scheduled time passes.
func (s *BusyLoopScheduler) Cancel(h *Handle) {
	if h == nil || h.event == nil {
		return
	}
	h.event.cancel()
}

// Stop requests the worker to exit and blocks until it has. Quiet: post-stop
// Schedule calls return nil.
func (s *BusyLoopScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *BusyLoopScheduler) SnapMetrics() SchedulerStats { return s.metrics.snapshot() }

func (s *BusyLoopScheduler) loop() {
	defer s.wg.Done()
	defer busyLoopLog.WithField("scheduler", s.name).Info("worker stopped")

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.qmu.Lock()
		e := s.q.NextDue(s.wall.Now())
		s.qmu.Unlock()

		if e == nil {
			if s.idleYield > 0 {
				time.Sleep(s.idleYield)
			} else {
				runtime.Gosched()
			}
			continue
		}

		failed, shouldStop := invokeGuarded(e, s.fr)
		s.metrics.recordExecuted(e.Description())
		if failed {
			s.metrics.recordFailed(e.Description())
			if shouldStop {
				s.stopOnce.Do(func() {
					s.stopped.Store(true)
					close(s.stopCh)
				})
				return
			}
		}
	}
}
