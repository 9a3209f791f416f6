// Realtime executor scheduler (C5): wraps a single-worker delay-queue
// executor and translates virtual-time requests to physical (wall-clock)
// scheduling, using the familiar dispatcher/worker split (container/heap
// plus a channel-driven single dispatcher goroutine), with exactly one
// worker enforcing the single-thread-of-control invariant.

package eventsched_internal

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var realtimeLog = NewCompLogger("realtime")

// CreditController gates how many task dispatches the realtime executor may
// perform per replenishment interval, generalizing a network-bandwidth
// credit limiter (sync.Cond-based) to a task-dispatch credit limiter.
// Optional; nil means unlimited.
type CreditController interface {
	GetCredit(desired, minAcceptable int) int
}

type RealtimeExecutorConfig struct {
	Name string `yaml:"name"`
	// TimeUnit, if non-zero, enables the instant/duration overloads.
	TimeUnit time.Duration `yaml:"time_unit"`
	// RemoveOnCancel controls whether a cancelled entry is physically
	// removed from the delay queue immediately (affecting QueueSize only)
	// or left in place until it would have fired.
	RemoveOnCancel bool `yaml:"remove_on_cancel"`
	StopOnFailure  bool `yaml:"stop_on_failure"`
}

func DefaultRealtimeExecutorConfig() *RealtimeExecutorConfig {
	return &RealtimeExecutorConfig{Name: "realtime", StopOnFailure: true}
}

type RealtimeExecutorScheduler struct {
	name string
	unit time.Duration
	wall *WallTimeProvider

	submitCh chan *Event
	cancelCh chan *Event
	stopOnce sync.Once
	stopCh   chan struct{}

	removeOnCancel bool
	credit         CreditController

	waiting atomic.Int64 // events currently waiting (a running event is excluded)
	stopped atomic.Bool

	fr      *failureRouter
	metrics *schedulerMetrics
	log     *logrus.Entry

	wg sync.WaitGroup
}

// NewRealtimeExecutorScheduler creates and starts the scheduler's single
// worker goroutine.
func NewRealtimeExecutorScheduler(cfg *RealtimeExecutorConfig, credit CreditController) *RealtimeExecutorScheduler {
	if cfg == nil {
		cfg = DefaultRealtimeExecutorConfig()
	}
	s := &RealtimeExecutorScheduler{
		name:           cfg.Name,
		unit:           cfg.TimeUnit,
		wall:           NewWallTimeProvider(cfg.TimeUnit),
		submitCh:       make(chan *Event, 256),
		cancelCh:       make(chan *Event, 256),
		stopCh:         make(chan struct{}),
		removeOnCancel: cfg.RemoveOnCancel,
		credit:         credit,
		fr:             newFailureRouter(cfg.StopOnFailure),
		metrics:        newSchedulerMetrics(),
		log:            realtimeLog.WithField("scheduler", cfg.Name),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *RealtimeExecutorScheduler) Now() float64 { return s.wall.Now() }

func (s *RealtimeExecutorScheduler) IsStopped() bool { return s.stopped.Load() }

func (s *RealtimeExecutorScheduler) QueueSize() int { return int(s.waiting.Load()) }

func (s *RealtimeExecutorScheduler) RegisterFailureListener(l FailureListener) { s.fr.register(l) }

// DoAt submits body for execution at wall-scalar time t (the delay used
// against the underlying delay queue is max(0, t-wallNow())).
func (s *RealtimeExecutorScheduler) DoAt(t float64, body EventBody, desc string, daemon bool) *Handle {
	if s.stopped.Load() {
		return nil
	}
	e := NewEvent(t, body, desc, daemon)
	select {
	case s.submitCh <- e:
		s.waiting.Add(1)
		s.metrics.recordScheduled(desc)
		return newHandle(e)
	case <-s.stopCh:
		return nil
	}
}

func (s *RealtimeExecutorScheduler) DoIn(delay float64, body EventBody, desc string, daemon bool) *Handle {
	return s.DoAt(s.Now()+delay, body, desc, daemon)
}

func (s *RealtimeExecutorScheduler) DoNow(body EventBody, desc string) *Handle {
	return s.DoAt(s.Now(), body, desc, false)
}

// DoAtInstant/DoInDuration are the unit-aware overloads; they fail with
// ErrTimeUnitNotSpecified if the scheduler wasn't constructed with a
// TimeUnit.
func (s *RealtimeExecutorScheduler) DoAtInstant(at time.Time, body EventBody, desc string, daemon bool) (*Handle, error) {
	if s.unit == 0 {
		return nil, ErrTimeUnitNotSpecified
	}
	t := float64(at.Sub(s.wall.Epoch())) / float64(s.unit)
	return s.DoAt(t, body, desc, daemon), nil
}

func (s *RealtimeExecutorScheduler) DoInDuration(d time.Duration, body EventBody, desc string, daemon bool) (*Handle, error) {
	if s.unit == 0 {
		return nil, ErrTimeUnitNotSpecified
	}
	return s.DoIn(float64(d)/float64(s.unit), body, desc, daemon), nil
}

// Cancel is exposed directly (in addition to Handle.Cancel) so the executor
// can honour removeOnCancel bookkeeping: cancellation on a handle is
// effective immediately regardless, this only affects QueueSize accounting.
func (s *RealtimeExecutorScheduler) Cancel(h *Handle) {
	if h == nil || h.event == nil {
		return
	}
	if !h.event.cancel() {
		return // already cancelled/fired
	}
	if s.removeOnCancel {
		select {
		case s.cancelCh <- h.event:
		case <-s.stopCh:
		}
	}
}

// Stop is quiet: post-stop DoAt/DoNow return nil and don't run. Stop blocks
// until the worker has exited.
func (s *RealtimeExecutorScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *RealtimeExecutorScheduler) worker() {
	defer s.wg.Done()
	defer s.log.Info("worker stopped")

	h := &eventHeap{}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	resetTimer := func() {
		if timerActive {
			if !timer.Stop() {
				<-timer.C
			}
			timerActive = false
		}
		if h.Len() == 0 {
			return
		}
		delayScalar := (*h)[0].t - s.wall.Now()
		if delayScalar < 0 {
			delayScalar = 0
		}
		timer.Reset(time.Duration(delayScalar * float64(s.wall.Unit())))
		timerActive = true
	}

	for {
		select {
		case <-s.stopCh:
			if timerActive && !timer.Stop() {
				<-timer.C
			}
			return

		case e := <-s.submitCh:
			heap.Push(h, e)
			resetTimer()

		case e := <-s.cancelCh:
			if removeFromHeap(h, e) {
				s.waiting.Add(-1)
			}
			resetTimer()

		case <-timer.C:
			timerActive = false
			if s.credit != nil {
				for s.credit.GetCredit(1, 1) < 1 {
					time.Sleep(time.Millisecond)
				}
			}
			e := heap.Pop(h).(*Event)
			s.waiting.Add(-1)
			if !e.IsCancelled() {
				failed, shouldStop := invokeGuarded(e, s.fr)
				s.metrics.recordExecuted(e.desc)
				if failed {
					s.metrics.recordFailed(e.desc)
					if shouldStop {
						s.stopOnce.Do(func() {
							s.stopped.Store(true)
							close(s.stopCh)
						})
						return
					}
				}
			} else {
				s.metrics.recordCancelled(e.desc)
			}
			resetTimer()
		}
	}
}
