// Discrete scheduler (C4): a cooperative, single-thread-of-control,
// virtual-time event loop, plus its non-executing ("passive") variant.

package eventsched_internal

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var discreteLog = NewCompLogger("discrete")

type dsState int32

const (
	dsIdle dsState = iota
	dsRunning
	dsPaused
	dsStopped
)

var dsStateNames = map[dsState]string{
	dsIdle:    "Idle",
	dsRunning: "Running",
	dsPaused:  "Paused",
	dsStopped: "Stopped",
}

func (s dsState) String() string { return dsStateNames[s] }

// DiscreteSchedulerConfig configures a discrete scheduler.
type DiscreteSchedulerConfig struct {
	// Name identifies the scheduler in logs.
	Name string `yaml:"name"`
	// TimeUnit, if non-zero, makes the scheduler's VirtualTimeProvider
	// unit-aware. DiscreteScheduler itself has no instant/duration overloads;
	// all of its scheduling calls take scalar times.
	TimeUnit time.Duration `yaml:"time_unit"`
	// StopOnFailure controls whether an event body failure transitions the
	// scheduler to Stopped (default true).
	StopOnFailure bool `yaml:"stop_on_failure"`
}

func DefaultDiscreteSchedulerConfig() *DiscreteSchedulerConfig {
	return &DiscreteSchedulerConfig{
		Name:          "discrete",
		StopOnFailure: true,
	}
}

// DiscreteScheduler implements C4. Submissions are thread-safe; the loop
// itself maintains a single-logical-thread discipline: exactly one event
// body runs at a time, start to finish.
type DiscreteScheduler struct {
	mu    sync.Mutex
	cond  *sync.Cond
	clock *VirtualTimeProvider
	heap  eventHeap

	state          dsState
	pauseRequested bool
	loopActive     bool // reentrancy guard shared by the background loop and bounded runs

	fr      *failureRouter
	metrics *schedulerMetrics
	log     *logrus.Entry
	name    string

	wg      sync.WaitGroup
	started bool
}

// NewDiscreteScheduler creates a scheduler in the Idle state; call Start to
// launch its background loop, or drive it entirely via bounded runs from
// Paused (the pattern a deterministic test driver wants).
func NewDiscreteScheduler(cfg *DiscreteSchedulerConfig) *DiscreteScheduler {
	if cfg == nil {
		cfg = DefaultDiscreteSchedulerConfig()
	}
	s := &DiscreteScheduler{
		clock:   NewVirtualTimeProvider(cfg.TimeUnit),
		fr:      newFailureRouter(cfg.StopOnFailure),
		metrics: newSchedulerMetrics(),
		log:     discreteLog.WithField("scheduler", cfg.Name),
		name:    cfg.Name,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Name returns the scheduler's configured name, also attached to its log
// entries. The source-tracking wrapper (C7) does not read it: it tags events
// by the names of its logical schedulers.
func (s *DiscreteScheduler) Name() string { return s.name }

func (s *DiscreteScheduler) Now() float64 { return s.clock.Now() }

func (s *DiscreteScheduler) RegisterFailureListener(l FailureListener) { s.fr.register(l) }

func (s *DiscreteScheduler) IsStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == dsStopped
}

func (s *DiscreteScheduler) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == dsPaused
}

func (s *DiscreteScheduler) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

func (s *DiscreteScheduler) HasOnlyDaemonEvents() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return heapHasOnlyDaemon(s.heap)
}

// Schedule submits body for execution at virtual time t. A stopped
// scheduler returns (nil, nil): a quiet rejection, not an error.
func (s *DiscreteScheduler) Schedule(t float64, body EventBody, desc string, daemon bool) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == dsStopped {
		return nil, nil
	}
	if t < s.clock.Now() {
		return nil, fmt.Errorf("%w: t=%v now=%v", ErrTimeInPast, t, s.clock.Now())
	}
	e := NewEvent(t, body, desc, daemon)
	heap.Push(&s.heap, e)
	s.metrics.recordScheduled(desc)
	s.cond.Broadcast()
	return newHandle(e), nil
}

func (s *DiscreteScheduler) ScheduleIn(delta float64, body EventBody, desc string, daemon bool) (*Handle, error) {
	s.mu.Lock()
	now := s.clock.Now()
	s.mu.Unlock()
	return s.Schedule(now+delta, body, desc, daemon)
}

func (s *DiscreteScheduler) ScheduleNow(body EventBody, desc string) (*Handle, error) {
	s.mu.Lock()
	now := s.clock.Now()
	s.mu.Unlock()
	return s.Schedule(now, body, desc, false)
}

// Start launches the background loop that drives unbounded execution. A
// scheduler driven purely through bounded runs (RunForDuration/
// RunUntilTime from Paused) need not call Start.
func (s *DiscreteScheduler) Start() {
	s.mu.Lock()
	if s.started || s.state == dsStopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.backgroundLoop()
}

func (s *DiscreteScheduler) backgroundLoop() {
	defer s.wg.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.state == dsStopped {
			return
		}
		if s.state == dsPaused || s.heap.Len() == 0 {
			if s.state != dsPaused {
				s.state = dsIdle
			}
			s.cond.Wait()
			continue
		}
		if s.loopActive {
			// A bounded run is in progress on another goroutine; wait for it
			// to finish rather than racing the shared heap.
			s.cond.Wait()
			continue
		}
		s.loopActive = true
		s.state = dsRunning
		s.runLocked(nil)
		s.loopActive = false
		s.cond.Broadcast()
	}
}

// runLocked drains events: unboundedly (bound == nil, stopping when paused,
// stopped, or the queue is empty) or up to a virtual-time bound (bound !=
// nil, stopping when the bound is reached, including events added by
// running events). Must be called with s.mu held; temporarily releases it
// around each event invocation.
func (s *DiscreteScheduler) runLocked(bound *float64) error {
	for {
		if s.state == dsStopped {
			return nil
		}
		if bound == nil && s.pauseRequested {
			s.pauseRequested = false
			s.state = dsPaused
			return nil
		}
		if s.heap.Len() == 0 {
			break
		}
		top := s.heap[0]
		if bound != nil && top.t > *bound {
			break
		}
		e := heap.Pop(&s.heap).(*Event)
		if e.IsCancelled() {
			s.metrics.recordCancelled(e.desc)
			continue
		}
		newNow := e.t
		if now := s.clock.Now(); now > newNow {
			newNow = now
		}
		s.clock.SetTime(newNow)

		s.mu.Unlock()
		failed, shouldStop := invokeGuarded(e, s.fr)
		s.mu.Lock()

		s.metrics.recordExecuted(e.desc)
		if failed {
			s.metrics.recordFailed(e.desc)
			if shouldStop {
				s.state = dsStopped
				s.cond.Broadcast()
				return nil
			}
		}
		if bound != nil && s.pauseRequested {
			// A body paused mid-bounded-run: treated as an illegal state
			// rather than guessing at continuation semantics.
			s.pauseRequested = false
			return ErrIllegalState
		}
	}
	if bound != nil {
		if now := s.clock.Now(); *bound > now {
			s.clock.SetTime(*bound)
		}
	}
	return nil
}

// Pause may be called from any goroutine, including from inside an event
// body running on this scheduler's own loop. If called from inside a body,
// it only sets a flag checked after that body returns (the loop unwinds
// without advancing further); otherwise it pauses immediately.
func (s *DiscreteScheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == dsStopped {
		return
	}
	if s.state == dsRunning {
		s.pauseRequested = true
		return
	}
	s.state = dsPaused
}

// UnPause clears the pause and, if a background loop was started, wakes it
// to resume processing.
func (s *DiscreteScheduler) UnPause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != dsPaused {
		return
	}
	s.pauseRequested = false
	if s.heap.Len() > 0 {
		s.state = dsRunning
	} else {
		s.state = dsIdle
	}
	s.cond.Broadcast()
}

// RunForDuration executes, from Paused, every event whose t <= now()+d,
// including events scheduled by running events, then re-pauses with now()
// advanced to exactly now()+d (not to the time of the last event run).
func (s *DiscreteScheduler) RunForDuration(d float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		return ErrIllegalArgument
	}
	if s.state != dsPaused {
		return ErrIllegalState
	}
	if s.loopActive {
		return ErrIllegalState
	}
	bound := s.clock.Now() + d
	s.loopActive = true
	s.state = dsRunning
	err := s.runLocked(&bound)
	if s.state != dsStopped {
		s.state = dsPaused
	}
	s.loopActive = false
	s.cond.Broadcast()
	return err
}

// RunUntilTime executes every event whose t <= t, then re-pauses with now()
// advanced to exactly t.
func (s *DiscreteScheduler) RunUntilTime(t float64) error {
	s.mu.Lock()
	now := s.clock.Now()
	s.mu.Unlock()
	if t < now {
		return ErrIllegalArgument
	}
	return s.RunForDuration(t - now)
}

// Stop transitions the scheduler to Stopped; subsequent submissions are
// quietly rejected. If a background loop was started, Stop blocks until it
// has exited.
func (s *DiscreteScheduler) Stop() {
	s.mu.Lock()
	already := s.state == dsStopped
	s.state = dsStopped
	s.cond.Broadcast()
	started := s.started
	s.mu.Unlock()

	if already {
		return
	}
	if started {
		s.wg.Wait()
	}
	s.log.Info("scheduler stopped")
}

// SnapMetrics returns a snapshot of this scheduler's per-description stats
// (the internal-metrics supplement, see metrics.go).
func (s *DiscreteScheduler) SnapMetrics() SchedulerStats {
	return s.metrics.snapshot()
}

// --- Non-executing ("passive") variant ---

// PassiveScheduler shares the ordering and cancellation rules of
// DiscreteScheduler but does not advance its own time: it observes an
// external TimeProvider and is driven only by explicit calls to
// ExecuteOverdueEvents/ExecuteAllEvents.
type PassiveScheduler struct {
	mu   sync.Mutex
	time TimeProvider
	heap eventHeap
	fr   *failureRouter
	log  *logrus.Entry
}

func NewPassiveScheduler(tp TimeProvider, stopOnFailure bool) *PassiveScheduler {
	return &PassiveScheduler{
		time: tp,
		fr:   newFailureRouter(stopOnFailure),
		log:  discreteLog.WithField("scheduler", "passive"),
	}
}

func (p *PassiveScheduler) Schedule(t float64, body EventBody, desc string, daemon bool) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := NewEvent(t, body, desc, daemon)
	heap.Push(&p.heap, e)
	return newHandle(e)
}

func (p *PassiveScheduler) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Len()
}

func (p *PassiveScheduler) HasOnlyDaemonEvents() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return heapHasOnlyDaemon(p.heap)
}

func (p *PassiveScheduler) RegisterFailureListener(l FailureListener) { p.fr.register(l) }

// ExecuteOverdueEvents runs every event with t <= the external provider's
// current now(), in (t, seq) order.
func (p *PassiveScheduler) ExecuteOverdueEvents() {
	p.mu.Lock()
	now := p.time.Now()
	for p.heap.Len() > 0 && p.heap[0].t <= now {
		e := heap.Pop(&p.heap).(*Event)
		if e.IsCancelled() {
			continue
		}
		p.mu.Unlock()
		invokeGuarded(e, p.fr)
		p.mu.Lock()
	}
	p.mu.Unlock()
}

// ExecuteAllEvents runs everything currently queued, regardless of t, in
// (t, seq) order.
func (p *PassiveScheduler) ExecuteAllEvents() {
	p.mu.Lock()
	for p.heap.Len() > 0 {
		e := heap.Pop(&p.heap).(*Event)
		if e.IsCancelled() {
			continue
		}
		p.mu.Unlock()
		invokeGuarded(e, p.fr)
		p.mu.Lock()
	}
	p.mu.Unlock()
}

// Reset clears the queue.
func (p *PassiveScheduler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heap = nil
}
