// The public face of this library for its users.

package eventsched

import (
	"time"

	"github.com/sirupsen/logrus"

	internal "github.com/bgp59/go-eventsched/internal"
)

// Core types, re-exported so callers never need to import the internal
// package directly.
type (
	EventBody                 = internal.EventBody
	Handle                    = internal.Handle
	FailureListener           = internal.FailureListener
	ReadyQueueDiscipline      = internal.ReadyQueueDiscipline
	EventStats                = internal.EventStats
	SchedulerStats            = internal.SchedulerStats
	LoggerConfig              = internal.LoggerConfig
	EventSchedConfig          = internal.EventSchedConfig
	DiscreteSchedulerConfig   = internal.DiscreteSchedulerConfig
	RealtimeExecutorConfig    = internal.RealtimeExecutorConfig
	BusyLoopConfig            = internal.BusyLoopConfig
	DiscreteScheduler         = internal.DiscreteScheduler
	PassiveScheduler          = internal.PassiveScheduler
	RealtimeExecutorScheduler = internal.RealtimeExecutorScheduler
	BusyLoopScheduler         = internal.BusyLoopScheduler
	SourceTrackingScheduler   = internal.SourceTrackingScheduler
	LogicalScheduler          = internal.LogicalScheduler
	CreditController          = internal.CreditController
	RepeatingScheduler        = internal.RepeatingScheduler
	RepeatingHandle           = internal.RepeatingHandle
	TimeProvider              = internal.TimeProvider
	VirtualTimeProvider       = internal.VirtualTimeProvider
	WallTimeProvider          = internal.WallTimeProvider
)

const (
	DisciplineSwitching = internal.DisciplineSwitching
	DisciplinePriority  = internal.DisciplinePriority
	DisciplineRing      = internal.DisciplineRing
	DisciplineSplitRing = internal.DisciplineSplitRing
)

var (
	ErrTimeUnitNotSpecified = internal.ErrTimeUnitNotSpecified
	ErrTimeInPast           = internal.ErrTimeInPast
	ErrIllegalArgument      = internal.ErrIllegalArgument
	ErrIllegalState         = internal.ErrIllegalState
	ErrEventBodyFailure     = internal.ErrEventBodyFailure
)

// The instance should be primed w/ the desired default *before* constructing
// any scheduler, typically from an init(). Its value may be overridden by
// config.
func SetDefaultInstance(instance string) {
	internal.Instance = instance
}

func GetInstance() string {
	return internal.Instance
}

// GetRootLogger is needed only for tests where the logger is captured (see
// testutils/log_collector.go); its actual type is obscured.
//
//	func TestSomethingWithLogger(t *testing.T) {
//		tlc := eventsched_testutils.NewTestLogCollect(t, eventsched.GetRootLogger(), nil)
//		defer tlc.RestoreLog()
//	}
func GetRootLogger() any { return internal.GetRootLogger() }

// NewCompLogger creates a new component logger w/ comp=compName field.
func NewCompLogger(comp string) *logrus.Entry {
	return internal.NewCompLogger(comp)
}

// AddCallerSrcPathPrefixToLogger lets the logger display log-file-relative
// source paths; typically called once from main.init(), upNDirs counting how
// many directories up from the caller's file is the module root.
func AddCallerSrcPathPrefixToLogger(upNDirs int) {
	internal.AddCallerSrcPathPrefixToLogger(upNDirs, 1)
}

func SetLogger(logCfg *LoggerConfig) error { return internal.SetLogger(logCfg) }

// ApplyLoggerFlags overlays command-line-supplied logger settings (as
// registered by logrusx on package init) onto logCfg; call after
// flag.Parse() and before SetLogger.
func ApplyLoggerFlags(logCfg *LoggerConfig) { internal.ApplyLoggerFlags(logCfg) }

// LoadConfig loads the "event_sched_config" section of cfgFile into an
// EventSchedConfig primed with defaults.
func LoadConfig(cfgFile string) (*EventSchedConfig, error) {
	return internal.LoadConfig(cfgFile, nil)
}

func DefaultEventSchedConfig() *EventSchedConfig { return internal.DefaultEventSchedConfig() }

// NewDiscreteScheduler builds C4, the virtual-time, cooperatively-driven
// scheduler: the backbone for deterministic simulation.
func NewDiscreteScheduler(cfg *DiscreteSchedulerConfig) *DiscreteScheduler {
	return internal.NewDiscreteScheduler(cfg)
}

func DefaultDiscreteSchedulerConfig() *DiscreteSchedulerConfig {
	return internal.DefaultDiscreteSchedulerConfig()
}

// NewPassiveScheduler builds the lightweight, non-looping companion to the
// discrete scheduler: callers drive execution explicitly via
// ExecuteOverdueEvents/ExecuteAllEvents rather than a background goroutine.
func NewPassiveScheduler(tp TimeProvider, stopOnFailure bool) *PassiveScheduler {
	return internal.NewPassiveScheduler(tp, stopOnFailure)
}

// NewRealtimeExecutorScheduler builds C5, a wall-clock delay-queue executor
// with a single dispatch worker; credit is an optional rate limiter (nil
// means unlimited).
func NewRealtimeExecutorScheduler(cfg *RealtimeExecutorConfig, credit CreditController) *RealtimeExecutorScheduler {
	return internal.NewRealtimeExecutorScheduler(cfg, credit)
}

func DefaultRealtimeExecutorConfig() *RealtimeExecutorConfig {
	return internal.DefaultRealtimeExecutorConfig()
}

// NewBusyLoopScheduler builds C6, a polling-based scheduler over one of the
// four ready-queue disciplines (C3), trading CPU for minimal dispatch
// latency.
func NewBusyLoopScheduler(cfg *BusyLoopConfig) *BusyLoopScheduler {
	return internal.NewBusyLoopScheduler(cfg)
}

func DefaultBusyLoopConfig() *BusyLoopConfig { return internal.DefaultBusyLoopConfig() }

// NewSourceTrackingScheduler builds C7, multiplexing several logical
// schedulers onto one backing scheduler and tagging invocations with their
// originating source.
func NewSourceTrackingScheduler(backing internal.BackingScheduler) *SourceTrackingScheduler {
	return internal.NewSourceTrackingScheduler(backing)
}

// StartAt and StartIn are the repeating-work builder (C8): they produce
// self-rescheduling events from a plain body function, given any scheduler
// satisfying the minimal RepeatingScheduler contract. DiscreteScheduler
// satisfies it natively; AsRepeating adapts PassiveScheduler,
// BusyLoopScheduler and RealtimeExecutorScheduler, whose native Schedule
// signatures signal quiet rejection via a nil handle rather than an error.
func StartAt(sched RepeatingScheduler, firstTime, period float64, desc string, body func(scheduledAt float64), daemon bool) (*RepeatingHandle, error) {
	return internal.StartAt(sched, firstTime, period, desc, body, daemon)
}

func StartIn(sched RepeatingScheduler, firstDelay, period float64, desc string, body func(scheduledAt float64), daemon bool) (*RepeatingHandle, error) {
	return internal.StartIn(sched, firstDelay, period, desc, body, daemon)
}

// AsRepeating adapts a PassiveScheduler, BusyLoopScheduler or
// RealtimeExecutorScheduler to the RepeatingScheduler contract expected by
// StartAt/StartIn.
func AsRepeating(sched any) RepeatingScheduler {
	switch s := sched.(type) {
	case *DiscreteScheduler:
		return s
	case *PassiveScheduler:
		return internal.PassiveSchedulerRepeating{PassiveScheduler: s}
	case *BusyLoopScheduler:
		return internal.BusyLoopRepeating{BusyLoopScheduler: s}
	case *RealtimeExecutorScheduler:
		return internal.RealtimeRepeating{RealtimeExecutorScheduler: s}
	default:
		return nil
	}
}

// NewVirtualTimeProvider and NewWallTimeProvider expose the C1 time model
// constructors directly, for callers that want to share a clock across
// components (e.g. feeding the same WallTimeProvider to both a realtime
// executor and a busy-loop scheduler).
func NewVirtualTimeProvider(unit time.Duration) *VirtualTimeProvider {
	return internal.NewVirtualTimeProvider(unit)
}

func NewWallTimeProvider(unit time.Duration) *WallTimeProvider {
	return internal.NewWallTimeProvider(unit)
}
