// Time model: virtual time is a scalar (float64); a time provider may
// additionally be unit-aware, in which case the scalar can be converted
// to/from an absolute time.Time and a time.Duration.

package eventsched_internal

import (
	"sync"
	"time"
)

var timeLog = NewCompLogger("time")

// TimeProvider is the minimal collaborator a scheduler needs: a scalar clock.
type TimeProvider interface {
	Now() float64
}

// UnitAwareTimeProvider additionally knows how to convert its scalar to/from
// an absolute instant. Unit is the duration represented by one unit of
// scalar time (e.g. time.Second means scalar 1.0 == one second elapsed).
// Epoch is the absolute instant corresponding to scalar time 0.
type UnitAwareTimeProvider interface {
	TimeProvider
	Unit() time.Duration
	Epoch() time.Time
}

// AdjustableTimeProvider is a virtual clock whose value is advanced under
// program control rather than by the passage of wall time.
type AdjustableTimeProvider interface {
	TimeProvider
	AdvanceTime(delta float64)
	SetTime(t float64) error
}

// ToInstant converts a scalar time to an absolute instant, given a
// unit-aware provider. Returns ErrTimeUnitNotSpecified if tp isn't unit-aware.
func ToInstant(tp TimeProvider, t float64) (time.Time, error) {
	uatp, ok := tp.(UnitAwareTimeProvider)
	if !ok || uatp.Unit() == 0 {
		return time.Time{}, ErrTimeUnitNotSpecified
	}
	return uatp.Epoch().Add(time.Duration(t * float64(uatp.Unit()))), nil
}

// FromInstant converts an absolute instant to the provider's scalar time.
func FromInstant(tp TimeProvider, at time.Time) (float64, error) {
	uatp, ok := tp.(UnitAwareTimeProvider)
	if !ok || uatp.Unit() == 0 {
		return 0, ErrTimeUnitNotSpecified
	}
	return float64(at.Sub(uatp.Epoch())) / float64(uatp.Unit()), nil
}

// FromDuration converts a time.Duration delay to a scalar delta.
func FromDuration(tp TimeProvider, d time.Duration) (float64, error) {
	uatp, ok := tp.(UnitAwareTimeProvider)
	if !ok || uatp.Unit() == 0 {
		return 0, ErrTimeUnitNotSpecified
	}
	return float64(d) / float64(uatp.Unit()), nil
}

// VirtualTimeProvider is an adjustable, unit-aware scalar clock, the time
// model backing the discrete scheduler (C4).
type VirtualTimeProvider struct {
	mu    sync.Mutex
	now   float64
	unit  time.Duration
	epoch time.Time
}

// NewVirtualTimeProvider creates a virtual clock starting at t=0. unit==0
// means the provider is not unit-aware (instant/duration overloads will
// fail with ErrTimeUnitNotSpecified).
func NewVirtualTimeProvider(unit time.Duration) *VirtualTimeProvider {
	return &VirtualTimeProvider{unit: unit, epoch: time.Now()}
}

func (v *VirtualTimeProvider) Now() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *VirtualTimeProvider) Unit() time.Duration { return v.unit }
func (v *VirtualTimeProvider) Epoch() time.Time    { return v.epoch }

// unitAware reports whether this provider supports instant/duration
// conversions; a provider constructed with unit==0 does not.
func (v *VirtualTimeProvider) unitAware() bool { return v.unit != 0 }

func (v *VirtualTimeProvider) AdvanceTime(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if delta < 0 {
		return
	}
	v.now += delta
}

// SetTime forbids moving the clock backwards.
func (v *VirtualTimeProvider) SetTime(t float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t < v.now {
		return ErrIllegalArgument
	}
	v.now = t
	return nil
}

// WallTimeProvider is a unit-aware, non-adjustable clock reporting the
// number of Unit-sized ticks since Epoch, backing the realtime executor and
// busy-loop schedulers (C5, C6).
type WallTimeProvider struct {
	unit  time.Duration
	epoch time.Time
}

func NewWallTimeProvider(unit time.Duration) *WallTimeProvider {
	if unit == 0 {
		unit = time.Millisecond
	}
	return &WallTimeProvider{unit: unit, epoch: time.Unix(0, 0)}
}

func (w *WallTimeProvider) Now() float64 {
	return float64(time.Since(w.epoch)) / float64(w.unit)
}

func (w *WallTimeProvider) Unit() time.Duration { return w.unit }
func (w *WallTimeProvider) Epoch() time.Time    { return w.epoch }

// instantCache interns converted instants keyed by their scalar input so
// repeated conversions of equal scalars return values that compare equal
// without repeated allocation. Not semantically required by any API: the
// only externally visible property is that ToInstantCached(tp, t) called
// twice with equal t returns instants that compare Equal.
type instantCache struct {
	mu    sync.Mutex
	byKey map[float64]time.Time
}

func newInstantCache() *instantCache {
	return &instantCache{byKey: make(map[float64]time.Time)}
}

func (c *instantCache) get(tp TimeProvider, t float64) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.byKey[t]; ok {
		return cached, nil
	}
	instant, err := ToInstant(tp, t)
	if err != nil {
		return time.Time{}, err
	}
	c.byKey[t] = instant
	return instant, nil
}

var sharedInstantCache = newInstantCache()

// ToInstantCached is the canonicalising variant of ToInstant, see instantCache.
func ToInstantCached(tp TimeProvider, t float64) (time.Time, error) {
	return sharedInstantCache.get(tp, t)
}
