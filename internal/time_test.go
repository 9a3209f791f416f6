package eventsched_internal

import (
	"testing"
	"time"
)

type virtualTimeAdvanceTC struct {
	name      string
	start     float64
	deltas    []float64
	wantFinal float64
}

func TestVirtualTimeProviderAdvanceTime(t *testing.T) {
	tcs := []virtualTimeAdvanceTC{
		{name: "single advance", start: 0, deltas: []float64{5}, wantFinal: 5},
		{name: "accumulates", start: 0, deltas: []float64{1, 2, 3}, wantFinal: 6},
		{name: "negative delta ignored", start: 10, deltas: []float64{-5}, wantFinal: 10},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) { testVirtualTimeProviderAdvanceTime(t, tc) })
	}
}

func testVirtualTimeProviderAdvanceTime(t *testing.T, tc virtualTimeAdvanceTC) {
	v := NewVirtualTimeProvider(0)
	if err := v.SetTime(tc.start); err != nil {
		t.Fatalf("SetTime(%v): %v", tc.start, err)
	}
	for _, d := range tc.deltas {
		v.AdvanceTime(d)
	}
	if got := v.Now(); got != tc.wantFinal {
		t.Errorf("Now() = %v, want %v", got, tc.wantFinal)
	}
}

func TestVirtualTimeProviderSetTimeRejectsBackwards(t *testing.T) {
	v := NewVirtualTimeProvider(0)
	v.AdvanceTime(10)
	if err := v.SetTime(5); err != ErrIllegalArgument {
		t.Errorf("SetTime(5) after advancing to 10: err = %v, want %v", err, ErrIllegalArgument)
	}
	if got := v.Now(); got != 10 {
		t.Errorf("Now() after rejected SetTime = %v, want 10", got)
	}
	if err := v.SetTime(10); err != nil {
		t.Errorf("SetTime(10) (same time): err = %v, want nil", err)
	}
}

func TestToInstantRequiresUnitAwareProvider(t *testing.T) {
	notUnitAware := NewVirtualTimeProvider(0)
	if _, err := ToInstant(notUnitAware, 5); err != ErrTimeUnitNotSpecified {
		t.Errorf("ToInstant on unit==0 provider: err = %v, want %v", err, ErrTimeUnitNotSpecified)
	}

	unitAware := NewVirtualTimeProvider(time.Second)
	instant, err := ToInstant(unitAware, 5)
	if err != nil {
		t.Fatalf("ToInstant: %v", err)
	}
	wantInstant := unitAware.Epoch().Add(5 * time.Second)
	if !instant.Equal(wantInstant) {
		t.Errorf("ToInstant(5) = %v, want %v", instant, wantInstant)
	}
}

func TestFromInstantRoundTrip(t *testing.T) {
	tp := NewVirtualTimeProvider(time.Millisecond)
	at := tp.Epoch().Add(250 * time.Millisecond)
	got, err := FromInstant(tp, at)
	if err != nil {
		t.Fatalf("FromInstant: %v", err)
	}
	if got != 250 {
		t.Errorf("FromInstant = %v, want 250", got)
	}
}

func TestFromDuration(t *testing.T) {
	tp := NewVirtualTimeProvider(time.Millisecond)
	got, err := FromDuration(tp, 2*time.Second)
	if err != nil {
		t.Fatalf("FromDuration: %v", err)
	}
	if got != 2000 {
		t.Errorf("FromDuration(2s) = %v, want 2000", got)
	}
}

func TestWallTimeProviderUnitDefaultsToMillisecond(t *testing.T) {
	w := NewWallTimeProvider(0)
	if w.Unit() != time.Millisecond {
		t.Errorf("Unit() = %v, want %v", w.Unit(), time.Millisecond)
	}
}

func TestWallTimeProviderNowAdvances(t *testing.T) {
	w := NewWallTimeProvider(time.Millisecond)
	first := w.Now()
	time.Sleep(5 * time.Millisecond)
	second := w.Now()
	if second <= first {
		t.Errorf("Now() did not advance: first=%v second=%v", first, second)
	}
}

func TestToInstantCachedReturnsEqualInstantsForEqualScalars(t *testing.T) {
	tp := NewVirtualTimeProvider(time.Millisecond)
	a, err := ToInstantCached(tp, 42)
	if err != nil {
		t.Fatalf("ToInstantCached: %v", err)
	}
	b, err := ToInstantCached(tp, 42)
	if err != nil {
		t.Fatalf("ToInstantCached: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("ToInstantCached(42) twice: %v != %v", a, b)
	}
}
