package kinetics

import (
	"errors"
	"math"
	"testing"
)

// fixedSource always yields the same value, so Float64 returns v/2^63.
type fixedSource struct {
	v int64
}

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

// rollSource returns a source whose Float64 is roll.
func rollSource(roll float64) fixedSource {
	return fixedSource{v: int64(roll * (1 << 63))}
}

func TestNewScheduler_InvalidTimeScale(t *testing.T) {
	for _, ts := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, err := NewScheduler(nil, ts); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("time scale %v: expected ErrInvalidConfig, got %v", ts, err)
		}
	}
}

func TestFireProbability(t *testing.T) {
	if got := FireProbability(1, 0); got != 0 {
		t.Errorf("Expected 0 for zero rate, got %v", got)
	}
	if got := FireProbability(0, 10); got != 0 {
		t.Errorf("Expected 0 for zero elapsed, got %v", got)
	}
	want := 1 - math.Exp(-2)
	if got := FireProbability(0.5, 4); math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestShouldFire(t *testing.T) {
	// probability is ~1, divided by 100
	if !ShouldFire(0.005, 10, 100, DefaultTimeScale) {
		t.Error("Expected fire for roll below p/timeScale")
	}
	if ShouldFire(0.02, 10, 100, DefaultTimeScale) {
		t.Error("Expected no fire for roll above p/timeScale")
	}
}

func TestShouldFire_ZeroProbabilityNeverFires(t *testing.T) {
	if ShouldFire(0, 1, 0, DefaultTimeScale) {
		t.Error("Zero total rate must never fire, even with roll 0")
	}
	if ShouldFire(0, 0, 100, DefaultTimeScale) {
		t.Error("Zero elapsed time must never fire, even with roll 0")
	}
}

func TestSelectIndex(t *testing.T) {
	props := []float64{10, 30, 60}
	tests := []struct {
		roll float64
		want int
	}{
		{0, 0},
		{0.05, 0},
		{0.11, 1},
		{0.39, 1},
		{0.41, 2},
		{0.99, 2},
	}
	for _, tt := range tests {
		if got := SelectIndex(props, 100, tt.roll); got != tt.want {
			t.Errorf("SelectIndex(roll=%v) = %d, want %d", tt.roll, got, tt.want)
		}
	}
}

func TestSelectIndex_NeverPicksZeroPropensity(t *testing.T) {
	props := []float64{0, 5, 0, 5, 0}
	for i := 0; i < 100; i++ {
		roll := float64(i) / 100
		idx := SelectIndex(props, 10, roll)
		if props[idx] == 0 {
			t.Fatalf("roll %v selected zero-propensity index %d", roll, idx)
		}
	}
}

func TestSelectIndex_FallbackToLastPositive(t *testing.T) {
	// the total is overstated so the running sum never passes the roll
	props := []float64{1, 1, 0}
	if got := SelectIndex(props, 10, 0.9); got != 1 {
		t.Errorf("Expected fallback to last positive index 1, got %d", got)
	}
}

func TestScheduler_Draws(t *testing.T) {
	s, err := NewScheduler(rollSource(0.5), DefaultTimeScale)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if s.TimeScale() != DefaultTimeScale {
		t.Errorf("Expected time scale %v, got %v", DefaultTimeScale, s.TimeScale())
	}
	if got := s.SelectReaction([]float64{1, 1}, 2); got != 1 {
		t.Errorf("Expected index 1 for roll 0.5, got %d", got)
	}
	want := math.Ln2 / 4
	if got := s.WaitingTime(4); math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected waiting time %v, got %v", want, got)
	}
	if !math.IsInf(s.WaitingTime(0), 1) {
		t.Error("Expected +Inf waiting time for zero rate")
	}
}
