package kinetics

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// DefaultTimeScale slows the per-tick firing probability down to a playable pace.
const DefaultTimeScale = 100.0

// Scheduler makes the two random decisions of a tick: whether an event
// fires, and which reaction it is. Both are pure functions of the inputs plus
// one draw from the scheduler's source.
type Scheduler struct {
	rng       *rand.Rand
	timeScale float64
}

// NewScheduler creates a scheduler drawing from src. A nil src seeds from the clock.
func NewScheduler(src rand.Source, timeScale float64) (*Scheduler, error) {
	if !(timeScale > 0) || math.IsInf(timeScale, 0) {
		return nil, fmt.Errorf("%w: time scale must be a positive finite number, got %v", ErrInvalidConfig, timeScale)
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scheduler{rng: rand.New(src), timeScale: timeScale}, nil
}

// TimeScale returns the divisor applied to the firing probability.
func (s *Scheduler) TimeScale() float64 {
	return s.timeScale
}

// Rand exposes the scheduler's generator for other draws of the same tick context.
func (s *Scheduler) Rand() *rand.Rand {
	return s.rng
}

// FireProbability is the chance of at least one event within elapsed seconds
// of a process with the given total rate: 1 - exp(-totalRate*elapsed).
func FireProbability(elapsed, totalRate float64) float64 {
	if elapsed <= 0 || totalRate <= 0 {
		return 0
	}
	return 1 - math.Exp(-totalRate*elapsed)
}

// ShouldFire decides a poll with an explicit roll in [0,1).
// It fires iff roll <= FireProbability/timeScale; a zero probability never fires.
func ShouldFire(roll, elapsed, totalRate, timeScale float64) bool {
	p := FireProbability(elapsed, totalRate)
	if p <= 0 {
		return false
	}
	return roll <= p/timeScale
}

// FireDecision draws a roll and applies ShouldFire.
func (s *Scheduler) FireDecision(elapsed, totalRate float64) bool {
	return ShouldFire(s.rng.Float64(), elapsed, totalRate, s.timeScale)
}

// SelectIndex walks the roulette wheel: it accumulates propensity/totalRate in
// order and returns the first index whose running sum exceeds roll. If float
// drift keeps the sum at or below roll it falls back to the last index with a
// positive propensity, or the last index when none is positive.
// Callers must ensure totalRate > 0 and len(propensities) > 0.
func SelectIndex(propensities []float64, totalRate, roll float64) int {
	choice := 0.0
	lastPositive := -1
	for i, p := range propensities {
		if p > 0 {
			lastPositive = i
		}
		choice += p / totalRate
		if choice > roll {
			return i
		}
	}
	if lastPositive >= 0 {
		return lastPositive
	}
	return len(propensities) - 1
}

// SelectReaction draws a roll and applies SelectIndex.
func (s *Scheduler) SelectReaction(propensities []float64, totalRate float64) int {
	return SelectIndex(propensities, totalRate, s.rng.Float64())
}

// WaitingTime draws an exponential inter-event time for the batch driver.
func (s *Scheduler) WaitingTime(totalRate float64) float64 {
	if totalRate <= 0 {
		return math.Inf(1)
	}
	return -math.Log(1-s.rng.Float64()) / totalRate
}
