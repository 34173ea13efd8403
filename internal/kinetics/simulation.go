package kinetics

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Event describes one fired reaction.
type Event struct {
	ReactionID ReactionID `json:"reaction_id"`
	Index      int        `json:"index"`
	Delta      []int      `json:"delta"`
	Time       float64    `json:"time"`
}

// TickResult reports what one realtime tick did.
type TickResult struct {
	Fired    bool
	Event    Event
	Expired  []Reaction
	Reverted []Effect
}

// Simulation is the authoritative kinetics state of one match: the live
// species counts, the active reactions, the derived update matrix, the
// modifier slot and the running effects. All mutation goes through its
// methods; the mutex only lets snapshot readers run beside the tick.
type Simulation struct {
	mu sync.RWMutex

	matchID   MatchID
	species   []Species
	names     []SpeciesName
	live      SpeciesVector
	reactions *ReactionSet
	maxActive int

	// derived caches, rebuilt by refresh
	matrix       UpdateMatrix
	propensities []float64
	totalRate    float64
	dirty        bool

	scheduler *Scheduler
	clock     float64
	lastEvent float64
	ticks     uint64
	seq       uint64

	pending      *Effect
	effects      []Effect
	nextEffectID EffectID

	logger    Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	isRunning bool
}

// NewSimulation creates a simulation over the given species starting from
// the initial counts. The scheduler uses DefaultTimeScale and a clock seed.
func NewSimulation(species []Species, initial SpeciesVector) (*Simulation, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("%w: at least one species is required", ErrInvalidConfig)
	}
	if err := initial.Validate(len(species)); err != nil {
		return nil, fmt.Errorf("initial counts: %w", err)
	}
	scheduler, err := NewScheduler(nil, DefaultTimeScale)
	if err != nil {
		return nil, err
	}
	sp := make([]Species, len(species))
	copy(sp, species)
	return &Simulation{
		species:   sp,
		names:     SpeciesNames(sp),
		live:      initial.Clone(),
		reactions: NewReactionSet(),
		matrix:    BuildUpdateMatrix(nil, len(sp)),
		scheduler: scheduler,
		logger:    NewNoOpLogger(),
		stopCh:    make(chan struct{}),
	}, nil
}

// SetLogger sets the logger used for lifecycle messages.
func (s *Simulation) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger == nil {
		logger = NewNoOpLogger()
	}
	s.logger = logger
}

// SetMatchID sets the match identifier stamped on snapshots.
func (s *Simulation) SetMatchID(id MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchID = id
}

// MatchID returns the match identifier.
func (s *Simulation) MatchID() MatchID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchID
}

// SetScheduler replaces the random scheduler, e.g. with a seeded one.
func (s *Simulation) SetScheduler(scheduler *Scheduler) {
	if scheduler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = scheduler
}

// SetRandSource reseeds the scheduler keeping its time scale.
func (s *Simulation) SetRandSource(src rand.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scheduler, _ := NewScheduler(src, s.scheduler.TimeScale())
	s.scheduler = scheduler
}

// SetMaxActive caps the number of active reactions; 0 means unlimited.
func (s *Simulation) SetMaxActive(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.maxActive = n
}

// SpeciesInfo returns the species definitions in vector order.
func (s *Simulation) SpeciesInfo() []Species {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Species, len(s.species))
	copy(out, s.species)
	return out
}

// Species returns a copy of the live counts.
func (s *Simulation) Species() SpeciesVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Clone()
}

// Clock returns the realtime clock in seconds, advanced by Tick.
func (s *Simulation) Clock() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// Reactions returns copies of the active reactions in display order.
func (s *Simulation) Reactions() []Reaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reactions.All()
}

// Reaction returns a copy of the active reaction with the given id.
func (s *Simulation) Reaction(id ReactionID) (Reaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reactions.Get(id)
}

// ReactionIndex returns the display position of id, or -1.
func (s *Simulation) ReactionIndex(id ReactionID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reactions.IndexOf(id)
}

// NumReactions returns the number of active reactions.
func (s *Simulation) NumReactions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reactions.Len()
}

// TotalRate returns the current sum of propensities.
func (s *Simulation) TotalRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.totalRate
}

// UpdateMatrix returns the current update matrix.
func (s *Simulation) UpdateMatrix() UpdateMatrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.matrix
}

// Label renders r with this simulation's species names.
func (s *Simulation) Label(r Reaction) string {
	return r.Label(s.names)
}

// invalidate marks the derived caches stale. Must hold mu.
func (s *Simulation) invalidate() {
	s.dirty = true
}

// refresh rebuilds the update matrix when the reaction set changed and
// recomputes the propensities, which also depend on the species counts.
// Must hold mu.
func (s *Simulation) refresh() {
	if s.dirty {
		s.matrix = BuildUpdateMatrix(s.reactions.view(), len(s.live))
		s.dirty = false
	}
	s.propensities = Propensities(s.reactions.view(), s.live)
	s.totalRate = floats.Sum(s.propensities)
}

// AddReaction inserts a copy of r and returns its ID. It also stamps the
// last event time so the new propensity does not trigger an instant fire.
func (s *Simulation) AddReaction(r Reaction) (ReactionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.Validate(len(s.live)); err != nil {
		return 0, fmt.Errorf("add reaction: %w", err)
	}
	if s.maxActive > 0 && s.reactions.Len() >= s.maxActive {
		return 0, fmt.Errorf("add reaction: %w (max %d)", ErrReactionSetFull, s.maxActive)
	}
	id := s.reactions.Add(r)
	s.invalidate()
	s.lastEvent = s.clock
	s.logger.Debugf("reaction added: match=%s id=%d label=%q", s.matchID, id, r.Label(s.names))
	return id, nil
}

// RemoveReaction removes the reaction with the given id and returns it.
func (s *Simulation) RemoveReaction(id ReactionID) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reactions.Remove(id)
	if !ok {
		return Reaction{}, fmt.Errorf("reaction %d: %w", id, ErrReactionNotFound)
	}
	s.afterRemove(r)
	return r, nil
}

// RemoveReactionAt removes the reaction at display index i and returns it.
func (s *Simulation) RemoveReactionAt(i int) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reactions.RemoveAt(i)
	if !ok {
		return Reaction{}, fmt.Errorf("reaction at index %d: %w", i, ErrReactionNotFound)
	}
	s.afterRemove(r)
	return r, nil
}

func (s *Simulation) afterRemove(r Reaction) {
	s.invalidate()
	s.lastEvent = s.clock
	s.logger.Debugf("reaction removed: match=%s id=%d", s.matchID, r.ID)
}

// ChangeReactionRate overwrites the rate of an active reaction.
func (s *Simulation) ChangeReactionRate(id ReactionID, rate int) error {
	if rate < 0 {
		return fmt.Errorf("%w: rate is negative (%d)", ErrInvalidConfig, rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reactions.Update(id, func(r *Reaction) { r.Rate = rate }) {
		return fmt.Errorf("reaction %d: %w", id, ErrReactionNotFound)
	}
	s.invalidate()
	return nil
}

// DecayAndExpire ages every reaction by dt seconds and drops the expired ones.
func (s *Simulation) DecayAndExpire(dt float64) []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decayLocked(dt)
}

func (s *Simulation) decayLocked(dt float64) []Reaction {
	expired := s.reactions.DecayAndExpire(dt)
	if len(expired) > 0 {
		s.invalidate()
		for _, r := range expired {
			s.logger.Debugf("reaction expired: match=%s id=%d", s.matchID, r.ID)
		}
	}
	return expired
}

// StepSimulate fires one reaction chosen by weighted sampling and applies
// its update row. It reports false when nothing happened: an empty or
// exhausted system, a selected reaction whose live propensity is zero, or
// an update that would drive a count negative.
func (s *Simulation) StepSimulate() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

func (s *Simulation) stepLocked() (Event, bool) {
	s.refresh()
	if s.totalRate <= 0 || s.reactions.Len() == 0 {
		return Event{}, false
	}

	next := s.scheduler.SelectReaction(s.propensities, s.totalRate)
	r := s.reactions.view()[next]
	if RateExpression(r, s.live) <= 0 {
		s.logger.Debugf("stale propensity, step skipped: match=%s id=%d", s.matchID, r.ID)
		return Event{}, false
	}

	delta := s.matrix.Row(next)
	if err := s.live.Apply(delta); err != nil {
		s.logger.Debugf("step skipped: match=%s id=%d error=%v", s.matchID, r.ID, err)
		return Event{}, false
	}

	s.lastEvent = s.clock
	return Event{ReactionID: r.ID, Index: next, Delta: delta, Time: s.clock}, true
}

// Tick is the realtime driver: advance the clock by dt seconds, poll the
// fire decision and step when it says so, then decay reactions and age
// effects. It never blocks.
func (s *Simulation) Tick(dt float64) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	s.clock += dt
	s.ticks++

	var res TickResult
	s.refresh()
	if s.scheduler.FireDecision(s.clock-s.lastEvent, s.totalRate) {
		res.Event, res.Fired = s.stepLocked()
	}
	res.Expired = s.decayLocked(dt)
	res.Reverted = s.ageEffectsLocked(dt)
	return res
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// EndTime is the simulated time, in seconds, at which the run stops.
	EndTime float64
	// Pace, when positive, waits Pace of wall time per simulated second
	// between events. Zero runs as fast as possible.
	Pace time.Duration
	// Observe is called after every event attempt.
	Observe func(BatchEvent)
}

// BatchEvent is reported to BatchOptions.Observe.
type BatchEvent struct {
	Time      float64
	Applied   bool
	Event     Event
	TotalRate float64
	Species   SpeciesVector
}

// BatchResult summarizes a RunBatch call.
type BatchResult struct {
	Events  int
	Skipped int
	Time    float64
}

// RunBatch is the non-realtime driver: it draws exponential waiting times
// and steps until EndTime is reached, the context is done, or no reaction
// can fire (ErrNoReactionsPossible). It refuses to run beside Run.
func (s *Simulation) RunBatch(ctx context.Context, opts BatchOptions) (BatchResult, error) {
	var res BatchResult

	s.mu.RLock()
	running := s.isRunning
	s.mu.RUnlock()
	if running {
		return res, ErrRunning
	}

	for res.Time < opts.EndTime {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		s.mu.Lock()
		s.refresh()
		total := s.totalRate
		if total <= 0 {
			s.mu.Unlock()
			s.logger.Infof("batch stopped, no more reactions are possible: match=%s time=%.3f", s.matchID, res.Time)
			return res, ErrNoReactionsPossible
		}
		wait := s.scheduler.WaitingTime(total)
		ev, ok := s.stepLocked()
		species := s.live.Clone()
		s.mu.Unlock()

		res.Time += wait
		if ok {
			res.Events++
		} else {
			res.Skipped++
		}
		if opts.Observe != nil {
			opts.Observe(BatchEvent{Time: res.Time, Applied: ok, Event: ev, TotalRate: total, Species: species})
		}

		if opts.Pace > 0 {
			pause := time.Duration(wait * float64(opts.Pace))
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return res, nil
}

// Run starts the realtime driver in a goroutine, ticking every interval
// with the measured wall-clock delta until Stop is called. It can be called
// again as soon as Stop returns.
func (s *Simulation) Run(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	s.stopCh, s.doneCh = stopCh, doneCh
	s.isRunning = true
	s.mu.Unlock()

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := time.Now()

		for {
			select {
			case now := <-ticker.C:
				s.Tick(now.Sub(last).Seconds())
				last = now
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop stops the realtime driver and waits for its loop to exit, so no tick
// of that run happens after Stop returns.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}

// IsRunning reports whether the realtime driver is active.
func (s *Simulation) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Leader returns the first of Red or Blue whose count reached threshold.
func (s *Simulation) Leader(threshold int) (SpeciesName, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < len(s.live) && i < 2; i++ {
		if s.live[i] >= threshold {
			return s.names[i], true
		}
	}
	return "", false
}
