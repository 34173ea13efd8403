package kinetics

import (
	"fmt"
	"sort"
	"sync"
)

// MatchID is a unique identifier for a match
type MatchID string

// MatchManager owns one Simulation per match, each isolated from the others.
// Collaborators get the simulation handed to them by ID; there is no global instance.
type MatchManager struct {
	mu      sync.RWMutex
	matches map[MatchID]*Simulation
	logger  Logger
}

// NewMatchManager creates a new match manager
func NewMatchManager() *MatchManager {
	return NewMatchManagerWithLogger(nil)
}

// NewMatchManagerWithLogger creates a match manager whose simulations log through logger.
func NewMatchManagerWithLogger(logger Logger) *MatchManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &MatchManager{
		matches: make(map[MatchID]*Simulation),
		logger:  logger,
	}
}

// CreateMatch registers sim under id. Returns an error if the id is taken.
func (mm *MatchManager) CreateMatch(id MatchID, sim *Simulation) error {
	if id == "" {
		return fmt.Errorf("%w: match id cannot be empty", ErrInvalidConfig)
	}
	if sim == nil {
		return fmt.Errorf("%w: simulation cannot be nil", ErrInvalidConfig)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, exists := mm.matches[id]; exists {
		return fmt.Errorf("match with id %s already exists", id)
	}

	sim.SetMatchID(id)
	sim.SetLogger(mm.logger)
	mm.matches[id] = sim
	mm.logger.Infof("match created: id=%s", id)
	return nil
}

// GetMatch retrieves a match by ID
func (mm *MatchManager) GetMatch(id MatchID) (*Simulation, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	sim, exists := mm.matches[id]
	return sim, exists
}

// DeleteMatch stops and removes a match.
func (mm *MatchManager) DeleteMatch(id MatchID) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	sim, exists := mm.matches[id]
	if !exists {
		return fmt.Errorf("match with id %s does not exist", id)
	}
	sim.Stop()

	delete(mm.matches, id)
	mm.logger.Infof("match deleted: id=%s", id)
	return nil
}

// ListMatches returns all match IDs in sorted order.
func (mm *MatchManager) ListMatches() []MatchID {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	ids := make([]MatchID, 0, len(mm.matches))
	for id := range mm.matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StopAll stops the realtime loop of every match.
func (mm *MatchManager) StopAll() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	for _, sim := range mm.matches {
		sim.Stop()
	}
}
