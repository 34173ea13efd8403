package kinetics

import (
	"fmt"
	"sync"
)

// Replica is the presentation side of a match. It holds the last
// authoritative snapshot and nothing else: it has no scheduler and no
// reaction set, so it cannot step, add or remove reactions.
type Replica struct {
	mu      sync.RWMutex
	n       int
	last    Snapshot
	hasData bool
}

// NewReplica creates a replica expecting n species per snapshot.
func NewReplica(n int) *Replica {
	return &Replica{n: n}
}

// Ingest replaces the held state with snapshot. Malformed snapshots and
// snapshots older than the one already held are rejected.
func (r *Replica) Ingest(snapshot Snapshot) error {
	if err := ValidateSnapshot(snapshot, r.n); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasData && snapshot.MatchID == r.last.MatchID && snapshot.Seq <= r.last.Seq {
		return fmt.Errorf("%w: stale snapshot seq %d (have %d)", ErrInvalidConfig, snapshot.Seq, r.last.Seq)
	}
	snapshot.Species = append([]int(nil), snapshot.Species...)
	snapshot.Reactions = append([]RunningReaction(nil), snapshot.Reactions...)
	r.last = snapshot
	r.hasData = true
	return nil
}

// Species returns the last received counts.
func (r *Replica) Species() SpeciesVector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SpeciesVector(r.last.Species).Clone()
}

// Reactions returns the last received reaction display rows.
func (r *Replica) Reactions() []RunningReaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RunningReaction(nil), r.last.Reactions...)
}

// Last returns the full last snapshot and whether one was received.
func (r *Replica) Last() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.last
	snap.Species = append([]int(nil), r.last.Species...)
	snap.Reactions = append([]RunningReaction(nil), r.last.Reactions...)
	return snap, r.hasData
}
