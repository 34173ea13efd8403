package kinetics

import (
	"encoding/json"
	"fmt"
)

// RunningReaction is what a replica needs to draw an active reaction.
type RunningReaction struct {
	Label         string  `json:"label"`
	RemainingTime float64 `json:"remaining_time"`
}

// Snapshot is the periodic authoritative state sent to replicas: the
// ordered species counts followed by each active reaction's label and
// remaining time. Seq increases with every snapshot of the same match.
type Snapshot struct {
	MatchID       MatchID           `json:"match_id"`
	Seq           uint64            `json:"seq"`
	Time          float64           `json:"time"`
	Species       []int             `json:"species"`
	Reactions     []RunningReaction `json:"reactions"`
	ModifierArmed bool              `json:"modifier_armed,omitempty"`
}

// Snapshot captures the current state and bumps the sequence number. It is
// what gets published to replicas.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return s.snapshotLocked()
}

// State returns the current state under the last published sequence number
// without bumping it, for readers that do not publish.
func (s *Simulation) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	running := make([]RunningReaction, 0, s.reactions.Len())
	for _, r := range s.reactions.view() {
		running = append(running, RunningReaction{
			Label:         r.Label(s.names),
			RemainingTime: r.RemainingTime,
		})
	}
	return Snapshot{
		MatchID:       s.matchID,
		Seq:           s.seq,
		Time:          s.clock,
		Species:       s.live.Clone(),
		Reactions:     running,
		ModifierArmed: s.pending != nil,
	}
}

// ValidateSnapshot checks that a snapshot carries exactly n species counts,
// none of them negative, and that every reaction has a label.
// n <= 0 skips the length check.
func ValidateSnapshot(snapshot Snapshot, n int) error {
	if n > 0 && len(snapshot.Species) != n {
		return fmt.Errorf("%w: snapshot has %d species, want %d", ErrInvalidConfig, len(snapshot.Species), n)
	}
	for i, c := range snapshot.Species {
		if c < 0 {
			return fmt.Errorf("%w: snapshot species %d is negative (%d)", ErrInvalidConfig, i, c)
		}
	}
	for i, r := range snapshot.Reactions {
		if r.Label == "" {
			return fmt.Errorf("%w: snapshot reaction at index %d has empty label", ErrInvalidConfig, i)
		}
	}
	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}
