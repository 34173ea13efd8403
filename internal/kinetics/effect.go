package kinetics

// EffectID identifies a modifier from arming to reversal.
type EffectID uint64

// EffectState tracks where a modifier is in its lifecycle.
type EffectState int

const (
	// EffectArmed: reserved in the single slot, waiting for a target pick.
	EffectArmed EffectState = iota
	// EffectApplied: multiplier applied to the target, countdown running.
	EffectApplied
	// EffectReverted: multiplier undone (or target gone), reference released.
	EffectReverted
)

func (s EffectState) String() string {
	switch s {
	case EffectArmed:
		return "armed"
	case EffectApplied:
		return "applied"
	case EffectReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Effect is a modifier bound to a target reaction for a limited time.
// It borrows the target by ID and releases it exactly once.
type Effect struct {
	ID            EffectID
	Modifier      Modifier
	Target        ReactionID
	TimeRemaining float64
	State         EffectState
}

// release reverts the effect on the set. It returns false when the target
// had already left the set, in which case nothing is reverted.
// Calling it on an effect that is not applied is a no-op.
func (e *Effect) release(set *ReactionSet) (bool, error) {
	if e.State != EffectApplied {
		return false, nil
	}
	e.State = EffectReverted
	var revertErr error
	found := set.Update(e.Target, func(r *Reaction) {
		revertErr = revertModifier(e.Modifier.Kind, r, e.Modifier.Multiplier)
	})
	return found, revertErr
}
