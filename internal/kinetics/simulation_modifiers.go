package kinetics

import "fmt"

// ArmModifier reserves the single modifier slot for m. It fails with
// ErrModifierArmed while another modifier waits for a target, leaving the
// armed one untouched. An armed modifier stays armed until it is applied or
// ResetModifier is called; there is no timeout.
func (s *Simulation) ArmModifier(m Modifier) (EffectID, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("arm modifier: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return 0, fmt.Errorf("arm %s: %w (%s)", m, ErrModifierArmed, s.pending.Modifier)
	}
	s.nextEffectID++
	s.pending = &Effect{ID: s.nextEffectID, Modifier: m, State: EffectArmed}
	s.logger.Debugf("modifier armed: match=%s effect=%d modifier=%s", s.matchID, s.pending.ID, m)
	return s.pending.ID, nil
}

// ArmedModifier returns the modifier waiting for a target, if any.
func (s *Simulation) ArmedModifier() (Effect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return Effect{}, false
	}
	return *s.pending, true
}

// ResetModifier clears the slot without applying it.
// It reports whether something was armed.
func (s *Simulation) ResetModifier() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return false
	}
	s.logger.Debugf("modifier reset: match=%s effect=%d", s.matchID, s.pending.ID)
	s.pending = nil
	return true
}

// ApplyModifier applies the armed modifier to the reaction displayed at
// index. An index that does not name an active reaction keeps the slot armed.
func (s *Simulation) ApplyModifier(index int) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Effect{}, ErrNoModifierArmed
	}
	r, ok := s.reactions.At(index)
	if !ok {
		return Effect{}, fmt.Errorf("apply modifier at index %d: %w", index, ErrReactionNotFound)
	}
	return s.applyLocked(r.ID)
}

// ApplyModifierTo applies the armed modifier to the reaction with the given id.
func (s *Simulation) ApplyModifierTo(id ReactionID) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Effect{}, ErrNoModifierArmed
	}
	if s.reactions.IndexOf(id) < 0 {
		return Effect{}, fmt.Errorf("apply modifier to reaction %d: %w", id, ErrReactionNotFound)
	}
	return s.applyLocked(id)
}

// applyLocked moves the pending effect from Armed to Applied. The slot is
// released whether or not the kind is implemented. Must hold mu.
func (s *Simulation) applyLocked(id ReactionID) (Effect, error) {
	effect := *s.pending
	s.pending = nil

	var applyErr error
	s.reactions.Update(id, func(r *Reaction) {
		applyErr = applyModifier(effect.Modifier.Kind, r, effect.Modifier.Multiplier)
	})
	if applyErr != nil {
		s.logger.Warnf("modifier not applied: match=%s effect=%d error=%v", s.matchID, effect.ID, applyErr)
		return Effect{}, fmt.Errorf("apply %s: %w", effect.Modifier, applyErr)
	}
	s.invalidate()

	effect.Target = id
	effect.State = EffectApplied
	effect.TimeRemaining = effect.Modifier.Duration
	if effect.Modifier.Timed() {
		s.effects = append(s.effects, effect)
	}
	s.logger.Debugf("modifier applied: match=%s effect=%d reaction=%d modifier=%s", s.matchID, effect.ID, id, effect.Modifier)
	return effect, nil
}

// ActiveEffects returns the timed effects still running.
func (s *Simulation) ActiveEffects() []Effect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Effect, len(s.effects))
	copy(out, s.effects)
	return out
}

// ageEffectsLocked counts every active effect down by dt and reverts those
// whose time ran out. An effect whose target already left the set is
// released without reversal. Must hold mu.
func (s *Simulation) ageEffectsLocked(dt float64) []Effect {
	var reverted []Effect
	kept := s.effects[:0]
	for _, e := range s.effects {
		e.TimeRemaining -= dt
		if e.TimeRemaining >= 0 {
			kept = append(kept, e)
			continue
		}
		found, err := e.release(s.reactions)
		switch {
		case err != nil:
			s.logger.Warnf("effect revert failed: match=%s effect=%d error=%v", s.matchID, e.ID, err)
		case !found:
			s.logger.Debugf("effect target gone, nothing to revert: match=%s effect=%d reaction=%d", s.matchID, e.ID, e.Target)
		default:
			s.invalidate()
		}
		reverted = append(reverted, e)
	}
	for i := len(kept); i < len(s.effects); i++ {
		s.effects[i] = Effect{}
	}
	s.effects = kept
	return reverted
}
