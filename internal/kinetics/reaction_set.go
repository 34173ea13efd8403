package kinetics

// ReactionSet is the ordered collection of active reactions.
// Order matters only for display and for the roulette-wheel walk.
// It is not safe for concurrent use; the owning Simulation serializes access.
type ReactionSet struct {
	entries []Reaction
	nextID  ReactionID
}

// NewReactionSet creates an empty set.
func NewReactionSet() *ReactionSet {
	return &ReactionSet{entries: make([]Reaction, 0)}
}

// Len returns the number of active reactions.
func (s *ReactionSet) Len() int {
	return len(s.entries)
}

// Add appends a copy of r under a fresh ID and returns that ID.
func (s *ReactionSet) Add(r Reaction) ReactionID {
	s.nextID++
	r = r.Clone()
	r.ID = s.nextID
	s.entries = append(s.entries, r)
	return r.ID
}

// IndexOf returns the position of id, or -1.
func (s *ReactionSet) IndexOf(id ReactionID) int {
	for i, r := range s.entries {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the reaction with the given id.
func (s *ReactionSet) Get(id ReactionID) (Reaction, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Reaction{}, false
	}
	return s.entries[i].Clone(), true
}

// At returns a copy of the reaction at index i.
func (s *ReactionSet) At(i int) (Reaction, bool) {
	if i < 0 || i >= len(s.entries) {
		return Reaction{}, false
	}
	return s.entries[i].Clone(), true
}

// Remove deletes the reaction with the given id and returns it.
func (s *ReactionSet) Remove(id ReactionID) (Reaction, bool) {
	return s.RemoveAt(s.IndexOf(id))
}

// RemoveAt deletes the reaction at index i and returns it.
func (s *ReactionSet) RemoveAt(i int) (Reaction, bool) {
	if i < 0 || i >= len(s.entries) {
		return Reaction{}, false
	}
	r := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return r, true
}

// Update runs fn against the live reaction with the given id.
// fn must not change the ID.
func (s *ReactionSet) Update(id ReactionID, fn func(r *Reaction)) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	fn(&s.entries[i])
	s.entries[i].ID = id
	return true
}

// All returns copies of every reaction in order.
func (s *ReactionSet) All() []Reaction {
	out := make([]Reaction, len(s.entries))
	for i, r := range s.entries {
		out[i] = r.Clone()
	}
	return out
}

// view exposes the live entries for read-only hot paths inside the package.
func (s *ReactionSet) view() []Reaction {
	return s.entries
}

// DecayAndExpire subtracts dt from every remaining time and drops the
// reactions whose time fell below zero. Expiry is unconditional removal with
// no reversal. The removed reactions are returned in their previous order.
func (s *ReactionSet) DecayAndExpire(dt float64) []Reaction {
	var expired []Reaction
	kept := s.entries[:0]
	for _, r := range s.entries {
		r.RemainingTime -= dt
		if r.Expired() {
			expired = append(expired, r)
			continue
		}
		kept = append(kept, r)
	}
	// clear the tail so dropped slices can be collected
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = Reaction{}
	}
	s.entries = kept
	return expired
}
