package kinetics

import (
	"fmt"
)

// SpeciesName is the name/identifier of a species type.
type SpeciesName string

// Names of the five species used by the standard match.
const (
	Red  SpeciesName = "Red"
	Blue SpeciesName = "Blue"
	X1   SpeciesName = "x1"
	X2   SpeciesName = "x2"
	X3   SpeciesName = "x3"
)

// Species describes one slot of the species vector.
// The core only cares about the position; names are for labels and logs.
type Species struct {
	Name        SpeciesName
	Description string
	Meta        map[string]any
}

// DefaultSpecies returns the species of the standard five-species match.
func DefaultSpecies() []Species {
	return []Species{
		{Name: Red, Description: "red player's species"},
		{Name: Blue, Description: "blue player's species"},
		{Name: X1, Description: "intermediate x1"},
		{Name: X2, Description: "intermediate x2"},
		{Name: X3, Description: "intermediate x3"},
	}
}

// DefaultInitialCounts are the counts a standard match starts from.
func DefaultInitialCounts() SpeciesVector {
	return SpeciesVector{100, 100, 30, 30, 30}
}

// SpeciesNames extracts the names of the given species in order.
func SpeciesNames(species []Species) []SpeciesName {
	names := make([]SpeciesName, len(species))
	for i, sp := range species {
		names[i] = sp.Name
	}
	return names
}

// SpeciesVector holds one non-negative count (or coefficient) per species.
type SpeciesVector []int

// NewSpeciesVector returns a zeroed vector of length n.
func NewSpeciesVector(n int) SpeciesVector {
	return make(SpeciesVector, n)
}

// Clone returns an independent copy of v.
func (v SpeciesVector) Clone() SpeciesVector {
	if v == nil {
		return nil
	}
	out := make(SpeciesVector, len(v))
	copy(out, v)
	return out
}

// Total returns the sum of all entries.
func (v SpeciesVector) Total() int {
	sum := 0
	for _, c := range v {
		sum += c
	}
	return sum
}

// IsZero reports whether every entry is zero.
func (v SpeciesVector) IsZero() bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

// Validate checks that v has length n and no negative entries.
func (v SpeciesVector) Validate(n int) error {
	if len(v) != n {
		return fmt.Errorf("%w: vector has %d entries, want %d", ErrInvalidConfig, len(v), n)
	}
	for i, c := range v {
		if c < 0 {
			return fmt.Errorf("%w: entry %d is negative (%d)", ErrInvalidConfig, i, c)
		}
	}
	return nil
}

// CanApply reports whether adding delta keeps every count non-negative.
func (v SpeciesVector) CanApply(delta []int) bool {
	if len(delta) != len(v) {
		return false
	}
	for i, d := range delta {
		if v[i]+d < 0 {
			return false
		}
	}
	return true
}

// Apply adds delta element-wise in place. The vector is left unchanged
// when the lengths differ or when any count would become negative.
func (v SpeciesVector) Apply(delta []int) error {
	if len(delta) != len(v) {
		return fmt.Errorf("%w: delta has %d entries, want %d", ErrInvalidConfig, len(delta), len(v))
	}
	if !v.CanApply(delta) {
		return ErrNegativeCount
	}
	for i, d := range delta {
		v[i] += d
	}
	return nil
}
