package kinetics

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// DefaultLifetime is how long, in seconds, a freshly played reaction stays active.
const DefaultLifetime = 10.0

// ReactionID identifies an active reaction inside one Simulation.
// IDs are handed out on insertion and never reused; zero means "not inserted".
type ReactionID uint64

// Reaction is a stoichiometric rule: consume Reactants, produce Products,
// scaled by Rate. It does not own species counts; the Simulation passes the
// live vector in when a propensity is needed.
type Reaction struct {
	ID            ReactionID
	Reactants     SpeciesVector
	Products      SpeciesVector
	Rate          int
	RemainingTime float64
}

// NewReaction creates a reaction with the default lifetime.
// Reactants and products must have the same length and no negative entries,
// and the rate must not be negative.
func NewReaction(reactants, products []int, rate int) (Reaction, error) {
	r := Reaction{
		Reactants:     SpeciesVector(reactants).Clone(),
		Products:      SpeciesVector(products).Clone(),
		Rate:          rate,
		RemainingTime: DefaultLifetime,
	}
	if err := r.Validate(len(reactants)); err != nil {
		return Reaction{}, err
	}
	return r, nil
}

// Validate checks the reaction against a species count of n.
func (r Reaction) Validate(n int) error {
	err := &ValidationError{}
	if len(r.Reactants) != n {
		err.Add(fmt.Sprintf("reactants have %d entries, want %d", len(r.Reactants), n))
	}
	if len(r.Products) != n {
		err.Add(fmt.Sprintf("products have %d entries, want %d", len(r.Products), n))
	}
	for i, c := range r.Reactants {
		if c < 0 {
			err.Add(fmt.Sprintf("reactant %d is negative (%d)", i, c))
		}
	}
	for i, c := range r.Products {
		if c < 0 {
			err.Add(fmt.Sprintf("product %d is negative (%d)", i, c))
		}
	}
	if r.Rate < 0 {
		err.Add(fmt.Sprintf("rate is negative (%d)", r.Rate))
	}
	return err.OrNil()
}

// Clone returns a deep copy so callers never alias the stoichiometry slices.
func (r Reaction) Clone() Reaction {
	r.Reactants = r.Reactants.Clone()
	r.Products = r.Products.Clone()
	return r
}

// SameAs reports structural equality: same reactants, products and rate.
// It ignores ID and remaining time and is only meant for display and dedup hints.
func (r Reaction) SameAs(o Reaction) bool {
	if r.Rate != o.Rate || len(r.Reactants) != len(o.Reactants) || len(r.Products) != len(o.Products) {
		return false
	}
	for i := range r.Reactants {
		if r.Reactants[i] != o.Reactants[i] {
			return false
		}
	}
	for i := range r.Products {
		if r.Products[i] != o.Products[i] {
			return false
		}
	}
	return true
}

// Expired reports whether the remaining time has dropped below zero.
// Exactly zero is still alive.
func (r Reaction) Expired() bool {
	return r.RemainingTime < 0
}

// RateExpression is the propensity of r against the given species counts.
func (r Reaction) RateExpression(species SpeciesVector) float64 {
	return RateExpression(r, species)
}

// Label renders the compact equation shown on cards and sent to replicas,
// e.g. "1Red + 1Blue -1> 1x1". Species without a name fall back to "s<i>".
func (r Reaction) Label(names []SpeciesName) string {
	var b strings.Builder
	writeSide(&b, r.Reactants, names)
	b.WriteString(" -")
	b.WriteString(strconv.Itoa(r.Rate))
	b.WriteString("> ")
	writeSide(&b, r.Products, names)
	return b.String()
}

func writeSide(b *strings.Builder, side SpeciesVector, names []SpeciesName) {
	first := true
	for i, c := range side {
		if c <= 0 {
			continue
		}
		if !first {
			b.WriteString(" + ")
		}
		first = false
		b.WriteString(strconv.Itoa(c))
		if i < len(names) && names[i] != "" {
			b.WriteString(string(names[i]))
		} else {
			b.WriteString("s" + strconv.Itoa(i))
		}
	}
	if first {
		b.WriteString("0")
	}
}

// RandomReaction builds a reaction with 1..n reactant draws, 1..2 product
// draws and a rate in 1..5, the way sandbox matches seed extra reactions.
func RandomReaction(rng *rand.Rand, n int) (Reaction, error) {
	if n <= 0 {
		return Reaction{}, fmt.Errorf("%w: species count must be positive", ErrInvalidConfig)
	}
	reactants := make([]int, n)
	products := make([]int, n)
	for range rng.Intn(n) + 1 {
		reactants[rng.Intn(n)]++
	}
	for range rng.Intn(2) + 1 {
		products[rng.Intn(n)]++
	}
	return NewReaction(reactants, products, rng.Intn(5)+1)
}
