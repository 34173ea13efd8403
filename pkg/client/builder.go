package client

import (
	"fmt"

	"github.com/daniacca/overreaction/internal/kinetics"
)

// ReactionBuilder provides a fluent API for building reactions over a
// fixed number of species, addressed by their index in the species vector.
type ReactionBuilder struct {
	reactants []int
	products  []int
	rate      int
	lifetime  float64
	err       error
}

// NewReaction creates a builder for a reaction over n species with rate 1.
func NewReaction(n int) *ReactionBuilder {
	rb := &ReactionBuilder{rate: 1}
	if n <= 0 {
		rb.err = fmt.Errorf("%w: reaction needs at least one species", kinetics.ErrInvalidConfig)
		return rb
	}
	rb.reactants = make([]int, n)
	rb.products = make([]int, n)
	return rb
}

func (rb *ReactionBuilder) add(side []int, species, count int, what string) {
	if rb.err != nil {
		return
	}
	if species < 0 || species >= len(side) {
		rb.err = fmt.Errorf("%w: %s species %d out of range [0,%d)", kinetics.ErrInvalidConfig, what, species, len(side))
		return
	}
	side[species] += count
}

// Consume adds count units of species to the left-hand side.
func (rb *ReactionBuilder) Consume(species, count int) *ReactionBuilder {
	rb.add(rb.reactants, species, count, "reactant")
	return rb
}

// Produce adds count units of species to the right-hand side.
func (rb *ReactionBuilder) Produce(species, count int) *ReactionBuilder {
	rb.add(rb.products, species, count, "product")
	return rb
}

// Rate sets the integer rate constant.
func (rb *ReactionBuilder) Rate(rate int) *ReactionBuilder {
	rb.rate = rate
	return rb
}

// Lifetime overrides how long, in seconds, the reaction stays active.
// Zero keeps the server default.
func (rb *ReactionBuilder) Lifetime(seconds float64) *ReactionBuilder {
	rb.lifetime = seconds
	return rb
}

// Err returns the first error recorded while building.
func (rb *ReactionBuilder) Err() error {
	return rb.err
}

// Build validates the builder and returns the reaction.
func (rb *ReactionBuilder) Build() (kinetics.Reaction, error) {
	if rb.err != nil {
		return kinetics.Reaction{}, rb.err
	}
	r, err := kinetics.NewReaction(rb.reactants, rb.products, rb.rate)
	if err != nil {
		return kinetics.Reaction{}, err
	}
	if rb.lifetime > 0 {
		r.RemainingTime = rb.lifetime
	}
	return r, nil
}

// Fields renders the reaction in the plain field order accepted by the
// server and by deck lines.
func (rb *ReactionBuilder) Fields() ([]string, error) {
	r, err := rb.Build()
	if err != nil {
		return nil, err
	}
	return kinetics.FormatReaction(r), nil
}

type reactionRequest struct {
	Rate      int     `json:"rate"`
	Reactants []int   `json:"reactants"`
	Products  []int   `json:"products"`
	Lifetime  float64 `json:"lifetime,omitempty"`
}

func (rb *ReactionBuilder) request() reactionRequest {
	return reactionRequest{
		Rate:      rb.rate,
		Reactants: rb.reactants,
		Products:  rb.products,
		Lifetime:  rb.lifetime,
	}
}

// ModifierBuilder provides a fluent API for building modifiers.
type ModifierBuilder struct {
	modifier kinetics.Modifier
}

// NewModifier creates a permanent x1 modifier of the given kind.
func NewModifier(kind kinetics.ModifierKind) *ModifierBuilder {
	return &ModifierBuilder{modifier: kinetics.Modifier{
		Kind:       kind,
		Multiplier: kinetics.Multiplier{Numerator: 1, Denominator: 1},
	}}
}

// Times sets the multiplier to numerator/denominator.
func (mb *ModifierBuilder) Times(numerator, denominator int) *ModifierBuilder {
	mb.modifier.Multiplier = kinetics.Multiplier{Numerator: numerator, Denominator: denominator}
	return mb
}

// For makes the modifier a timed effect lasting seconds.
func (mb *ModifierBuilder) For(seconds float64) *ModifierBuilder {
	mb.modifier.Duration = seconds
	return mb
}

// Build validates and returns the modifier.
func (mb *ModifierBuilder) Build() (kinetics.Modifier, error) {
	if err := mb.modifier.Validate(); err != nil {
		return kinetics.Modifier{}, err
	}
	return mb.modifier, nil
}

type modifierRequest struct {
	Kind        string  `json:"kind"`
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Duration    float64 `json:"duration,omitempty"`
}

func (mb *ModifierBuilder) request() modifierRequest {
	return modifierRequest{
		Kind:        mb.modifier.Kind.String(),
		Numerator:   mb.modifier.Multiplier.Numerator,
		Denominator: mb.modifier.Multiplier.Denominator,
		Duration:    mb.modifier.Duration,
	}
}
