package kinetics

import (
	"fmt"
	"strings"
)

// ModifierKind is the closed set of parameters a modifier can scale.
type ModifierKind int

const (
	// ModifierTotalRate is reserved for a global rate effect and is not implemented.
	ModifierTotalRate ModifierKind = iota
	ModifierReactionRate
	ModifierReactionTime
	ModifierReactionReactants
	ModifierReactionProducts
)

func (k ModifierKind) String() string {
	switch k {
	case ModifierTotalRate:
		return "total_rate"
	case ModifierReactionRate:
		return "reaction_rate"
	case ModifierReactionTime:
		return "reaction_time"
	case ModifierReactionReactants:
		return "reaction_reactants"
	case ModifierReactionProducts:
		return "reaction_products"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the five known kinds.
func (k ModifierKind) Valid() bool {
	return k >= ModifierTotalRate && k <= ModifierReactionProducts
}

// ParseModifierKind accepts the String form (case-insensitive) or a few short aliases.
func ParseModifierKind(s string) (ModifierKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "total_rate", "totalrate":
		return ModifierTotalRate, nil
	case "reaction_rate", "reactionrate", "rate":
		return ModifierReactionRate, nil
	case "reaction_time", "reactiontime", "time":
		return ModifierReactionTime, nil
	case "reaction_reactants", "reactionreactants", "reactants":
		return ModifierReactionReactants, nil
	case "reaction_products", "reactionproducts", "products":
		return ModifierReactionProducts, nil
	default:
		return 0, fmt.Errorf("%w: unknown modifier kind %q", ErrInvalidConfig, s)
	}
}

// Multiplier is a rational factor kept as numerator/denominator until applied.
type Multiplier struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Validate rejects zero denominators and non-positive factors.
func (m Multiplier) Validate() error {
	if m.Denominator == 0 {
		return fmt.Errorf("%w: multiplier has a zero denominator", ErrInvalidConfig)
	}
	if m.Numerator <= 0 || m.Denominator < 0 {
		return fmt.Errorf("%w: multiplier %d/%d must be positive", ErrInvalidConfig, m.Numerator, m.Denominator)
	}
	return nil
}

// Float returns the factor as a float64.
func (m Multiplier) Float() float64 {
	return float64(m.Numerator) / float64(m.Denominator)
}

func (m Multiplier) String() string {
	return fmt.Sprintf("%d/%d", m.Numerator, m.Denominator)
}

// scale multiplies v by the factor, truncating toward zero.
func (m Multiplier) scale(v int) int {
	return v * m.Numerator / m.Denominator
}

// unscale divides v by the factor, truncating toward zero. It is the lossy
// inverse of scale: odd values scaled by 1/2 do not come back intact.
func (m Multiplier) unscale(v int) int {
	return v * m.Denominator / m.Numerator
}

func (m Multiplier) inverse() Multiplier {
	return Multiplier{Numerator: m.Denominator, Denominator: m.Numerator}
}

// Modifier is a mutation request waiting for a target.
// Duration > 0 makes it a timed effect reverted on expiry;
// otherwise the change is permanent.
type Modifier struct {
	Kind       ModifierKind `json:"kind"`
	Multiplier Multiplier   `json:"multiplier"`
	Duration   float64      `json:"duration"`
}

// Validate checks the kind and the multiplier.
func (m Modifier) Validate() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: unknown modifier kind %d", ErrInvalidConfig, int(m.Kind))
	}
	return m.Multiplier.Validate()
}

// Timed reports whether applying m starts a revertible effect.
func (m Modifier) Timed() bool {
	return m.Duration > 0
}

func (m Modifier) String() string {
	return fmt.Sprintf("%s x%s", m.Kind, m.Multiplier)
}

// applyModifier scales the field selected by kind.
func applyModifier(kind ModifierKind, r *Reaction, m Multiplier) error {
	switch kind {
	case ModifierTotalRate:
		return fmt.Errorf("%w: total rate modifier", ErrNotImplemented)
	case ModifierReactionRate:
		scaleRate(r, m)
	case ModifierReactionTime:
		scaleTime(r, m)
	case ModifierReactionReactants:
		scaleReactants(r, m)
	case ModifierReactionProducts:
		scaleProducts(r, m)
	default:
		return fmt.Errorf("%w: unknown modifier kind %d", ErrInvalidConfig, int(kind))
	}
	return nil
}

// revertModifier divides the same field back out.
func revertModifier(kind ModifierKind, r *Reaction, m Multiplier) error {
	switch kind {
	case ModifierTotalRate:
		return fmt.Errorf("%w: total rate modifier", ErrNotImplemented)
	case ModifierReactionRate:
		r.Rate = m.unscale(r.Rate)
	case ModifierReactionTime:
		scaleTime(r, m.inverse())
	case ModifierReactionReactants:
		for i := range r.Reactants {
			r.Reactants[i] = m.unscale(r.Reactants[i])
		}
	case ModifierReactionProducts:
		for i := range r.Products {
			r.Products[i] = m.unscale(r.Products[i])
		}
	default:
		return fmt.Errorf("%w: unknown modifier kind %d", ErrInvalidConfig, int(kind))
	}
	return nil
}

func scaleRate(r *Reaction, m Multiplier) {
	r.Rate = m.scale(r.Rate)
}

func scaleTime(r *Reaction, m Multiplier) {
	r.RemainingTime = r.RemainingTime * float64(m.Numerator) / float64(m.Denominator)
}

func scaleReactants(r *Reaction, m Multiplier) {
	for i := range r.Reactants {
		r.Reactants[i] = m.scale(r.Reactants[i])
	}
}

func scaleProducts(r *Reaction, m Multiplier) {
	for i := range r.Products {
		r.Products[i] = m.scale(r.Products[i])
	}
}
