// Package deck parses card definitions and deals them to a match.
//
// A deck is CSV text with one card per line. The first field selects the
// card type:
//
//	0,cost,duration                                  plain card, no effect
//	1,cost,duration,rate,n,reactants...,products...  reaction card
//	2,cost,duration,numerator,denominator            reaction rate modifier
//	3,cost,duration,kind,numerator,denominator       general modifier
//
// kind is either the modifier number (0 total rate, 1 rate, 2 time,
// 3 reactants, 4 products) or its name. Lines starting with '#' are comments.
package deck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daniacca/overreaction/internal/kinetics"
)

// Type is the leading field of a card line.
type Type int

const (
	TypePlain Type = iota
	TypeReaction
	TypeRateModifier
	TypeModifier
)

// Player is the part of a match a card acts on.
type Player interface {
	AddReaction(r kinetics.Reaction) (kinetics.ReactionID, error)
	ArmModifier(m kinetics.Modifier) (kinetics.EffectID, error)
}

// Played reports what playing a card did. At most one ID is set.
type Played struct {
	ReactionID kinetics.ReactionID `json:"reaction_id,omitempty"`
	EffectID   kinetics.EffectID   `json:"effect_id,omitempty"`
}

// Card is one playable card.
type Card interface {
	Type() Type
	Cost() int
	Duration() int
	// Describe renders the card text using the given species names.
	Describe(names []kinetics.SpeciesName) string
	// Fields returns the card as a deck line, type first.
	Fields() []string
	Play(p Player) (Played, error)
}

type base struct {
	cost     int
	duration int
}

func (b base) Cost() int     { return b.cost }
func (b base) Duration() int { return b.duration }

func (b base) fields(t Type) []string {
	return []string{strconv.Itoa(int(t)), strconv.Itoa(b.cost), strconv.Itoa(b.duration)}
}

// PlainCard has a cost and a duration and does nothing when played.
type PlainCard struct {
	base
}

// NewPlainCard creates a card without effect.
func NewPlainCard(cost, duration int) *PlainCard {
	return &PlainCard{base{cost, duration}}
}

func (c *PlainCard) Type() Type { return TypePlain }

func (c *PlainCard) Describe([]kinetics.SpeciesName) string {
	return fmt.Sprintf("Default card with\ncost: %d\nand duration: %d", c.cost, c.duration)
}

func (c *PlainCard) Fields() []string { return c.fields(TypePlain) }

func (c *PlainCard) Play(Player) (Played, error) { return Played{}, nil }

// ReactionCard adds its reaction to the match when played.
// A positive duration overrides the reaction's lifetime.
type ReactionCard struct {
	base
	reaction kinetics.Reaction
}

// NewReactionCard creates a reaction card.
func NewReactionCard(cost, duration int, r kinetics.Reaction) *ReactionCard {
	r = r.Clone()
	if duration > 0 {
		r.RemainingTime = float64(duration)
	}
	return &ReactionCard{base: base{cost, duration}, reaction: r}
}

func (c *ReactionCard) Type() Type { return TypeReaction }

// Reaction returns a copy of the card's reaction.
func (c *ReactionCard) Reaction() kinetics.Reaction { return c.reaction.Clone() }

func (c *ReactionCard) Describe(names []kinetics.SpeciesName) string {
	return fmt.Sprintf("Cost: %d\nDuration: %d\nReaction: %s", c.cost, c.duration, c.reaction.Label(names))
}

func (c *ReactionCard) Fields() []string {
	return append(c.fields(TypeReaction), kinetics.FormatReaction(c.reaction)...)
}

func (c *ReactionCard) Play(p Player) (Played, error) {
	id, err := p.AddReaction(c.reaction)
	if err != nil {
		return Played{}, err
	}
	return Played{ReactionID: id}, nil
}

// ModifierCard arms a modifier when played. The card duration becomes the
// effect duration, so a zero duration makes the change permanent.
type ModifierCard struct {
	base
	modifier kinetics.Modifier
	short    bool
}

// NewModifierCard creates a general modifier card.
func NewModifierCard(cost, duration int, kind kinetics.ModifierKind, m kinetics.Multiplier) *ModifierCard {
	return &ModifierCard{
		base: base{cost, duration},
		modifier: kinetics.Modifier{
			Kind:       kind,
			Multiplier: m,
			Duration:   float64(duration),
		},
	}
}

// NewRateModifierCard creates the short form of a reaction rate modifier.
func NewRateModifierCard(cost, duration int, m kinetics.Multiplier) *ModifierCard {
	c := NewModifierCard(cost, duration, kinetics.ModifierReactionRate, m)
	c.short = true
	return c
}

func (c *ModifierCard) Type() Type {
	if c.short {
		return TypeRateModifier
	}
	return TypeModifier
}

// Modifier returns the modifier armed by the card.
func (c *ModifierCard) Modifier() kinetics.Modifier { return c.modifier }

func (c *ModifierCard) Describe([]kinetics.SpeciesName) string {
	return fmt.Sprintf("%s Modifier Card\nCost: %d\nDuration: %d\nModifier: %s",
		kindTitle(c.modifier.Kind), c.cost, c.duration, c.modifier.Multiplier)
}

func (c *ModifierCard) Fields() []string {
	m := c.modifier.Multiplier
	if c.short {
		return append(c.fields(TypeRateModifier), strconv.Itoa(m.Numerator), strconv.Itoa(m.Denominator))
	}
	return append(c.fields(TypeModifier),
		strconv.Itoa(int(c.modifier.Kind)), strconv.Itoa(m.Numerator), strconv.Itoa(m.Denominator))
}

func (c *ModifierCard) Play(p Player) (Played, error) {
	id, err := p.ArmModifier(c.modifier)
	if err != nil {
		return Played{}, err
	}
	return Played{EffectID: id}, nil
}

func kindTitle(k kinetics.ModifierKind) string {
	switch k {
	case kinetics.ModifierTotalRate:
		return "Total Rate"
	case kinetics.ModifierReactionRate:
		return "Reaction Rate"
	case kinetics.ModifierReactionTime:
		return "Time"
	case kinetics.ModifierReactionReactants:
		return "Reactant"
	case kinetics.ModifierReactionProducts:
		return "Product"
	default:
		return "Unknown"
	}
}

// PlayCard plays c on p.
func PlayCard(p Player, c Card) (Played, error) {
	if c == nil {
		return Played{}, fmt.Errorf("%w: no card", kinetics.ErrInvalidConfig)
	}
	return c.Play(p)
}

// PlayCardWithLifetime plays c on p. A reaction card with no duration of its
// own keeps its reaction for lifetime seconds instead of the built-in
// default. A non-positive lifetime behaves like PlayCard.
func PlayCardWithLifetime(p Player, c Card, lifetime float64) (Played, error) {
	if rc, ok := c.(*ReactionCard); ok && rc.duration <= 0 && lifetime > 0 {
		r := rc.reaction.Clone()
		r.RemainingTime = lifetime
		c = &ReactionCard{base: rc.base, reaction: r}
	}
	return PlayCard(p, c)
}

// Line renders c as a deck line.
func Line(c Card) string {
	return strings.Join(c.Fields(), ",")
}
