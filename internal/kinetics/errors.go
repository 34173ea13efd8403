package kinetics

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidConfig reports a malformed request: zero denominators,
	// mismatched vector lengths, negative stoichiometry and the like.
	// The rejected operation leaves the simulation untouched.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrReactionNotFound is returned when a reaction ID or index does not
	// refer to an active reaction. Callers treat it as "already gone".
	ErrReactionNotFound = errors.New("reaction not found")

	// ErrReactionSetFull is returned by AddReaction when the active cap is reached.
	ErrReactionSetFull = errors.New("reaction set is full")

	// ErrModifierArmed is returned when arming while the single slot is taken.
	ErrModifierArmed = errors.New("a modifier is already armed")

	// ErrNoModifierArmed is returned by ApplyModifier with an empty slot.
	ErrNoModifierArmed = errors.New("no modifier armed")

	// ErrNotImplemented marks modifier kinds that are reserved but not built yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNegativeCount is returned when an update would drive a species count below zero.
	ErrNegativeCount = errors.New("species count would become negative")

	// ErrNoReactionsPossible is returned by the batch driver once the total rate drops to zero.
	ErrNoReactionsPossible = errors.New("no more reactions are possible")

	// ErrRunning is returned when the batch driver is asked to run while the
	// realtime loop owns the simulation.
	ErrRunning = errors.New("simulation is running in realtime")
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid configuration: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "validation errors: " + strings.Join(e.Issues, "; ")
}

// Unwrap lets errors.Is match a ValidationError against ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// OrNil returns e when it holds issues and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasIssues() {
		return e
	}
	return nil
}
