package kinetics

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewReaction(t *testing.T) {
	r, err := NewReaction([]int{1, 1, 0, 0, 0}, []int{0, 0, 1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("NewReaction: %v", err)
	}
	if r.RemainingTime != DefaultLifetime {
		t.Errorf("Expected lifetime %v, got %v", DefaultLifetime, r.RemainingTime)
	}
	if r.ID != 0 {
		t.Errorf("Expected zero ID before insertion, got %d", r.ID)
	}
}

func TestNewReaction_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		reactants []int
		products  []int
		rate      int
	}{
		{"length mismatch", []int{1, 1}, []int{1}, 1},
		{"negative reactant", []int{-1, 0}, []int{0, 1}, 1},
		{"negative product", []int{1, 0}, []int{0, -1}, 1},
		{"negative rate", []int{1, 0}, []int{0, 1}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReaction(tt.reactants, tt.products, tt.rate)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestReaction_ValidateCollectsIssues(t *testing.T) {
	r := Reaction{Reactants: SpeciesVector{-1}, Products: SpeciesVector{-1}, Rate: -1}
	err := r.Validate(1)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Issues) != 3 {
		t.Errorf("Expected 3 issues, got %v", verr.Issues)
	}
}

func TestReaction_Label(t *testing.T) {
	names := SpeciesNames(DefaultSpecies())
	r := Reaction{Reactants: SpeciesVector{1, 1, 0, 0, 0}, Products: SpeciesVector{0, 0, 1, 0, 0}, Rate: 1}
	if got := r.Label(names); got != "1Red + 1Blue -1> 1x1" {
		t.Errorf("unexpected label %q", got)
	}

	decay := Reaction{Reactants: SpeciesVector{0, 0, 2}, Products: SpeciesVector{0, 0, 0}, Rate: 3}
	if got := decay.Label(nil); got != "2s2 -3> 0" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestReaction_SameAs(t *testing.T) {
	a := Reaction{ID: 1, Reactants: SpeciesVector{1, 0}, Products: SpeciesVector{0, 1}, Rate: 1, RemainingTime: 3}
	b := Reaction{ID: 2, Reactants: SpeciesVector{1, 0}, Products: SpeciesVector{0, 1}, Rate: 1, RemainingTime: 9}
	if !a.SameAs(b) {
		t.Error("Expected structural equality to ignore ID and time")
	}
	b.Rate = 2
	if a.SameAs(b) {
		t.Error("Different rates must not be equal")
	}
}

func TestRandomReaction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		r, err := RandomReaction(rng, 5)
		if err != nil {
			t.Fatalf("RandomReaction: %v", err)
		}
		if r.Rate < 1 || r.Rate > 5 {
			t.Errorf("rate %d out of range", r.Rate)
		}
		if n := r.Reactants.Total(); n < 1 || n > 5 {
			t.Errorf("reactant draws %d out of range", n)
		}
		if n := r.Products.Total(); n < 1 || n > 2 {
			t.Errorf("product draws %d out of range", n)
		}
	}
	if _, err := RandomReaction(rng, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero species, got %v", err)
	}
}
