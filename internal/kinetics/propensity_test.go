package kinetics

import (
	"testing"
)

func TestFallingFactorial(t *testing.T) {
	tests := []struct {
		n, k int
		want float64
	}{
		{10, 0, 1},
		{10, 1, 10},
		{10, 2, 90},
		{5, 5, 120},
		{3, 4, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	for _, tt := range tests {
		if got := FallingFactorial(tt.n, tt.k); got != tt.want {
			t.Errorf("FallingFactorial(%d, %d) = %v, want %v", tt.n, tt.k, got, tt.want)
		}
	}
}

func TestRateExpression(t *testing.T) {
	r := Reaction{Reactants: SpeciesVector{1, 1, 0, 0, 0}, Products: SpeciesVector{0, 0, 1, 0, 0}, Rate: 1}

	if got := RateExpression(r, SpeciesVector{10, 10, 0, 0, 0}); got != 100 {
		t.Errorf("Expected propensity 100, got %v", got)
	}
	if got := r.RateExpression(SpeciesVector{0, 10, 0, 0, 0}); got != 0 {
		t.Errorf("Expected 0 when a reactant is exhausted, got %v", got)
	}

	r.Rate = 0
	if got := RateExpression(r, SpeciesVector{10, 10, 0, 0, 0}); got != 0 {
		t.Errorf("Expected 0 for zero rate, got %v", got)
	}
}

func TestRateExpression_Dimerization(t *testing.T) {
	r := Reaction{Reactants: SpeciesVector{2, 0}, Products: SpeciesVector{0, 1}, Rate: 3}
	// 3 * 5 * 4
	if got := RateExpression(r, SpeciesVector{5, 0}); got != 60 {
		t.Errorf("Expected 60, got %v", got)
	}
	if got := RateExpression(r, SpeciesVector{1, 0}); got != 0 {
		t.Errorf("Expected 0 with a single molecule, got %v", got)
	}
}

func TestRateExpression_NeverNegative(t *testing.T) {
	r := Reaction{Reactants: SpeciesVector{3, 1}, Products: SpeciesVector{0, 0}, Rate: 7}
	for a := 0; a < 6; a++ {
		for b := 0; b < 3; b++ {
			if got := RateExpression(r, SpeciesVector{a, b}); got < 0 {
				t.Fatalf("negative propensity %v for species [%d %d]", got, a, b)
			}
		}
	}
}

func TestCalculateTotalRate(t *testing.T) {
	if got := CalculateTotalRate(nil, SpeciesVector{1, 2}); got != 0 {
		t.Errorf("Expected 0 for empty set, got %v", got)
	}

	reactions := []Reaction{
		{Reactants: SpeciesVector{1, 1, 0, 0, 0}, Products: SpeciesVector{0, 0, 1, 0, 0}, Rate: 1},
		{Reactants: SpeciesVector{0, 0, 1, 0, 0}, Products: SpeciesVector{1, 1, 0, 0, 0}, Rate: 2},
	}
	species := SpeciesVector{10, 10, 4, 0, 0}
	// 100 + 2*4
	if got := CalculateTotalRate(reactions, species); got != 108 {
		t.Errorf("Expected 108, got %v", got)
	}

	var sum float64
	for _, p := range Propensities(reactions, species) {
		sum += p
	}
	if sum != CalculateTotalRate(reactions, species) {
		t.Errorf("Total rate %v differs from propensity sum %v", CalculateTotalRate(reactions, species), sum)
	}
}

func TestBuildUpdateMatrix(t *testing.T) {
	reactions := []Reaction{
		{Reactants: SpeciesVector{1, 1, 0}, Products: SpeciesVector{0, 0, 1}, Rate: 1},
		{Reactants: SpeciesVector{0, 0, 1}, Products: SpeciesVector{2, 0, 0}, Rate: 3},
	}
	m := BuildUpdateMatrix(reactions, 3)

	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("Expected 2x3 matrix, got %dx%d", rows, cols)
	}

	want := [][]int{{-1, -1, 1}, {6, 0, -3}}
	for i, row := range want {
		got := m.Row(i)
		for j := range row {
			if got[j] != row[j] {
				t.Errorf("row %d = %v, want %v", i, got, row)
				break
			}
			if m.At(i, j) != row[j] {
				t.Errorf("At(%d,%d) = %d, want %d", i, j, m.At(i, j), row[j])
			}
		}
	}
}

func TestBuildUpdateMatrix_Empty(t *testing.T) {
	m := BuildUpdateMatrix(nil, 5)
	rows, cols := m.Dims()
	if rows != 0 || cols != 5 {
		t.Errorf("Expected 0x5, got %dx%d", rows, cols)
	}
}
