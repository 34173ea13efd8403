package kinetics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FallingFactorial returns n·(n-1)·…·(n-k+1), the number of ordered ways to
// draw k molecules out of n without replacement. k <= 0 yields 1 and any
// k > n yields 0.
func FallingFactorial(n, k int) float64 {
	if k <= 0 {
		return 1
	}
	if n < k {
		return 0
	}
	out := 1.0
	for j := 0; j < k; j++ {
		out *= float64(n - j)
	}
	return out
}

// RateExpression computes rate * Π falling-factorial(species[i], reactants[i]).
// It is 0 when the rate is not positive, when any needed species is short,
// or when the vectors do not line up.
func RateExpression(r Reaction, species SpeciesVector) float64 {
	if r.Rate <= 0 || len(r.Reactants) > len(species) {
		return 0
	}
	out := float64(r.Rate)
	for i, need := range r.Reactants {
		if need <= 0 {
			continue
		}
		f := FallingFactorial(species[i], need)
		if f <= 0 {
			return 0
		}
		out *= f
	}
	return out
}

// Propensities returns the RateExpression of every reaction in order.
func Propensities(reactions []Reaction, species SpeciesVector) []float64 {
	out := make([]float64, len(reactions))
	for i, r := range reactions {
		out[i] = RateExpression(r, species)
	}
	return out
}

// CalculateTotalRate sums the propensities of all reactions. Empty sets give 0.
func CalculateTotalRate(reactions []Reaction, species SpeciesVector) float64 {
	if len(reactions) == 0 {
		return 0
	}
	return floats.Sum(Propensities(reactions, species))
}

// UpdateMatrix is the per-reaction, per-species net change table.
// Row r is rate[r] * (products[r] - reactants[r]). It is a derived cache and
// is rebuilt whenever the reaction set changes, never edited in place.
type UpdateMatrix struct {
	dense *mat.Dense
	cols  int
}

// BuildUpdateMatrix derives the update matrix for reactions over n species.
func BuildUpdateMatrix(reactions []Reaction, n int) UpdateMatrix {
	if len(reactions) == 0 || n == 0 {
		// mat.Dense cannot have a zero dimension.
		return UpdateMatrix{cols: n}
	}
	dense := mat.NewDense(len(reactions), n, nil)
	for i, r := range reactions {
		for j := 0; j < n; j++ {
			var reactant, product int
			if j < len(r.Reactants) {
				reactant = r.Reactants[j]
			}
			if j < len(r.Products) {
				product = r.Products[j]
			}
			dense.Set(i, j, float64(r.Rate*(product-reactant)))
		}
	}
	return UpdateMatrix{dense: dense, cols: n}
}

// Dims returns the number of reactions and species covered.
func (m UpdateMatrix) Dims() (rows, cols int) {
	if m.dense == nil {
		return 0, m.cols
	}
	return m.dense.Dims()
}

// At returns cell (reaction, species).
func (m UpdateMatrix) At(reaction, species int) int {
	return int(math.Round(m.dense.At(reaction, species)))
}

// Row returns the integer delta vector for one reaction.
func (m UpdateMatrix) Row(reaction int) []int {
	raw := m.dense.RawRowView(reaction)
	row := make([]int, len(raw))
	for i, v := range raw {
		row[i] = int(math.Round(v))
	}
	return row
}
