package kinetics

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseReaction builds a reaction from the explicit field order
//
//	rate, numSpecies, reactant_0..reactant_{n-1}, product_0..product_{n-1}
//
// Surrounding whitespace in each field is ignored. Extra trailing fields are
// rejected so that a shifted line does not parse silently.
func ParseReaction(fields []string) (Reaction, error) {
	if len(fields) < 2 {
		return Reaction{}, fmt.Errorf("%w: reaction needs rate and species count, got %d fields", ErrInvalidConfig, len(fields))
	}
	rate, err := parseField(fields[0], "rate")
	if err != nil {
		return Reaction{}, err
	}
	n, err := parseField(fields[1], "species count")
	if err != nil {
		return Reaction{}, err
	}
	if n <= 0 {
		return Reaction{}, fmt.Errorf("%w: species count must be positive, got %d", ErrInvalidConfig, n)
	}
	if want := 2 + 2*n; len(fields) != want {
		return Reaction{}, fmt.Errorf("%w: reaction over %d species needs %d fields, got %d", ErrInvalidConfig, n, want, len(fields))
	}

	reactants := make([]int, n)
	products := make([]int, n)
	for i := 0; i < n; i++ {
		if reactants[i], err = parseField(fields[2+i], fmt.Sprintf("reactant %d", i)); err != nil {
			return Reaction{}, err
		}
		if products[i], err = parseField(fields[2+n+i], fmt.Sprintf("product %d", i)); err != nil {
			return Reaction{}, err
		}
	}
	return NewReaction(reactants, products, rate)
}

// FormatReaction is the inverse of ParseReaction.
func FormatReaction(r Reaction) []string {
	n := len(r.Reactants)
	out := make([]string, 0, 2+2*n)
	out = append(out, strconv.Itoa(r.Rate), strconv.Itoa(n))
	for _, c := range r.Reactants {
		out = append(out, strconv.Itoa(c))
	}
	for _, c := range r.Products {
		out = append(out, strconv.Itoa(c))
	}
	return out
}

func parseField(s, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidConfig, name, s)
	}
	return v, nil
}
