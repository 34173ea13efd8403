package deck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/gocarina/gocsv"
)

// ParseFields builds a card from the fields of one deck line.
// Trailing empty fields are ignored.
func ParseFields(fields []string) (Card, error) {
	for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: card needs type, cost and duration, got %d fields", kinetics.ErrInvalidConfig, len(fields))
	}

	t, err := atoi(fields[0], "card type")
	if err != nil {
		return nil, err
	}
	cost, err := atoi(fields[1], "cost")
	if err != nil {
		return nil, err
	}
	duration, err := atoi(fields[2], "duration")
	if err != nil {
		return nil, err
	}
	if cost < 0 || duration < 0 {
		return nil, fmt.Errorf("%w: cost and duration must not be negative", kinetics.ErrInvalidConfig)
	}
	rest := fields[3:]

	switch Type(t) {
	case TypePlain:
		if len(rest) != 0 {
			return nil, fmt.Errorf("%w: plain card has %d extra fields", kinetics.ErrInvalidConfig, len(rest))
		}
		return NewPlainCard(cost, duration), nil

	case TypeReaction:
		r, err := kinetics.ParseReaction(rest)
		if err != nil {
			return nil, err
		}
		return NewReactionCard(cost, duration, r), nil

	case TypeRateModifier:
		if len(rest) != 2 {
			return nil, fmt.Errorf("%w: rate modifier card needs numerator and denominator", kinetics.ErrInvalidConfig)
		}
		m, err := parseMultiplier(rest[0], rest[1])
		if err != nil {
			return nil, err
		}
		return NewRateModifierCard(cost, duration, m), nil

	case TypeModifier:
		if len(rest) != 3 {
			return nil, fmt.Errorf("%w: modifier card needs kind, numerator and denominator", kinetics.ErrInvalidConfig)
		}
		kind, err := parseKind(rest[0])
		if err != nil {
			return nil, err
		}
		m, err := parseMultiplier(rest[1], rest[2])
		if err != nil {
			return nil, err
		}
		return NewModifierCard(cost, duration, kind, m), nil

	default:
		return nil, fmt.Errorf("%w: unknown card type %d", kinetics.ErrInvalidConfig, t)
	}
}

// ParseLine parses a single deck line.
func ParseLine(line string) (Card, error) {
	return ParseFields(strings.Split(line, ","))
}

// Load reads every card from r. Bad lines do not stop the load: the cards
// that parsed are returned together with a ValidationError naming each bad line.
func Load(r io.Reader) ([]Card, error) {
	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
		cr.Comment = '#'
	}

	var cards []Card
	verr := &kinetics.ValidationError{}
	for line := 1; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				verr.Add(fmt.Sprintf("line %d: %v", perr.Line, perr.Err))
				continue
			}
			return cards, fmt.Errorf("failed to read deck: %w", err)
		}
		card, err := ParseFields(fields)
		if err != nil {
			verr.Add(fmt.Sprintf("record %d: %v", line, err))
			continue
		}
		cards = append(cards, card)
	}
	return cards, verr.OrNil()
}

// LoadFile reads a deck from path.
func LoadFile(path string) ([]Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parseKind(s string) (kinetics.ModifierKind, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		k := kinetics.ModifierKind(n)
		if !k.Valid() {
			return 0, fmt.Errorf("%w: unknown modifier kind %d", kinetics.ErrInvalidConfig, n)
		}
		return k, nil
	}
	return kinetics.ParseModifierKind(s)
}

func parseMultiplier(num, den string) (kinetics.Multiplier, error) {
	n, err := atoi(num, "numerator")
	if err != nil {
		return kinetics.Multiplier{}, err
	}
	d, err := atoi(den, "denominator")
	if err != nil {
		return kinetics.Multiplier{}, err
	}
	m := kinetics.Multiplier{Numerator: n, Denominator: d}
	if err := m.Validate(); err != nil {
		return kinetics.Multiplier{}, err
	}
	return m, nil
}

func atoi(s, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", kinetics.ErrInvalidConfig, name, s)
	}
	return v, nil
}
