// Package trace records batch runs as CSV, one row per event attempt.
package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/gocarina/gocsv"
)

// Row is one line of the trace file.
type Row struct {
	Step       int     `csv:"step"`
	Time       float64 `csv:"time"`
	Applied    bool    `csv:"applied"`
	ReactionID uint64  `csv:"reaction_id"`
	Index      int     `csv:"index"`
	TotalRate  float64 `csv:"total_rate"`
	Species    string  `csv:"species"`
}

// Recorder writes rows to an io.Writer. The header is written with the
// first row. It is safe for use from the batch observer callback.
type Recorder struct {
	mu            sync.Mutex
	out           io.Writer
	step          int
	headerWritten bool
}

// NewRecorder creates a recorder writing to out.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

// Observe is a kinetics.BatchOptions.Observe callback. Write errors are
// dropped; use Record to see them.
func (r *Recorder) Observe(ev kinetics.BatchEvent) {
	_ = r.Record(ev)
}

// Record appends one event to the trace.
func (r *Recorder) Record(ev kinetics.BatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.step++
	row := Row{
		Step:      r.step,
		Time:      ev.Time,
		Applied:   ev.Applied,
		TotalRate: ev.TotalRate,
		Species:   FormatSpecies(ev.Species),
		Index:     -1,
	}
	if ev.Applied {
		row.ReactionID = uint64(ev.Event.ReactionID)
		row.Index = ev.Event.Index
	}
	return r.write(row)
}

func (r *Recorder) write(row Row) error {
	records := []Row{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Steps returns the number of rows written.
func (r *Recorder) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// FormatSpecies joins counts with ';' so they fit one CSV column.
func FormatSpecies(v kinetics.SpeciesVector) string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ";")
}

// ReadAll parses a trace written by a Recorder.
func ReadAll(in io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(in, &rows); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return rows, nil
}
