// Command overreaction-sim runs one match offline with the batch driver and
// prints the final species counts. Each event can be traced to CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/daniacca/overreaction/internal/config"
	"github.com/daniacca/overreaction/internal/deck"
	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/daniacca/overreaction/internal/logging"
	"github.com/daniacca/overreaction/internal/trace"
)

// reactionFlags collects repeated -reaction values.
type reactionFlags []string

func (r *reactionFlags) String() string { return strings.Join(*r, " ") }

func (r *reactionFlags) Set(v string) error {
	*r = append(*r, v)
	return nil
}

type options struct {
	configFile string
	deckFile   string
	plays      int
	endTime    float64
	pace       time.Duration
	tracePath  string
	logLevel   string
	reactions  reactionFlags
}

func parseOptions(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configFile, "config", "", "optional YAML match config merged over the built-in defaults")
	fs.StringVar(&o.deckFile, "deck", "", "optional deck CSV file to play cards from before running")
	fs.IntVar(&o.plays, "plays", 3, "number of cards drawn and played from -deck")
	fs.Float64Var(&o.endTime, "end-time", 0, "simulated seconds to run (0 uses the config batch.end_time)")
	fs.DurationVar(&o.pace, "pace", -1, "wall time per simulated second (negative uses the config batch.pace)")
	fs.StringVar(&o.tracePath, "trace", "", "write a CSV trace of every event to this file (- for stdout)")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.Var(&o.reactions, "reaction", "extra reaction as \"rate,n,reactants...,products...\" (repeatable)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	opts, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	logger := logging.New(opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *logging.Logger, stdout io.Writer) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.endTime > 0 {
		cfg.Batch.EndTime = opts.endTime
	}
	if opts.pace >= 0 {
		cfg.Batch.Pace = opts.pace
	}

	sim, err := cfg.NewSimulation()
	if err != nil {
		return fmt.Errorf("building simulation: %w", err)
	}
	sim.SetLogger(logger)
	sim.SetMatchID("sim")

	for _, line := range opts.reactions {
		r, err := kinetics.ParseReaction(strings.Split(line, ","))
		if err != nil {
			return fmt.Errorf("parsing -reaction %q: %w", line, err)
		}
		if _, err := sim.AddReaction(r); err != nil {
			return fmt.Errorf("adding -reaction %q: %w", line, err)
		}
	}

	if opts.deckFile != "" {
		if err := playFromDeck(sim, cfg, opts.deckFile, opts.plays, logger); err != nil {
			return err
		}
	}

	batch := kinetics.BatchOptions{EndTime: cfg.Batch.EndTime, Pace: cfg.Batch.Pace}
	if opts.tracePath != "" {
		out, closeFn, err := openTrace(opts.tracePath, stdout)
		if err != nil {
			return err
		}
		defer closeFn()
		recorder := trace.NewRecorder(out)
		batch.Observe = func(ev kinetics.BatchEvent) {
			if err := recorder.Record(ev); err != nil {
				logger.Warnf("trace write failed: %v", err)
			}
		}
	}

	res, err := sim.RunBatch(ctx, batch)
	switch {
	case errors.Is(err, kinetics.ErrNoReactionsPossible):
		logger.Infof("no reaction can fire, stopping at t=%.3f", res.Time)
	case err != nil:
		return fmt.Errorf("running batch: %w", err)
	}

	printSummary(stdout, sim, res, cfg.Match.WinThreshold)
	return nil
}

// playFromDeck shuffles the deck with the configured seed and plays the
// first n cards. Modifier cards are applied to the newest reaction.
func playFromDeck(sim *kinetics.Simulation, cfg *config.Config, path string, n int, logger *logging.Logger) error {
	cards, err := deck.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading deck: %w", err)
	}
	seed := cfg.Scheduler.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d := deck.New(cards, rand.New(rand.NewSource(seed)))
	names := kinetics.SpeciesNames(sim.SpeciesInfo())

	for i := 0; i < n; i++ {
		card, ok := d.Draw()
		if !ok {
			break
		}
		played, err := deck.PlayCardWithLifetime(sim, card, cfg.Reactions.Lifetime)
		if err != nil {
			logger.Warnf("card not played: line=%s error=%v", deck.Line(card), err)
			continue
		}
		logger.Infof("card played: %s", card.Describe(names))
		if played.EffectID == 0 {
			continue
		}
		if _, err := sim.ApplyModifier(sim.NumReactions() - 1); err != nil {
			logger.Warnf("modifier not applied: %v", err)
			sim.ResetModifier()
		}
	}
	return nil
}

func openTrace(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating trace file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func printSummary(w io.Writer, sim *kinetics.Simulation, res kinetics.BatchResult, threshold int) {
	fmt.Fprintf(w, "Simulation finished (t=%.3f, events=%d, skipped=%d)\n", res.Time, res.Events, res.Skipped)
	fmt.Fprintln(w, "Species counts:")
	counts := sim.Species()
	for i, s := range sim.SpeciesInfo() {
		fmt.Fprintf(w, "  %s: %d\n", s.Name, counts[i])
	}
	reactions := sim.Reactions()
	if len(reactions) > 0 {
		fmt.Fprintln(w, "Reactions:")
		for _, r := range reactions {
			fmt.Fprintf(w, "  %s\n", sim.Label(r))
		}
	}
	if winner, ok := sim.Leader(threshold); ok {
		fmt.Fprintf(w, "Winner: %s\n", winner)
	}
}
