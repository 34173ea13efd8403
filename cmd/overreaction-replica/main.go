// Command overreaction-replica follows one match as a presentation replica:
// it ingests the server's snapshots and prints the state it would draw.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/daniacca/overreaction/internal/config"
	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/daniacca/overreaction/internal/logging"
	"github.com/daniacca/overreaction/pkg/client"
)

func main() {
	var (
		server     = flag.String("server", "http://localhost:8080", "overreaction-server base URL")
		matchID    = flag.String("match", "", "match ID to follow (required)")
		configFile = flag.String("config", "", "optional YAML match config providing the species names")
		once       = flag.Bool("once", false, "fetch one snapshot over HTTP and exit")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()
	logger := logging.New(*logLevel)

	if *matchID == "" {
		fmt.Fprintf(os.Stderr, "error: --match is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	names := kinetics.SpeciesNames(cfg.SpeciesList())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*server)
	replica := kinetics.NewReplica(len(names))
	id := kinetics.MatchID(*matchID)

	if *once {
		snap, err := c.State(ctx, id)
		if err != nil {
			logger.Fatalf("Failed to fetch state: %v", err)
		}
		if err := replica.Ingest(snap); err != nil {
			logger.Fatalf("Rejected snapshot: %v", err)
		}
		printSnapshot(os.Stdout, names, snap)
		return
	}

	logger.Infof("Following match %s on %s", id, c.WebSocketURL())
	err = c.Subscribe(ctx, id, replica, func(s kinetics.Snapshot) {
		printSnapshot(os.Stdout, names, s)
	})
	if err != nil && ctx.Err() == nil {
		logger.Fatalf("Subscription ended: %v", err)
	}
}

// printSnapshot writes one snapshot as a species line followed by one line
// per running reaction.
func printSnapshot(w io.Writer, names []kinetics.SpeciesName, s kinetics.Snapshot) {
	parts := make([]string, len(s.Species))
	for i, c := range s.Species {
		name := fmt.Sprintf("s%d", i)
		if i < len(names) {
			name = string(names[i])
		}
		parts[i] = fmt.Sprintf("%s=%d", name, c)
	}
	armed := ""
	if s.ModifierArmed {
		armed = " [modifier armed]"
	}
	fmt.Fprintf(w, "#%d t=%.2f %s%s\n", s.Seq, s.Time, strings.Join(parts, " "), armed)
	for _, r := range s.Reactions {
		fmt.Fprintf(w, "    %-28s %5.1fs\n", r.Label, r.RemainingTime)
	}
}
