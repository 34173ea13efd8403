// Command overreaction-server hosts authoritative matches over HTTP and
// pushes snapshots to replicas on /ws.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daniacca/overreaction/internal/logging"
)

func main() {
	cfg, err := loadServerConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	logger := logging.New(cfg.LogLevel)

	game, cards, err := loadGameConfig(cfg)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DeckFile != "" {
		logger.Infof("Deck loaded: file=%s cards=%d", cfg.DeckFile, len(cards))
	}

	srv := NewServer(logger, game, cards)
	if err := createInitialMatch(srv, cfg.MatchID); err != nil {
		logger.Fatalf("Failed to create initial match: match_id=%s error=%v", cfg.MatchID, err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("overreaction-server listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP shutdown: %v", err)
	}
	if err := srv.Close(); err != nil {
		logger.Warnf("Closing publisher: %v", err)
	}
}
