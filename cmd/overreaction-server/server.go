package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/daniacca/overreaction/internal/config"
	"github.com/daniacca/overreaction/internal/deck"
	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/daniacca/overreaction/internal/kinetics/notifiers"
	"github.com/daniacca/overreaction/internal/logging"
)

// replicaNotifierID is the websocket notifier every replica connects through.
const replicaNotifierID = "replicas"

// Server represents the HTTP server for OverReaction matches
type Server struct {
	manager   *kinetics.MatchManager
	publisher *kinetics.SnapshotPublisher
	replicas  *notifiers.WebSocketNotifier
	game      *config.Config
	cards     []deck.Card
	logger    *logging.Logger

	mu    sync.Mutex
	decks map[kinetics.MatchID]*deck.Deck
	syncs map[kinetics.MatchID]context.CancelFunc
}

// NewServer creates a new server instance. cards may be empty, in which
// case matches have no deck to draw from.
func NewServer(logger *logging.Logger, game *config.Config, cards []deck.Card) *Server {
	publisher := kinetics.NewSnapshotPublisher(logger)
	replicas := notifiers.NewWebSocketNotifier(replicaNotifierID)
	if err := publisher.RegisterNotifier(replicas); err != nil {
		logger.Errorf("Failed to register replica notifier: %v", err)
	}
	return &Server{
		manager:   kinetics.NewMatchManagerWithLogger(logger),
		publisher: publisher,
		replicas:  replicas,
		game:      game,
		cards:     cards,
		logger:    logger,
		decks:     make(map[kinetics.MatchID]*deck.Deck),
		syncs:     make(map[kinetics.MatchID]context.CancelFunc),
	}
}

// createMatch builds a simulation from the game config and registers it.
func (s *Server) createMatch(id kinetics.MatchID) (*kinetics.Simulation, error) {
	sim, err := s.game.NewSimulation()
	if err != nil {
		return nil, err
	}
	if err := s.manager.CreateMatch(id, sim); err != nil {
		return nil, err
	}
	if len(s.cards) > 0 {
		seed := s.game.Scheduler.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.mu.Lock()
		s.decks[id] = deck.New(s.cards, rand.New(rand.NewSource(seed)))
		s.mu.Unlock()
	}
	return sim, nil
}

// deleteMatch stops syncing and removes the match.
func (s *Server) deleteMatch(id kinetics.MatchID) error {
	s.stopSync(id)
	s.mu.Lock()
	delete(s.decks, id)
	s.mu.Unlock()
	return s.manager.DeleteMatch(id)
}

func (s *Server) deckFor(id kinetics.MatchID) (*deck.Deck, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decks[id]
	return d, ok
}

// startMatch runs the realtime loop and the periodic replica sync.
func (s *Server) startMatch(id kinetics.MatchID, sim *kinetics.Simulation, interval time.Duration) {
	sim.Run(interval)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.syncs[id]; running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.syncs[id] = cancel
	go s.publisher.Broadcast(ctx, sim, s.game.Match.SyncInterval)
}

// stopMatch stops the realtime loop and the sync, then pushes one last snapshot.
func (s *Server) stopMatch(id kinetics.MatchID, sim *kinetics.Simulation) {
	sim.Stop()
	if s.stopSync(id) {
		s.publisher.Enqueue(sim.Snapshot())
	}
}

func (s *Server) stopSync(id kinetics.MatchID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.syncs[id]
	if ok {
		cancel()
		delete(s.syncs, id)
	}
	return ok
}

// Close stops every match and shuts the publisher down.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, cancel := range s.syncs {
		cancel()
		delete(s.syncs, id)
	}
	s.mu.Unlock()
	s.manager.StopAll()
	return s.publisher.Close()
}
