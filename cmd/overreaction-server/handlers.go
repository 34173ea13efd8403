package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/overreaction/internal/deck"
	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/daniacca/overreaction/internal/kinetics/notifiers"
)

const maxBodyBytes = 64 << 10

// extractMatchID extracts the match ID from a path like "/match/{id}/..."
// Returns the match ID and the remaining path, or empty string if not found
func extractMatchID(path string) (kinetics.MatchID, string) {
	rest, ok := strings.CutPrefix(path, "/match/")
	if !ok {
		return "", ""
	}
	id, remaining, found := strings.Cut(rest, "/")
	if !found {
		return kinetics.MatchID(rest), ""
	}
	return kinetics.MatchID(id), "/" + remaining
}

// statusFor maps kinetics errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kinetics.ErrInvalidConfig), errors.Is(err, kinetics.ErrNegativeCount):
		return http.StatusBadRequest
	case errors.Is(err, kinetics.ErrReactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, kinetics.ErrReactionSetFull),
		errors.Is(err, kinetics.ErrModifierArmed),
		errors.Is(err, kinetics.ErrNoModifierArmed),
		errors.Is(err, kinetics.ErrRunning),
		errors.Is(err, kinetics.ErrNoReactionsPossible):
		return http.StatusConflict
	case errors.Is(err, kinetics.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}

type reactionView struct {
	ID            kinetics.ReactionID `json:"id"`
	Index         int                 `json:"index"`
	Label         string              `json:"label"`
	Rate          int                 `json:"rate"`
	Reactants     []int               `json:"reactants"`
	Products      []int               `json:"products"`
	RemainingTime float64             `json:"remaining_time"`
}

func viewReaction(sim *kinetics.Simulation, index int, r kinetics.Reaction) reactionView {
	return reactionView{
		ID:            r.ID,
		Index:         index,
		Label:         sim.Label(r),
		Rate:          r.Rate,
		Reactants:     r.Reactants,
		Products:      r.Products,
		RemainingTime: r.RemainingTime,
	}
}

type effectView struct {
	ID            kinetics.EffectID   `json:"id"`
	Kind          string              `json:"kind"`
	Multiplier    string              `json:"multiplier"`
	Duration      float64             `json:"duration"`
	Target        kinetics.ReactionID `json:"target,omitempty"`
	TimeRemaining float64             `json:"time_remaining"`
	State         string              `json:"state"`
}

func viewEffect(e kinetics.Effect) effectView {
	return effectView{
		ID:            e.ID,
		Kind:          e.Modifier.Kind.String(),
		Multiplier:    e.Modifier.Multiplier.String(),
		Duration:      e.Modifier.Duration,
		Target:        e.Target,
		TimeRemaining: e.TimeRemaining,
		State:         e.State.String(),
	}
}

func viewEffects(effects []kinetics.Effect) []effectView {
	out := make([]effectView, 0, len(effects))
	for _, e := range effects {
		out = append(out, viewEffect(e))
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /matches
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.ListMatches()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"matches": out})
}

// POST /match/{id}
// Creates a match from the server's game config.
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request, id kinetics.MatchID) {
	sim, err := s.createMatch(id)
	if err != nil {
		if _, exists := s.manager.GetMatch(id); exists {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "cannot create match: "+err.Error(), statusFor(err))
		return
	}
	s.logger.Infof("Match created: match_id=%s reactions=%d", id, sim.NumReactions())
	writeJSON(w, http.StatusCreated, sim.State())
}

// DELETE /match/{id}
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request, id kinetics.MatchID) {
	if err := s.deleteMatch(id); err != nil {
		s.logger.Warnf("Failed to delete match: match_id=%s error=%v", id, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("match deleted"))
}

// GET /match/{id}/reactions
func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	reactions := sim.Reactions()
	out := make([]reactionView, 0, len(reactions))
	for i, rx := range reactions {
		out = append(out, viewReaction(sim, i, rx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reactions": out})
}

// POST /match/{id}/reaction
// Body is either JSON or the plain field line "rate,n,reactants...,products...".
type addReactionRequest struct {
	Rate      int     `json:"rate"`
	Reactants []int   `json:"reactants"`
	Products  []int   `json:"products"`
	Lifetime  float64 `json:"lifetime,omitempty"`
}

// decodeReaction reads the reaction from the body. lifetime replaces the
// built-in default unless the JSON form sets its own.
func decodeReaction(r *http.Request, lifetime float64) (kinetics.Reaction, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return kinetics.Reaction{}, fmt.Errorf("reading body: %w", err)
	}
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		var req addReactionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return kinetics.Reaction{}, fmt.Errorf("%w: invalid json: %v", kinetics.ErrInvalidConfig, err)
		}
		rx, err := kinetics.NewReaction(req.Reactants, req.Products, req.Rate)
		if err != nil {
			return kinetics.Reaction{}, err
		}
		if req.Lifetime > 0 {
			lifetime = req.Lifetime
		}
		if lifetime > 0 {
			rx.RemainingTime = lifetime
		}
		return rx, nil
	}
	rx, err := kinetics.ParseReaction(strings.Split(strings.TrimSpace(string(body)), ","))
	if err != nil {
		return kinetics.Reaction{}, err
	}
	if lifetime > 0 {
		rx.RemainingTime = lifetime
	}
	return rx, nil
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	defer r.Body.Close()

	rx, err := decodeReaction(r, s.game.Reactions.Lifetime)
	if err != nil {
		http.Error(w, "invalid reaction: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := sim.AddReaction(rx)
	if err != nil {
		http.Error(w, "cannot add reaction: "+err.Error(), statusFor(err))
		return
	}
	added, _ := sim.Reaction(id)
	s.logger.Debugf("Reaction added: match_id=%s reaction_id=%d label=%s", sim.MatchID(), id, sim.Label(added))
	writeJSON(w, http.StatusCreated, viewReaction(sim, sim.ReactionIndex(id), added))
}

// DELETE /match/{id}/reaction/{rid}
func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation, rawID string) {
	rid, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		http.Error(w, "invalid reaction id: "+rawID, http.StatusBadRequest)
		return
	}
	if _, err := sim.RemoveReaction(kinetics.ReactionID(rid)); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("reaction removed"))
}

// POST /match/{id}/card
// Body: one deck line, e.g. "1,2,0,3,5,1,1,0,0,0,0,0,1,0,0"
type playCardResponse struct {
	Line        string      `json:"line"`
	Description string      `json:"description"`
	Played      deck.Played `json:"played"`
	Remaining   *int        `json:"remaining,omitempty"`
}

func (s *Server) handlePlayCard(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "cannot read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	card, err := deck.ParseLine(strings.TrimSpace(string(body)))
	if err != nil {
		http.Error(w, "invalid card: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := s.playCard(sim, card)
	if err != nil {
		http.Error(w, "cannot play card: "+err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// playCard plays card on sim. Reaction cards without a duration get the
// configured reaction lifetime.
func (s *Server) playCard(sim *kinetics.Simulation, card deck.Card) (playCardResponse, error) {
	played, err := deck.PlayCardWithLifetime(sim, card, s.game.Reactions.Lifetime)
	if err != nil {
		return playCardResponse{}, err
	}
	s.logger.Debugf("Card played: match_id=%s line=%s", sim.MatchID(), deck.Line(card))
	return playCardResponse{
		Line:        deck.Line(card),
		Description: card.Describe(kinetics.SpeciesNames(sim.SpeciesInfo())),
		Played:      played,
	}, nil
}

// POST /match/{id}/draw
// Draws the next card from the match deck and plays it.
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	d, ok := s.deckFor(sim.MatchID())
	if !ok {
		http.Error(w, "no deck loaded", http.StatusNotFound)
		return
	}
	card, ok := d.Draw()
	if !ok {
		http.Error(w, "deck is empty", http.StatusConflict)
		return
	}
	resp, err := s.playCard(sim, card)
	if err != nil {
		http.Error(w, "cannot play "+deck.Line(card)+": "+err.Error(), statusFor(err))
		return
	}
	remaining := d.Remaining()
	resp.Remaining = &remaining
	writeJSON(w, http.StatusOK, resp)
}

// POST /match/{id}/modifier
// Body: { "kind": "reaction_rate", "numerator": 2, "denominator": 1, "duration": 5 }
type armModifierRequest struct {
	Kind        string  `json:"kind"`
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Duration    float64 `json:"duration"`
}

func (s *Server) handleArmModifier(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	defer r.Body.Close()

	var req armModifierRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := kinetics.ParseModifierKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := sim.ArmModifier(kinetics.Modifier{
		Kind:       kind,
		Multiplier: kinetics.Multiplier{Numerator: req.Numerator, Denominator: req.Denominator},
		Duration:   req.Duration,
	})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.logger.Debugf("Modifier armed: match_id=%s effect=%d kind=%s", sim.MatchID(), id, kind)
	armed, _ := sim.ArmedModifier()
	writeJSON(w, http.StatusCreated, viewEffect(armed))
}

// GET /match/{id}/modifier
func (s *Server) handleGetModifier(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	armed, ok := sim.ArmedModifier()
	if !ok {
		http.Error(w, kinetics.ErrNoModifierArmed.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewEffect(armed))
}

// DELETE /match/{id}/modifier
func (s *Server) handleResetModifier(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	if !sim.ResetModifier() {
		http.Error(w, kinetics.ErrNoModifierArmed.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("modifier reset"))
}

// POST /match/{id}/modifier/apply?index=N or ?reaction=ID
func (s *Server) handleApplyModifier(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	q := r.URL.Query()
	var (
		effect kinetics.Effect
		err    error
	)
	switch {
	case q.Get("reaction") != "":
		rid, perr := strconv.ParseUint(q.Get("reaction"), 10, 64)
		if perr != nil {
			http.Error(w, "invalid reaction id: "+q.Get("reaction"), http.StatusBadRequest)
			return
		}
		effect, err = sim.ApplyModifierTo(kinetics.ReactionID(rid))
	case q.Get("index") != "":
		index, perr := strconv.Atoi(q.Get("index"))
		if perr != nil {
			http.Error(w, "invalid index: "+q.Get("index"), http.StatusBadRequest)
			return
		}
		effect, err = sim.ApplyModifier(index)
	default:
		http.Error(w, "index or reaction query parameter is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.logger.Debugf("Modifier applied: match_id=%s effect=%d target=%d", sim.MatchID(), effect.ID, effect.Target)
	writeJSON(w, http.StatusOK, viewEffect(effect))
}

// GET /match/{id}/effects
func (s *Server) handleListEffects(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	writeJSON(w, http.StatusOK, map[string]any{"effects": viewEffects(sim.ActiveEffects())})
}

// POST /match/{id}/tick?dt=seconds
// Advances a stopped match by one realtime tick (useful for testing/debugging).
type tickResponse struct {
	Fired    bool            `json:"fired"`
	Event    *kinetics.Event `json:"event,omitempty"`
	Expired  []string        `json:"expired,omitempty"`
	Reverted []effectView    `json:"reverted,omitempty"`
	Clock    float64         `json:"clock"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	if sim.IsRunning() {
		http.Error(w, kinetics.ErrRunning.Error(), http.StatusConflict)
		return
	}
	dt := s.game.Match.TickInterval.Seconds()
	if raw := r.URL.Query().Get("dt"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid dt: must be a non-negative number of seconds", http.StatusBadRequest)
			return
		}
		dt = v
	}

	res := sim.Tick(dt)
	out := tickResponse{Fired: res.Fired, Clock: sim.Clock()}
	if res.Fired {
		ev := res.Event
		out.Event = &ev
	}
	for _, rx := range res.Expired {
		out.Expired = append(out.Expired, sim.Label(rx))
	}
	if len(res.Reverted) > 0 {
		out.Reverted = viewEffects(res.Reverted)
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /match/{id}/start?interval=ms
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	interval := s.game.Match.TickInterval
	if raw := r.URL.Query().Get("interval"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}
	s.startMatch(sim.MatchID(), sim, interval)
	s.logger.Infof("Match started: match_id=%s interval=%v", sim.MatchID(), interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("match started"))
}

// POST /match/{id}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	s.stopMatch(sim.MatchID(), sim)
	s.logger.Infof("Match stopped: match_id=%s", sim.MatchID())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("match stopped"))
}

// GET /match/{id}/state
// Returns the current state without advancing the snapshot sequence.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	writeJSON(w, http.StatusOK, sim.State())
}

// GET /match/{id}/status
type statusResponse struct {
	MatchID   kinetics.MatchID `json:"match_id"`
	Running   bool             `json:"running"`
	Clock     float64          `json:"clock"`
	TotalRate float64          `json:"total_rate"`
	Reactions int              `json:"reactions"`
	Species   map[string]int   `json:"species"`
	Winner    string           `json:"winner,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, sim *kinetics.Simulation) {
	counts := sim.Species()
	species := make(map[string]int, len(counts))
	for i, info := range sim.SpeciesInfo() {
		species[string(info.Name)] = counts[i]
	}
	out := statusResponse{
		MatchID:   sim.MatchID(),
		Running:   sim.IsRunning(),
		Clock:     sim.Clock(),
		TotalRate: sim.TotalRate(),
		Reactions: sim.NumReactions(),
		Species:   species,
	}
	if winner, ok := sim.Leader(s.game.Match.WinThreshold); ok {
		out.Winner = string(winner)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMatchRoutes routes requests to match-specific handlers
// Handles paths like /match/{id}, /match/{id}/reaction, etc.
func (s *Server) handleMatchRoutes(w http.ResponseWriter, r *http.Request) {
	id, remainingPath := extractMatchID(r.URL.Path)
	if id == "" {
		http.Error(w, "match ID is required in path: /match/{id}/...", http.StatusBadRequest)
		return
	}

	if remainingPath == "" {
		switch r.Method {
		case http.MethodPost:
			s.handleCreateMatch(w, r, id)
		case http.MethodDelete:
			s.handleDeleteMatch(w, r, id)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
		return
	}

	sim, exists := s.manager.GetMatch(id)
	if !exists {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	switch {
	case remainingPath == "/reactions" && r.Method == http.MethodGet:
		s.handleListReactions(w, r, sim)
	case remainingPath == "/reaction" && r.Method == http.MethodPost:
		s.handleAddReaction(w, r, sim)
	case strings.HasPrefix(remainingPath, "/reaction/") && r.Method == http.MethodDelete:
		s.handleRemoveReaction(w, r, sim, strings.TrimPrefix(remainingPath, "/reaction/"))
	case remainingPath == "/card" && r.Method == http.MethodPost:
		s.handlePlayCard(w, r, sim)
	case remainingPath == "/draw" && r.Method == http.MethodPost:
		s.handleDraw(w, r, sim)
	case remainingPath == "/modifier" && r.Method == http.MethodPost:
		s.handleArmModifier(w, r, sim)
	case remainingPath == "/modifier" && r.Method == http.MethodGet:
		s.handleGetModifier(w, r, sim)
	case remainingPath == "/modifier" && r.Method == http.MethodDelete:
		s.handleResetModifier(w, r, sim)
	case remainingPath == "/modifier/apply" && r.Method == http.MethodPost:
		s.handleApplyModifier(w, r, sim)
	case remainingPath == "/effects" && r.Method == http.MethodGet:
		s.handleListEffects(w, r, sim)
	case remainingPath == "/tick" && r.Method == http.MethodPost:
		s.handleTick(w, r, sim)
	case remainingPath == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r, sim)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r, sim)
	case remainingPath == "/state" && r.Method == http.MethodGet:
		s.handleState(w, r, sim)
	case remainingPath == "/status" && r.Method == http.MethodGet:
		s.handleStatus(w, r, sim)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	ids := s.publisher.ListNotifiers()
	out := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.publisher.GetNotifier(id); ok {
			out = append(out, map[string]string{"id": id, "type": n.Type()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifiers": out})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "scoreboard", "url": "http://...",
// "headers": {...}, "matches": ["m1"], "min_interval": "1s" }
type registerNotifierRequest struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers"`
	Matches     []string          `json:"matches"`
	MinInterval string            `json:"min_interval"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if req.Type != "webhook" {
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "webhook URL is required", http.StatusBadRequest)
		return
	}

	wh := notifiers.NewWebhookNotifier(req.ID, req.URL)
	for k, v := range req.Headers {
		wh.SetHeader(k, v)
	}
	if len(req.Matches) > 0 {
		ids := make([]kinetics.MatchID, len(req.Matches))
		for i, m := range req.Matches {
			ids[i] = kinetics.MatchID(m)
		}
		wh.OnlyMatches(ids...)
	}
	if req.MinInterval != "" {
		d, err := time.ParseDuration(req.MinInterval)
		if err != nil || d < 0 {
			http.Error(w, "invalid min_interval: "+req.MinInterval, http.StatusBadRequest)
			return
		}
		wh.SetMinInterval(d)
	}
	if err := s.publisher.RegisterNotifier(wh); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if id == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if id == replicaNotifierID {
		http.Error(w, "the replica notifier cannot be removed", http.StatusBadRequest)
		return
	}
	if err := s.publisher.UnregisterNotifier(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// routes registers every endpoint on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/matches", s.handleListMatches)
	mux.HandleFunc("/match/", s.handleMatchRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.Handle("/ws", s.replicas)
	return mux
}
