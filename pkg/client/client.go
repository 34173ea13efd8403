// Package client talks to an overreaction-server: it manages matches over
// HTTP and follows a match over the replica websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/overreaction/internal/kinetics"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Reaction is an active reaction as reported by the server.
type Reaction struct {
	ID            kinetics.ReactionID `json:"id"`
	Index         int                 `json:"index"`
	Label         string              `json:"label"`
	Rate          int                 `json:"rate"`
	Reactants     []int               `json:"reactants"`
	Products      []int               `json:"products"`
	RemainingTime float64             `json:"remaining_time"`
}

// Effect is an armed or applied modifier as reported by the server.
type Effect struct {
	ID            kinetics.EffectID   `json:"id"`
	Kind          string              `json:"kind"`
	Multiplier    string              `json:"multiplier"`
	Duration      float64             `json:"duration"`
	Target        kinetics.ReactionID `json:"target,omitempty"`
	TimeRemaining float64             `json:"time_remaining"`
	State         string              `json:"state"`
}

// PlayResult is the server's answer to a played card.
type PlayResult struct {
	Line        string `json:"line"`
	Description string `json:"description"`
	Played      struct {
		ReactionID kinetics.ReactionID `json:"reaction_id,omitempty"`
		EffectID   kinetics.EffectID   `json:"effect_id,omitempty"`
	} `json:"played"`
}

// TickResult is the server's answer to a manual tick.
type TickResult struct {
	Fired    bool            `json:"fired"`
	Event    *kinetics.Event `json:"event,omitempty"`
	Expired  []string        `json:"expired,omitempty"`
	Reverted []Effect        `json:"reverted,omitempty"`
	Clock    float64         `json:"clock"`
}

// Status summarizes a match.
type Status struct {
	MatchID   kinetics.MatchID `json:"match_id"`
	Running   bool             `json:"running"`
	Clock     float64          `json:"clock"`
	TotalRate float64          `json:"total_rate"`
	Reactions int              `json:"reactions"`
	Species   map[string]int   `json:"species"`
	Winner    string           `json:"winner,omitempty"`
}

// Client is an HTTP client for one overreaction-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method string, path []string, query url.Values, contentType string, body io.Reader, out any) error {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method string, path []string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, nil, "application/json", bytes.NewReader(data), out)
}

func matchPath(id kinetics.MatchID, rest ...string) []string {
	return append([]string{"match", string(id)}, rest...)
}

// CreateMatch creates a match and returns its first snapshot.
func (c *Client) CreateMatch(ctx context.Context, id kinetics.MatchID) (kinetics.Snapshot, error) {
	var snap kinetics.Snapshot
	err := c.do(ctx, http.MethodPost, matchPath(id), nil, "", nil, &snap)
	return snap, err
}

// DeleteMatch stops and removes a match.
func (c *Client) DeleteMatch(ctx context.Context, id kinetics.MatchID) error {
	return c.do(ctx, http.MethodDelete, matchPath(id), nil, "", nil, nil)
}

// ListMatches returns the IDs of all matches on the server.
func (c *Client) ListMatches(ctx context.Context) ([]kinetics.MatchID, error) {
	var out struct {
		Matches []kinetics.MatchID `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, []string{"matches"}, nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// AddReaction adds the built reaction to a match.
func (c *Client) AddReaction(ctx context.Context, id kinetics.MatchID, rb *ReactionBuilder) (Reaction, error) {
	var out Reaction
	if err := rb.Err(); err != nil {
		return out, err
	}
	err := c.doJSON(ctx, http.MethodPost, matchPath(id, "reaction"), rb.request(), &out)
	return out, err
}

// Reactions lists the active reactions of a match in display order.
func (c *Client) Reactions(ctx context.Context, id kinetics.MatchID) ([]Reaction, error) {
	var out struct {
		Reactions []Reaction `json:"reactions"`
	}
	if err := c.do(ctx, http.MethodGet, matchPath(id, "reactions"), nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Reactions, nil
}

// RemoveReaction removes one reaction by ID.
func (c *Client) RemoveReaction(ctx context.Context, id kinetics.MatchID, rid kinetics.ReactionID) error {
	return c.do(ctx, http.MethodDelete, matchPath(id, "reaction", strconv.FormatUint(uint64(rid), 10)), nil, "", nil, nil)
}

// PlayCard plays one deck line on a match.
func (c *Client) PlayCard(ctx context.Context, id kinetics.MatchID, line string) (PlayResult, error) {
	var out PlayResult
	err := c.do(ctx, http.MethodPost, matchPath(id, "card"), nil, "text/plain", strings.NewReader(line), &out)
	return out, err
}

// ArmModifier reserves the match's modifier slot.
func (c *Client) ArmModifier(ctx context.Context, id kinetics.MatchID, mb *ModifierBuilder) (Effect, error) {
	var out Effect
	err := c.doJSON(ctx, http.MethodPost, matchPath(id, "modifier"), mb.request(), &out)
	return out, err
}

// ResetModifier clears the armed modifier without applying it.
func (c *Client) ResetModifier(ctx context.Context, id kinetics.MatchID) error {
	return c.do(ctx, http.MethodDelete, matchPath(id, "modifier"), nil, "", nil, nil)
}

// ApplyModifier applies the armed modifier to the reaction displayed at index.
func (c *Client) ApplyModifier(ctx context.Context, id kinetics.MatchID, index int) (Effect, error) {
	var out Effect
	q := url.Values{"index": {strconv.Itoa(index)}}
	err := c.do(ctx, http.MethodPost, matchPath(id, "modifier", "apply"), q, "", nil, &out)
	return out, err
}

// Tick advances a stopped match by dt seconds.
func (c *Client) Tick(ctx context.Context, id kinetics.MatchID, dt float64) (TickResult, error) {
	var out TickResult
	q := url.Values{"dt": {strconv.FormatFloat(dt, 'f', -1, 64)}}
	err := c.do(ctx, http.MethodPost, matchPath(id, "tick"), q, "", nil, &out)
	return out, err
}

// Start runs a match in realtime. A zero interval uses the server default.
func (c *Client) Start(ctx context.Context, id kinetics.MatchID, interval time.Duration) error {
	var q url.Values
	if interval > 0 {
		q = url.Values{"interval": {strconv.FormatInt(interval.Milliseconds(), 10)}}
	}
	return c.do(ctx, http.MethodPost, matchPath(id, "start"), q, "", nil, nil)
}

// Stop stops a running match.
func (c *Client) Stop(ctx context.Context, id kinetics.MatchID) error {
	return c.do(ctx, http.MethodPost, matchPath(id, "stop"), nil, "", nil, nil)
}

// State fetches a fresh authoritative snapshot.
func (c *Client) State(ctx context.Context, id kinetics.MatchID) (kinetics.Snapshot, error) {
	var snap kinetics.Snapshot
	err := c.do(ctx, http.MethodGet, matchPath(id, "state"), nil, "", nil, &snap)
	return snap, err
}

// Status fetches the match summary.
func (c *Client) Status(ctx context.Context, id kinetics.MatchID) (Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, matchPath(id, "status"), nil, "", nil, &out)
	return out, err
}
