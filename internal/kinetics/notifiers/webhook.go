package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/daniacca/overreaction/internal/kinetics"
)

// Headers set on every webhook delivery besides the custom ones.
const (
	HeaderMatchID = "X-Overreaction-Match"
	HeaderSeq     = "X-Overreaction-Seq"
)

// WebhookNotifier POSTs snapshots as JSON to a URL, typically a scoreboard
// or match recorder. It can be narrowed to some matches and throttled so that
// a fast sync interval does not turn into one request per sync.
type WebhookNotifier struct {
	id     string
	url    string
	client *http.Client

	mu          sync.Mutex
	headers     map[string]string
	matches     map[kinetics.MatchID]bool
	minInterval time.Duration
	lastSent    map[kinetics.MatchID]time.Time
	now         func() time.Time
}

// NewWebhookNotifier creates a notifier forwarding every match, unthrottled.
func NewWebhookNotifier(id, url string) *WebhookNotifier {
	return &WebhookNotifier{
		id:       id,
		url:      url,
		client:   &http.Client{Timeout: 5 * time.Second},
		headers:  make(map[string]string),
		lastSent: make(map[kinetics.MatchID]time.Time),
		now:      time.Now,
	}
}

// SetHeader sets a custom header to include in webhook requests
func (wn *WebhookNotifier) SetHeader(key, value string) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.headers[key] = value
}

// OnlyMatches restricts delivery to the given matches. No IDs means all.
func (wn *WebhookNotifier) OnlyMatches(ids ...kinetics.MatchID) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	if len(ids) == 0 {
		wn.matches = nil
		return
	}
	wn.matches = make(map[kinetics.MatchID]bool, len(ids))
	for _, id := range ids {
		wn.matches[id] = true
	}
}

// SetMinInterval drops snapshots of a match that arrive less than d after
// the last one delivered for it. Zero disables throttling.
func (wn *WebhookNotifier) SetMinInterval(d time.Duration) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.minInterval = d
}

func (wn *WebhookNotifier) ID() string   { return wn.id }
func (wn *WebhookNotifier) Type() string { return "webhook" }

// accept reports whether snapshot should be sent and returns the headers to
// send it with.
func (wn *WebhookNotifier) accept(snapshot kinetics.Snapshot) (map[string]string, bool) {
	wn.mu.Lock()
	defer wn.mu.Unlock()

	if wn.matches != nil && !wn.matches[snapshot.MatchID] {
		return nil, false
	}
	if wn.minInterval > 0 {
		if last, ok := wn.lastSent[snapshot.MatchID]; ok && wn.now().Sub(last) < wn.minInterval {
			return nil, false
		}
	}
	headers := make(map[string]string, len(wn.headers))
	for k, v := range wn.headers {
		headers[k] = v
	}
	return headers, true
}

func (wn *WebhookNotifier) markSent(id kinetics.MatchID) {
	wn.mu.Lock()
	wn.lastSent[id] = wn.now()
	wn.mu.Unlock()
}

// Notify POSTs the snapshot unless it is filtered out or throttled, in which
// case it returns nil without a request. A failed delivery does not count
// towards the throttle, so the publisher's retry goes through.
func (wn *WebhookNotifier) Notify(ctx context.Context, snapshot kinetics.Snapshot) error {
	headers, ok := wn.accept(snapshot)
	if !ok {
		return nil
	}

	data, err := kinetics.EncodeSnapshotJSON(snapshot)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderMatchID, string(snapshot.MatchID))
	req.Header.Set(HeaderSeq, strconv.FormatUint(snapshot.Seq, 10))
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", wn.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", wn.id, resp.StatusCode)
	}
	wn.markSent(snapshot.MatchID)
	return nil
}

// Close is a no-op; the HTTP client holds no per-notifier resources.
func (wn *WebhookNotifier) Close() error {
	return nil
}
