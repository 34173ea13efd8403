package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/gorilla/websocket"
)

// WebSocketURL returns the replica endpoint for the client's server.
func (c *Client) WebSocketURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/ws"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/ws"
	default:
		return c.baseURL + "/ws"
	}
}

// Subscribe follows match over the replica websocket until ctx is done or
// the connection fails. Every snapshot of that match is ingested into
// replica; onSnapshot, if set, is called after each accepted one. Snapshots
// of other matches are ignored, and so are stale or malformed ones.
func (c *Client) Subscribe(ctx context.Context, match kinetics.MatchID, replica *kinetics.Replica, onSnapshot func(kinetics.Snapshot)) error {
	u := c.WebSocketURL() + "?" + url.Values{"match": {string(match)}}.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("replica connection closed: %w", err)
		}
		snap, err := kinetics.DecodeSnapshotJSON(data)
		if err != nil || snap.MatchID != match {
			continue
		}
		if err := replica.Ingest(snap); err != nil {
			continue
		}
		if onSnapshot != nil {
			onSnapshot(snap)
		}
	}
}
