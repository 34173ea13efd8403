package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	broadcastDepth = 256
)

// replicaConn is one connected replica. An empty match receives every match.
type replicaConn struct {
	conn  *websocket.Conn
	match kinetics.MatchID
}

// WebSocketNotifier pushes snapshots to connected replicas, each optionally
// following a single match.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]kinetics.MatchID
	upgrader   websocket.Upgrader
	broadcast  chan kinetics.Snapshot
	register   chan replicaConn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewWebSocketNotifier creates a new WebSocket notifier and starts its hub.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	notifier := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]kinetics.MatchID),
		broadcast:  make(chan kinetics.Snapshot, broadcastDepth),
		register:   make(chan replicaConn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	notifier.wg.Add(1)
	go notifier.run()

	return notifier
}

// ID returns the notifier ID
func (wsn *WebSocketNotifier) ID() string {
	return wsn.id
}

// Type returns the notifier type
func (wsn *WebSocketNotifier) Type() string {
	return "websocket"
}

// ClientCount returns the number of connected clients.
func (wsn *WebSocketNotifier) ClientCount() int {
	wsn.mu.RLock()
	defer wsn.mu.RUnlock()
	return len(wsn.clients)
}

// RegisterClient registers a connection following match, or every match
// when match is empty.
func (wsn *WebSocketNotifier) RegisterClient(conn *websocket.Conn, match kinetics.MatchID) {
	if conn == nil {
		return
	}
	select {
	case wsn.register <- replicaConn{conn: conn, match: match}:
	case <-wsn.done:
	}
}

// UnregisterClient unregisters and closes a WebSocket client connection
func (wsn *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case wsn.unregister <- conn:
	case <-wsn.done:
	}
}

// Notify queues the snapshot for every connected client.
func (wsn *WebSocketNotifier) Notify(ctx context.Context, snapshot kinetics.Snapshot) error {
	select {
	case <-wsn.done:
		return fmt.Errorf("websocket notifier %s is closed", wsn.id)
	default:
	}

	select {
	case wsn.broadcast <- snapshot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wsn.done:
		return fmt.Errorf("websocket notifier %s is closed", wsn.id)
	case <-time.After(1 * time.Second):
		return fmt.Errorf("snapshot queue full")
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. The optional "match" query parameter limits the client to
// one match. Replicas never send anything meaningful; reads only detect
// the close.
func (wsn *WebSocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	match := kinetics.MatchID(r.URL.Query().Get("match"))
	conn, err := wsn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}
	wsn.RegisterClient(conn, match)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			wsn.UnregisterClient(conn)
			return
		}
	}
}

// run handles client registration/unregistration and snapshot fan-out
func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return

		case rc := <-wsn.register:
			wsn.mu.Lock()
			wsn.clients[rc.conn] = rc.match
			wsn.mu.Unlock()

		case conn := <-wsn.unregister:
			if conn == nil {
				continue
			}
			wsn.mu.Lock()
			if _, ok := wsn.clients[conn]; ok {
				delete(wsn.clients, conn)
				conn.Close()
			}
			wsn.mu.Unlock()

		case snapshot := <-wsn.broadcast:
			data, err := kinetics.EncodeSnapshotJSON(snapshot)
			if err != nil {
				continue
			}
			wsn.writeAll(snapshot.MatchID, data)
		}
	}
}

// writeAll sends data to every client following match, dropping the ones
// that fail.
func (wsn *WebSocketNotifier) writeAll(match kinetics.MatchID, data []byte) {
	wsn.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(wsn.clients))
	for conn, follows := range wsn.clients {
		if follows == "" || follows == match {
			conns = append(conns, conn)
		}
	}
	wsn.mu.RUnlock()

	var failed []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			failed = append(failed, conn)
			conn.Close()
		}
	}

	if len(failed) > 0 {
		wsn.mu.Lock()
		for _, conn := range failed {
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	}
}

// Close closes all WebSocket connections and stops the hub. It is safe to call twice.
func (wsn *WebSocketNotifier) Close() error {
	wsn.closeOnce.Do(func() {
		close(wsn.done)
		wsn.wg.Wait()

		wsn.mu.Lock()
		for conn := range wsn.clients {
			conn.Close()
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	})
	return nil
}

// GetUpgrader returns the WebSocket upgrader for HTTP handlers
func (wsn *WebSocketNotifier) GetUpgrader() websocket.Upgrader {
	return wsn.upgrader
}
