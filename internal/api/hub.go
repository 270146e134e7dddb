package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server binds to localhost; cross-origin browsers are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressEvent is one aggregation progress update pushed to subscribers.
type ProgressEvent struct {
	JobID     string  `json:"job_id"`
	State     string  `json:"state"`
	RowsDone  int     `json:"rows_done"`
	RowsTotal int     `json:"rows_total"`
	Percent   float64 `json:"percent"`
	Error     string  `json:"error,omitempty"`
}

// Hub fans aggregation progress events out to websocket subscribers.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: map[*websocket.Conn]bool{}}
}

// Subscribe upgrades the request to a websocket and registers it. The
// connection is read-drained in the background so pings and closes are
// processed.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every subscriber, dropping dead connections.
func (h *Hub) Broadcast(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		conn.Close()
		delete(h.conns, conn)
	}
}
