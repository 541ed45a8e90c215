// Package progress broadcasts live run progress to websocket observers.
// Observers may watch a single subject or every run; the hub never
// blocks the pipeline, dropping clients whose connections stall.
package progress

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"convolens/internal/jobs"
	"convolens/internal/logging"
)

// Hub fans progress snapshots out to connected clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> subject filter, "" watches all
	logger  *slog.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		logger:  logger.With(logging.String(logging.FieldComponent, "progress")),
	}
}

// Add registers a client. subjectKey filters the feed to one subject;
// empty watches everything. The hub owns the connection from here and
// closes it when the peer goes away.
func (h *Hub) Add(conn *websocket.Conn, subjectKey string) {
	h.mu.Lock()
	h.clients[conn] = subjectKey
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("observer connected", logging.Int("clients", count))

	// Drain reads to notice disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends the snapshot to every matching client. Implements the
// pipeline's progress notifier.
func (h *Hub) Publish(snapshot *jobs.ProgressSnapshot) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.clients))
	for conn, filter := range h.clients {
		if filter == "" || filter == snapshot.SubjectKey {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug("observer write failed", logging.Error(err))
			h.remove(conn)
		}
	}
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every observer.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]string)
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if present {
		_ = conn.Close()
	}
}
