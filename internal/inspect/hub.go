package inspect

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Event is one AI observation pushed to connected debug clients.
type Event struct {
	Type  string         `json:"type"`
	Actor string         `json:"actor"`
	Data  map[string]any `json:"data,omitempty"`
	TS    int64          `json:"ts"`
}

// NewEvent builds a timestamped event.
func NewEvent(eventType, actor string, data map[string]any) Event {
	return Event{Type: eventType, Actor: actor, Data: data, TS: time.Now().UnixMilli()}
}

// Hub fans AI events out to websocket subscribers. Slow or broken clients
// are dropped rather than allowed to stall the rest.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	upgrader    websocket.Upgrader
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint64]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Debug endpoint, bound to localhost in the default config.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()

	slog.Debug("inspect client connected", "client", id)

	// We never expect client messages; reading surfaces closes and keeps
	// control frames flowing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(id)
				return
			}
		}
	}()
}

// Broadcast pushes one event to every subscriber. A write error drops the
// subscriber.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteJSON(ev)
		sub.mu.Unlock()
		if err != nil {
			slog.Debug("dropping inspect client", "client", id, "err", err)
			h.drop(id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[uint64]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.conn.Close()
	}
}

func (h *Hub) drop(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}
