package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time notification broadcast to all clients. An
// "invalidate" message lists the data keys a client should refetch.
type Message struct {
	Type  string         `json:"type"`
	Keys  []string       `json:"keys,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

const (
	TypeInvalidate   = "invalidate"
	TypeBackupStatus = "backup_status"
)

// NewInvalidateMessage tells clients that cached data under keys is stale.
func NewInvalidateMessage(keys []string) Message {
	return Message{Type: TypeInvalidate, Keys: keys}
}

// NewMessage creates a Message carrying extra fields.
func NewMessage(typ string, extra map[string]any) Message {
	return Message{Type: typ, Extra: extra}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
// A client that falls behind is dropped rather than skipped, since a missed
// invalidation would leave its view stale; it resyncs on reconnect through
// the greeting.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	greeting []byte
	logger   *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// SetGreeting sets the message queued for every client as it registers.
func (h *Hub) SetGreeting(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal greeting", "error", err)
		return
	}
	h.mu.Lock()
	h.greeting = data
	h.mu.Unlock()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.greeting != nil {
		c.send <- h.greeting
	}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	h.unregisterLocked(c)
	h.mu.Unlock()
}

func (h *Hub) unregisterLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends a message to all connected clients. Clients whose send
// buffer is full are unregistered.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket client too slow, dropping", "type", msg.Type)
			h.unregisterLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
