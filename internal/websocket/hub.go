package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a notification pushed to the connections of one session.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		Extra:  extra,
	}
}

// Hub tracks live WebSocket clients grouped by session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[c.sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.sessionID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.sessions, c.sessionID)
	}
}

// Rekey moves the connections of from to the session to.
func (h *Hub) Rekey(from, to string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[from]
	if !ok {
		return
	}
	delete(h.sessions, from)

	target, ok := h.sessions[to]
	if !ok {
		target = make(map[*Client]struct{}, len(set))
		h.sessions[to] = target
	}
	for c := range set {
		c.sessionID = to
		target[c] = struct{}{}
	}
}

// SendTo delivers msg to every connection of sessionID. Other sessions never
// see it.
func (h *Hub) SendTo(sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.sessions[sessionID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping message for slow client", "session", sessionID, "type", msg.Type)
		}
	}
}

// Notify satisfies the flow notifier.
func (h *Hub) Notify(sessionID, entity, action string, extra map[string]any) {
	h.SendTo(sessionID, NewMessage(entity, action, extra))
}

// ClientCount returns the number of connected clients across all sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// SessionCount returns the number of sessions with at least one client.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
