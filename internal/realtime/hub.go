// Package realtime pushes stored notifications to connected WebSocket
// clients. A user may hold several connections (tabs, devices); Redis
// pub/sub fans a push out across server instances.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/models"
)

// Hub maintains user_id -> set of connections and delivers pushes.
type Hub struct {
	// userID -> map[clientID]*Client
	users  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per user
	mu     sync.RWMutex
	logger *zap.Logger
	pub    RedisPublisher
	sub    RedisSubscriber
}

// RedisPublisher publishes a user event for cross-instance delivery.
type RedisPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to a user's channel and invokes handler for
// incoming events.
type RedisSubscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a WebSocket hub. pub and sub may be nil; the hub then
// delivers to local connections only.
func NewHub(logger *zap.Logger, pub RedisPublisher, sub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		users:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a connection. The first connection for a user starts that
// user's Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeUser(c.UserID, func(event string, payload []byte) {
				h.sendToUser(c.UserID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.UserID] = cancel
			}
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected",
		zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a connection. The last connection for a user cancels
// that user's Redis subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.subs[c.UserID]; ok {
				cancel()
				delete(h.subs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected",
		zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// sendToUser delivers to the user's local connections only.
func (h *Hub) sendToUser(userID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.users[userID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishNotification pushes a stored notification to its recipient. With
// Redis configured it publishes only; the per-user subscriber performs the
// single local delivery on every instance, avoiding duplicates.
func (h *Hub) PublishNotification(n *models.Notification) error {
	if h.pub != nil {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return h.pub.PublishUserEvent(n.RecipientID, "notification", data)
	}
	h.sendToUser(n.RecipientID, "notification", n)
	return nil
}

// ConnectionCount returns the number of connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
