package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events exchanged with editor clients.
const (
	EventNotification    = "notification"
	EventInvokeAction    = "invoke_action"
	EventActionExpired   = "action_expired"
	EventEditors         = "editors"
	EventCoverImageReady = "cover_image_ready"
)

// ActionInvoker runs a notification action of a draft and reports whether it still existed.
type ActionInvoker func(draftID uuid.UUID, actionID string) bool

// RemoteEventHandler receives events that other processes published for a draft.
type RemoteEventHandler func(draftID uuid.UUID, event string, payload []byte)

// Hub maintains draft_id -> set of editor connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling when configured.
type Hub struct {
	// draftID -> map[clientID]*Client
	drafts   map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per draft
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
	onAction ActionInvoker
	onRemote RemoteEventHandler
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishDraftEvent(draftID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to draft channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeDraft(draftID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		drafts:   make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetActionInvoker sets the callback for invoke_action messages.
func (h *Hub) SetActionInvoker(fn ActionInvoker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAction = fn
}

// SetRemoteEventHandler sets the callback for events arriving over Redis.
func (h *Hub) SetRemoteEventHandler(fn RemoteEventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRemote = fn
}

// Register adds a client to a draft room. Starts the Redis subscription for this draft if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.drafts[c.DraftID] == nil {
		h.drafts[c.DraftID] = make(map[string]*Client)
		if h.redisSub != nil {
			draftID := c.DraftID
			cancel, err := h.redisSub.SubscribeDraft(draftID, func(event string, payload []byte) {
				h.remoteEvent(draftID, event, payload)
			})
			if err != nil {
				h.logger.Warn("subscribe draft channel", zap.String("draft_id", draftID.String()), zap.Error(err))
			} else {
				h.subs[draftID] = cancel
			}
		}
	}
	h.drafts[c.DraftID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("editor joined draft", zap.String("client_id", c.ID), zap.String("draft_id", c.DraftID.String()))
}

// Unregister removes a client from a draft room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var count int
	if m, ok := h.drafts[c.DraftID]; ok {
		delete(m, c.ID)
		count = len(m)
		if count == 0 {
			delete(h.drafts, c.DraftID)
			if cancel, ok := h.subs[c.DraftID]; ok {
				cancel()
				delete(h.subs, c.DraftID)
			}
		}
	}
	h.mu.Unlock()
	if count > 0 {
		h.Broadcast(c.DraftID, EventEditors, map[string]int{"count": count})
	}
	h.logger.Debug("editor left draft", zap.String("client_id", c.ID), zap.String("draft_id", c.DraftID.String()))
}

func (h *Hub) remoteEvent(draftID uuid.UUID, event string, payload []byte) {
	h.mu.RLock()
	onRemote := h.onRemote
	h.mu.RUnlock()
	if onRemote != nil {
		onRemote(draftID, event, payload)
	}
	h.Broadcast(draftID, event, json.RawMessage(payload))
}

// Broadcast sends a message to all editors of a draft (local only).
func (h *Hub) Broadcast(draftID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("encode broadcast", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.drafts[draftID]))
	for _, c := range h.drafts[draftID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish publishes to Redis only so the subscriber callback delivers once on
// every instance, including this one. Without Redis it broadcasts locally.
func (h *Hub) Publish(draftID uuid.UUID, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(draftID, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode publish", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishDraftEvent(draftID, event, data); err != nil {
		h.logger.Warn("publish draft event, delivering locally", zap.String("event", event), zap.Error(err))
		h.Broadcast(draftID, event, json.RawMessage(data))
	}
}

// EditorCount returns the number of connected editors of a draft.
func (h *Hub) EditorCount(draftID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.drafts[draftID])
}

// SendToClient sends a message to a single editor of a draft.
func (h *Hub) SendToClient(draftID uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	c, ok := h.drafts[draftID][clientID]
	h.mu.RUnlock()
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// InvokeAction forwards an action click to the draft owner.
func (h *Hub) InvokeAction(draftID uuid.UUID, actionID string) bool {
	h.mu.RLock()
	fn := h.onAction
	h.mu.RUnlock()
	if fn == nil {
		return false
	}
	return fn(draftID, actionID)
}
