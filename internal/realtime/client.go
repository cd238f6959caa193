package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware restricts HTTP origins; editors connect from the same app
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one editor connection on a draft.
type Client struct {
	ID       string
	DraftID  uuid.UUID
	JoinedAt time.Time
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// DraftExists reports whether a draft is open on this instance.
type DraftExists func(draftID uuid.UUID) bool

// ServeWs handles the WebSocket upgrade for /ws?draft_id=... and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, exists DraftExists) gin.HandlerFunc {
	return func(c *gin.Context) {
		draftIDStr := c.Query("draft_id")
		if draftIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "draft_id required"})
			return
		}
		draftID, err := uuid.Parse(draftIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft_id"})
			return
		}
		if exists != nil && !exists(draftID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			DraftID:  draftID,
			JoinedAt: time.Now(),
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.handle(msg)
	}
}

func (c *Client) handle(msg WSMessage) {
	switch msg.Event {
	case "join":
		c.hub.Broadcast(c.DraftID, EventEditors, map[string]int{
			"count": c.hub.EditorCount(c.DraftID),
		})
	case EventInvokeAction:
		var payload struct {
			ActionID string `json:"action_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ActionID == "" {
			return
		}
		if !c.hub.InvokeAction(c.DraftID, payload.ActionID) {
			c.hub.SendToClient(c.DraftID, c.ID, EventActionExpired, payload)
		}
	default:
		// ignore
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
