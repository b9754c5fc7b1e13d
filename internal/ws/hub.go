package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"pitchey-api/internal/models"
	"pitchey-api/internal/observability"
	"pitchey-api/internal/telemetry"
)

const writeWait = 10 * time.Second

// Event types pushed to conversation subscribers.
const (
	EventMessage = "message"
	EventDeleted = "message_deleted"
)

type client struct {
	conn *websocket.Conn
	info ConnInfo
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket rooms, one per conversation.
type Hub struct {
	rooms map[int]map[*websocket.Conn]*client
	mu    sync.RWMutex
	audit *telemetry.AuditEmitter
}

// NewHub creates an empty hub. audit may be nil.
func NewHub(audit *telemetry.AuditEmitter) *Hub {
	return &Hub{
		rooms: make(map[int]map[*websocket.Conn]*client),
		audit: audit,
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[conversationID][conn] = &client{conn: conn, info: info}
}

// RemoveClient removes a connection and reports whether it was registered.
func (h *Hub) RemoveClient(conversationID int, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[conversationID]
	if !ok {
		return false
	}
	if _, ok := clients[conn]; !ok {
		return false
	}
	delete(clients, conn)
	if len(clients) == 0 {
		delete(h.rooms, conversationID)
	}
	return true
}

// RoomSize returns the number of subscribers of a conversation.
func (h *Hub) RoomSize(conversationID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// BroadcastMessage sends a new message to all subscribers of its conversation.
func (h *Hub) BroadcastMessage(conversationID int, msg models.Message) {
	h.broadcast(conversationID, models.ConversationEvent{Type: EventMessage, Message: &msg})
}

// BroadcastDeletion notifies subscribers that a message was deleted.
func (h *Hub) BroadcastDeletion(conversationID int, messageID int) {
	h.broadcast(conversationID, models.ConversationEvent{Type: EventDeleted, MessageID: messageID})
}

func (h *Hub) broadcast(conversationID int, event models.ConversationEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[conversationID]))
	for _, c := range h.rooms[conversationID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("websocket event encode failed", "error", err)
		return
	}
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			log.Warn("websocket write error", "conversation_id", conversationID, "conn_id", c.info.ConnID, "error", err)
			_ = c.conn.Close()
			if h.RemoveClient(conversationID, c.conn) {
				observability.DecWSActive()
			}
			h.publishWSError(conversationID, c.info, err)
			continue
		}
		observability.IncWSEvent(event.Type)
	}
}

func (h *Hub) publishWSError(conversationID int, info ConnInfo, err error) {
	observability.IncWSEvent("ws_error")
	userID := info.UserID
	h.audit.Emit(context.Background(), "ws_error", info.RequestID, &userID, info.payload(conversationID, err.Error()))
}
