package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pitchey-api/internal/messaging"
	"pitchey-api/internal/models"
	"pitchey-api/internal/telemetry"
	"pitchey-api/internal/ws"
)

// MessagingHandler exposes conversations and messages over HTTP.
type MessagingHandler struct {
	store messaging.ConversationStore
	hub   *ws.Hub
	audit *telemetry.AuditEmitter
}

// NewMessagingHandler builds a MessagingHandler. hub and audit may be nil.
func NewMessagingHandler(store messaging.ConversationStore, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessagingHandler {
	return &MessagingHandler{store: store, hub: hub, audit: audit}
}

// Register mounts the messaging routes on an authenticated group.
func (h *MessagingHandler) Register(r gin.IRoutes) {
	r.POST("/messages", h.SendMessage)
	r.GET("/messages", h.GetMessages)
	r.POST("/messages/:id/read", h.MarkRead)
	r.DELETE("/messages/:id", h.DeleteMessage)
	r.GET("/conversations", h.ListConversations)
	r.POST("/conversations", h.StartConversation)
	r.GET("/conversations/:id", h.GetConversation)
}

// SendMessage handles POST /api/messages.
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var req struct {
		ConversationID int    `json:"conversation_id"`
		RecipientID    int    `json:"recipient_id"`
		PitchID        *int64 `json:"pitch_id"`
		Content        string `json:"content"`
		MessageType    string `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid request body")
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.store.SendMessage(c.Request.Context(), userID, messaging.SendInput{
		ConversationID: req.ConversationID,
		RecipientID:    req.RecipientID,
		PitchID:        req.PitchID,
		Content:        req.Content,
		MessageType:    req.MessageType,
	})
	if err != nil {
		respondStoreError(c, err, "Conversation not found")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastMessage(msg.ConversationID, msg)
	}
	emitAudit(c, h.audit, telemetry.EventMessageSent, nil, map[string]any{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
		"message_type":    msg.MessageType,
	})
	respondOK(c, http.StatusCreated, gin.H{"message": msg, "conversationId": msg.ConversationID})
}

// GetMessages handles GET /api/messages?conversation_id=.
func (h *MessagingHandler) GetMessages(c *gin.Context) {
	conversationID, ok := parsePositiveID(c.Query("conversation_id"))
	if !ok {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "conversation_id is required")
		return
	}

	msgs := h.store.GetMessages(c.Request.Context(), c.GetInt("userID"), conversationID)
	if msgs == nil {
		msgs = []models.Message{}
	}
	respondOK(c, http.StatusOK, gin.H{"messages": msgs})
}

// MarkRead handles POST /api/messages/:id/read.
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	messageID, ok := parsePositiveID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid message id")
		return
	}

	if err := h.store.MarkMessageAsRead(c.Request.Context(), c.GetInt("userID"), messageID); err != nil {
		respondStoreError(c, err, "Message not found")
		return
	}
	respondOK(c, http.StatusOK, nil)
}

// DeleteMessage handles DELETE /api/messages/:id. Deleting a message the
// caller did not send succeeds without effect.
func (h *MessagingHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := parsePositiveID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid message id")
		return
	}

	outcome, err := h.store.DeleteMessage(c.Request.Context(), c.GetInt("userID"), messageID)
	if err != nil {
		respondStoreError(c, err, "Message not found")
		return
	}

	if outcome.Deleted {
		if h.hub != nil {
			h.hub.BroadcastDeletion(outcome.ConversationID, messageID)
		}
		emitAudit(c, h.audit, telemetry.EventMessageDeleted, nil, map[string]any{
			"conversation_id": outcome.ConversationID,
			"message_id":      messageID,
		})
	}
	respondOK(c, http.StatusOK, nil)
}

// ListConversations handles GET /api/conversations.
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	conversations := h.store.GetConversations(c.Request.Context(), c.GetInt("userID"))
	if conversations == nil {
		conversations = []messaging.ConversationView{}
	}
	respondOK(c, http.StatusOK, gin.H{"conversations": conversations})
}

// StartConversation handles POST /api/conversations.
func (h *MessagingHandler) StartConversation(c *gin.Context) {
	var req struct {
		RecipientID int    `json:"recipient_id"`
		PitchID     *int64 `json:"pitch_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid request body")
		return
	}

	conversationID, err := h.store.FindOrCreateConversation(c.Request.Context(), c.GetInt("userID"), req.RecipientID, req.PitchID)
	if err != nil {
		respondStoreError(c, err, "Recipient not found")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"conversationId": conversationID})
}

// GetConversation handles GET /api/conversations/:id.
func (h *MessagingHandler) GetConversation(c *gin.Context) {
	conversationID, ok := parsePositiveID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid conversation id")
		return
	}

	detail, err := h.store.GetConversationByID(c.Request.Context(), c.GetInt("userID"), conversationID)
	if err != nil {
		respondStoreError(c, err, "Conversation not found")
		return
	}
	if detail.Messages == nil {
		detail.Messages = []models.Message{}
	}
	respondOK(c, http.StatusOK, detail)
}
