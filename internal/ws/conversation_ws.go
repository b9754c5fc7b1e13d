package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"pitchey-api/internal/auth"
	"pitchey-api/internal/observability"
	"pitchey-api/internal/telemetry"
)

// IdentityResolver resolves the caller of a handshake request.
type IdentityResolver interface {
	Resolve(ctx context.Context, r *http.Request) auth.Result
}

// ParticipantChecker reports conversation membership.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error)
}

// ConversationWebSocketHandler handles conversation websocket connections.
type ConversationWebSocketHandler struct {
	hub           *Hub
	resolver      IdentityResolver
	conversations ParticipantChecker
	audit         *telemetry.AuditEmitter
	upgrader      websocket.Upgrader
}

// NewConversationWebSocketHandler constructs a ConversationWebSocketHandler.
// checkOrigin may be nil to accept any origin.
func NewConversationWebSocketHandler(hub *Hub, resolver IdentityResolver, conversations ParticipantChecker, audit *telemetry.AuditEmitter, checkOrigin func(*http.Request) bool) *ConversationWebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &ConversationWebSocketHandler{
		hub:           hub,
		resolver:      resolver,
		conversations: conversations,
		audit:         audit,
		upgrader:      websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Handle authenticates the caller, checks membership, upgrades the connection
// and registers it with the hub.
func (h *ConversationWebSocketHandler) Handle(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || conversationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid conversation id", "code": "VALIDATION_ERROR"})
		return
	}

	ctx, span := otel.Tracer("pitchey-api/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	res := h.resolver.Resolve(ctx, withQueryToken(c.Request))
	if !res.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required", "code": "UNAUTHORIZED"})
		return
	}
	userID := res.Identity.User.ID

	member, err := h.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil || !member {
		if err != nil {
			log.Error("websocket membership check failed", "conversation_id", conversationID, "error", err)
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Conversation not found", "code": "NOT_FOUND"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = observability.RequestIDFromRequest(c.Request)
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conversationID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent(telemetry.EventWSConnect)
	h.audit.Emit(ctx, telemetry.EventWSConnect, requestID, &userID, info.payload(conversationID, ""))
	log.Debug("websocket connected", "conversation_id", conversationID, "user_id", userID, "conn_id", info.ConnID)

	// the request context ends with the handler; the read loop outlives it
	go h.readLoop(context.WithoutCancel(ctx), conversationID, conn, info)
}

// readLoop discards client frames until the connection closes.
func (h *ConversationWebSocketHandler) readLoop(ctx context.Context, conversationID int, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		if h.hub.RemoveClient(conversationID, conn) {
			observability.DecWSActive()
		}
		observability.IncWSEvent(telemetry.EventWSDisconnect)
		userID := info.UserID
		h.audit.Emit(ctx, telemetry.EventWSDisconnect, info.RequestID, &userID, info.payload(conversationID, closeReason))
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
	}
}
