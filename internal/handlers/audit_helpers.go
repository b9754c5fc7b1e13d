package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pitchey-api/internal/middleware"
	"pitchey-api/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int {
	if userID := c.GetInt(middleware.UserIDKey); userID != 0 {
		return &userID
	}
	return nil
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, eventType string, userID *int, payload map[string]any) {
	if emitter == nil {
		return
	}
	if userID == nil {
		userID = userIDFromContext(c)
	}
	emitter.Emit(c.Request.Context(), eventType, requestIDFromContext(c), userID, payload)
}
