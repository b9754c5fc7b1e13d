package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pitchey-api/internal/telemetry"
	"pitchey-api/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "audit emitter not configured")
			return
		}
		emitAudit(c, emitter, "audit_test", nil, map[string]any{"source": "debug"})
		respondOK(c, http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/ws-rooms/:id", func(c *gin.Context) {
		id, ok := parsePositiveID(c.Param("id"))
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid conversation id")
			return
		}
		respondOK(c, http.StatusOK, gin.H{"conversationId": id, "subscribers": hub.RoomSize(id)})
	})
}
