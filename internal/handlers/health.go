package handlers

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"pitchey-api/internal/messaging"
)

// HealthHandler reports database reachability and the backends in use.
type HealthHandler struct {
	ping     func(ctx context.Context) error
	backends map[string]string
}

// NewHealthHandler builds a HealthHandler. backends is reported verbatim,
// e.g. {"cache": "redis", "audit": "noop"}.
func NewHealthHandler(ping func(ctx context.Context) error, backends map[string]string) *HealthHandler {
	return &HealthHandler{ping: ping, backends: backends}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		log.Error("health check failed", "error", err)
		respondError(c, http.StatusServiceUnavailable, messaging.CodeServiceUnavailable, "Database unavailable")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok", "backends": h.backends})
}
