package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerWritesRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := setup(&buf, "debug", "json")

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/api/conversations/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/3", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "/api/conversations/:id")
	assert.Contains(t, out, "404")
}

func TestSetupFallsBackToInfoOnBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "nope", "text")

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
