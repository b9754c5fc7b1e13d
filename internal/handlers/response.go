package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"pitchey-api/internal/messaging"
)

func respondOK(c *gin.Context, status int, data any) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": message, "code": code})
}

func statusForCode(code string) int {
	switch code {
	case messaging.CodeValidation, messaging.CodeInvalidRecipient:
		return http.StatusBadRequest
	case messaging.CodeNotFound:
		return http.StatusNotFound
	case messaging.CodeUnauthorized:
		return http.StatusUnauthorized
	case messaging.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondStoreError maps a messaging error onto the error envelope.
// notFound is the message used for NOT_FOUND.
func respondStoreError(c *gin.Context, err error, notFound string) {
	code := messaging.Code(err)
	var message string
	switch code {
	case messaging.CodeValidation:
		message = validationMessage(err)
	case messaging.CodeInvalidRecipient:
		message = "Invalid recipient"
	case messaging.CodeNotFound:
		message = notFound
	default:
		log.Error("messaging request failed", "route", c.FullPath(), "error", err)
		message = "Internal server error"
	}
	respondError(c, statusForCode(code), code, message)
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := messaging.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 && errors.Is(err, messaging.ErrValidation) {
		return msg[i+len(prefix):]
	}
	return msg
}

func parsePositiveID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
