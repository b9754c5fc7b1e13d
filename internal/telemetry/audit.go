// Package telemetry emits audit events for security- and content-relevant
// actions (logins, logouts, sent and deleted messages, websocket sessions).
package telemetry

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"pitchey-api/internal/observability"
)

// Audit event types.
const (
	EventLogin          = "login"
	EventLogout         = "logout"
	EventRegister       = "register"
	EventMessageSent    = "message_sent"
	EventMessageDeleted = "message_deleted"
	EventWSConnect      = "ws_connect"
	EventWSDisconnect   = "ws_disconnect"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type AuditEmitter struct {
	publisher   Publisher
	prefix      string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	RequestID     string         `json:"request_id"`
	TraceID       string         `json:"trace_id,omitempty"`
	UserID        *int           `json:"user_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// NewAuditEmitter publishes events with routing key "<prefix>.<event type>".
func NewAuditEmitter(publisher Publisher, prefix, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		prefix:      prefix,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes an audit event. Failures are logged and counted, never
// returned: auditing must not fail the request that triggered it.
func (e *AuditEmitter) Emit(ctx context.Context, eventType, requestID string, userID *int, payload map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		TraceID:       observability.TraceIDFromContext(ctx),
		UserID:        userID,
		Payload:       payload,
	}
	log.Debug("audit emit", "event_type", eventType, "request_id", requestID)

	if err := e.publisher.Publish(ctx, e.RoutingKey(eventType), envelope); err != nil {
		observability.IncAMQPPublishError()
		log.Warn("audit publish failed", "event_type", eventType, "error", err)
	}
}

func (e *AuditEmitter) RoutingKey(eventType string) string {
	if e.prefix == "" {
		return eventType
	}
	return e.prefix + "." + eventType
}
