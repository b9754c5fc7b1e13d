package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchey-api/internal/telemetry"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "pitchey.events")

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "audit.login", telemetry.AuditEnvelope{EventType: "login"}))
	assert.NoError(t, p.Close())
}

func TestPublishingCarriesEnvelopeHeaders(t *testing.T) {
	msg, err := publishing(telemetry.AuditEnvelope{EventType: "message_sent", RequestID: "req-9", TraceID: "abc"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "message_sent", msg.Type)
	assert.Equal(t, "req-9", msg.CorrelationId)
	assert.Equal(t, "req-9", msg.Headers["x-request-id"])
	assert.Equal(t, "abc", msg.Headers["trace_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "message_sent", decoded["event_type"])
}

func TestPublishingPlainEvent(t *testing.T) {
	msg, err := publishing(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Empty(t, msg.Type)
	assert.Nil(t, msg.Headers)
}
