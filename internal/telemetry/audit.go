package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chat-client/internal/observability"
)

// AuditEmitter publishes session and transport lifecycle events with a
// versioned envelope.
type AuditEmitter struct {
	publisher   observability.Publisher
	routingKey  string
	service     string
	environment string
	logger      zerolog.Logger
}

// AuditEnvelope is the published audit record.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *int         `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload carries the human-readable part of an audit record.
type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// NewAuditEmitter constructs an emitter bound to a routing key.
func NewAuditEmitter(publisher observability.Publisher, routingKey, service, environment string, logger zerolog.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// Emit publishes one audit record. A nil emitter or publisher is a no-op so
// call sites never need to guard.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *int) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	headers := observability.BuildHeaders(requestID, "")
	if err := e.publisher.PublishJSON(ctx, e.routingKey, envelope, headers); err != nil {
		e.logger.Warn().Err(err).Msg("audit publish failed")
	}
}
