package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bee-social/internal/logger"
	"bee-social/internal/observability"
)

// Routing keys for domain events.
const (
	EventNotificationCreated = "notification.created"
	EventChatMessageSent     = "chat.message.sent"
	EventChatRead            = "chat.read"
	EventChatCreated         = "chat.created"
	EventPostCreated         = "post.created"
	EventWSConnect           = "ws.connect"
	EventWSDisconnect        = "ws.disconnect"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Sink receives domain events. *Emitter is the production implementation.
type Sink interface {
	Emit(ctx context.Context, eventType, requestID, userID string, payload any)
}

// EventEnvelope wraps every payload published to the broker.
type EventEnvelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type"`
	OccurredAt    string  `json:"occurred_at"`
	Service       string  `json:"service"`
	Environment   string  `json:"environment"`
	RequestID     string  `json:"request_id,omitempty"`
	TraceID       string  `json:"trace_id,omitempty"`
	UserID        *string `json:"user_id,omitempty"`
	Payload       any     `json:"payload"`
}

// Emitter publishes domain events after the state change has committed.
// Failures are logged and never surface to the caller.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	now         func() time.Time
}

func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes payload under eventType, which doubles as the routing key.
func (e *Emitter) Emit(ctx context.Context, eventType, requestID, userID string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := e.envelope(ctx, eventType, requestID, userID, payload)
	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("request_id", requestID).
			Msg("event publish failed")
	}
}

func (e *Emitter) envelope(ctx context.Context, eventType, requestID, userID string, payload any) EventEnvelope {
	env := EventEnvelope{
		SchemaVersion: 1,
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		TraceID:       observability.TraceIDFromContext(ctx),
		Payload:       payload,
	}
	if userID != "" {
		env.UserID = &userID
	}
	return env
}

var _ Sink = (*Emitter)(nil)
