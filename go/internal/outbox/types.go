package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotifyChannel is the Postgres channel signalled whenever an event is stored.
const NotifyChannel = "timeee_outbox_events"

// Event is a domain event waiting in (or drained from) the outbox.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewEvent builds an event with a fresh ID and a JSON payload.
func NewEvent(aggregateID uuid.UUID, eventType string, payload any, createdAt time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     raw,
		CreatedAt:   createdAt,
	}, nil
}

// Envelope is the wire format used on the message bus.
type Envelope struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// ToEnvelope wraps the event for publishing.
func (e Event) ToEnvelope(now time.Time) Envelope {
	return Envelope{
		EventID:     e.ID.String(),
		EventType:   e.EventType,
		AggregateID: e.AggregateID.String(),
		Timestamp:   now.UTC(),
		Payload:     e.Payload,
	}
}

// ToEvent converts a received envelope back into an Event.
func (env Envelope) ToEvent() (Event, error) {
	id, err := uuid.Parse(env.EventID)
	if err != nil {
		return Event{}, fmt.Errorf("parse event ID: %w", err)
	}
	aggregateID, err := uuid.Parse(env.AggregateID)
	if err != nil {
		return Event{}, fmt.Errorf("parse aggregate ID: %w", err)
	}
	return Event{
		ID:          id,
		AggregateID: aggregateID,
		EventType:   env.EventType,
		Payload:     env.Payload,
		CreatedAt:   env.Timestamp,
	}, nil
}

// Publisher delivers one event to its destination.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublishFunc adapts a function to the Publisher interface.
type PublishFunc func(ctx context.Context, event Event) error

func (f PublishFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// BatchResult summarises one pass over the outbox.
type BatchResult struct {
	Total int
	Sent  int
}

// Store claims up to limit unsent events, hands each to publish and marks
// the ones that were published as sent.
type Store interface {
	ProcessBatch(ctx context.Context, limit int32, publish PublishFunc) (BatchResult, error)
}
