package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// OutboxMessage is a domain event waiting to be relayed to the broker.
type OutboxMessage struct {
	ID          kernel.UUID
	AggregateID kernel.UUID
	EventName   string
	Payload     []byte
	OccurredAt  time.Time
	PublishedAt *time.Time
}

type OutboxRepository interface {
	Add(ctx context.Context, messages ...OutboxMessage) error

	// ListUnpublished locks up to limit unpublished messages, oldest first, skipping rows
	// locked by another relay.
	ListUnpublished(ctx context.Context, limit int) ([]OutboxMessage, error)

	MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error
}

// EventPublisher delivers relayed outbox messages.
type EventPublisher interface {
	Publish(ctx context.Context, messages []OutboxMessage) error
}

// NewOutboxMessage serializes a domain event for the outbox.
func NewOutboxMessage(event kernel.DomainEvent) (OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s event: %w", event.EventName(), err)
	}
	return OutboxMessage{
		ID:          event.EventID(),
		AggregateID: event.AggregateID(),
		EventName:   event.EventName(),
		Payload:     payload,
		OccurredAt:  event.OccurredAt(),
	}, nil
}
