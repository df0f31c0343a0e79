package kernel

import "time"

// DomainEvent is a fact recorded by an aggregate and published after its transaction commits.
// Implementations are plain structs with json tags; the outbox stores them as JSON.
type DomainEvent interface {
	EventID() UUID
	EventName() string
	AggregateID() UUID
	OccurredAt() time.Time
}

// EventSource is implemented by aggregates that buffer domain events until they are persisted.
type EventSource interface {
	PullDomainEvents() []DomainEvent
}
