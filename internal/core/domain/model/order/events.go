package order

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

const StatusChangedEventName = "order.status_changed"

// StatusChangedEvent is recorded on every successful transition and relayed through the
// outbox. Exported fields form the JSON payload.
type StatusChangedEvent struct {
	ID            string    `json:"event_id"`
	OrderID       string    `json:"order_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Kind          string    `json:"kind"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	TrackingCode  string    `json:"tracking_code,omitempty"`
	ActorName     string    `json:"actor_name"`
	ActorRole     string    `json:"actor_role"`
	At            time.Time `json:"occurred_at"`

	eventID kernel.UUID
	orderID kernel.UUID
}

func newStatusChangedEvent(o *Order, from Status, actor kernel.Actor, at time.Time) StatusChangedEvent {
	id := kernel.NewUUID()
	return StatusChangedEvent{
		ID:            id.String(),
		OrderID:       o.id.String(),
		From:          from.String(),
		To:            o.status.String(),
		Kind:          string(o.kind),
		InvoiceNumber: o.invoiceNumber,
		TrackingCode:  o.trackingCode,
		ActorName:     actor.Name(),
		ActorRole:     string(actor.Role()),
		At:            at,
		eventID:       id,
		orderID:       o.id,
	}
}

func (e StatusChangedEvent) EventID() kernel.UUID {
	return e.eventID
}

func (e StatusChangedEvent) EventName() string {
	return StatusChangedEventName
}

func (e StatusChangedEvent) AggregateID() kernel.UUID {
	return e.orderID
}

func (e StatusChangedEvent) OccurredAt() time.Time {
	return e.At
}
