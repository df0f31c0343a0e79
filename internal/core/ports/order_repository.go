// Package ports declares what the fulfillment core needs from the outside world:
// repositories bound to a unit of work, the courier and catalog services, the event
// publisher and the idempotency guard.
package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository persists order aggregates with their line items and admin notes.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the whole aggregate. The order must exist.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate loads the order and locks its row until the transaction ends. Status
	// transitions are validated against the locked state.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByTrackingCode finds the order a courier parcel belongs to.
	GetByTrackingCode(ctx context.Context, trackingCode string) (*order.Order, error)

	// ListIDsByStatus returns up to limit order ids in the given statuses, oldest first.
	ListIDsByStatus(ctx context.Context, statuses []order.Status, limit int) ([]kernel.UUID, error)

	// ListIDsPendingCourierConfirmation returns orders whose courier transfer outcome is unknown.
	ListIDsPendingCourierConfirmation(ctx context.Context, limit int) ([]kernel.UUID, error)
}
