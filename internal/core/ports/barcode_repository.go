package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
)

// BarcodeUnitRepository stores units and appends their pending log entries on Add and
// Update. Log entries are never rewritten.
type BarcodeUnitRepository interface {
	Add(ctx context.Context, units ...*barcode.Unit) error
	Update(ctx context.Context, unit *barcode.Unit) error
	Get(ctx context.Context, code string) (*barcode.Unit, error)
	GetForUpdate(ctx context.Context, code string) (*barcode.Unit, error)

	// ListAssignableForUpdate locks up to limit units of a lot in unassigned or reserved,
	// in barcode order.
	ListAssignableForUpdate(ctx context.Context, lotID kernel.UUID, limit int) ([]*barcode.Unit, error)

	// ListByOrderForUpdate locks every unit bound to the order.
	ListByOrderForUpdate(ctx context.Context, orderID kernel.UUID) ([]*barcode.Unit, error)

	Log(ctx context.Context, code string) ([]barcode.LogEntry, error)
}
