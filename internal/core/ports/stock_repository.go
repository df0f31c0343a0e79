package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
)

type LotRepository interface {
	Add(ctx context.Context, lot *stock.Lot) error
	Update(ctx context.Context, lot *stock.Lot) error
	Get(ctx context.Context, id kernel.UUID) (*stock.Lot, error)
	GetForUpdate(ctx context.Context, id kernel.UUID) (*stock.Lot, error)

	// ListActiveForUpdate locks and returns the active lots of a variant at a location.
	ListActiveForUpdate(
		ctx context.Context,
		productID, variantID kernel.UUID,
		location kernel.Location,
	) ([]*stock.Lot, error)
}

type GlobalStockRepository interface {
	// GetForUpdate locks the counters of a variant. A variant that never received stock
	// yields errs.ErrObjectNotFound.
	GetForUpdate(ctx context.Context, productID, variantID kernel.UUID) (*stock.GlobalStock, error)

	// GetOrCreateForUpdate stores zero counters for a variant seen for the first time and
	// locks its row.
	GetOrCreateForUpdate(ctx context.Context, productID, variantID kernel.UUID) (*stock.GlobalStock, error)

	// Save inserts or overwrites the counters of a variant.
	Save(ctx context.Context, gs *stock.GlobalStock) error
}

type ReservationRepository interface {
	Add(ctx context.Context, r *stock.Reservation) error
	Update(ctx context.Context, r *stock.Reservation) error
	GetForUpdate(ctx context.Context, id kernel.UUID) (*stock.Reservation, error)
}
