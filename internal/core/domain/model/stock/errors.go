package stock

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrInsufficientStock is the sentinel behind InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrReservationAlreadyCommitted = errors.New("reservation is already committed")
	ErrReservationAlreadyReleased  = errors.New("reservation is already released")
)

// InsufficientStockError reports how far a reservation request fell short.
type InsufficientStockError struct {
	ProductID kernel.UUID
	VariantID kernel.UUID
	Location  string
	Requested int
	Available int
}

func NewInsufficientStockError(
	productID, variantID kernel.UUID,
	location string,
	requested, available int,
) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		VariantID: variantID,
		Location:  location,
		Requested: requested,
		Available: available,
	}
}

// Shortfall is the quantity that could not be reserved.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: variant %s at %s requested %d, available %d (shortfall %d)",
		ErrInsufficientStock, e.VariantID, e.Location, e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
