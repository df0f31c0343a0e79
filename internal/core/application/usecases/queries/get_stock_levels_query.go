package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrGetStockLevelsQueryIsNotConstructed = errors.New(
	"GetStockLevelsQuery must be created via NewGetStockLevelsQuery constructor",
)

// GetStockLevelsQuery reads the counters of one variant: the global totals and the
// active lots per location.
type GetStockLevelsQuery struct { //nolint:recvcheck //using for validation
	productID kernel.UUID
	variantID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetStockLevelsQuery(productID, variantID kernel.UUID) (GetStockLevelsQuery, error) {
	if err := errors.Join(productID.Validate(), variantID.Validate()); err != nil {
		return GetStockLevelsQuery{}, err
	}

	return GetStockLevelsQuery{
		productID: productID,
		variantID: variantID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetStockLevelsQuery) Validate() error {
	return q.guard.Validate(ErrGetStockLevelsQueryIsNotConstructed)
}

// LocationStock sums the active lots of the variant at one location.
type LocationStock struct {
	Location  string
	Available int
	Reserved  int
	Lots      int
}

type GetStockLevelsQueryResponse struct {
	ProductID kernel.UUID
	VariantID kernel.UUID
	Available int
	Reserved  int
	Total     int
	TotalSold int
	Locations []LocationStock
}
