package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Variant is the catalog's answer about one sellable variant.
type Variant struct {
	ID        kernel.UUID
	ProductID kernel.UUID
	SKU       string
	Exists    bool
	Priceable bool
	Price     kernel.Money
}

type Catalog interface {
	// GetVariant never fails for a missing variant; it reports Exists=false instead.
	GetVariant(ctx context.Context, variantID kernel.UUID) (Variant, error)
}
