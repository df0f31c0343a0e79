package stock

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrGlobalStockIsNotConstructed = errors.New("GlobalStock must be created via NewGlobalStock or RestoreGlobalStock")

// GlobalStock aggregates all lots of one (product, variant) across locations.
// Total always equals Available + Reserved.
type GlobalStock struct {
	productID kernel.UUID
	variantID kernel.UUID
	available int
	reserved  int
	totalSold int

	isConstructed bool
}

// GlobalStockSnapshot is the persisted form of GlobalStock. Total is stored for readers
// and checked on restore.
type GlobalStockSnapshot struct {
	ProductID kernel.UUID
	VariantID kernel.UUID
	Available int
	Reserved  int
	Total     int
	TotalSold int
}

// NewGlobalStock creates empty counters for a variant that has never been received.
func NewGlobalStock(productID, variantID kernel.UUID) (*GlobalStock, error) {
	return RestoreGlobalStock(GlobalStockSnapshot{ProductID: productID, VariantID: variantID})
}

func RestoreGlobalStock(s GlobalStockSnapshot) (*GlobalStock, error) {
	if err := errors.Join(s.ProductID.Validate(), s.VariantID.Validate()); err != nil {
		return nil, err
	}
	if s.Available < 0 || s.Reserved < 0 || s.TotalSold < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("global stock", fmt.Errorf(
			"negative counter for variant %s: available=%d reserved=%d sold=%d",
			s.VariantID, s.Available, s.Reserved, s.TotalSold))
	}
	if s.Total != s.Available+s.Reserved {
		return nil, errs.NewValueIsInvalidErrorWithCause("global stock", fmt.Errorf(
			"total %d != available %d + reserved %d for variant %s",
			s.Total, s.Available, s.Reserved, s.VariantID))
	}

	return &GlobalStock{
		productID:     s.ProductID,
		variantID:     s.VariantID,
		available:     s.Available,
		reserved:      s.Reserved,
		totalSold:     s.TotalSold,
		isConstructed: true,
	}, nil
}

func (g *GlobalStock) Validate() error {
	if g == nil || !g.isConstructed {
		return ErrGlobalStockIsNotConstructed
	}
	return nil
}

func (g *GlobalStock) Snapshot() GlobalStockSnapshot {
	return GlobalStockSnapshot{
		ProductID: g.productID,
		VariantID: g.variantID,
		Available: g.available,
		Reserved:  g.reserved,
		Total:     g.Total(),
		TotalSold: g.totalSold,
	}
}

func (g *GlobalStock) ProductID() kernel.UUID {
	return g.productID
}

func (g *GlobalStock) VariantID() kernel.UUID {
	return g.variantID
}

func (g *GlobalStock) Available() int {
	return g.available
}

func (g *GlobalStock) Reserved() int {
	return g.reserved
}

func (g *GlobalStock) Total() int {
	return g.available + g.reserved
}

func (g *GlobalStock) TotalSold() int {
	return g.totalSold
}

// Receive adds freshly received units to available.
func (g *GlobalStock) Receive(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	g.available += n
	return nil
}

// Reserve moves n units from available to reserved. The guard fails without mutating.
func (g *GlobalStock) Reserve(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > g.available {
		return errs.NewValueIsOutOfRangeError("global reserve quantity", n, 1, g.available)
	}
	g.available -= n
	g.reserved += n
	return nil
}

// Release is the inverse of Reserve.
func (g *GlobalStock) Release(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > g.reserved {
		return errs.NewValueIsOutOfRangeError("global release quantity", n, 1, g.reserved)
	}
	g.reserved -= n
	g.available += n
	return nil
}

// Commit finalizes n reserved units as sold. Total shrinks by n.
func (g *GlobalStock) Commit(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > g.reserved {
		return errs.NewValueIsOutOfRangeError("global commit quantity", n, 1, g.reserved)
	}
	g.reserved -= n
	g.totalSold += n
	return nil
}

// Restock returns n sold units to available.
func (g *GlobalStock) Restock(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > g.totalSold {
		return errs.NewValueIsOutOfRangeError("global restock quantity", n, 1, g.totalSold)
	}
	g.totalSold -= n
	g.available += n
	return nil
}

// WriteOff takes n available units out of sale, for instance when their lot expires.
func (g *GlobalStock) WriteOff(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > g.available {
		return errs.NewValueIsOutOfRangeError("global write-off quantity", n, 1, g.available)
	}
	g.available -= n
	return nil
}
