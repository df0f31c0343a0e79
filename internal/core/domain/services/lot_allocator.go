package services

import (
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"
)

// Allocation is one planned withdrawal from a lot.
type Allocation struct {
	Lot      *stock.Lot
	Quantity int
}

// AllocationPlan is the result of LotAllocator.Plan. Nothing has been changed yet.
type AllocationPlan struct {
	Allocations []Allocation
	// Expired lists lots whose expiry date has passed; callers mark them expired.
	Expired []*stock.Lot
}

// LotAllocator picks lots for a reservation in consumption order: lots with an expiry date
// first, earlier expiry first, then oldest received first.
//
//	plan, err := services.NewLotAllocator().Plan(lots, 5, time.Now())
//	if errors.Is(err, stock.ErrInsufficientStock) {
//	    // nothing was planned
//	}
type LotAllocator struct{}

func NewLotAllocator() LotAllocator {
	return LotAllocator{}
}

// Plan allocates quantity across lots of one variant at one location. It never mutates
// the lots. When the lots cannot cover the quantity it returns an InsufficientStockError
// and the expired lots found on the way.
func (a LotAllocator) Plan(lots []*stock.Lot, quantity int, now time.Time) (AllocationPlan, error) {
	if quantity <= 0 {
		return AllocationPlan{}, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, "unbounded")
	}

	candidates := make([]*stock.Lot, 0, len(lots))
	var plan AllocationPlan
	for _, lot := range lots {
		if err := lot.Validate(); err != nil {
			return AllocationPlan{}, err
		}
		if lot.Status() == stock.LotActive && lot.IsExpiredAt(now) {
			plan.Expired = append(plan.Expired, lot)
			continue
		}
		if lot.CanReserveAt(now) {
			candidates = append(candidates, lot)
		}
	}
	if len(candidates) > 1 && !sameKey(candidates) {
		return AllocationPlan{}, errs.NewValueIsInvalidError("lots span more than one variant or location")
	}
	slices.SortFunc(candidates, stock.CompareReservationPriority)

	remaining := quantity
	for _, lot := range candidates {
		if remaining == 0 {
			break
		}
		take := min(remaining, lot.QtyAvailable())
		plan.Allocations = append(plan.Allocations, Allocation{Lot: lot, Quantity: take})
		remaining -= take
	}

	if remaining > 0 {
		available := quantity - remaining
		var productID, variantID kernel.UUID
		location := ""
		if len(lots) > 0 {
			productID, variantID, location = lots[0].ProductID(), lots[0].VariantID(), lots[0].Location().Code()
		}
		return AllocationPlan{Expired: plan.Expired},
			stock.NewInsufficientStockError(productID, variantID, location, quantity, available)
	}
	return plan, nil
}

func sameKey(lots []*stock.Lot) bool {
	first := lots[0]
	for _, lot := range lots[1:] {
		if !lot.VariantID().IsEqual(first.VariantID()) || !lot.Location().IsEqual(first.Location()) {
			return false
		}
	}
	return true
}
