package fulfillment

import (
	"context"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBarcodePrefix = "200"
	maxBatchSize         = 10_000
)

// GenerateBatchRequest describes a batch of new barcodes for one variant.
type GenerateBatchRequest struct {
	ProductID kernel.UUID
	VariantID kernel.UUID
	SKU       string
	Count     int
	LotID     *kernel.UUID
}

// BarcodeUnitRegistry issues EAN-13 barcodes and moves units along the unit status graph.
type BarcodeUnitRegistry struct {
	prefix string
	clock  Clock
	inst   *instruments
}

func NewBarcodeUnitRegistry(prefix string, opts ...Option) (*BarcodeUnitRegistry, error) {
	if prefix == "" {
		prefix = DefaultBarcodePrefix
	}
	if _, err := barcode.NewEAN13(prefix, 1); err != nil {
		return nil, err
	}
	s := newSettings(opts)
	return &BarcodeUnitRegistry{prefix: prefix, clock: s.clock, inst: newInstruments()}, nil
}

// GenerateBatch reserves a serial range from the barcode counter and creates one
// unassigned unit per serial.
func (r *BarcodeUnitRegistry) GenerateBatch(
	ctx context.Context,
	tx Tx,
	req GenerateBatchRequest,
	actor kernel.Actor,
) ([]*barcode.Unit, error) {
	if req.Count <= 0 || req.Count > maxBatchSize {
		return nil, errs.NewValueIsOutOfRangeError("barcode count", req.Count, 1, maxBatchSize)
	}
	if req.LotID != nil {
		lot, err := tx.LotRepository().Get(ctx, *req.LotID)
		if err != nil {
			return nil, err
		}
		if err := checkLotVariant(lot, req.VariantID); err != nil {
			return nil, err
		}
	}

	last, err := tx.CounterRepository().IncrementBy(ctx, ports.CounterBarcodeSerial, int64(req.Count))
	if err != nil {
		return nil, err
	}

	now := r.clock()
	units := make([]*barcode.Unit, 0, req.Count)
	for serial := last - int64(req.Count) + 1; serial <= last; serial++ {
		code, err := barcode.NewEAN13(r.prefix, serial)
		if err != nil {
			return nil, err
		}
		u, err := barcode.NewUnit(code, req.SKU, req.ProductID, req.VariantID, req.LotID, actor, now)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	if err := tx.BarcodeUnitRepository().Add(ctx, units...); err != nil {
		return nil, err
	}
	return units, nil
}

// BindToLot attaches generated units to the lot they arrived in.
func (r *BarcodeUnitRegistry) BindToLot(
	ctx context.Context,
	tx Tx,
	lotID kernel.UUID,
	codes []string,
	actor kernel.Actor,
) error {
	lot, err := tx.LotRepository().Get(ctx, lotID)
	if err != nil {
		return err
	}

	now := r.clock()
	for _, code := range codes {
		u, err := tx.BarcodeUnitRepository().GetForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if err := checkLotVariant(lot, u.VariantID()); err != nil {
			return err
		}
		if err := u.BindToLot(lotID, actor, now); err != nil {
			return err
		}
		if err := tx.BarcodeUnitRepository().Update(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// AssignUnits binds, for every split, split.Quantity units of the split's lot to the
// order line item. When a lot is short it returns InsufficientUnitsError before any unit
// is changed.
func (r *BarcodeUnitRegistry) AssignUnits(
	ctx context.Context,
	tx Tx,
	orderID, lineItemID kernel.UUID,
	splits []stock.Split,
) ([]string, error) {
	ctx, span := r.inst.tracer.Start(ctx, "barcode.assign_units", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("line_item.id", lineItemID.String()),
	))
	defer span.End()

	selected := make([]*barcode.Unit, 0)
	for _, split := range splits {
		units, err := tx.BarcodeUnitRepository().ListAssignableForUpdate(ctx, split.LotID, split.Quantity)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if len(units) < split.Quantity {
			err := &barcode.InsufficientUnitsError{LotID: split.LotID, Requested: split.Quantity, Found: len(units)}
			span.RecordError(err)
			return nil, err
		}
		selected = append(selected, units[:split.Quantity]...)
	}

	now := r.clock()
	codes := make([]string, 0, len(selected))
	for _, u := range selected {
		if err := u.AssignToOrder(orderID, lineItemID, kernel.SystemActor, now); err != nil {
			return nil, err
		}
		if err := tx.BarcodeUnitRepository().Update(ctx, u); err != nil {
			return nil, err
		}
		codes = append(codes, u.Barcode())
	}
	return codes, nil
}

// CheckUsed reports whether the unit has ever been sold.
func (r *BarcodeUnitRegistry) CheckUsed(ctx context.Context, tx Tx, code string) (bool, error) {
	u, err := tx.BarcodeUnitRepository().Get(ctx, code)
	if err != nil {
		return false, err
	}
	return u.IsUsed(), nil
}

// UpdateStatus moves one unit by hand, for example to damaged after inspection.
func (r *BarcodeUnitRegistry) UpdateStatus(
	ctx context.Context,
	tx Tx,
	code string,
	target barcode.Status,
	actor kernel.Actor,
	note string,
) (*barcode.Unit, error) {
	u, err := tx.BarcodeUnitRepository().GetForUpdate(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeStatus(target, actor, note, "", r.clock()); err != nil {
		return nil, err
	}
	if err := tx.BarcodeUnitRepository().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckExistsAndReadyForUse verifies that every line item has exactly its quantity of
// units in assigned_to_order. It gates the courier handover.
func (r *BarcodeUnitRegistry) CheckExistsAndReadyForUse(ctx context.Context, tx Tx, o *order.Order) error {
	units, err := tx.BarcodeUnitRepository().ListByOrderForUpdate(ctx, o.ID())
	if err != nil {
		return err
	}

	ready := make(map[kernel.UUID]int)
	for _, u := range units {
		if u.Status() != barcode.AssignedToOrder || u.LineItemID() == nil {
			continue
		}
		ready[*u.LineItemID()]++
	}

	for _, li := range o.LineItems() {
		if got := ready[li.ID()]; got != li.Quantity() {
			return fmt.Errorf("%w: line item %s has %d of %d units assigned",
				barcode.ErrUnitNotReady, li.ID(), got, li.Quantity())
		}
	}
	return nil
}

// MoveOrderUnits moves every unit of the order that is in one of from to target and
// returns the moved units.
func (r *BarcodeUnitRegistry) MoveOrderUnits(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	from []barcode.Status,
	target barcode.Status,
	actor kernel.Actor,
	systemMessage string,
) ([]*barcode.Unit, error) {
	units, err := tx.BarcodeUnitRepository().ListByOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := r.clock()
	moved := make([]*barcode.Unit, 0, len(units))
	for _, u := range units {
		if !slices.Contains(from, u.Status()) {
			continue
		}
		if err := u.ChangeStatus(target, actor, "", systemMessage, now); err != nil {
			return nil, err
		}
		if err := tx.BarcodeUnitRepository().Update(ctx, u); err != nil {
			return nil, err
		}
		moved = append(moved, u)
	}
	return moved, nil
}

// ReturnUnits takes units back from a customer. Units in a sellable condition go back
// to unassigned and are counted per source lot for restocking; the others end up damaged.
// An empty condition keeps what the unit already has.
func (r *BarcodeUnitRegistry) ReturnUnits(
	ctx context.Context,
	tx Tx,
	units []*barcode.Unit,
	condition barcode.Condition,
	actor kernel.Actor,
) (map[kernel.UUID]int, error) {
	now := r.clock()
	restock := make(map[kernel.UUID]int)
	for _, u := range units {
		if condition != "" {
			if err := u.Inspect(condition); err != nil {
				return nil, err
			}
		}
		if err := u.ChangeStatus(barcode.Returned, actor, "", "returned by customer", now); err != nil {
			return nil, err
		}

		if u.Condition().Sellable() {
			if err := u.ChangeStatus(barcode.Unassigned, kernel.SystemActor, "", "restocked", now); err != nil {
				return nil, err
			}
			if lotID := u.LotID(); lotID != nil {
				restock[*lotID]++
			}
		} else {
			if err := u.ChangeStatus(barcode.Damaged, actor, "", fmt.Sprintf("returned %s", u.Condition()), now); err != nil {
				return nil, err
			}
		}

		if err := tx.BarcodeUnitRepository().Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return restock, nil
}

func checkLotVariant(lot *stock.Lot, variantID kernel.UUID) error {
	if !lot.VariantID().IsEqual(variantID) {
		return errs.NewValueIsInvalidErrorWithCause("lot", fmt.Errorf("lot %s holds variant %s, not %s",
			lot.ID(), lot.VariantID(), variantID))
	}
	return nil
}
