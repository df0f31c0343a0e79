package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ReserveRequest asks for quantity units of a variant at a location for one line item.
type ReserveRequest struct {
	OrderID    kernel.UUID
	LineItemID kernel.UUID
	ProductID  kernel.UUID
	VariantID  kernel.UUID
	Location   kernel.Location
	Quantity   int
}

// StockReservationEngine keeps lots and the per-variant GlobalStock counters in step.
// Every operation locks the GlobalStock row before any lot of the variant, so concurrent
// changes to a variant serialize on it whatever their location.
type StockReservationEngine struct {
	allocator services.LotAllocator
	clock     Clock
	inst      *instruments
}

func NewStockReservationEngine(opts ...Option) *StockReservationEngine {
	s := newSettings(opts)
	return &StockReservationEngine{
		allocator: services.NewLotAllocator(),
		clock:     s.clock,
		inst:      newInstruments(),
	}
}

// Reserve withdraws the quantity from lots in consumption order and records one
// Reservation per lot. When stock is short it returns an InsufficientStockError and
// writes nothing.
func (e *StockReservationEngine) Reserve(ctx context.Context, tx Tx, req ReserveRequest) ([]stock.Split, error) {
	ctx, span := e.inst.tracer.Start(ctx, "stock.reserve", trace.WithAttributes(
		attribute.String("order.id", req.OrderID.String()),
		attribute.String("variant.id", req.VariantID.String()),
		attribute.Int("quantity", req.Quantity),
	))
	defer span.End()

	splits, err := e.reserve(ctx, tx, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, stock.ErrInsufficientStock) {
			e.inst.reservationsRejected.Add(ctx, 1)
		}
		return nil, err
	}

	e.inst.reservationsGranted.Add(ctx, int64(req.Quantity),
		metric.WithAttributes(attribute.String("location", req.Location.Code())))
	return splits, nil
}

func (e *StockReservationEngine) reserve(ctx context.Context, tx Tx, req ReserveRequest) ([]stock.Split, error) {
	now := e.clock()

	gs, err := tx.GlobalStockRepository().GetForUpdate(ctx, req.ProductID, req.VariantID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, stock.NewInsufficientStockError(req.ProductID, req.VariantID, req.Location.Code(), req.Quantity, 0)
	}
	if err != nil {
		return nil, err
	}

	lots, err := tx.LotRepository().ListActiveForUpdate(ctx, req.ProductID, req.VariantID, req.Location)
	if err != nil {
		return nil, err
	}

	plan, err := e.allocator.Plan(lots, req.Quantity, now)
	if err != nil {
		var insufficient *stock.InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, stock.NewInsufficientStockError(req.ProductID, req.VariantID, req.Location.Code(),
				req.Quantity, insufficient.Available)
		}
		return nil, err
	}

	for _, lot := range plan.Expired {
		if n := lot.MarkExpired(); n > 0 {
			if err := gs.WriteOff(n); err != nil {
				return nil, fmt.Errorf("global stock of variant %s out of step with its lots: %w", req.VariantID, err)
			}
		}
		if err := tx.LotRepository().Update(ctx, lot); err != nil {
			return nil, err
		}
	}

	splits := make([]stock.Split, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		if err := a.Lot.Withdraw(a.Quantity); err != nil {
			return nil, err
		}
		if err := tx.LotRepository().Update(ctx, a.Lot); err != nil {
			return nil, err
		}

		r, err := stock.NewReservation(req.OrderID, req.LineItemID, a.Lot, a.Quantity, now)
		if err != nil {
			return nil, err
		}
		if err := tx.ReservationRepository().Add(ctx, r); err != nil {
			return nil, err
		}
		splits = append(splits, r.Split())
	}

	if err := gs.Reserve(req.Quantity); err != nil {
		return nil, fmt.Errorf("global stock of variant %s out of step with its lots: %w", req.VariantID, err)
	}
	if err := tx.GlobalStockRepository().Save(ctx, gs); err != nil {
		return nil, err
	}

	return splits, nil
}

// Commit turns reserved quantities into sold ones. Splits already committed are skipped;
// a released split is an error.
func (e *StockReservationEngine) Commit(ctx context.Context, tx Tx, splits []stock.Split) error {
	ctx, span := e.inst.tracer.Start(ctx, "stock.commit")
	defer span.End()

	err := e.settle(ctx, tx, splits, func(r *stock.Reservation, lot *stock.Lot, gs *stock.GlobalStock) (bool, error) {
		changed, err := r.Commit(e.clock())
		if err != nil || !changed {
			return false, err
		}
		return true, errors.Join(lot.Deduct(r.Quantity()), gs.Commit(r.Quantity()))
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Release puts reserved quantities back to available. Splits already released are
// skipped; a committed split is an error.
func (e *StockReservationEngine) Release(ctx context.Context, tx Tx, splits []stock.Split) error {
	ctx, span := e.inst.tracer.Start(ctx, "stock.release")
	defer span.End()

	err := e.settle(ctx, tx, splits, func(r *stock.Reservation, lot *stock.Lot, gs *stock.GlobalStock) (bool, error) {
		changed, err := r.Release(e.clock())
		if err != nil || !changed {
			return false, err
		}
		if err := errors.Join(lot.PutBack(r.Quantity()), gs.Release(r.Quantity())); err != nil {
			return false, err
		}
		return true, writeOffIfExpired(lot, gs, r.Quantity())
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

type settleFunc func(r *stock.Reservation, lot *stock.Lot, gs *stock.GlobalStock) (bool, error)

func (e *StockReservationEngine) settle(ctx context.Context, tx Tx, splits []stock.Split, apply settleFunc) error {
	for _, split := range splits {
		r, err := tx.ReservationRepository().GetForUpdate(ctx, split.ReservationID)
		if err != nil {
			return err
		}
		gs, err := tx.GlobalStockRepository().GetForUpdate(ctx, r.ProductID(), r.VariantID())
		if err != nil {
			return err
		}
		lot, err := tx.LotRepository().GetForUpdate(ctx, r.LotID())
		if err != nil {
			return err
		}

		changed, err := apply(r, lot, gs)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}

		if err := tx.ReservationRepository().Update(ctx, r); err != nil {
			return err
		}
		if err := tx.LotRepository().Update(ctx, lot); err != nil {
			return err
		}
		if err := tx.GlobalStockRepository().Save(ctx, gs); err != nil {
			return err
		}
	}
	return nil
}

// Restock takes returned sellable units back into their source lot.
func (e *StockReservationEngine) Restock(ctx context.Context, tx Tx, lotID kernel.UUID, quantity int) error {
	ctx, span := e.inst.tracer.Start(ctx, "stock.restock")
	defer span.End()

	// A lot's variant never changes; lock its GlobalStock before the lot itself.
	unlocked, err := tx.LotRepository().Get(ctx, lotID)
	if err != nil {
		return err
	}
	gs, err := tx.GlobalStockRepository().GetForUpdate(ctx, unlocked.ProductID(), unlocked.VariantID())
	if err != nil {
		return err
	}
	lot, err := tx.LotRepository().GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	if err := errors.Join(lot.Restock(quantity), gs.Restock(quantity)); err != nil {
		return err
	}
	if err := writeOffIfExpired(lot, gs, quantity); err != nil {
		return err
	}
	if err := tx.LotRepository().Update(ctx, lot); err != nil {
		return err
	}
	return tx.GlobalStockRepository().Save(ctx, gs)
}

// writeOffIfExpired keeps units that return to an expired lot out of the sellable total.
func writeOffIfExpired(lot *stock.Lot, gs *stock.GlobalStock, n int) error {
	if lot.Status() != stock.LotExpired {
		return nil
	}
	return gs.WriteOff(n)
}

// ReceiveLot stores a new lot and credits the variant's GlobalStock.
func (e *StockReservationEngine) ReceiveLot(ctx context.Context, tx Tx, lot *stock.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}

	gs, err := tx.GlobalStockRepository().GetOrCreateForUpdate(ctx, lot.ProductID(), lot.VariantID())
	if err != nil {
		return err
	}
	if err := gs.Receive(lot.QtyAvailable()); err != nil {
		return err
	}

	if err := tx.LotRepository().Add(ctx, lot); err != nil {
		return err
	}
	return tx.GlobalStockRepository().Save(ctx, gs)
}
