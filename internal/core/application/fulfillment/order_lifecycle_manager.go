package fulfillment

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LifecycleConfig holds the business policies of the lifecycle manager.
type LifecycleConfig struct {
	// BackorderOnInsufficientStock parks orders that cannot be reserved in awaiting_stock
	// instead of failing them.
	BackorderOnInsufficientStock bool
}

// OrderLifecycleManager owns every order status change and the stock, barcode and
// courier side effects that come with it. Methods work inside the caller's transaction
// and never commit it.
type OrderLifecycleManager struct {
	catalog    ports.Catalog
	engine     *StockReservationEngine
	registry   *BarcodeUnitRegistry
	courier    *CourierHandoffCoordinator
	invoices   *InvoiceNumberAllocator
	reconciler services.BarcodeReconciler
	cfg        LifecycleConfig

	clock  Clock
	logger *zap.Logger
	inst   *instruments
}

func NewOrderLifecycleManager(
	catalog ports.Catalog,
	engine *StockReservationEngine,
	registry *BarcodeUnitRegistry,
	courier *CourierHandoffCoordinator,
	invoices *InvoiceNumberAllocator,
	cfg LifecycleConfig,
	opts ...Option,
) (*OrderLifecycleManager, error) {
	switch {
	case catalog == nil:
		return nil, errs.NewValueIsRequiredError("catalog")
	case engine == nil:
		return nil, errs.NewValueIsRequiredError("stock reservation engine")
	case registry == nil:
		return nil, errs.NewValueIsRequiredError("barcode unit registry")
	case courier == nil:
		return nil, errs.NewValueIsRequiredError("courier handoff coordinator")
	case invoices == nil:
		return nil, errs.NewValueIsRequiredError("invoice number allocator")
	}

	s := newSettings(opts)
	return &OrderLifecycleManager{
		catalog:    catalog,
		engine:     engine,
		registry:   registry,
		courier:    courier,
		invoices:   invoices,
		reconciler: services.NewBarcodeReconciler(),
		cfg:        cfg,
		clock:      s.clock,
		logger:     s.logger.With(zap.String("component", "order_lifecycle")),
		inst:       newInstruments(),
	}, nil
}

// UpdateStatus locks the order and moves it to target with the side effects of that status.
func (m *OrderLifecycleManager) UpdateStatus(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	target order.Status,
	actor kernel.Actor,
	note string,
) (*order.Order, error) {
	if err := errors.Join(target.Validate(), actor.Validate()); err != nil {
		return nil, err
	}

	o, err := tx.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.transition(ctx, tx, o, target, actor, note); err != nil {
		return o, err
	}
	return o, nil
}

// transition validates the edge against the locked state, runs the side effects of the
// target status and writes the order.
func (m *OrderLifecycleManager) transition(
	ctx context.Context,
	tx Tx,
	o *order.Order,
	target order.Status,
	actor kernel.Actor,
	note string,
) error {
	from := o.Status()
	ctx, span := m.inst.tracer.Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", o.ID().String()),
		attribute.String("order.from", from.String()),
		attribute.String("order.to", target.String()),
	))
	defer span.End()

	if _, err := from.TransitionTo(target); err != nil {
		span.RecordError(err)
		return err
	}

	if err := m.applySideEffects(ctx, tx, o, target, actor); err != nil {
		span.RecordError(err)
		return err
	}

	if err := o.TransitionTo(target, actor, note, m.clock()); err != nil {
		span.RecordError(err)
		return err
	}
	if err := tx.OrderRepository().Update(ctx, o); err != nil {
		span.RecordError(err)
		return err
	}
	tx.Track(o)

	m.inst.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", target.String()),
	))
	m.logger.Debug("order status changed",
		zap.String("order_id", o.ID().String()),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.String("actor", actor.Name()))
	return nil
}

//nolint:exhaustive // statuses without side effects only change the order row
func (m *OrderLifecycleManager) applySideEffects(
	ctx context.Context,
	tx Tx,
	o *order.Order,
	target order.Status,
	actor kernel.Actor,
) error {
	switch target {
	case order.Placed:
		if err := m.reserveAll(ctx, tx, o); err != nil {
			return err
		}
		_, err := m.invoices.Allocate(ctx, tx, o)
		return err

	case order.Accepted:
		return m.assignUnits(ctx, tx, o)

	case order.HandedOverToCourier:
		return m.handOver(ctx, tx, o, actor)

	case order.Cancelled, order.Failed:
		if err := m.releaseAll(ctx, tx, o); err != nil {
			return err
		}
		_, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
			[]barcode.Status{barcode.AssignedToOrder}, barcode.Unassigned, actor, "unbound from "+target.String()+" order")
		return err

	case order.Delivered:
		if err := m.commitAll(ctx, tx, o); err != nil {
			return err
		}
		if _, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
			[]barcode.Status{barcode.InTransit}, barcode.Sold, actor, "delivered"); err != nil {
			return err
		}
		return m.completeExchange(ctx, tx, o)

	case order.Returned:
		if err := m.commitAll(ctx, tx, o); err != nil {
			return err
		}
		units, err := m.unitsIn(ctx, tx, o.ID(), barcode.InTransit, barcode.Sold)
		if err != nil {
			return err
		}
		restock, err := m.registry.ReturnUnits(ctx, tx, units, "", actor)
		if err != nil {
			return err
		}
		return m.restock(ctx, tx, restock)

	case order.Lost:
		if err := m.commitAll(ctx, tx, o); err != nil {
			return err
		}
		if _, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
			[]barcode.Status{barcode.InTransit}, barcode.Retired, actor, "parcel lost"); err != nil {
			return err
		}
		if _, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
			[]barcode.Status{barcode.Sold}, barcode.Returned, actor, "parcel lost"); err != nil {
			return err
		}
		_, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
			[]barcode.Status{barcode.Returned}, barcode.Retired, actor, "parcel lost")
		return err
	}
	return nil
}

// handOver gates the handover on the picked units, creates the courier parcel and puts
// the units in transit. A timed-out transfer flags the order, writes it and returns a
// RecordedFailureError so the flag survives.
func (m *OrderLifecycleManager) handOver(ctx context.Context, tx Tx, o *order.Order, actor kernel.Actor) error {
	if err := m.registry.CheckExistsAndReadyForUse(ctx, tx, o); err != nil {
		return err
	}

	if o.TrackingCode() == "" {
		code, err := m.courier.Transfer(ctx, o)
		if err != nil {
			var unavailable *ports.CourierUnavailableError
			if !errors.As(err, &unavailable) || !unavailable.Timeout {
				return err
			}

			m.logger.Warn("courier transfer outcome unknown",
				zap.String("order_id", o.ID().String()),
				zap.String("invoice_number", o.InvoiceNumber()),
				zap.Error(err))
			o.MarkPendingCourierConfirmation(unavailable.Error(), m.clock())
			if uerr := tx.OrderRepository().Update(ctx, o); uerr != nil {
				return errors.Join(err, uerr)
			}
			return &RecordedFailureError{Err: err}
		}
		if err := o.SetTrackingCode(code); err != nil {
			return err
		}
	}

	_, err := m.registry.MoveOrderUnits(ctx, tx, o.ID(),
		[]barcode.Status{barcode.AssignedToOrder}, barcode.InTransit, actor, "handed over to courier "+o.TrackingCode())
	return err
}

// completeExchange closes the original order once its exchange order is delivered.
func (m *OrderLifecycleManager) completeExchange(ctx context.Context, tx Tx, o *order.Order) error {
	if o.Kind() != order.KindExchange || o.OriginalOrderID() == nil {
		return nil
	}
	original, err := tx.OrderRepository().GetForUpdate(ctx, *o.OriginalOrderID())
	if err != nil {
		return err
	}
	if original.Status() != order.ExchangeRequested {
		return nil
	}
	return m.transition(ctx, tx, original, order.Exchanged, kernel.SystemActor,
		fmt.Sprintf("exchange order %s delivered", o.ID()))
}

func (m *OrderLifecycleManager) assignUnits(ctx context.Context, tx Tx, o *order.Order) error {
	for _, li := range o.LineItems() {
		if len(li.Barcodes()) == li.Quantity() {
			continue
		}
		codes, err := m.registry.AssignUnits(ctx, tx, o.ID(), li.ID(), li.Allocations())
		if err != nil {
			return err
		}
		if err := o.AssignBarcodes(li.ID(), codes); err != nil {
			return err
		}
	}
	return nil
}

type grantedReservation struct {
	lineItemID kernel.UUID
	splits     []stock.Split
}

// reserveAll reserves every line item that holds no reservation yet. When one item
// cannot be reserved, the reservations granted by this call are released and the
// order's line items are left as they were.
func (m *OrderLifecycleManager) reserveAll(ctx context.Context, tx Tx, o *order.Order) error {
	if !o.Kind().NeedsStock() {
		return nil
	}

	granted := make([]grantedReservation, 0, len(o.LineItems()))
	for _, li := range o.LineItems() {
		if li.ReservationState() == order.ReservationReserved {
			continue
		}
		splits, err := m.engine.Reserve(ctx, tx, ReserveRequest{
			OrderID:    o.ID(),
			LineItemID: li.ID(),
			ProductID:  li.ProductID(),
			VariantID:  li.VariantID(),
			Location:   li.Location(),
			Quantity:   li.Quantity(),
		})
		if err != nil {
			for _, g := range granted {
				if rerr := m.engine.Release(ctx, tx, g.splits); rerr != nil {
					return errors.Join(err, rerr)
				}
			}
			return err
		}
		granted = append(granted, grantedReservation{lineItemID: li.ID(), splits: splits})
	}

	for _, g := range granted {
		if err := o.MarkLineItemReserved(g.lineItemID, g.splits); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderLifecycleManager) releaseAll(ctx context.Context, tx Tx, o *order.Order) error {
	for _, li := range o.LineItems() {
		if li.ReservationState() != order.ReservationReserved {
			continue
		}
		if err := m.engine.Release(ctx, tx, li.Allocations()); err != nil {
			return err
		}
		if err := o.MarkLineItemReleased(li.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderLifecycleManager) commitAll(ctx context.Context, tx Tx, o *order.Order) error {
	for _, li := range o.LineItems() {
		if li.ReservationState() != order.ReservationReserved {
			continue
		}
		if err := m.engine.Commit(ctx, tx, li.Allocations()); err != nil {
			return err
		}
		if err := o.MarkLineItemCommitted(li.ID()); err != nil {
			return err
		}
	}
	return nil
}

// restock credits returned units back to their lots, in lot id order.
func (m *OrderLifecycleManager) restock(ctx context.Context, tx Tx, perLot map[kernel.UUID]int) error {
	lots := slices.SortedFunc(maps.Keys(perLot), func(a, b kernel.UUID) int {
		return cmp.Compare(a.String(), b.String())
	})
	for _, lotID := range lots {
		if err := m.engine.Restock(ctx, tx, lotID, perLot[lotID]); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderLifecycleManager) unitsIn(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	statuses ...barcode.Status,
) ([]*barcode.Unit, error) {
	units, err := tx.BarcodeUnitRepository().ListByOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(units, func(u *barcode.Unit) bool {
		return !slices.Contains(statuses, u.Status())
	}), nil
}
