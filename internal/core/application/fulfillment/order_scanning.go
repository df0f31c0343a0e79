package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"go.uber.org/zap"
)

// ErrDuplicateScan is returned for a repeated parcel scan inside the dedup window.
var ErrDuplicateScan = errors.New("parcel scan already recorded")

// ProcessOrderBarcodes reconciles the units picked for an order with what the warehouse
// scanned. On a mismatch the order goes to partial and a RecordedFailureError wrapping a
// barcode.MismatchError is returned.
func (m *OrderLifecycleManager) ProcessOrderBarcodes(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	scanned []string,
	actor kernel.Actor,
) (services.Reconciliation, error) {
	o, rec, err := m.reconcile(ctx, tx, orderID, ports.ReconciliationPick, scanned, barcode.AssignedToOrder)
	if err != nil {
		return rec, err
	}
	if !rec.Matched() {
		return rec, m.recordMismatch(ctx, tx, o, rec, actor)
	}
	return rec, nil
}

// ProcessReturnBarcodes reconciles a returned parcel. A matching scan of an order in
// pending_return completes the return.
func (m *OrderLifecycleManager) ProcessReturnBarcodes(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	scanned []string,
	actor kernel.Actor,
) (services.Reconciliation, error) {
	o, rec, err := m.reconcile(ctx, tx, orderID, ports.ReconciliationReturn, scanned, barcode.InTransit, barcode.Sold)
	if err != nil {
		return rec, err
	}
	if !rec.Matched() {
		return rec, m.recordMismatch(ctx, tx, o, rec, actor)
	}
	if o.Status() == order.PendingReturn {
		return rec, m.transition(ctx, tx, o, order.Returned, actor, "return scan matched")
	}
	return rec, nil
}

func (m *OrderLifecycleManager) reconcile(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	kind ports.ReconciliationKind,
	scanned []string,
	expectedStatuses ...barcode.Status,
) (*order.Order, services.Reconciliation, error) {
	o, err := tx.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, services.Reconciliation{}, err
	}
	units, err := m.unitsIn(ctx, tx, orderID, expectedStatuses...)
	if err != nil {
		return nil, services.Reconciliation{}, err
	}

	expected := make([]string, 0, len(units))
	for _, u := range units {
		expected = append(expected, u.Barcode())
	}
	rec := m.reconciler.Reconcile(expected, scanned)

	if err := tx.ReconciliationRepository().Add(ctx, ports.BarcodeReconciliation{
		ID:         kernel.NewUUID(),
		OrderID:    orderID,
		Kind:       kind,
		Expected:   rec.Expected,
		Scanned:    rec.Scanned,
		Missing:    rec.Missing,
		Unexpected: rec.Unexpected,
		Matched:    rec.Matched(),
		CreatedAt:  m.clock(),
	}); err != nil {
		return nil, rec, err
	}
	return o, rec, nil
}

// recordMismatch flags the order partial. Orders past the point where partial is
// reachable only get the diagnostic note.
func (m *OrderLifecycleManager) recordMismatch(
	ctx context.Context,
	tx Tx,
	o *order.Order,
	rec services.Reconciliation,
	actor kernel.Actor,
) error {
	mismatch := &barcode.MismatchError{OrderID: o.ID(), Missing: rec.Missing, Unexpected: rec.Unexpected}
	note := fmt.Sprintf("barcode mismatch: missing [%s], unexpected [%s]",
		strings.Join(rec.Missing, ", "), strings.Join(rec.Unexpected, ", "))

	if o.Status().CanTransitionTo(order.Partial) {
		if err := m.transition(ctx, tx, o, order.Partial, actor, note); err != nil {
			return errors.Join(mismatch, err)
		}
	} else {
		if err := o.AddAdminNote(actor, note, m.clock()); err != nil {
			return errors.Join(mismatch, err)
		}
		if err := tx.OrderRepository().Update(ctx, o); err != nil {
			return errors.Join(mismatch, err)
		}
	}

	m.logger.Warn("barcode mismatch",
		zap.String("order_id", o.ID().String()),
		zap.Strings("missing", rec.Missing),
		zap.Strings("unexpected", rec.Unexpected))
	return &RecordedFailureError{Err: mismatch}
}

// ScanToHandover records the courier pickup scan of a parcel and moves its order to in_transit.
func (m *OrderLifecycleManager) ScanToHandover(
	ctx context.Context,
	tx Tx,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	return m.scan(ctx, tx, ScanHandover, trackingCode, actor)
}

// ScanToReturn records a parcel coming back and moves its order to pending_return.
func (m *OrderLifecycleManager) ScanToReturn(
	ctx context.Context,
	tx Tx,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	return m.scan(ctx, tx, ScanReturn, trackingCode, actor)
}

func (m *OrderLifecycleManager) scan(
	ctx context.Context,
	tx Tx,
	kind ScanKind,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	target, first, err := m.courier.RecordScan(ctx, kind, trackingCode)
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, ErrDuplicateScan
	}

	o, err := m.forwardScanned(ctx, tx, kind, target, strings.TrimSpace(trackingCode), actor)
	if err != nil {
		m.courier.ForgetScan(ctx, kind, trackingCode)
		return o, err
	}
	return o, nil
}

func (m *OrderLifecycleManager) forwardScanned(
	ctx context.Context,
	tx Tx,
	kind ScanKind,
	target order.Status,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	found, err := tx.OrderRepository().GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return nil, err
	}
	o, err := tx.OrderRepository().GetForUpdate(ctx, found.ID())
	if err != nil {
		return nil, err
	}
	if o.Status() == target {
		return o, nil
	}
	if err := m.transition(ctx, tx, o, target, actor, string(kind)+" scan"); err != nil {
		return o, err
	}
	return o, nil
}

// ReconcileCourier brings one order in line with the courier. An order whose transfer
// outcome is unknown gets the transfer retried; the courier deduplicates on the invoice
// number. An open shipment follows the status the courier reports, passing through
// in_transit when the courier skipped it.
func (m *OrderLifecycleManager) ReconcileCourier(ctx context.Context, tx Tx, orderID kernel.UUID) (*order.Order, error) {
	o, err := tx.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.PendingCourierConfirmation() && o.Status() == order.RTS {
		err := m.transition(ctx, tx, o, order.HandedOverToCourier, kernel.SystemActor, "courier transfer confirmed")
		return o, err
	}

	if !o.Status().IsOpenShipment() || o.TrackingCode() == "" {
		return o, nil
	}

	target, ok, err := m.courier.StatusByTrackingCode(ctx, o.TrackingCode())
	if err != nil {
		return o, err
	}
	if !ok || target == o.Status() {
		return o, nil
	}

	if o.Status() == order.HandedOverToCourier && target != order.InTransit && target != order.Lost {
		if err := m.transition(ctx, tx, o, order.InTransit, kernel.SystemActor, "courier picked up"); err != nil {
			return o, err
		}
	}
	if !o.Status().CanTransitionTo(target) {
		m.logger.Debug("courier status implies no transition",
			zap.String("order_id", o.ID().String()),
			zap.String("status", o.Status().String()),
			zap.String("courier_target", target.String()))
		return o, nil
	}
	return o, m.transition(ctx, tx, o, target, kernel.SystemActor, "courier reported "+target.String())
}
