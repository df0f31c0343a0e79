package commands

import (
	"context"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// ReconcileCourierStatusesCommandHandler polls the courier for open shipments and for
// orders whose transfer outcome is unknown. Each order is reconciled in its own unit of
// work.
type ReconcileCourierStatusesCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewReconcileCourierStatusesCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) ReconcileCourierStatusesCommandHandler {
	return ReconcileCourierStatusesCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle returns one result per order it looked at. The error return covers an invalid
// command and a failure to list the orders.
func (h *ReconcileCourierStatusesCommandHandler) Handle(ctx context.Context, cmd SweepCommand) ([]BulkUpdateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var ids []kernel.UUID
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		unconfirmed, err := uow.OrderRepository().ListIDsPendingCourierConfirmation(ctx, cmd.batchSize)
		if err != nil {
			return err
		}
		open, err := uow.OrderRepository().ListIDsByStatus(ctx,
			[]order.Status{order.HandedOverToCourier, order.InTransit, order.PendingReturn}, cmd.batchSize)
		if err != nil {
			return err
		}
		ids = mergeIDs(unconfirmed, open)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return forEachOrder(ctx, h.uowFactory, ids, func(uow ports.UnitOfWork, id kernel.UUID) (*order.Order, error) {
		return h.lifecycle.ReconcileCourier(ctx, uow, id)
	}), nil
}

// forEachOrder runs fn for every id in a unit of work of its own.
func forEachOrder(
	ctx context.Context,
	factory ports.UnitOfWorkFactory,
	ids []kernel.UUID,
	fn func(uow ports.UnitOfWork, id kernel.UUID) (*order.Order, error),
) []BulkUpdateResult {
	results := make([]BulkUpdateResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, BulkUpdateResult{OrderID: id, Err: err})
			continue
		}
		var updated *order.Order
		err := inUnitOfWork(ctx, factory, func(uow ports.UnitOfWork) error {
			var err error
			updated, err = fn(uow, id)
			return err
		})
		result := BulkUpdateResult{OrderID: id, Err: err}
		if updated != nil && (err == nil || fulfillment.IsRecordedFailure(err)) {
			result.Status = updated.Status()
		}
		results = append(results, result)
	}
	return results
}

func mergeIDs(lists ...[]kernel.UUID) []kernel.UUID {
	seen := make(map[kernel.UUID]struct{})
	var merged []kernel.UUID
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}
