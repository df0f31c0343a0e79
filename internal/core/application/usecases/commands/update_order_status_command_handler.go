package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// UpdateOrderStatusCommandHandler runs one transition and its side effects: reservation
// commit or release, unit binding and status changes, courier transfer.
type UpdateOrderStatusCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewUpdateOrderStatusCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		_, err := h.lifecycle.UpdateStatus(ctx, uow, cmd.OrderID(), cmd.Target(), cmd.Actor(), cmd.Note())
		return err
	})
}

// BulkUpdateResult is the outcome for one order of a bulk update. Status is the order's
// status after its unit of work committed and is left undefined when nothing was stored.
// Err is nil on success.
type BulkUpdateResult struct {
	OrderID kernel.UUID
	Status  order.Status
	Err     error
}

// BulkUpdateOutcome holds the per-order results in input order. Partial is set when some
// orders were updated and others were not.
type BulkUpdateOutcome struct {
	Results []BulkUpdateResult
	Partial bool
}

// UpdateOrderStatusBulkCommandHandler gives every order its own unit of work, so a
// failing order never rolls back the others.
type UpdateOrderStatusBulkCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewUpdateOrderStatusBulkCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) UpdateOrderStatusBulkCommandHandler {
	return UpdateOrderStatusBulkCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle reports every order's outcome. The error return is reserved for an invalid
// command.
func (h *UpdateOrderStatusBulkCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateOrderStatusBulkCommand,
) (BulkUpdateOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return BulkUpdateOutcome{}, err
	}

	results := forEachOrder(ctx, h.uowFactory, cmd.orderIDs, func(uow ports.UnitOfWork, id kernel.UUID) (*order.Order, error) {
		return h.lifecycle.UpdateStatus(ctx, uow, id, cmd.target, cmd.actor, cmd.note)
	})

	var succeeded, failed bool
	for _, r := range results {
		if r.Err == nil {
			succeeded = true
		} else {
			failed = true
		}
	}
	return BulkUpdateOutcome{Results: results, Partial: succeeded && failed}, nil
}
