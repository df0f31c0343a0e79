package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// RetryBackordersCommandHandler tries to place orders parked in awaiting_stock, oldest
// first. Orders still short of stock stay parked and report stock.ErrInsufficientStock.
type RetryBackordersCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewRetryBackordersCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) RetryBackordersCommandHandler {
	return RetryBackordersCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *RetryBackordersCommandHandler) Handle(ctx context.Context, cmd SweepCommand) ([]BulkUpdateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var ids []kernel.UUID
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		var err error
		ids, err = uow.OrderRepository().ListIDsByStatus(ctx, []order.Status{order.AwaitingStock}, cmd.batchSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	return forEachOrder(ctx, h.uowFactory, ids, func(uow ports.UnitOfWork, id kernel.UUID) (*order.Order, error) {
		return h.lifecycle.RetryBackorder(ctx, uow, id)
	}), nil
}
