package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// PlaceOrderCommandHandler places an order in one transaction.
//
// When stock is short the order is still stored, as awaiting_stock or failed depending on
// the back-order policy, and Handle returns the wrapped InsufficientStockError after the
// commit. Any other failure leaves nothing behind.
type PlaceOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewPlaceOrderCommandHandler(uowFactory ports.UnitOfWorkFactory, lifecycle OrderLifecycle) PlaceOrderCommandHandler {
	return PlaceOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		_, err := h.lifecycle.PlaceOrder(ctx, uow, cmd.request())
		return err
	})
}
