package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// PlaceExchangeOrReturnOrderCommandHandler stores the derived order, returns and restocks
// the units and, for an exchange, reserves the replacements. Insufficient stock for a
// replacement rolls everything back.
type PlaceExchangeOrReturnOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewPlaceExchangeOrReturnOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) PlaceExchangeOrReturnOrderCommandHandler {
	return PlaceExchangeOrReturnOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *PlaceExchangeOrReturnOrderCommandHandler) Handle(
	ctx context.Context,
	cmd PlaceExchangeOrReturnOrderCommand,
) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		_, err := h.lifecycle.PlaceExchangeOrReturnOrder(ctx, uow, cmd.req)
		return err
	})
}
