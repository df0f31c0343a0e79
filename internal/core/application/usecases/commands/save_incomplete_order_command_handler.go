package commands

import (
	"context"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/ports"
)

type SaveIncompleteOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewSaveIncompleteOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) SaveIncompleteOrderCommandHandler {
	return SaveIncompleteOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *SaveIncompleteOrderCommandHandler) Handle(ctx context.Context, cmd SaveIncompleteOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	d := cmd.Details()
	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		_, err := h.lifecycle.SaveIncompleteOrder(ctx, uow, fulfillment.SaveIncompleteOrderRequest{
			OrderID:       d.OrderID,
			Buyer:         d.Buyer,
			OrderedBy:     d.OrderedBy,
			PaymentMethod: d.PaymentMethod,
			Items:         d.Items,
		})
		return err
	})
}
