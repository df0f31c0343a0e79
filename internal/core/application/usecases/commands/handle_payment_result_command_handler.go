package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// HandlePaymentResultCommandHandler applies a payment outcome. Repeated outcomes are
// no-ops, so redelivered messages are safe.
type HandlePaymentResultCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewHandlePaymentResultCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) HandlePaymentResultCommandHandler {
	return HandlePaymentResultCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *HandlePaymentResultCommandHandler) Handle(ctx context.Context, cmd HandlePaymentResultCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		_, err := h.lifecycle.HandlePaymentResult(ctx, uow, cmd.OrderID(), cmd.Result())
		return err
	})
}
