package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// ReceiveLotCommandHandler stores the lot and credits the variant's global stock in one
// transaction.
type ReceiveLotCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	stock      StockReceiver
}

func NewReceiveLotCommandHandler(uowFactory ports.UnitOfWorkFactory, stock StockReceiver) ReceiveLotCommandHandler {
	return ReceiveLotCommandHandler{
		uowFactory: uowFactory,
		stock:      stock,
	}
}

func (h *ReceiveLotCommandHandler) Handle(ctx context.Context, cmd ReceiveLotCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		return h.stock.ReceiveLot(ctx, uow, cmd.lot)
	})
}
