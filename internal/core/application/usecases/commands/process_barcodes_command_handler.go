package commands

import (
	"context"

	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// ProcessBarcodesCommandHandler reconciles a parcel scan with the units bound to the
// order. A mismatch is committed (the order is flagged partial and the audit record
// kept) and then returned as a barcode.MismatchError.
type ProcessBarcodesCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewProcessBarcodesCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	lifecycle OrderLifecycle,
) ProcessBarcodesCommandHandler {
	return ProcessBarcodesCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *ProcessBarcodesCommandHandler) Handle(
	ctx context.Context,
	cmd ProcessBarcodesCommand,
) (services.Reconciliation, error) {
	if err := cmd.Validate(); err != nil {
		return services.Reconciliation{}, err
	}

	var rec services.Reconciliation
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		var err error
		if cmd.kind == ports.ReconciliationReturn {
			rec, err = h.lifecycle.ProcessReturnBarcodes(ctx, uow, cmd.orderID, cmd.scanned, cmd.actor)
		} else {
			rec, err = h.lifecycle.ProcessOrderBarcodes(ctx, uow, cmd.orderID, cmd.scanned, cmd.actor)
		}
		return err
	})
	return rec, err
}
