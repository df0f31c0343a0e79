package commands

import (
	"context"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// ScanResult is what the scanner shows after a successful scan.
type ScanResult struct {
	OrderID kernel.UUID
	Status  order.Status
}

// ScanParcelCommandHandler forwards the order of a scanned parcel. A second scan of the
// same parcel within the dedup window returns fulfillment.ErrDuplicateScan.
type ScanParcelCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	lifecycle  OrderLifecycle
}

func NewScanParcelCommandHandler(uowFactory ports.UnitOfWorkFactory, lifecycle OrderLifecycle) ScanParcelCommandHandler {
	return ScanParcelCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

func (h *ScanParcelCommandHandler) Handle(ctx context.Context, cmd ScanParcelCommand) (ScanResult, error) {
	if err := cmd.Validate(); err != nil {
		return ScanResult{}, err
	}

	var result ScanResult
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		scan := h.lifecycle.ScanToHandover
		if cmd.kind == fulfillment.ScanReturn {
			scan = h.lifecycle.ScanToReturn
		}
		o, err := scan(ctx, uow, cmd.trackingCode, cmd.actor)
		if err != nil {
			return err
		}
		result = ScanResult{OrderID: o.ID(), Status: o.Status()}
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	return result, nil
}
