package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// GenerateBarcodesCommandHandler issues a batch of units and returns their barcodes in
// serial order.
type GenerateBarcodesCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	barcodes   BarcodeIssuer
}

func NewGenerateBarcodesCommandHandler(uowFactory ports.UnitOfWorkFactory, barcodes BarcodeIssuer) GenerateBarcodesCommandHandler {
	return GenerateBarcodesCommandHandler{
		uowFactory: uowFactory,
		barcodes:   barcodes,
	}
}

func (h *GenerateBarcodesCommandHandler) Handle(ctx context.Context, cmd GenerateBarcodesCommand) ([]string, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var codes []string
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		units, err := h.barcodes.GenerateBatch(ctx, uow, cmd.req, cmd.actor)
		if err != nil {
			return err
		}
		codes = make([]string, 0, len(units))
		for _, u := range units {
			codes = append(codes, u.Barcode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

type BindBarcodesToLotCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	barcodes   BarcodeIssuer
}

func NewBindBarcodesToLotCommandHandler(uowFactory ports.UnitOfWorkFactory, barcodes BarcodeIssuer) BindBarcodesToLotCommandHandler {
	return BindBarcodesToLotCommandHandler{
		uowFactory: uowFactory,
		barcodes:   barcodes,
	}
}

func (h *BindBarcodesToLotCommandHandler) Handle(ctx context.Context, cmd BindBarcodesToLotCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		return h.barcodes.BindToLot(ctx, uow, cmd.lotID, cmd.codes, cmd.actor)
	})
}
