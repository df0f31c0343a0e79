package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGenerateBarcodesCommandIsNotConstructed = errors.New(
		"GenerateBarcodesCommand must be created via NewGenerateBarcodesCommand constructor",
	)
	ErrBindBarcodesToLotCommandIsNotConstructed = errors.New(
		"BindBarcodesToLotCommand must be created via NewBindBarcodesToLotCommand constructor",
	)
)

// GenerateBarcodesCommand asks for count new EAN-13 units of one variant, optionally
// bound to the lot they are printed for.
type GenerateBarcodesCommand struct { //nolint:recvcheck //using for validation
	req   fulfillment.GenerateBatchRequest
	actor kernel.Actor

	guard guard.ConstructorGuard
}

func NewGenerateBarcodesCommand(
	productID, variantID kernel.UUID,
	sku string,
	count int,
	lotID *kernel.UUID,
	actor kernel.Actor,
) (GenerateBarcodesCommand, error) {
	validations := []error{productID.Validate(), variantID.Validate(), actor.Validate()}
	if lotID != nil {
		validations = append(validations, lotID.Validate())
	}
	if err := errors.Join(validations...); err != nil {
		return GenerateBarcodesCommand{}, err
	}
	if strings.TrimSpace(sku) == "" {
		return GenerateBarcodesCommand{}, errs.NewValueIsRequiredError("sku")
	}
	if count <= 0 {
		return GenerateBarcodesCommand{}, errs.NewValueIsOutOfRangeError("barcode count", count, 1, nil)
	}

	return GenerateBarcodesCommand{
		req: fulfillment.GenerateBatchRequest{
			ProductID: productID,
			VariantID: variantID,
			SKU:       strings.TrimSpace(sku),
			Count:     count,
			LotID:     lotID,
		},
		actor: actor,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c GenerateBarcodesCommand) Validate() error {
	return c.guard.Validate(ErrGenerateBarcodesCommandIsNotConstructed)
}

func (c GenerateBarcodesCommand) Count() int {
	return c.req.Count
}

// BindBarcodesToLotCommand attaches already generated units to the lot they arrived in.
type BindBarcodesToLotCommand struct { //nolint:recvcheck //using for validation
	lotID kernel.UUID
	codes []string
	actor kernel.Actor

	guard guard.ConstructorGuard
}

func NewBindBarcodesToLotCommand(lotID kernel.UUID, codes []string, actor kernel.Actor) (BindBarcodesToLotCommand, error) {
	if err := errors.Join(lotID.Validate(), actor.Validate()); err != nil {
		return BindBarcodesToLotCommand{}, err
	}
	if len(codes) == 0 {
		return BindBarcodesToLotCommand{}, errs.NewValueIsRequiredError("barcodes")
	}

	return BindBarcodesToLotCommand{
		lotID: lotID,
		codes: append([]string(nil), codes...),
		actor: actor,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c BindBarcodesToLotCommand) Validate() error {
	return c.guard.Validate(ErrBindBarcodesToLotCommandIsNotConstructed)
}

func (c BindBarcodesToLotCommand) LotID() kernel.UUID {
	return c.lotID
}
