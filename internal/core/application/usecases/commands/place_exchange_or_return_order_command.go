package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrPlaceExchangeOrReturnOrderCommandIsNotConstructed = errors.New(
	"PlaceExchangeOrReturnOrderCommand must be created via NewPlaceExchangeOrReturnOrderCommand constructor",
)

// PlaceExchangeOrReturnOrderCommand records units coming back from a delivered order as
// an exchange or a return order.
type PlaceExchangeOrReturnOrderCommand struct { //nolint:recvcheck //using for validation
	req fulfillment.DerivedOrderRequest

	guard guard.ConstructorGuard
}

func NewPlaceExchangeOrReturnOrderCommand(
	orderID, originalOrderID kernel.UUID,
	kind order.Kind,
	items []fulfillment.DerivedItemRequest,
	actor kernel.Actor,
) (PlaceExchangeOrReturnOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), originalOrderID.Validate(), kind.Validate(), actor.Validate()); err != nil {
		return PlaceExchangeOrReturnOrderCommand{}, err
	}
	if kind == order.KindStandard {
		return PlaceExchangeOrReturnOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("order kind",
			errors.New("a derived order is an exchange or a return"))
	}
	if len(items) == 0 {
		return PlaceExchangeOrReturnOrderCommand{}, ErrItemsAreRequired
	}
	for i, item := range items {
		if err := errors.Join(item.OriginalLineItemID.Validate(), item.Condition.Validate()); err != nil {
			return PlaceExchangeOrReturnOrderCommand{}, fmt.Errorf("item %d: %w", i, err)
		}
		if len(item.Barcodes) == 0 {
			return PlaceExchangeOrReturnOrderCommand{}, fmt.Errorf("item %d: %w", i, errs.NewValueIsRequiredError("barcodes"))
		}
	}

	copied := make([]fulfillment.DerivedItemRequest, len(items))
	for i, item := range items {
		item.Barcodes = append([]string(nil), item.Barcodes...)
		copied[i] = item
	}
	return PlaceExchangeOrReturnOrderCommand{
		req: fulfillment.DerivedOrderRequest{
			OrderID:         orderID,
			OriginalOrderID: originalOrderID,
			Kind:            kind,
			Items:           copied,
			Actor:           actor,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c PlaceExchangeOrReturnOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceExchangeOrReturnOrderCommandIsNotConstructed)
}

func (c PlaceExchangeOrReturnOrderCommand) OrderID() kernel.UUID {
	return c.req.OrderID
}

func (c PlaceExchangeOrReturnOrderCommand) OriginalOrderID() kernel.UUID {
	return c.req.OriginalOrderID
}

func (c PlaceExchangeOrReturnOrderCommand) Kind() order.Kind {
	return c.req.Kind
}
