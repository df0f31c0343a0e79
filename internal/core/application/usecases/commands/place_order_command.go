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

var (
	ErrPlaceOrderCommandIsNotConstructed = errors.New(
		"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
	)
	ErrItemsAreRequired = errors.New("at least one item is required")
)

// OrderDetails is what a checkout submits, shared by placed orders and drafts.
type OrderDetails struct {
	OrderID       kernel.UUID
	Buyer         order.Buyer
	OrderedBy     order.OrderedBy
	PaymentMethod order.PaymentMethod
	Items         []fulfillment.ItemRequest
}

func (d OrderDetails) validate() error {
	if err := errors.Join(
		d.OrderID.Validate(),
		d.Buyer.Validate(),
		d.OrderedBy.Validate(),
		d.PaymentMethod.Validate(),
	); err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return ErrItemsAreRequired
	}
	for i, item := range d.Items {
		if err := errors.Join(item.VariantID.Validate(), item.Location.Validate()); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i,
				errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", item.Quantity)))
		}
	}
	return nil
}

// PlaceOrderCommand represents a checkout that should reserve stock and become a placed
// order.
//
// Example:
//
//	cmd, err := NewPlaceOrderCommand(OrderDetails{
//	    OrderID:       kernel.NewUUID(),
//	    Buyer:         order.Buyer{Name: "Rahim Uddin", Phone: "+8801700000000"},
//	    OrderedBy:     order.OrderedByUser,
//	    PaymentMethod: order.PaymentCOD,
//	    Items:         []fulfillment.ItemRequest{{VariantID: variantID, Location: dhaka, Quantity: 2}},
//	}, actor)
//	if err != nil {
//	    return fmt.Errorf("invalid checkout: %w", err)
//	}
//
//	handler := NewPlaceOrderCommandHandler(uowFactory, lifecycle)
//	err = handler.Handle(ctx, cmd)
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	details OrderDetails
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewPlaceOrderCommand validates the checkout and the acting party.
func NewPlaceOrderCommand(details OrderDetails, actor kernel.Actor) (PlaceOrderCommand, error) {
	if err := errors.Join(details.validate(), actor.Validate()); err != nil {
		return PlaceOrderCommand{}, err
	}

	details.Items = append([]fulfillment.ItemRequest(nil), details.Items...)
	return PlaceOrderCommand{
		details: details,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) Details() OrderDetails {
	return c.details
}

func (c PlaceOrderCommand) Actor() kernel.Actor {
	return c.actor
}

func (c PlaceOrderCommand) request() fulfillment.PlaceOrderRequest {
	return fulfillment.PlaceOrderRequest{
		OrderID:       c.details.OrderID,
		Buyer:         c.details.Buyer,
		OrderedBy:     c.details.OrderedBy,
		PaymentMethod: c.details.PaymentMethod,
		Items:         c.details.Items,
		Actor:         c.actor,
	}
}
