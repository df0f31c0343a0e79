package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
	)
	ErrUpdateOrderStatusBulkCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusBulkCommand must be created via NewUpdateOrderStatusBulkCommand constructor",
	)
	ErrOrderIDsAreRequired = errors.New("at least one order id is required")
)

// UpdateOrderStatusCommand moves one order to a new status on behalf of an operator or
// the warehouse.
//
// Example:
//
//	cmd, err := NewUpdateOrderStatusCommand(orderID, order.Accepted, actor, "picked by shift B")
//	if err != nil {
//	    return err
//	}
//	err = handler.Handle(ctx, cmd)
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // the order moved on in the meantime
//	}
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.Status
	actor   kernel.Actor
	note    string

	guard guard.ConstructorGuard
}

func NewUpdateOrderStatusCommand(
	orderID kernel.UUID,
	target order.Status,
	actor kernel.Actor,
	note string,
) (UpdateOrderStatusCommand, error) {
	if err := errors.Join(orderID.Validate(), target.Validate(), actor.Validate()); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	return UpdateOrderStatusCommand{
		orderID: orderID,
		target:  target,
		actor:   actor,
		note:    strings.TrimSpace(note),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateOrderStatusCommand) Target() order.Status {
	return c.target
}

func (c UpdateOrderStatusCommand) Actor() kernel.Actor {
	return c.actor
}

func (c UpdateOrderStatusCommand) Note() string {
	return c.note
}

// UpdateOrderStatusBulkCommand moves many orders to the same status. Each order is
// handled on its own; one failure does not stop the others.
type UpdateOrderStatusBulkCommand struct { //nolint:recvcheck //using for validation
	orderIDs []kernel.UUID
	target   order.Status
	actor    kernel.Actor
	note     string

	guard guard.ConstructorGuard
}

func NewUpdateOrderStatusBulkCommand(
	orderIDs []kernel.UUID,
	target order.Status,
	actor kernel.Actor,
	note string,
) (UpdateOrderStatusBulkCommand, error) {
	if len(orderIDs) == 0 {
		return UpdateOrderStatusBulkCommand{}, ErrOrderIDsAreRequired
	}
	validations := []error{target.Validate(), actor.Validate()}
	for _, id := range orderIDs {
		validations = append(validations, id.Validate())
	}
	if err := errors.Join(validations...); err != nil {
		return UpdateOrderStatusBulkCommand{}, err
	}

	return UpdateOrderStatusBulkCommand{
		orderIDs: append([]kernel.UUID(nil), orderIDs...),
		target:   target,
		actor:    actor,
		note:     strings.TrimSpace(note),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateOrderStatusBulkCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusBulkCommandIsNotConstructed)
}

func (c UpdateOrderStatusBulkCommand) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), c.orderIDs...)
}

func (c UpdateOrderStatusBulkCommand) Target() order.Status {
	return c.target
}
