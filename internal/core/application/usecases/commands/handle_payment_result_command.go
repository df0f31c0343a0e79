package commands

import (
	"errors"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrHandlePaymentResultCommandIsNotConstructed = errors.New(
	"HandlePaymentResultCommand must be created via NewHandlePaymentResultCommand constructor",
)

// HandlePaymentResultCommand is a payment outcome reported for an online order.
type HandlePaymentResultCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	result  fulfillment.PaymentResult

	guard guard.ConstructorGuard
}

func NewHandlePaymentResultCommand(orderID kernel.UUID, result fulfillment.PaymentResult) (HandlePaymentResultCommand, error) {
	if err := errors.Join(orderID.Validate(), result.Validate()); err != nil {
		return HandlePaymentResultCommand{}, err
	}

	return HandlePaymentResultCommand{
		orderID: orderID,
		result:  result,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c HandlePaymentResultCommand) Validate() error {
	return c.guard.Validate(ErrHandlePaymentResultCommandIsNotConstructed)
}

func (c HandlePaymentResultCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c HandlePaymentResultCommand) Result() fulfillment.PaymentResult {
	return c.result
}
