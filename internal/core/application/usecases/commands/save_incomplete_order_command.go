package commands

import (
	"errors"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/pkg/guard"
)

var ErrSaveIncompleteOrderCommandIsNotConstructed = errors.New(
	"SaveIncompleteOrderCommand must be created via NewSaveIncompleteOrderCommand constructor",
)

// SaveIncompleteOrderCommand stores an abandoned checkout as a draft without reserving stock.
type SaveIncompleteOrderCommand struct { //nolint:recvcheck //using for validation
	details OrderDetails

	guard guard.ConstructorGuard
}

func NewSaveIncompleteOrderCommand(details OrderDetails) (SaveIncompleteOrderCommand, error) {
	if err := details.validate(); err != nil {
		return SaveIncompleteOrderCommand{}, err
	}

	details.Items = append([]fulfillment.ItemRequest(nil), details.Items...)
	return SaveIncompleteOrderCommand{
		details: details,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c SaveIncompleteOrderCommand) Validate() error {
	return c.guard.Validate(ErrSaveIncompleteOrderCommandIsNotConstructed)
}

func (c SaveIncompleteOrderCommand) Details() OrderDetails {
	return c.details
}
