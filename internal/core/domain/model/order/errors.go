package order

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is the sentinel behind InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrDuplicateInvoice is returned when an invoice number is assigned twice, either to the
	// same order or, through the unique index, to two orders.
	ErrDuplicateInvoice = errors.New("duplicate invoice number")
)

// InvalidTransitionError names the rejected edge.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
