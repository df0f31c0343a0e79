package barcode

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrDuplicateBarcode signals a sequence allocation bug: the same barcode was issued twice.
	ErrDuplicateBarcode = errors.New("duplicate barcode")

	ErrBarcodeMismatch         = errors.New("barcode mismatch")
	ErrInvalidStatusTransition = errors.New("invalid barcode status transition")
	ErrInsufficientUnits       = errors.New("insufficient barcode units")
	ErrUnitNotReady            = errors.New("barcode units are not ready for handover")
	ErrUnitAlreadyBound        = errors.New("barcode unit is bound to another order")
)

// StatusTransitionError names the rejected edge.
type StatusTransitionError struct {
	Barcode string
	From    Status
	To      Status
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidStatusTransition, e.Barcode, e.From, e.To)
}

func (e *StatusTransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}

// MismatchError lists the difference between scanned and expected units.
type MismatchError struct {
	OrderID    kernel.UUID
	Missing    []string
	Unexpected []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s for order %s: missing [%s], unexpected [%s]", ErrBarcodeMismatch, e.OrderID,
		strings.Join(e.Missing, ", "), strings.Join(e.Unexpected, ", "))
}

func (e *MismatchError) Unwrap() error {
	return ErrBarcodeMismatch
}

// InsufficientUnitsError is returned when a lot has fewer assignable units than reserved quantity.
type InsufficientUnitsError struct {
	LotID     kernel.UUID
	Requested int
	Found     int
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("%s: lot %s needs %d, found %d", ErrInsufficientUnits, e.LotID, e.Requested, e.Found)
}

func (e *InsufficientUnitsError) Unwrap() error {
	return ErrInsufficientUnits
}
