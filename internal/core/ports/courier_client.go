package ports

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrCourierUnavailable is the sentinel behind CourierUnavailableError.
	ErrCourierUnavailable = errors.New("courier unavailable")

	// ErrCourierTimeout marks a single attempt that ran out of time. The courier may or may
	// not have created the parcel.
	ErrCourierTimeout = errors.New("courier request timed out")
)

// CourierUnavailableError is returned when every transfer attempt failed, or when an
// attempt timed out and the outcome is unknown.
type CourierUnavailableError struct {
	Attempts int
	Timeout  bool
	Cause    error
}

func (e *CourierUnavailableError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: outcome unknown after timeout on attempt %d: %v", ErrCourierUnavailable, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrCourierUnavailable, e.Attempts, e.Cause)
}

func (e *CourierUnavailableError) Unwrap() []error {
	return []error{ErrCourierUnavailable, e.Cause}
}

// CourierHTTPError is a non-2xx answer from the courier.
type CourierHTTPError struct {
	StatusCode int
	Body       string
}

func (e *CourierHTTPError) Error() string {
	return fmt.Sprintf("courier responded %d: %s", e.StatusCode, e.Body)
}

// CourierShipment is what the courier needs to create a parcel.
type CourierShipment struct {
	InvoiceNumber    string
	OrderID          kernel.UUID
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	CODAmount        kernel.Money
	ItemCount        int
	Note             string
}

// CourierStatus is the courier's own view of a parcel.
type CourierStatus string

const (
	CourierPending       CourierStatus = "pending"
	CourierPickedUp      CourierStatus = "picked_up"
	CourierInTransit     CourierStatus = "in_transit"
	CourierDelivered     CourierStatus = "delivered"
	CourierReturnPending CourierStatus = "return_pending"
	CourierReturned      CourierStatus = "returned"
	CourierLost          CourierStatus = "lost"
	CourierCancelled     CourierStatus = "cancelled"
	CourierStatusUnknown CourierStatus = "unknown"
)

// CourierClient is the narrow contract of the courier service.
type CourierClient interface {
	CreateOrder(ctx context.Context, shipment CourierShipment) (trackingCode string, err error)
	GetStatus(ctx context.Context, trackingCode string) (CourierStatus, error)
}
