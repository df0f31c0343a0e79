package fulfillment

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// Tx is the part of a unit of work the engines need. ports.UnitOfWork satisfies it.
type Tx interface {
	Track(source kernel.EventSource)

	OrderRepository() ports.OrderRepository
	LotRepository() ports.LotRepository
	GlobalStockRepository() ports.GlobalStockRepository
	ReservationRepository() ports.ReservationRepository
	BarcodeUnitRepository() ports.BarcodeUnitRepository
	CounterRepository() ports.CounterRepository
	ReconciliationRepository() ports.ReconciliationRepository
}

// RecordedFailureError wraps a business failure whose outcome was written to the order,
// such as the partial flag after a barcode mismatch. The caller commits the unit of work
// and then returns the error.
type RecordedFailureError struct {
	Err error
}

func (e *RecordedFailureError) Error() string {
	return e.Err.Error()
}

func (e *RecordedFailureError) Unwrap() error {
	return e.Err
}

// IsRecordedFailure reports whether err must be committed before it is returned.
func IsRecordedFailure(err error) bool {
	var recorded *RecordedFailureError
	return errors.As(err, &recorded)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
