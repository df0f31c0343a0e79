package stock

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrReservationIsNotConstructed = errors.New("Reservation must be created via NewReservation or RestoreReservation")

// ReservationState tracks one lot split through its life.
type ReservationState string

const (
	ReservationReserved  ReservationState = "reserved"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

func (s ReservationState) Validate() error {
	switch s {
	case ReservationReserved, ReservationCommitted, ReservationReleased:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("reservation state", fmt.Errorf("%q is not a valid state", string(s)))
	}
}

// Split is the opaque reference a line item keeps for one reserved lot quantity.
type Split struct {
	ReservationID kernel.UUID
	LotID         kernel.UUID
	Quantity      int
}

// Reservation is the durable record of a Split. Commit and Release consult its state,
// which makes both operations safe to repeat.
type Reservation struct {
	id         kernel.UUID
	orderID    kernel.UUID
	lineItemID kernel.UUID
	lotID      kernel.UUID
	productID  kernel.UUID
	variantID  kernel.UUID
	quantity   int
	state      ReservationState
	createdAt  time.Time
	updatedAt  time.Time

	isConstructed bool
}

type ReservationSnapshot struct {
	ID         kernel.UUID
	OrderID    kernel.UUID
	LineItemID kernel.UUID
	LotID      kernel.UUID
	ProductID  kernel.UUID
	VariantID  kernel.UUID
	Quantity   int
	State      ReservationState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewReservation(orderID, lineItemID kernel.UUID, lot *Lot, quantity int, now time.Time) (*Reservation, error) {
	if err := lot.Validate(); err != nil {
		return nil, err
	}
	return RestoreReservation(ReservationSnapshot{
		ID:         kernel.NewUUID(),
		OrderID:    orderID,
		LineItemID: lineItemID,
		LotID:      lot.ID(),
		ProductID:  lot.ProductID(),
		VariantID:  lot.VariantID(),
		Quantity:   quantity,
		State:      ReservationReserved,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func RestoreReservation(s ReservationSnapshot) (*Reservation, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.OrderID.Validate(),
		s.LineItemID.Validate(),
		s.LotID.Validate(),
		s.ProductID.Validate(),
		s.VariantID.Validate(),
		s.State.Validate(),
		validateQuantity(s.Quantity),
	); err != nil {
		return nil, err
	}

	return &Reservation{
		id:            s.ID,
		orderID:       s.OrderID,
		lineItemID:    s.LineItemID,
		lotID:         s.LotID,
		productID:     s.ProductID,
		variantID:     s.VariantID,
		quantity:      s.Quantity,
		state:         s.State,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}, nil
}

func (r *Reservation) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrReservationIsNotConstructed
	}
	return nil
}

func (r *Reservation) Snapshot() ReservationSnapshot {
	return ReservationSnapshot{
		ID:         r.id,
		OrderID:    r.orderID,
		LineItemID: r.lineItemID,
		LotID:      r.lotID,
		ProductID:  r.productID,
		VariantID:  r.variantID,
		Quantity:   r.quantity,
		State:      r.state,
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
}

func (r *Reservation) ID() kernel.UUID {
	return r.id
}

func (r *Reservation) OrderID() kernel.UUID {
	return r.orderID
}

func (r *Reservation) LineItemID() kernel.UUID {
	return r.lineItemID
}

func (r *Reservation) LotID() kernel.UUID {
	return r.lotID
}

func (r *Reservation) ProductID() kernel.UUID {
	return r.productID
}

func (r *Reservation) VariantID() kernel.UUID {
	return r.variantID
}

func (r *Reservation) Quantity() int {
	return r.quantity
}

func (r *Reservation) State() ReservationState {
	return r.state
}

func (r *Reservation) Split() Split {
	return Split{ReservationID: r.id, LotID: r.lotID, Quantity: r.quantity}
}

// Commit marks the reservation committed. It reports false when it already was.
func (r *Reservation) Commit(now time.Time) (bool, error) {
	switch r.state {
	case ReservationCommitted:
		return false, nil
	case ReservationReleased:
		return false, fmt.Errorf("%w: %s", ErrReservationAlreadyReleased, r.id)
	}
	r.state = ReservationCommitted
	r.updatedAt = now
	return true, nil
}

// Release marks the reservation released. It reports false when it already was.
func (r *Reservation) Release(now time.Time) (bool, error) {
	switch r.state {
	case ReservationReleased:
		return false, nil
	case ReservationCommitted:
		return false, fmt.Errorf("%w: %s", ErrReservationAlreadyCommitted, r.id)
	}
	r.state = ReservationReleased
	r.updatedAt = now
	return true, nil
}
