package stock

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrLotIsNotConstructed = errors.New("Lot must be created via ReceiveLot or RestoreLot")

// LotStatus is the availability state of a lot.
type LotStatus string

const (
	LotActive   LotStatus = "active"
	LotDepleted LotStatus = "depleted"
	LotExpired  LotStatus = "expired"
)

func (s LotStatus) Validate() error {
	switch s {
	case LotActive, LotDepleted, LotExpired:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("lot status", fmt.Errorf("%q is not a valid lot status", string(s)))
	}
}

// Lot is a batch of one variant received together at one location. It is the unit of
// FIFO consumption.
//
// Counters keep the ledger invariant
//
//	received + returned == available + reserved + sold
//
// and none of them is ever negative. OnHand (available + reserved) is what the lot still
// physically holds.
type Lot struct {
	id          kernel.UUID
	productID   kernel.UUID
	variantID   kernel.UUID
	location    kernel.Location
	received    int
	available   int
	reserved    int
	sold        int
	returned    int
	costPerUnit kernel.Money
	receivedAt  time.Time
	expiryDate  *time.Time
	status      LotStatus
	sourceRef   string

	isConstructed bool
}

// LotSnapshot is the persisted form of a Lot.
type LotSnapshot struct {
	ID          kernel.UUID
	ProductID   kernel.UUID
	VariantID   kernel.UUID
	Location    kernel.Location
	Received    int
	Available   int
	Reserved    int
	Sold        int
	Returned    int
	CostPerUnit kernel.Money
	ReceivedAt  time.Time
	ExpiryDate  *time.Time
	Status      LotStatus
	SourceRef   string
}

// ReceiveLot registers stock arriving from a purchase. All of it starts available.
func ReceiveLot(
	id, productID, variantID kernel.UUID,
	location kernel.Location,
	quantity int,
	costPerUnit kernel.Money,
	receivedAt time.Time,
	expiryDate *time.Time,
	sourceRef string,
) (*Lot, error) {
	if quantity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("lot quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	return RestoreLot(LotSnapshot{
		ID:          id,
		ProductID:   productID,
		VariantID:   variantID,
		Location:    location,
		Received:    quantity,
		Available:   quantity,
		CostPerUnit: costPerUnit,
		ReceivedAt:  receivedAt,
		ExpiryDate:  expiryDate,
		Status:      LotActive,
		SourceRef:   sourceRef,
	})
}

// RestoreLot rebuilds a lot from storage and rejects snapshots that break the ledger.
func RestoreLot(s LotSnapshot) (*Lot, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.ProductID.Validate(),
		s.VariantID.Validate(),
		s.Location.Validate(),
		s.CostPerUnit.Validate(),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if s.ReceivedAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("received at")
	}
	if s.ExpiryDate != nil && s.ExpiryDate.Before(s.ReceivedAt) {
		return nil, errs.NewValueIsInvalidErrorWithCause("expiry date", errors.New("expiry date is before received at"))
	}

	expiry := s.ExpiryDate
	if expiry != nil {
		e := *expiry
		expiry = &e
	}

	lot := &Lot{
		id:            s.ID,
		productID:     s.ProductID,
		variantID:     s.VariantID,
		location:      s.Location,
		received:      s.Received,
		available:     s.Available,
		reserved:      s.Reserved,
		sold:          s.Sold,
		returned:      s.Returned,
		costPerUnit:   s.CostPerUnit,
		receivedAt:    s.ReceivedAt,
		expiryDate:    expiry,
		status:        s.Status,
		sourceRef:     strings.TrimSpace(s.SourceRef),
		isConstructed: true,
	}
	if err := lot.checkLedger(); err != nil {
		return nil, err
	}

	return lot, nil
}

func (l *Lot) Validate() error {
	if l == nil || !l.isConstructed {
		return ErrLotIsNotConstructed
	}
	return nil
}

func (l *Lot) Snapshot() LotSnapshot {
	var expiry *time.Time
	if l.expiryDate != nil {
		e := *l.expiryDate
		expiry = &e
	}
	return LotSnapshot{
		ID:          l.id,
		ProductID:   l.productID,
		VariantID:   l.variantID,
		Location:    l.location,
		Received:    l.received,
		Available:   l.available,
		Reserved:    l.reserved,
		Sold:        l.sold,
		Returned:    l.returned,
		CostPerUnit: l.costPerUnit,
		ReceivedAt:  l.receivedAt,
		ExpiryDate:  expiry,
		Status:      l.status,
		SourceRef:   l.sourceRef,
	}
}

func (l *Lot) ID() kernel.UUID { return l.id }
func (l *Lot) ProductID() kernel.UUID { return l.productID }
func (l *Lot) VariantID() kernel.UUID { return l.variantID }
func (l *Lot) Location() kernel.Location { return l.location }
func (l *Lot) QtyReceived() int { return l.received }
func (l *Lot) QtyAvailable() int { return l.available }
func (l *Lot) QtyReserved() int { return l.reserved }
func (l *Lot) QtySold() int { return l.sold }
func (l *Lot) QtyReturned() int { return l.returned }
func (l *Lot) CostPerUnit() kernel.Money { return l.costPerUnit }
func (l *Lot) ReceivedAt() time.Time { return l.receivedAt }
func (l *Lot) ExpiryDate() *time.Time { return l.expiryDate }
func (l *Lot) Status() LotStatus { return l.status }
func (l *Lot) SourceRef() string { return l.sourceRef }

// QtyOnHand is the physical quantity still in the lot: available plus reserved.
func (l *Lot) QtyOnHand() int {
	return l.available + l.reserved
}

// IsExpiredAt reports whether the expiry date has passed at now.
func (l *Lot) IsExpiredAt(now time.Time) bool {
	return l.expiryDate != nil && !now.Before(*l.expiryDate)
}

// CanReserveAt reports whether new reservations may draw from the lot.
func (l *Lot) CanReserveAt(now time.Time) bool {
	return l.status == LotActive && l.available > 0 && !l.IsExpiredAt(now)
}

// MarkExpired stops further reservations and returns the available quantity that leaves
// sale with it, zero when the lot had already expired. Quantity already reserved stays
// with its orders.
func (l *Lot) MarkExpired() int {
	if l.status == LotExpired {
		return 0
	}
	l.status = LotExpired
	return l.available
}

// Withdraw moves n units from available to reserved.
func (l *Lot) Withdraw(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > l.available {
		return errs.NewValueIsOutOfRangeError("lot withdraw quantity", n, 1, l.available)
	}
	l.available -= n
	l.reserved += n
	l.refreshStatus()
	return nil
}

// PutBack moves n reserved units back to available.
func (l *Lot) PutBack(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > l.reserved {
		return errs.NewValueIsOutOfRangeError("lot release quantity", n, 1, l.reserved)
	}
	l.reserved -= n
	l.available += n
	l.refreshStatus()
	return nil
}

// Deduct turns n reserved units into sold ones. OnHand shrinks by n.
func (l *Lot) Deduct(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > l.reserved {
		return errs.NewValueIsOutOfRangeError("lot commit quantity", n, 1, l.reserved)
	}
	l.reserved -= n
	l.sold += n
	l.refreshStatus()
	return nil
}

// Restock takes n previously sold units back into available stock.
func (l *Lot) Restock(n int) error {
	if err := validateQuantity(n); err != nil {
		return err
	}
	if n > l.sold {
		return errs.NewValueIsOutOfRangeError("lot restock quantity", n, 1, l.sold)
	}
	l.sold -= n
	l.returned += n
	l.available += n
	l.refreshStatus()
	return nil
}

func (l *Lot) refreshStatus() {
	if l.status == LotExpired {
		return
	}
	if l.available == 0 && l.reserved == 0 {
		l.status = LotDepleted
		return
	}
	l.status = LotActive
}

func (l *Lot) checkLedger() error {
	if l.received <= 0 || l.available < 0 || l.reserved < 0 || l.sold < 0 || l.returned < 0 {
		return errs.NewValueIsInvalidErrorWithCause("lot quantities", fmt.Errorf(
			"negative counter in lot %s: received=%d available=%d reserved=%d sold=%d returned=%d",
			l.id, l.received, l.available, l.reserved, l.sold, l.returned))
	}
	if l.received+l.returned != l.available+l.reserved+l.sold {
		return errs.NewValueIsInvalidErrorWithCause("lot quantities", fmt.Errorf(
			"lot %s ledger mismatch: received %d + returned %d != available %d + reserved %d + sold %d",
			l.id, l.received, l.returned, l.available, l.reserved, l.sold))
	}
	return nil
}

// CompareReservationPriority orders lots for consumption: lots with an expiry date before
// lots without one, earlier expiry first, then oldest received first, then by id.
func CompareReservationPriority(a, b *Lot) int {
	switch {
	case a.expiryDate != nil && b.expiryDate == nil:
		return -1
	case a.expiryDate == nil && b.expiryDate != nil:
		return 1
	case a.expiryDate != nil && b.expiryDate != nil && !a.expiryDate.Equal(*b.expiryDate):
		return a.expiryDate.Compare(*b.expiryDate)
	}
	if c := a.receivedAt.Compare(b.receivedAt); c != 0 {
		return c
	}
	return strings.Compare(a.id.String(), b.id.String())
}

func validateQuantity(n int) error {
	if n <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", n))
	}
	return nil
}
