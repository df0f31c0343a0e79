package order

import (
	"errors"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"
)

// ReservationState summarizes the stock reservation of a whole line item.
type ReservationState string

const (
	ReservationNone      ReservationState = "none"
	ReservationReserved  ReservationState = "reserved"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

func (s ReservationState) Validate() error {
	switch s {
	case ReservationNone, ReservationReserved, ReservationCommitted, ReservationReleased:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("reservation state", fmt.Errorf("%q is not a valid state", string(s)))
	}
}

// LineItemInput is what a caller provides to add a line item to a new order.
type LineItemInput struct {
	ProductID kernel.UUID
	VariantID kernel.UUID
	Location  kernel.Location
	Quantity  int
	UnitPrice kernel.Money

	// Set on derived orders only.
	OriginalLineItemID *kernel.UUID
	ReturnedBarcodes   []string
	ReturnCondition    barcode.Condition
}

// LineItem is one variant line of an order. It is owned by the Order aggregate and only
// changed through Order methods.
type LineItem struct {
	id               kernel.UUID
	productID        kernel.UUID
	variantID        kernel.UUID
	location         kernel.Location
	quantity         int
	unitPrice        kernel.Money
	reservationState ReservationState
	allocations      []stock.Split
	barcodes         []string

	originalLineItemID *kernel.UUID
	returnedBarcodes   []string
	returnCondition    barcode.Condition
}

// LineItemSnapshot is the persisted form of a LineItem. Subtotal is derived.
type LineItemSnapshot struct {
	ID                 kernel.UUID
	ProductID          kernel.UUID
	VariantID          kernel.UUID
	Location           kernel.Location
	Quantity           int
	UnitPrice          kernel.Money
	ReservationState   ReservationState
	Allocations        []stock.Split
	Barcodes           []string
	OriginalLineItemID *kernel.UUID
	ReturnedBarcodes   []string
	ReturnCondition    barcode.Condition
}

func newLineItem(in LineItemInput) (*LineItem, error) {
	condition := in.ReturnCondition
	if condition == "" {
		condition = barcode.ConditionNew
	}
	return restoreLineItem(LineItemSnapshot{
		ID:                 kernel.NewUUID(),
		ProductID:          in.ProductID,
		VariantID:          in.VariantID,
		Location:           in.Location,
		Quantity:           in.Quantity,
		UnitPrice:          in.UnitPrice,
		ReservationState:   ReservationNone,
		OriginalLineItemID: in.OriginalLineItemID,
		ReturnedBarcodes:   in.ReturnedBarcodes,
		ReturnCondition:    condition,
	})
}

func restoreLineItem(s LineItemSnapshot) (*LineItem, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.ProductID.Validate(),
		s.VariantID.Validate(),
		s.Location.Validate(),
		s.UnitPrice.Validate(),
		s.ReservationState.Validate(),
		s.ReturnCondition.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Quantity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", s.Quantity))
	}
	if s.ReservationState != ReservationNone && allocated(s.Allocations) != s.Quantity {
		return nil, errs.NewValueIsInvalidErrorWithCause("line item allocations",
			fmt.Errorf("line item %s allocates %d of %d", s.ID, allocated(s.Allocations), s.Quantity))
	}

	return &LineItem{
		id:                 s.ID,
		productID:          s.ProductID,
		variantID:          s.VariantID,
		location:           s.Location,
		quantity:           s.Quantity,
		unitPrice:          s.UnitPrice,
		reservationState:   s.ReservationState,
		allocations:        slices.Clone(s.Allocations),
		barcodes:           slices.Clone(s.Barcodes),
		originalLineItemID: copyID(s.OriginalLineItemID),
		returnedBarcodes:   slices.Clone(s.ReturnedBarcodes),
		returnCondition:    s.ReturnCondition,
	}, nil
}

func (li *LineItem) Snapshot() LineItemSnapshot {
	return LineItemSnapshot{
		ID:                 li.id,
		ProductID:          li.productID,
		VariantID:          li.variantID,
		Location:           li.location,
		Quantity:           li.quantity,
		UnitPrice:          li.unitPrice,
		ReservationState:   li.reservationState,
		Allocations:        slices.Clone(li.allocations),
		Barcodes:           slices.Clone(li.barcodes),
		OriginalLineItemID: copyID(li.originalLineItemID),
		ReturnedBarcodes:   slices.Clone(li.returnedBarcodes),
		ReturnCondition:    li.returnCondition,
	}
}

func (li *LineItem) ID() kernel.UUID {
	return li.id
}

func (li *LineItem) ProductID() kernel.UUID {
	return li.productID
}

func (li *LineItem) VariantID() kernel.UUID {
	return li.variantID
}

func (li *LineItem) Location() kernel.Location {
	return li.location
}

func (li *LineItem) Quantity() int {
	return li.quantity
}

func (li *LineItem) UnitPrice() kernel.Money {
	return li.unitPrice
}

// Subtotal is unit price times quantity.
func (li *LineItem) Subtotal() kernel.Money {
	return li.unitPrice.Times(li.quantity)
}

func (li *LineItem) ReservationState() ReservationState {
	return li.reservationState
}

func (li *LineItem) Allocations() []stock.Split {
	return slices.Clone(li.allocations)
}

func (li *LineItem) Barcodes() []string {
	return slices.Clone(li.barcodes)
}

func (li *LineItem) OriginalLineItemID() *kernel.UUID {
	return copyID(li.originalLineItemID)
}

func (li *LineItem) ReturnedBarcodes() []string {
	return slices.Clone(li.returnedBarcodes)
}

func (li *LineItem) ReturnCondition() barcode.Condition {
	return li.returnCondition
}

func allocated(splits []stock.Split) int {
	n := 0
	for _, s := range splits {
		n += s.Quantity
	}
	return n
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
