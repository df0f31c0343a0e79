package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"
)

var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder, NewIncompleteOrder, NewDerivedOrder or RestoreOrder")

// OrderedBy is the channel the order came from.
type OrderedBy string

const (
	OrderedByAdmin    OrderedBy = "admin"
	OrderedByUser     OrderedBy = "user"
	OrderedByGuest    OrderedBy = "guest"
	OrderedByReseller OrderedBy = "reseller"
)

func (o OrderedBy) Validate() error {
	switch o {
	case OrderedByAdmin, OrderedByUser, OrderedByGuest, OrderedByReseller:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("ordered by", fmt.Errorf("%q is not a valid channel", string(o)))
	}
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Validate() error {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%q is not a valid payment status", string(p)))
	}
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (p PaymentMethod) Validate() error {
	switch p {
	case PaymentCOD, PaymentOnline:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%q is not a valid payment method", string(p)))
	}
}

// Kind separates regular orders from orders derived from a delivered one.
type Kind string

const (
	KindStandard Kind = "standard"
	KindExchange Kind = "exchange"
	KindReturn   Kind = "return"
)

func (k Kind) Validate() error {
	switch k {
	case KindStandard, KindExchange, KindReturn:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("order kind", fmt.Errorf("%q is not a valid kind", string(k)))
	}
}

// NeedsStock reports whether line items of this kind reserve inventory.
func (k Kind) NeedsStock() bool {
	return k != KindReturn
}

// Buyer is the delivery contact of an order.
type Buyer struct {
	Name    string
	Phone   string
	Address string
}

func (b Buyer) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return errs.NewValueIsRequiredError("buyer name")
	}
	if strings.TrimSpace(b.Phone) == "" {
		return errs.NewValueIsRequiredError("buyer phone")
	}
	return nil
}

// AdminNote is an append-only remark on the order, written by a person or by the system.
type AdminNote struct {
	Author string
	Role   kernel.Role
	Status Status
	Note   string
	Date   time.Time
}

// Order is the aggregate root of fulfillment.
//
// Invariants:
//   - total equals the sum of line item subtotals
//   - status only moves along the lifecycle edges
//   - the invoice number is set at most once
//   - a placed order has an invoice number and, unless it is a return, reserved line items
type Order struct {
	id              kernel.UUID
	orderedBy       OrderedBy
	buyer           Buyer
	status          Status
	paymentStatus   PaymentStatus
	paymentMethod   PaymentMethod
	kind            Kind
	originalOrderID *kernel.UUID
	items           []*LineItem
	total           kernel.Money
	invoiceNumber   string
	trackingCode    string
	pendingCourier  bool
	notes           []AdminNote
	createdAt       time.Time
	updatedAt       time.Time

	events []kernel.DomainEvent

	isConstructed bool
}

// Snapshot is the persisted form of an Order.
type Snapshot struct {
	ID                         kernel.UUID
	OrderedBy                  OrderedBy
	Buyer                      Buyer
	Status                     Status
	PaymentStatus              PaymentStatus
	PaymentMethod              PaymentMethod
	Kind                       Kind
	OriginalOrderID            *kernel.UUID
	Items                      []LineItemSnapshot
	Total                      kernel.Money
	InvoiceNumber              string
	TrackingCode               string
	PendingCourierConfirmation bool
	Notes                      []AdminNote
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// NewOrder creates a checked-out order in pending. PlaceOrder moves it on to placed,
// awaiting_stock or failed.
func NewOrder(
	id kernel.UUID,
	buyer Buyer,
	orderedBy OrderedBy,
	method PaymentMethod,
	items []LineItemInput,
	now time.Time,
) (*Order, error) {
	return newOrder(id, buyer, orderedBy, method, KindStandard, nil, Pending, items, now)
}

// NewIncompleteOrder records a checkout draft. Nothing is reserved for it.
func NewIncompleteOrder(
	id kernel.UUID,
	buyer Buyer,
	orderedBy OrderedBy,
	method PaymentMethod,
	items []LineItemInput,
	now time.Time,
) (*Order, error) {
	return newOrder(id, buyer, orderedBy, method, KindStandard, nil, Incomplete, items, now)
}

// NewDerivedOrder creates an exchange or return order for a delivered original. Exchange
// orders start pending and are placed by the caller; return orders are recorded as returned.
func NewDerivedOrder(id kernel.UUID, original *Order, kind Kind, items []LineItemInput, now time.Time) (*Order, error) {
	if err := original.Validate(); err != nil {
		return nil, err
	}
	if kind != KindExchange && kind != KindReturn {
		return nil, errs.NewValueIsInvalidErrorWithCause("order kind", fmt.Errorf("%s orders are not derived", kind))
	}
	for _, in := range items {
		if in.OriginalLineItemID == nil {
			return nil, errs.NewValueIsRequiredError("original line item id")
		}
		if _, err := original.LineItem(*in.OriginalLineItemID); err != nil {
			return nil, err
		}
		if len(in.ReturnedBarcodes) != in.Quantity {
			return nil, errs.NewValueIsInvalidErrorWithCause("returned barcodes",
				fmt.Errorf("%d barcodes listed for quantity %d", len(in.ReturnedBarcodes), in.Quantity))
		}
	}

	initial := Pending
	if kind == KindReturn {
		initial = Returned
	}
	originalID := original.ID()
	o, err := newOrder(id, original.buyer, original.orderedBy, original.paymentMethod, kind, &originalID, initial, items, now)
	if err != nil {
		return nil, err
	}
	if kind == KindReturn {
		o.events = append(o.events, newStatusChangedEvent(o, StatusUndefined, kernel.SystemActor, now))
	}
	return o, nil
}

func newOrder(
	id kernel.UUID,
	buyer Buyer,
	orderedBy OrderedBy,
	method PaymentMethod,
	kind Kind,
	originalOrderID *kernel.UUID,
	status Status,
	inputs []LineItemInput,
	now time.Time,
) (*Order, error) {
	if len(inputs) == 0 {
		return nil, errs.NewValueIsRequiredError("line items")
	}

	items := make([]LineItemSnapshot, 0, len(inputs))
	total := kernel.ZeroMoney()
	var itemErrs []error
	for _, in := range inputs {
		li, err := newLineItem(in)
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		items = append(items, li.Snapshot())
		total = total.Add(li.Subtotal())
	}
	if err := errors.Join(itemErrs...); err != nil {
		return nil, err
	}

	return RestoreOrder(Snapshot{
		ID:              id,
		OrderedBy:       orderedBy,
		Buyer:           buyer,
		Status:          status,
		PaymentStatus:   PaymentUnpaid,
		PaymentMethod:   method,
		Kind:            kind,
		OriginalOrderID: originalOrderID,
		Items:           items,
		Total:           total,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// RestoreOrder rebuilds an order from storage.
func RestoreOrder(s Snapshot) (*Order, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.OrderedBy.Validate(),
		s.Buyer.Validate(),
		s.Status.Validate(),
		s.PaymentStatus.Validate(),
		s.PaymentMethod.Validate(),
		s.Kind.Validate(),
		s.Total.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Kind != KindStandard && s.OriginalOrderID == nil {
		return nil, errs.NewValueIsRequiredError("original order id")
	}

	items := make([]*LineItem, 0, len(s.Items))
	sum := kernel.ZeroMoney()
	for _, is := range s.Items {
		li, err := restoreLineItem(is)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
		sum = sum.Add(li.Subtotal())
	}
	if !sum.IsEqual(s.Total) {
		return nil, errs.NewValueIsInvalidErrorWithCause("order total",
			fmt.Errorf("total %s does not match line items %s", s.Total, sum))
	}

	return &Order{
		id:              s.ID,
		orderedBy:       s.OrderedBy,
		buyer:           s.Buyer,
		status:          s.Status,
		paymentStatus:   s.PaymentStatus,
		paymentMethod:   s.PaymentMethod,
		kind:            s.Kind,
		originalOrderID: copyID(s.OriginalOrderID),
		items:           items,
		total:           s.Total,
		invoiceNumber:   s.InvoiceNumber,
		trackingCode:    s.TrackingCode,
		pendingCourier:  s.PendingCourierConfirmation,
		notes:           slices.Clone(s.Notes),
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		isConstructed:   true,
	}, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) Snapshot() Snapshot {
	items := make([]LineItemSnapshot, 0, len(o.items))
	for _, li := range o.items {
		items = append(items, li.Snapshot())
	}
	return Snapshot{
		ID:                         o.id,
		OrderedBy:                  o.orderedBy,
		Buyer:                      o.buyer,
		Status:                     o.status,
		PaymentStatus:              o.paymentStatus,
		PaymentMethod:              o.paymentMethod,
		Kind:                       o.kind,
		OriginalOrderID:            copyID(o.originalOrderID),
		Items:                      items,
		Total:                      o.total,
		InvoiceNumber:              o.invoiceNumber,
		TrackingCode:               o.trackingCode,
		PendingCourierConfirmation: o.pendingCourier,
		Notes:                      slices.Clone(o.notes),
		CreatedAt:                  o.createdAt,
		UpdatedAt:                  o.updatedAt,
	}
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) OrderedBy() OrderedBy {
	return o.orderedBy
}

func (o *Order) Buyer() Buyer {
	return o.buyer
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

func (o *Order) PaymentMethod() PaymentMethod {
	return o.paymentMethod
}

func (o *Order) Kind() Kind {
	return o.kind
}

func (o *Order) OriginalOrderID() *kernel.UUID {
	return copyID(o.originalOrderID)
}

func (o *Order) LineItems() []*LineItem {
	return slices.Clone(o.items)
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) InvoiceNumber() string {
	return o.invoiceNumber
}

func (o *Order) TrackingCode() string {
	return o.trackingCode
}

// PendingCourierConfirmation is set when a courier transfer timed out and its outcome is
// unknown.
func (o *Order) PendingCourierConfirmation() bool {
	return o.pendingCourier
}

func (o *Order) AdminNotes() []AdminNote {
	return slices.Clone(o.notes)
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// TotalQuantity is the number of units across all line items.
func (o *Order) TotalQuantity() int {
	n := 0
	for _, li := range o.items {
		n += li.quantity
	}
	return n
}

// LineItem looks up a line item by id.
func (o *Order) LineItem(id kernel.UUID) (*LineItem, error) {
	for _, li := range o.items {
		if li.id.IsEqual(id) {
			return li, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("lineItemId", id.String())
}

// TransitionTo moves the order to target. The note, when given, is kept as an admin note
// tagged with the new status.
func (o *Order) TransitionTo(target Status, actor kernel.Actor, note string, now time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	next, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}
	if next == Placed {
		if err := o.checkPlaceable(); err != nil {
			return err
		}
	}

	from := o.status
	o.status = next
	o.updatedAt = now
	if strings.TrimSpace(note) != "" {
		o.appendNote(actor, note, now)
	}
	o.events = append(o.events, newStatusChangedEvent(o, from, actor, now))
	return nil
}

func (o *Order) checkPlaceable() error {
	if o.invoiceNumber == "" {
		return errs.NewValueIsRequiredErrorWithCause("invoice number",
			errors.New("an order is placed only with an invoice number"))
	}
	if !o.kind.NeedsStock() {
		return nil
	}
	for _, li := range o.items {
		if li.reservationState != ReservationReserved {
			return errs.NewValueIsInvalidErrorWithCause("line item reservation",
				fmt.Errorf("line item %s is %s", li.id, li.reservationState))
		}
	}
	return nil
}

// AddAdminNote appends a note without changing the status.
func (o *Order) AddAdminNote(actor kernel.Actor, note string, now time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(note) == "" {
		return errs.NewValueIsRequiredError("note")
	}
	o.appendNote(actor, note, now)
	o.updatedAt = now
	return nil
}

func (o *Order) appendNote(actor kernel.Actor, note string, now time.Time) {
	o.notes = append(o.notes, AdminNote{
		Author: actor.Name(),
		Role:   actor.Role(),
		Status: o.status,
		Note:   strings.TrimSpace(note),
		Date:   now,
	})
}

// AssignInvoiceNumber sets the invoice number. A second assignment fails with
// ErrDuplicateInvoice.
func (o *Order) AssignInvoiceNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errs.NewValueIsRequiredError("invoice number")
	}
	if o.invoiceNumber != "" {
		return fmt.Errorf("%w: order %s already has %s", ErrDuplicateInvoice, o.id, o.invoiceNumber)
	}
	o.invoiceNumber = number
	return nil
}

// SetTrackingCode stores the courier tracking code and clears the pending confirmation
// marker. A different code than the stored one is rejected.
func (o *Order) SetTrackingCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errs.NewValueIsRequiredError("tracking code")
	}
	if o.trackingCode != "" && o.trackingCode != code {
		return errs.NewValueIsInvalidErrorWithCause("tracking code",
			fmt.Errorf("order %s already has tracking code %s", o.id, o.trackingCode))
	}
	o.trackingCode = code
	o.pendingCourier = false
	return nil
}

// MarkPendingCourierConfirmation flags an order whose courier transfer outcome is unknown.
func (o *Order) MarkPendingCourierConfirmation(reason string, now time.Time) {
	o.pendingCourier = true
	o.appendNote(kernel.SystemActor, "courier confirmation pending: "+reason, now)
	o.updatedAt = now
}

// SetPaymentStatus records a payment result. It reports false when nothing changed.
// A settled payment (paid, refunded) is not overwritten by a late failure.
func (o *Order) SetPaymentStatus(status PaymentStatus, now time.Time) (bool, error) {
	if err := status.Validate(); err != nil {
		return false, err
	}
	if o.paymentStatus == status {
		return false, nil
	}
	switch {
	case status == PaymentRefunded && o.paymentStatus != PaymentPaid,
		status == PaymentFailed && o.paymentStatus != PaymentUnpaid,
		status == PaymentPaid && o.paymentStatus == PaymentRefunded,
		status == PaymentUnpaid:
		return false, errs.NewValueIsInvalidErrorWithCause("payment status",
			fmt.Errorf("%s cannot follow %s", status, o.paymentStatus))
	}
	o.paymentStatus = status
	o.updatedAt = now
	return true, nil
}

// MarkLineItemReserved stores the lot splits granted for a line item.
func (o *Order) MarkLineItemReserved(lineItemID kernel.UUID, splits []stock.Split) error {
	li, err := o.LineItem(lineItemID)
	if err != nil {
		return err
	}
	if li.reservationState == ReservationReserved || li.reservationState == ReservationCommitted {
		return errs.NewValueIsInvalidErrorWithCause("line item reservation",
			fmt.Errorf("line item %s is already %s", li.id, li.reservationState))
	}
	if got := allocated(splits); got != li.quantity {
		return errs.NewValueIsInvalidErrorWithCause("line item allocations",
			fmt.Errorf("splits cover %d of %d", got, li.quantity))
	}
	li.allocations = slices.Clone(splits)
	li.reservationState = ReservationReserved
	return nil
}

// MarkLineItemCommitted records that the reserved stock left the warehouse for good.
func (o *Order) MarkLineItemCommitted(lineItemID kernel.UUID) error {
	return o.moveReservation(lineItemID, ReservationCommitted)
}

// MarkLineItemReleased records that the reserved stock went back to available.
func (o *Order) MarkLineItemReleased(lineItemID kernel.UUID) error {
	if err := o.moveReservation(lineItemID, ReservationReleased); err != nil {
		return err
	}
	li, _ := o.LineItem(lineItemID)
	li.barcodes = nil
	return nil
}

func (o *Order) moveReservation(lineItemID kernel.UUID, target ReservationState) error {
	li, err := o.LineItem(lineItemID)
	if err != nil {
		return err
	}
	if li.reservationState == target {
		return nil
	}
	if li.reservationState != ReservationReserved {
		return errs.NewValueIsInvalidErrorWithCause("line item reservation",
			fmt.Errorf("line item %s is %s, not reserved", li.id, li.reservationState))
	}
	li.reservationState = target
	return nil
}

// AssignBarcodes binds picked units to a line item. Their number must match the quantity.
func (o *Order) AssignBarcodes(lineItemID kernel.UUID, codes []string) error {
	li, err := o.LineItem(lineItemID)
	if err != nil {
		return err
	}
	if len(codes) != li.quantity {
		return errs.NewValueIsInvalidErrorWithCause("line item barcodes",
			fmt.Errorf("%d barcodes for quantity %d", len(codes), li.quantity))
	}
	li.barcodes = slices.Clone(codes)
	return nil
}

// Barcodes lists every unit assigned to the order.
func (o *Order) Barcodes() []string {
	var codes []string
	for _, li := range o.items {
		codes = append(codes, li.barcodes...)
	}
	return codes
}

// PullDomainEvents returns and clears the recorded events.
func (o *Order) PullDomainEvents() []kernel.DomainEvent {
	events := o.events
	o.events = nil
	return events
}
