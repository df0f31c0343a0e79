package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.uber.org/zap"
)

// ItemRequest is one requested line. Product and price come from the catalog.
type ItemRequest struct {
	VariantID kernel.UUID
	Location  kernel.Location
	Quantity  int
}

type PlaceOrderRequest struct {
	OrderID       kernel.UUID
	Buyer         order.Buyer
	OrderedBy     order.OrderedBy
	PaymentMethod order.PaymentMethod
	Items         []ItemRequest
	Actor         kernel.Actor
}

// PlaceOrder prices the items, reserves stock for every line and places the order with a
// fresh invoice number. When stock is short nothing stays reserved: the order is stored
// as awaiting_stock or failed, and the InsufficientStockError comes back wrapped in a
// RecordedFailureError together with the stored order.
func (m *OrderLifecycleManager) PlaceOrder(ctx context.Context, tx Tx, req PlaceOrderRequest) (*order.Order, error) {
	inputs, err := m.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	o, err := order.NewOrder(req.OrderID, req.Buyer, req.OrderedBy, req.PaymentMethod, inputs, m.clock())
	if err != nil {
		return nil, err
	}
	if err := tx.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	if err := m.place(ctx, tx, o, req.Actor); err != nil {
		return o, err
	}
	return o, nil
}

// place moves a pending or incomplete order to placed, falling back to awaiting_stock or
// failed on insufficient stock.
func (m *OrderLifecycleManager) place(ctx context.Context, tx Tx, o *order.Order, actor kernel.Actor) error {
	err := m.transition(ctx, tx, o, order.Placed, actor, "")
	var insufficient *stock.InsufficientStockError
	if !errors.As(err, &insufficient) {
		return err
	}

	fallback := order.Failed
	if m.cfg.BackorderOnInsufficientStock {
		// incomplete orders reach awaiting_stock through pending
		if o.Status() == order.Incomplete {
			if terr := m.transition(ctx, tx, o, order.Pending, kernel.SystemActor, ""); terr != nil {
				return errors.Join(err, terr)
			}
		}
		if o.Status().CanTransitionTo(order.AwaitingStock) {
			fallback = order.AwaitingStock
		}
	}
	m.logger.Info("order not placed, stock is short",
		zap.String("order_id", o.ID().String()),
		zap.String("status", fallback.String()),
		zap.Int("shortfall", insufficient.Shortfall()))

	if terr := m.transition(ctx, tx, o, fallback, kernel.SystemActor, insufficient.Error()); terr != nil {
		return errors.Join(err, terr)
	}
	return &RecordedFailureError{Err: err}
}

type SaveIncompleteOrderRequest struct {
	OrderID       kernel.UUID
	Buyer         order.Buyer
	OrderedBy     order.OrderedBy
	PaymentMethod order.PaymentMethod
	Items         []ItemRequest
}

// SaveIncompleteOrder stores a checkout draft at catalog prices without reserving stock.
func (m *OrderLifecycleManager) SaveIncompleteOrder(
	ctx context.Context,
	tx Tx,
	req SaveIncompleteOrderRequest,
) (*order.Order, error) {
	inputs, err := m.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	o, err := order.NewIncompleteOrder(req.OrderID, req.Buyer, req.OrderedBy, req.PaymentMethod, inputs, m.clock())
	if err != nil {
		return nil, err
	}
	if err := tx.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// PaymentResult is the outcome reported by the payment provider.
type PaymentResult string

const (
	PaymentConfirmed PaymentResult = "confirmed"
	PaymentFailed    PaymentResult = "failed"
)

func (r PaymentResult) Validate() error {
	switch r {
	case PaymentConfirmed, PaymentFailed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment result", fmt.Errorf("%q is not a payment result", string(r)))
	}
}

// HandlePaymentResult applies an online payment outcome. A confirmed payment places
// orders still in incomplete or pending; a failed one fails orders that have not been
// accepted yet. Repeated results change nothing and results for cash on delivery orders
// are ignored.
func (m *OrderLifecycleManager) HandlePaymentResult(
	ctx context.Context,
	tx Tx,
	orderID kernel.UUID,
	result PaymentResult,
) (*order.Order, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	o, err := tx.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod() == order.PaymentCOD {
		m.logger.Debug("payment result ignored for cash on delivery order", zap.String("order_id", orderID.String()))
		return o, nil
	}

	paymentStatus, target := order.PaymentPaid, order.Placed
	pending := []order.Status{order.Incomplete, order.Pending}
	if result == PaymentFailed {
		paymentStatus, target = order.PaymentFailed, order.Failed
		pending = append(pending, order.Placed)
	}

	changed, err := o.SetPaymentStatus(paymentStatus, m.clock())
	if err != nil {
		return o, err
	}

	switch {
	case slices.Contains(pending, o.Status()) && target == order.Placed:
		return o, m.place(ctx, tx, o, kernel.SystemActor)
	case slices.Contains(pending, o.Status()):
		return o, m.transition(ctx, tx, o, target, kernel.SystemActor, "payment failed")
	case changed:
		return o, tx.OrderRepository().Update(ctx, o)
	}
	return o, nil
}

// RetryBackorder tries to place an order parked in awaiting_stock. Orders in any other
// status are returned untouched; insufficient stock leaves the order parked.
func (m *OrderLifecycleManager) RetryBackorder(ctx context.Context, tx Tx, orderID kernel.UUID) (*order.Order, error) {
	o, err := tx.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status() != order.AwaitingStock {
		return o, nil
	}
	if err := m.transition(ctx, tx, o, order.Placed, kernel.SystemActor, "stock arrived"); err != nil {
		return o, err
	}
	return o, nil
}

// DerivedItemRequest names the units of one original line item that come back. For an
// exchange, ReplacementVariantID picks the variant sent instead; nil means the same one.
type DerivedItemRequest struct {
	OriginalLineItemID   kernel.UUID
	Barcodes             []string
	Condition            barcode.Condition
	ReplacementVariantID *kernel.UUID
}

type DerivedOrderRequest struct {
	OrderID         kernel.UUID
	OriginalOrderID kernel.UUID
	Kind            order.Kind
	Items           []DerivedItemRequest
	Actor           kernel.Actor
}

// PlaceExchangeOrReturnOrder records the units coming back from a delivered order. The
// units are returned and restocked by condition. A return order is stored as returned;
// an exchange order reserves its replacements, is placed, and moves the original to
// exchange_requested.
func (m *OrderLifecycleManager) PlaceExchangeOrReturnOrder(
	ctx context.Context,
	tx Tx,
	req DerivedOrderRequest,
) (*order.Order, error) {
	if err := req.Actor.Validate(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}

	original, err := tx.OrderRepository().GetForUpdate(ctx, req.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	if s := original.Status(); s != order.Delivered && s != order.ExchangeRequested {
		return nil, errs.NewValueIsInvalidErrorWithCause("original order",
			fmt.Errorf("order %s is %s, exchanges and returns need a delivered order", original.ID(), s))
	}

	inputs := make([]order.LineItemInput, 0, len(req.Items))
	returned := make([][]*barcode.Unit, 0, len(req.Items))
	seen := make(map[string]struct{})
	for _, item := range req.Items {
		units, err := m.returnableUnits(ctx, tx, original, item, seen)
		if err != nil {
			return nil, err
		}
		in, err := m.derivedInput(ctx, original, req.Kind, item)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
		returned = append(returned, units)
	}

	derived, err := order.NewDerivedOrder(req.OrderID, original, req.Kind, inputs, m.clock())
	if err != nil {
		return nil, err
	}
	if err := tx.OrderRepository().Add(ctx, derived); err != nil {
		return nil, err
	}
	tx.Track(derived)

	restock := make(map[kernel.UUID]int)
	for i, li := range derived.LineItems() {
		perLot, err := m.registry.ReturnUnits(ctx, tx, returned[i], li.ReturnCondition(), req.Actor)
		if err != nil {
			return nil, err
		}
		for lotID, n := range perLot {
			restock[lotID] += n
		}
	}
	if err := m.restock(ctx, tx, restock); err != nil {
		return nil, err
	}

	if req.Kind == order.KindReturn {
		if err := original.AddAdminNote(req.Actor, fmt.Sprintf("return order %s recorded", derived.ID()), m.clock()); err != nil {
			return nil, err
		}
		return derived, tx.OrderRepository().Update(ctx, original)
	}

	if err := m.transition(ctx, tx, derived, order.Placed, req.Actor, ""); err != nil {
		return nil, err
	}
	if original.Status() == order.Delivered {
		if err := m.transition(ctx, tx, original, order.ExchangeRequested, req.Actor,
			fmt.Sprintf("exchange order %s placed", derived.ID())); err != nil {
			return nil, err
		}
	}
	return derived, nil
}

// returnableUnits locks the listed units and checks that each one was sold as part of
// the original line item.
func (m *OrderLifecycleManager) returnableUnits(
	ctx context.Context,
	tx Tx,
	original *order.Order,
	item DerivedItemRequest,
	seen map[string]struct{},
) ([]*barcode.Unit, error) {
	if len(item.Barcodes) == 0 {
		return nil, errs.NewValueIsRequiredError("returned barcodes")
	}

	units := make([]*barcode.Unit, 0, len(item.Barcodes))
	for _, code := range item.Barcodes {
		if _, dup := seen[code]; dup {
			return nil, errs.NewValueIsInvalidErrorWithCause("returned barcode", fmt.Errorf("%s is listed twice", code))
		}
		seen[code] = struct{}{}

		u, err := tx.BarcodeUnitRepository().GetForUpdate(ctx, code)
		if err != nil {
			return nil, err
		}
		lineItemID := u.LineItemID()
		if !u.IsBoundTo(original.ID()) || lineItemID == nil || !lineItemID.IsEqual(item.OriginalLineItemID) {
			return nil, errs.NewValueIsInvalidErrorWithCause("returned barcode",
				fmt.Errorf("%s does not belong to line item %s of order %s", code, item.OriginalLineItemID, original.ID()))
		}
		if u.Status() != barcode.Sold {
			return nil, errs.NewValueIsInvalidErrorWithCause("returned barcode",
				fmt.Errorf("%s is %s, not sold", code, u.Status()))
		}
		units = append(units, u)
	}
	return units, nil
}

func (m *OrderLifecycleManager) derivedInput(
	ctx context.Context,
	original *order.Order,
	kind order.Kind,
	item DerivedItemRequest,
) (order.LineItemInput, error) {
	li, err := original.LineItem(item.OriginalLineItemID)
	if err != nil {
		return order.LineItemInput{}, err
	}
	originalLineItemID := li.ID()
	in := order.LineItemInput{
		ProductID:          li.ProductID(),
		VariantID:          li.VariantID(),
		Location:           li.Location(),
		Quantity:           len(item.Barcodes),
		UnitPrice:          li.UnitPrice(),
		OriginalLineItemID: &originalLineItemID,
		ReturnedBarcodes:   item.Barcodes,
		ReturnCondition:    item.Condition,
	}
	if kind != order.KindExchange || item.ReplacementVariantID == nil {
		return in, nil
	}

	variant, err := m.lookupVariant(ctx, *item.ReplacementVariantID)
	if err != nil {
		return order.LineItemInput{}, err
	}
	in.ProductID = variant.ProductID
	in.VariantID = variant.ID
	in.UnitPrice = variant.Price
	return in, nil
}

func (m *OrderLifecycleManager) priceItems(ctx context.Context, items []ItemRequest) ([]order.LineItemInput, error) {
	if len(items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}
	inputs := make([]order.LineItemInput, 0, len(items))
	for _, item := range items {
		variant, err := m.lookupVariant(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, order.LineItemInput{
			ProductID: variant.ProductID,
			VariantID: variant.ID,
			Location:  item.Location,
			Quantity:  item.Quantity,
			UnitPrice: variant.Price,
		})
	}
	return inputs, nil
}

func (m *OrderLifecycleManager) lookupVariant(ctx context.Context, variantID kernel.UUID) (ports.Variant, error) {
	variant, err := m.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return ports.Variant{}, fmt.Errorf("look up variant %s: %w", variantID, err)
	}
	if !variant.Exists {
		return ports.Variant{}, errs.NewObjectNotFoundError("variantId", variantID.String())
	}
	if !variant.Priceable {
		return ports.Variant{}, errs.NewValueIsInvalidErrorWithCause("variant",
			fmt.Errorf("variant %s cannot be priced", variantID))
	}
	if variant.ID.Validate() != nil {
		variant.ID = variantID
	}
	return variant, nil
}
