package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Run("should create a pending order with computed totals", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD,
			[]order.LineItemInput{lineInput(2, "450.00"), lineInput(1, "99.99")}, now)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.Equal(t, order.Pending, o.Status())
		assert.Equal(t, order.KindStandard, o.Kind())
		assert.Equal(t, order.PaymentUnpaid, o.PaymentStatus())
		assert.Equal(t, "999.99", o.Total().String())
		assert.Equal(t, 3, o.TotalQuantity())
		for _, li := range o.LineItems() {
			assert.Equal(t, order.ReservationNone, li.ReservationState())
		}
		assert.Empty(t, o.PullDomainEvents())
	})

	t.Run("should join every validation error", func(t *testing.T) {
		bad := lineInput(0, "10.00")
		var noID kernel.UUID

		o, err := order.NewOrder(noID, order.Buyer{}, "robot", order.PaymentCOD, []order.LineItemInput{bad}, now)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "quantity is invalid")
	})

	t.Run("should require line items", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD, nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestRestoreOrder_RejectsTotalMismatch(t *testing.T) {
	o, err := restoreOrderIn(order.Placed)
	require.NoError(t, err)
	snapshot := o.Snapshot()
	snapshot.Total = kernel.MustMoney("1.00")

	_, err = order.RestoreOrder(snapshot)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrder_Validate(t *testing.T) {
	var o *order.Order
	assert.Equal(t, order.ErrOrderIsNotConstructed, o.Validate())

	var zero order.Order
	assert.Equal(t, order.ErrOrderIsNotConstructed, zero.Validate())
}

func TestOrder_TransitionTo(t *testing.T) {
	admin, err := kernel.NewActor("ops-lead", kernel.RoleAdmin)
	require.NoError(t, err)

	t.Run("should keep the note tagged with the new status", func(t *testing.T) {
		o, err := restoreOrderIn(order.Placed)
		require.NoError(t, err)

		require.NoError(t, o.TransitionTo(order.Accepted, admin, "  picked by morning shift ", now))

		notes := o.AdminNotes()
		require.Len(t, notes, 1)
		assert.Equal(t, "picked by morning shift", notes[0].Note)
		assert.Equal(t, order.Accepted, notes[0].Status)
		assert.Equal(t, kernel.RoleAdmin, notes[0].Role)
	})

	t.Run("in transit orders cannot go back to placed", func(t *testing.T) {
		o, err := restoreOrderIn(order.InTransit)
		require.NoError(t, err)

		err = o.TransitionTo(order.Placed, admin, "", now)

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.InTransit, o.Status())
		assert.Empty(t, o.AdminNotes())
	})

	t.Run("placing requires an invoice and reserved line items", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD,
			[]order.LineItemInput{lineInput(1, "10.00")}, now)
		require.NoError(t, err)

		require.ErrorIs(t, o.TransitionTo(order.Placed, admin, "", now), errs.ErrValueIsRequired)

		require.NoError(t, o.AssignInvoiceNumber("INV-2026-000007-"+o.ID().String()))
		require.ErrorIs(t, o.TransitionTo(order.Placed, admin, "", now), errs.ErrValueIsInvalid)

		li := o.LineItems()[0]
		require.NoError(t, o.MarkLineItemReserved(li.ID(), []stock.Split{
			{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 1},
		}))
		require.NoError(t, o.TransitionTo(order.Placed, admin, "", now))
		assert.Equal(t, order.Placed, o.Status())
	})
}

func TestOrder_AssignInvoiceNumber(t *testing.T) {
	o, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD,
		[]order.LineItemInput{lineInput(1, "10.00")}, now)
	require.NoError(t, err)

	require.NoError(t, o.AssignInvoiceNumber("INV-2026-000001-x"))
	err = o.AssignInvoiceNumber("INV-2026-000002-x")

	require.ErrorIs(t, err, order.ErrDuplicateInvoice)
	assert.Equal(t, "INV-2026-000001-x", o.InvoiceNumber())
}

func TestOrder_LineItemReservations(t *testing.T) {
	o, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD,
		[]order.LineItemInput{lineInput(5, "10.00")}, now)
	require.NoError(t, err)
	li := o.LineItems()[0]
	splits := []stock.Split{
		{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 3},
		{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 2},
	}

	require.Error(t, o.MarkLineItemReserved(li.ID(), splits[:1]))
	require.NoError(t, o.MarkLineItemReserved(li.ID(), splits))
	require.Error(t, o.MarkLineItemReserved(li.ID(), splits))

	require.NoError(t, o.MarkLineItemCommitted(li.ID()))
	require.NoError(t, o.MarkLineItemCommitted(li.ID()))
	require.Error(t, o.MarkLineItemReleased(li.ID()))

	stored, err := o.LineItem(li.ID())
	require.NoError(t, err)
	assert.Equal(t, order.ReservationCommitted, stored.ReservationState())
	assert.Equal(t, splits, stored.Allocations())
}

func TestOrder_SetTrackingCode(t *testing.T) {
	o, err := restoreOrderIn(order.RTS)
	require.NoError(t, err)
	o.MarkPendingCourierConfirmation("courier timed out", now)
	require.True(t, o.PendingCourierConfirmation())

	require.NoError(t, o.SetTrackingCode("TRK-1001"))
	require.NoError(t, o.SetTrackingCode("TRK-1001"))
	require.Error(t, o.SetTrackingCode("TRK-2002"))

	assert.False(t, o.PendingCourierConfirmation())
	assert.Equal(t, "TRK-1001", o.TrackingCode())
}

func TestOrder_SetPaymentStatus(t *testing.T) {
	o, err := restoreOrderIn(order.Pending)
	require.NoError(t, err)

	changed, err := o.SetPaymentStatus(order.PaymentPaid, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = o.SetPaymentStatus(order.PaymentPaid, now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = o.SetPaymentStatus(order.PaymentFailed, now)
	require.Error(t, err)
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus())
}

func TestNewDerivedOrder(t *testing.T) {
	original, err := restoreOrderIn(order.Delivered)
	require.NoError(t, err)
	originalLine := original.LineItems()[0]
	originalLineID := originalLine.ID()

	t.Run("return orders are recorded as returned", func(t *testing.T) {
		in := order.LineItemInput{
			ProductID:          originalLine.ProductID(),
			VariantID:          originalLine.VariantID(),
			Location:           dhaka,
			Quantity:           1,
			UnitPrice:          originalLine.UnitPrice(),
			OriginalLineItemID: &originalLineID,
			ReturnedBarcodes:   []string{"2000000000015"},
			ReturnCondition:    barcode.ConditionDamaged,
		}

		derived, err := order.NewDerivedOrder(kernel.NewUUID(), original, order.KindReturn, []order.LineItemInput{in}, now)

		require.NoError(t, err)
		assert.Equal(t, order.Returned, derived.Status())
		assert.True(t, derived.OriginalOrderID().IsEqual(original.ID()))
		assert.Equal(t, original.Buyer(), derived.Buyer())
		assert.Equal(t, barcode.ConditionDamaged, derived.LineItems()[0].ReturnCondition())
		assert.Len(t, derived.PullDomainEvents(), 1)
	})

	t.Run("exchange orders start pending", func(t *testing.T) {
		in := lineInput(1, "450.00")
		in.OriginalLineItemID = &originalLineID
		in.ReturnedBarcodes = []string{"2000000000015"}

		derived, err := order.NewDerivedOrder(kernel.NewUUID(), original, order.KindExchange, []order.LineItemInput{in}, now)

		require.NoError(t, err)
		assert.Equal(t, order.Pending, derived.Status())
		assert.True(t, derived.Kind().NeedsStock())
	})

	t.Run("every line must point at an original line item", func(t *testing.T) {
		stranger := kernel.NewUUID()
		in := lineInput(1, "450.00")
		in.OriginalLineItemID = &stranger
		in.ReturnedBarcodes = []string{"2000000000015"}

		_, err := order.NewDerivedOrder(kernel.NewUUID(), original, order.KindExchange, []order.LineItemInput{in}, now)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("standard kind is not derived", func(t *testing.T) {
		_, err := order.NewDerivedOrder(kernel.NewUUID(), original, order.KindStandard, nil, now)

		require.Error(t, err)
	})
}
