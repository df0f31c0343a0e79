package fulfillment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T, client ports.CourierClient) *fulfillment.CourierHandoffCoordinator {
	t.Helper()
	c, err := fulfillment.NewCourierHandoffCoordinator(client, &guardStub{seen: make(map[string]bool)},
		fulfillment.CourierConfig{Timeout: 50 * time.Millisecond, MaxAttempts: 3},
		fulfillment.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	require.NoError(t, err)
	return c
}

func codOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), buyer, order.OrderedByUser, order.PaymentCOD,
		[]order.LineItemInput{{
			ProductID: kernel.NewUUID(),
			VariantID: kernel.NewUUID(),
			Location:  dhaka,
			Quantity:  2,
			UnitPrice: kernel.MustMoney("450.00"),
		}}, now)
	require.NoError(t, err)
	require.NoError(t, o.AssignInvoiceNumber("INV-2026-000001-"+o.ID().String()))
	return o
}

func TestCourierHandoffCoordinator_Transfer(t *testing.T) {
	t.Run("retries failed attempts", func(t *testing.T) {
		client := &courierClientMock{}
		o := codOrder(t)
		client.On("CreateOrder", mock.Anything, mock.Anything).
			Return("", &ports.CourierHTTPError{StatusCode: 502, Body: "bad gateway"}).Twice()
		client.On("CreateOrder", mock.Anything, mock.MatchedBy(func(s ports.CourierShipment) bool {
			return s.InvoiceNumber == o.InvoiceNumber() &&
				s.CODAmount.IsEqual(kernel.MustMoney("900.00")) &&
				s.ItemCount == 2 &&
				s.RecipientPhone == buyer.Phone
		})).Return("TRK-1", nil).Once()

		code, err := newCoordinator(t, client).Transfer(t.Context(), o)

		require.NoError(t, err)
		assert.Equal(t, "TRK-1", code)
		client.AssertNumberOfCalls(t, "CreateOrder", 3)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		client := &courierClientMock{}
		cause := errors.New("connection refused")
		client.On("CreateOrder", mock.Anything, mock.Anything).Return("", cause)

		_, err := newCoordinator(t, client).Transfer(t.Context(), codOrder(t))

		var unavailable *ports.CourierUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, 3, unavailable.Attempts)
		assert.False(t, unavailable.Timeout)
		require.ErrorIs(t, err, ports.ErrCourierUnavailable)
		require.ErrorIs(t, err, cause)
		client.AssertNumberOfCalls(t, "CreateOrder", 3)
	})

	t.Run("timeout is not retried", func(t *testing.T) {
		client := &courierClientMock{}
		client.On("CreateOrder", mock.Anything, mock.Anything).Return("", ports.ErrCourierTimeout)

		_, err := newCoordinator(t, client).Transfer(t.Context(), codOrder(t))

		var unavailable *ports.CourierUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.True(t, unavailable.Timeout)
		assert.Equal(t, 1, unavailable.Attempts)
		client.AssertNumberOfCalls(t, "CreateOrder", 1)
	})

	t.Run("attempt deadline counts as timeout", func(t *testing.T) {
		client := &courierClientMock{}
		client.On("CreateOrder", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return("", context.DeadlineExceeded)

		_, err := newCoordinator(t, client).Transfer(t.Context(), codOrder(t))

		var unavailable *ports.CourierUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.True(t, unavailable.Timeout)
		client.AssertNumberOfCalls(t, "CreateOrder", 1)
	})

	t.Run("paid orders carry no cash on delivery", func(t *testing.T) {
		client := &courierClientMock{}
		o := codOrder(t)
		_, err := o.SetPaymentStatus(order.PaymentPaid, now)
		require.NoError(t, err)
		client.On("CreateOrder", mock.Anything, mock.MatchedBy(func(s ports.CourierShipment) bool {
			return s.CODAmount.IsZero()
		})).Return("TRK-2", nil).Once()

		_, err = newCoordinator(t, client).Transfer(t.Context(), o)
		require.NoError(t, err)
	})
}

func TestMapCourierStatus(t *testing.T) {
	tests := []struct {
		courier ports.CourierStatus
		want    order.Status
		ok      bool
	}{
		{ports.CourierPending, order.StatusUndefined, false},
		{ports.CourierPickedUp, order.InTransit, true},
		{ports.CourierInTransit, order.InTransit, true},
		{ports.CourierDelivered, order.Delivered, true},
		{ports.CourierReturnPending, order.PendingReturn, true},
		{ports.CourierReturned, order.PendingReturn, true},
		{ports.CourierLost, order.Lost, true},
		{ports.CourierCancelled, order.StatusUndefined, false},
		{ports.CourierStatusUnknown, order.StatusUndefined, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.courier), func(t *testing.T) {
			got, ok := fulfillment.MapCourierStatus(tt.courier)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCourierHandoffCoordinator_RecordScan(t *testing.T) {
	c := newCoordinator(t, &courierClientMock{})

	target, first, err := c.RecordScan(t.Context(), fulfillment.ScanHandover, " TRK-9 ")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, order.InTransit, target)

	_, first, err = c.RecordScan(t.Context(), fulfillment.ScanHandover, "TRK-9")
	require.NoError(t, err)
	assert.False(t, first)

	target, first, err = c.RecordScan(t.Context(), fulfillment.ScanReturn, "TRK-9")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, order.PendingReturn, target)

	_, _, err = c.RecordScan(t.Context(), fulfillment.ScanKind("weigh"), "TRK-9")
	require.Error(t, err)
	_, _, err = c.RecordScan(t.Context(), fulfillment.ScanHandover, "  ")
	require.Error(t, err)
}
