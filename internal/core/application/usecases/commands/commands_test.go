package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dhaka = kernel.MustNewLocation("DHK-01")

func mustActor(t *testing.T) kernel.Actor {
	t.Helper()
	actor, err := kernel.NewActor("Karim", kernel.RoleWarehouse)
	require.NoError(t, err)
	return actor
}

func checkout() commands.OrderDetails {
	return commands.OrderDetails{
		OrderID:       kernel.NewUUID(),
		Buyer:         order.Buyer{Name: "Rahim Uddin", Phone: "+8801700000000", Address: "House 12, Road 4"},
		OrderedBy:     order.OrderedByUser,
		PaymentMethod: order.PaymentCOD,
		Items:         []fulfillment.ItemRequest{{VariantID: kernel.NewUUID(), Location: dhaka, Quantity: 2}},
	}
}

func TestNewPlaceOrderCommand(t *testing.T) {
	actor := mustActor(t)

	t.Run("valid checkout", func(t *testing.T) {
		details := checkout()
		cmd, err := commands.NewPlaceOrderCommand(details, actor)
		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, details.OrderID, cmd.Details().OrderID)
		assert.Equal(t, actor, cmd.Actor())
	})

	t.Run("items are copied", func(t *testing.T) {
		details := checkout()
		cmd, err := commands.NewPlaceOrderCommand(details, actor)
		require.NoError(t, err)

		details.Items[0].Quantity = 99
		assert.Equal(t, 2, cmd.Details().Items[0].Quantity)
	})

	t.Run("no items", func(t *testing.T) {
		details := checkout()
		details.Items = nil
		_, err := commands.NewPlaceOrderCommand(details, actor)
		require.ErrorIs(t, err, commands.ErrItemsAreRequired)
	})

	t.Run("zero quantity", func(t *testing.T) {
		details := checkout()
		details.Items[0].Quantity = 0
		_, err := commands.NewPlaceOrderCommand(details, actor)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("missing buyer phone", func(t *testing.T) {
		details := checkout()
		details.Buyer.Phone = " "
		_, err := commands.NewPlaceOrderCommand(details, actor)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("invalid order id", func(t *testing.T) {
		details := checkout()
		details.OrderID = kernel.UUID{}
		_, err := commands.NewPlaceOrderCommand(details, actor)
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("missing actor", func(t *testing.T) {
		_, err := commands.NewPlaceOrderCommand(checkout(), kernel.Actor{})
		require.Error(t, err)
	})

	t.Run("literal is not constructed", func(t *testing.T) {
		require.ErrorIs(t, commands.PlaceOrderCommand{}.Validate(), commands.ErrPlaceOrderCommandIsNotConstructed)
	})
}

func TestNewUpdateOrderStatusCommand(t *testing.T) {
	actor := mustActor(t)
	id := kernel.NewUUID()

	cmd, err := commands.NewUpdateOrderStatusCommand(id, order.Accepted, actor, "  picked  ")
	require.NoError(t, err)
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, order.Accepted, cmd.Target())
	assert.Equal(t, "picked", cmd.Note())

	_, err = commands.NewUpdateOrderStatusCommand(id, order.StatusUndefined, actor, "")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewUpdateOrderStatusBulkCommand(t *testing.T) {
	actor := mustActor(t)

	_, err := commands.NewUpdateOrderStatusBulkCommand(nil, order.Cancelled, actor, "")
	require.ErrorIs(t, err, commands.ErrOrderIDsAreRequired)

	_, err = commands.NewUpdateOrderStatusBulkCommand([]kernel.UUID{kernel.NewUUID(), {}}, order.Cancelled, actor, "")
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

	ids := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}
	cmd, err := commands.NewUpdateOrderStatusBulkCommand(ids, order.Cancelled, actor, "")
	require.NoError(t, err)
	assert.Equal(t, ids, cmd.OrderIDs())
}

func TestNewPlaceExchangeOrReturnOrderCommand(t *testing.T) {
	actor := mustActor(t)
	item := fulfillment.DerivedItemRequest{
		OriginalLineItemID: kernel.NewUUID(),
		Barcodes:           []string{"2000000000015"},
		Condition:          barcode.ConditionNew,
	}

	t.Run("return order", func(t *testing.T) {
		cmd, err := commands.NewPlaceExchangeOrReturnOrderCommand(
			kernel.NewUUID(), kernel.NewUUID(), order.KindReturn, []fulfillment.DerivedItemRequest{item}, actor)
		require.NoError(t, err)
		assert.Equal(t, order.KindReturn, cmd.Kind())
	})

	t.Run("standard kind is rejected", func(t *testing.T) {
		_, err := commands.NewPlaceExchangeOrReturnOrderCommand(
			kernel.NewUUID(), kernel.NewUUID(), order.KindStandard, []fulfillment.DerivedItemRequest{item}, actor)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("item without barcodes", func(t *testing.T) {
		empty := item
		empty.Barcodes = nil
		_, err := commands.NewPlaceExchangeOrReturnOrderCommand(
			kernel.NewUUID(), kernel.NewUUID(), order.KindExchange, []fulfillment.DerivedItemRequest{empty}, actor)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unknown condition", func(t *testing.T) {
		bad := item
		bad.Condition = "soaked"
		_, err := commands.NewPlaceExchangeOrReturnOrderCommand(
			kernel.NewUUID(), kernel.NewUUID(), order.KindExchange, []fulfillment.DerivedItemRequest{bad}, actor)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewProcessBarcodesCommand(t *testing.T) {
	actor := mustActor(t)

	cmd, err := commands.NewProcessBarcodesCommand(kernel.NewUUID(), ports.ReconciliationPick,
		[]string{" 2000000000015 ", "", "2000000000022"}, actor)
	require.NoError(t, err)
	assert.Equal(t, []string{"2000000000015", "2000000000022"}, cmd.Scanned())

	_, err = commands.NewProcessBarcodesCommand(kernel.NewUUID(), "audit", nil, actor)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewHandlePaymentResultCommand(t *testing.T) {
	cmd, err := commands.NewHandlePaymentResultCommand(kernel.NewUUID(), fulfillment.PaymentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.PaymentConfirmed, cmd.Result())

	_, err = commands.NewHandlePaymentResultCommand(kernel.NewUUID(), "refunded")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewReceiveLotCommand(t *testing.T) {
	receipt := commands.LotReceipt{
		LotID:       kernel.NewUUID(),
		ProductID:   kernel.NewUUID(),
		VariantID:   kernel.NewUUID(),
		Location:    dhaka,
		Quantity:    12,
		CostPerUnit: kernel.MustMoney("85.50"),
	}

	cmd, err := commands.NewReceiveLotCommand(receipt)
	require.NoError(t, err)
	assert.Equal(t, receipt.LotID, cmd.LotID())
	assert.Equal(t, 12, cmd.Quantity())

	receipt.Quantity = 0
	_, err = commands.NewReceiveLotCommand(receipt)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	receipt.Quantity = 3
	receipt.ReceivedAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expired := receipt.ReceivedAt.Add(-time.Hour)
	receipt.ExpiryDate = &expired
	_, err = commands.NewReceiveLotCommand(receipt)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewGenerateBarcodesCommand(t *testing.T) {
	actor := mustActor(t)

	cmd, err := commands.NewGenerateBarcodesCommand(kernel.NewUUID(), kernel.NewUUID(), "TS-RED-M", 5, nil, actor)
	require.NoError(t, err)
	assert.Equal(t, 5, cmd.Count())

	_, err = commands.NewGenerateBarcodesCommand(kernel.NewUUID(), kernel.NewUUID(), "", 5, nil, actor)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = commands.NewGenerateBarcodesCommand(kernel.NewUUID(), kernel.NewUUID(), "TS-RED-M", 0, nil, actor)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	_, err = commands.NewBindBarcodesToLotCommand(kernel.NewUUID(), nil, actor)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewScanParcelCommand(t *testing.T) {
	actor := mustActor(t)

	cmd, err := commands.NewScanParcelCommand(fulfillment.ScanHandover, " SF123 ", actor)
	require.NoError(t, err)
	assert.Equal(t, "SF123", cmd.TrackingCode())

	_, err = commands.NewScanParcelCommand(fulfillment.ScanHandover, "  ", actor)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = commands.NewScanParcelCommand("weigh", "SF123", actor)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewSweepCommand(t *testing.T) {
	cmd, err := commands.NewSweepCommand(commands.DefaultSweepBatchSize)
	require.NoError(t, err)
	assert.Equal(t, commands.DefaultSweepBatchSize, cmd.BatchSize())

	_, err = commands.NewSweepCommand(0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	_, err = commands.NewSweepCommand(5000)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
