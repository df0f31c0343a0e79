package order_test

import (
	"time"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
)

var (
	now   = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	buyer = order.Buyer{Name: "Rahim Uddin", Phone: "+8801700000000", Address: "House 12, Road 4, Dhaka"}
	dhaka = kernel.MustNewLocation("DHK-01")
)

func lineInput(qty int, price string) order.LineItemInput {
	return order.LineItemInput{
		ProductID: kernel.NewUUID(),
		VariantID: kernel.NewUUID(),
		Location:  dhaka,
		Quantity:  qty,
		UnitPrice: kernel.MustMoney(price),
	}
}

// restoreOrderIn builds a placeable order (invoice set, every line reserved) in status.
func restoreOrderIn(status order.Status) (*order.Order, error) {
	id := kernel.NewUUID()
	return order.RestoreOrder(order.Snapshot{
		ID:            id,
		OrderedBy:     order.OrderedByUser,
		Buyer:         buyer,
		Status:        status,
		PaymentStatus: order.PaymentUnpaid,
		PaymentMethod: order.PaymentCOD,
		Kind:          order.KindStandard,
		Items: []order.LineItemSnapshot{{
			ID:               kernel.NewUUID(),
			ProductID:        kernel.NewUUID(),
			VariantID:        kernel.NewUUID(),
			Location:         dhaka,
			Quantity:         2,
			UnitPrice:        kernel.MustMoney("450.00"),
			ReservationState: order.ReservationReserved,
			Allocations: []stock.Split{
				{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 2},
			},
			ReturnCondition: barcode.ConditionNew,
		}},
		Total:         kernel.MustMoney("900.00"),
		InvoiceNumber: "INV-2026-000001-" + id.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
