// Package commands contains business operations that modify system state.
// Every handler opens its own unit of work, delegates the business rules to the
// fulfillment engines and commits. A RecordedFailureError from an engine is committed
// before it is returned, any other error rolls the unit of work back.
package commands

import (
	"context"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/domain/services"
)

// Engine interfaces let handlers be tested without the real engines.
// *fulfillment.OrderLifecycleManager, *fulfillment.StockReservationEngine and
// *fulfillment.BarcodeUnitRegistry satisfy them.
type (
	// OrderLifecycle applies order status changes and their side effects.
	OrderLifecycle interface {
		PlaceOrder(ctx context.Context, tx fulfillment.Tx, req fulfillment.PlaceOrderRequest) (*order.Order, error)
		SaveIncompleteOrder(
			ctx context.Context,
			tx fulfillment.Tx,
			req fulfillment.SaveIncompleteOrderRequest,
		) (*order.Order, error)
		HandlePaymentResult(
			ctx context.Context,
			tx fulfillment.Tx,
			orderID kernel.UUID,
			result fulfillment.PaymentResult,
		) (*order.Order, error)
		RetryBackorder(ctx context.Context, tx fulfillment.Tx, orderID kernel.UUID) (*order.Order, error)
		PlaceExchangeOrReturnOrder(
			ctx context.Context,
			tx fulfillment.Tx,
			req fulfillment.DerivedOrderRequest,
		) (*order.Order, error)
		UpdateStatus(
			ctx context.Context,
			tx fulfillment.Tx,
			orderID kernel.UUID,
			target order.Status,
			actor kernel.Actor,
			note string,
		) (*order.Order, error)
		ProcessOrderBarcodes(
			ctx context.Context,
			tx fulfillment.Tx,
			orderID kernel.UUID,
			scanned []string,
			actor kernel.Actor,
		) (services.Reconciliation, error)
		ProcessReturnBarcodes(
			ctx context.Context,
			tx fulfillment.Tx,
			orderID kernel.UUID,
			scanned []string,
			actor kernel.Actor,
		) (services.Reconciliation, error)
		ScanToHandover(ctx context.Context, tx fulfillment.Tx, trackingCode string, actor kernel.Actor) (*order.Order, error)
		ScanToReturn(ctx context.Context, tx fulfillment.Tx, trackingCode string, actor kernel.Actor) (*order.Order, error)
		ReconcileCourier(ctx context.Context, tx fulfillment.Tx, orderID kernel.UUID) (*order.Order, error)
	}

	// StockReceiver books incoming lots.
	StockReceiver interface {
		ReceiveLot(ctx context.Context, tx fulfillment.Tx, lot *stock.Lot) error
	}

	// BarcodeIssuer generates barcode units and binds them to lots.
	BarcodeIssuer interface {
		GenerateBatch(
			ctx context.Context,
			tx fulfillment.Tx,
			req fulfillment.GenerateBatchRequest,
			actor kernel.Actor,
		) ([]*barcode.Unit, error)
		BindToLot(ctx context.Context, tx fulfillment.Tx, lotID kernel.UUID, codes []string, actor kernel.Actor) error
	}
)
