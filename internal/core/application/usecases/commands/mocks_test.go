package commands_test

import (
	"context"
	"time"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockUnitOfWork struct{ mock.Mock }

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUnitOfWork) Track(source kernel.EventSource) {
	m.Called(source)
}

func (m *MockUnitOfWork) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockUnitOfWork) LotRepository() ports.LotRepository {
	return m.Called().Get(0).(ports.LotRepository)
}

func (m *MockUnitOfWork) GlobalStockRepository() ports.GlobalStockRepository {
	return m.Called().Get(0).(ports.GlobalStockRepository)
}

func (m *MockUnitOfWork) ReservationRepository() ports.ReservationRepository {
	return m.Called().Get(0).(ports.ReservationRepository)
}

func (m *MockUnitOfWork) BarcodeUnitRepository() ports.BarcodeUnitRepository {
	return m.Called().Get(0).(ports.BarcodeUnitRepository)
}

func (m *MockUnitOfWork) CounterRepository() ports.CounterRepository {
	return m.Called().Get(0).(ports.CounterRepository)
}

func (m *MockUnitOfWork) OutboxRepository() ports.OutboxRepository {
	return m.Called().Get(0).(ports.OutboxRepository)
}

func (m *MockUnitOfWork) ReconciliationRepository() ports.ReconciliationRepository {
	return m.Called().Get(0).(ports.ReconciliationRepository)
}

type MockUnitOfWorkFactory struct{ mock.Mock }

func (m *MockUnitOfWorkFactory) Create() ports.UnitOfWork {
	return m.Called().Get(0).(ports.UnitOfWork)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByTrackingCode(ctx context.Context, code string) (*order.Order, error) {
	args := m.Called(ctx, code)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ListIDsByStatus(ctx context.Context, statuses []order.Status, limit int) ([]kernel.UUID, error) {
	args := m.Called(ctx, statuses, limit)
	ids, _ := args.Get(0).([]kernel.UUID)
	return ids, args.Error(1)
}

func (m *MockOrderRepository) ListIDsPendingCourierConfirmation(ctx context.Context, limit int) ([]kernel.UUID, error) {
	args := m.Called(ctx, limit)
	ids, _ := args.Get(0).([]kernel.UUID)
	return ids, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, messages ...ports.OutboxMessage) error {
	return m.Called(ctx, messages).Error(0)
}

func (m *MockOutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	messages, _ := args.Get(0).([]ports.OutboxMessage)
	return messages, args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	return m.Called(ctx, ids, at).Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, messages []ports.OutboxMessage) error {
	return m.Called(ctx, messages).Error(0)
}

type MockOrderLifecycle struct{ mock.Mock }

func (m *MockOrderLifecycle) PlaceOrder(
	ctx context.Context,
	tx fulfillment.Tx,
	req fulfillment.PlaceOrderRequest,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, req))
}

func (m *MockOrderLifecycle) SaveIncompleteOrder(
	ctx context.Context,
	tx fulfillment.Tx,
	req fulfillment.SaveIncompleteOrderRequest,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, req))
}

func (m *MockOrderLifecycle) HandlePaymentResult(
	ctx context.Context,
	tx fulfillment.Tx,
	orderID kernel.UUID,
	result fulfillment.PaymentResult,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, orderID, result))
}

func (m *MockOrderLifecycle) RetryBackorder(ctx context.Context, tx fulfillment.Tx, orderID kernel.UUID) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, orderID))
}

func (m *MockOrderLifecycle) PlaceExchangeOrReturnOrder(
	ctx context.Context,
	tx fulfillment.Tx,
	req fulfillment.DerivedOrderRequest,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, req))
}

func (m *MockOrderLifecycle) UpdateStatus(
	ctx context.Context,
	tx fulfillment.Tx,
	orderID kernel.UUID,
	target order.Status,
	actor kernel.Actor,
	note string,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, orderID, target, actor, note))
}

func (m *MockOrderLifecycle) ProcessOrderBarcodes(
	ctx context.Context,
	tx fulfillment.Tx,
	orderID kernel.UUID,
	scanned []string,
	actor kernel.Actor,
) (services.Reconciliation, error) {
	args := m.Called(ctx, tx, orderID, scanned, actor)
	return args.Get(0).(services.Reconciliation), args.Error(1)
}

func (m *MockOrderLifecycle) ProcessReturnBarcodes(
	ctx context.Context,
	tx fulfillment.Tx,
	orderID kernel.UUID,
	scanned []string,
	actor kernel.Actor,
) (services.Reconciliation, error) {
	args := m.Called(ctx, tx, orderID, scanned, actor)
	return args.Get(0).(services.Reconciliation), args.Error(1)
}

func (m *MockOrderLifecycle) ScanToHandover(
	ctx context.Context,
	tx fulfillment.Tx,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, trackingCode, actor))
}

func (m *MockOrderLifecycle) ScanToReturn(
	ctx context.Context,
	tx fulfillment.Tx,
	trackingCode string,
	actor kernel.Actor,
) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, trackingCode, actor))
}

func (m *MockOrderLifecycle) ReconcileCourier(ctx context.Context, tx fulfillment.Tx, orderID kernel.UUID) (*order.Order, error) {
	return m.order(m.Called(ctx, tx, orderID))
}

func (m *MockOrderLifecycle) order(args mock.Arguments) (*order.Order, error) {
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockStockReceiver struct{ mock.Mock }

func (m *MockStockReceiver) ReceiveLot(ctx context.Context, tx fulfillment.Tx, lot *stock.Lot) error {
	return m.Called(ctx, tx, lot).Error(0)
}

type MockBarcodeIssuer struct{ mock.Mock }

func (m *MockBarcodeIssuer) GenerateBatch(
	ctx context.Context,
	tx fulfillment.Tx,
	req fulfillment.GenerateBatchRequest,
	actor kernel.Actor,
) ([]*barcode.Unit, error) {
	args := m.Called(ctx, tx, req, actor)
	units, _ := args.Get(0).([]*barcode.Unit)
	return units, args.Error(1)
}

func (m *MockBarcodeIssuer) BindToLot(
	ctx context.Context,
	tx fulfillment.Tx,
	lotID kernel.UUID,
	codes []string,
	actor kernel.Actor,
) error {
	return m.Called(ctx, tx, lotID, codes, actor).Error(0)
}

// newUoW returns a factory handing out uow once, with Begin and Rollback expected.
func newUoW(uow *MockUnitOfWork) *MockUnitOfWorkFactory {
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	return factory
}
