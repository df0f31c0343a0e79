package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	dhaka = kernel.MustNewLocation("DHK-01")
	buyer = order.Buyer{Name: "Rahim Uddin", Phone: "+8801700000000", Address: "House 12, Road 4, Dhaka"}
)

func fixedClock() time.Time { return now }

func mustActor(t *testing.T, name string, role kernel.Role) kernel.Actor {
	t.Helper()
	actor, err := kernel.NewActor(name, role)
	require.NoError(t, err)
	return actor
}

type catalogStub struct {
	mu       sync.Mutex
	variants map[kernel.UUID]ports.Variant
}

func (c *catalogStub) GetVariant(_ context.Context, variantID kernel.UUID) (ports.Variant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.variants[variantID]
	if !ok {
		return ports.Variant{ID: variantID}, nil
	}
	return v, nil
}

type courierClientMock struct {
	mock.Mock
}

func (m *courierClientMock) CreateOrder(ctx context.Context, shipment ports.CourierShipment) (string, error) {
	args := m.Called(ctx, shipment)
	return args.String(0), args.Error(1)
}

func (m *courierClientMock) GetStatus(ctx context.Context, trackingCode string) (ports.CourierStatus, error) {
	args := m.Called(ctx, trackingCode)
	return args.Get(0).(ports.CourierStatus), args.Error(1)
}

type guardStub struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *guardStub) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *guardStub) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}

// variant is a catalog entry used by a test.
type variant struct {
	productID kernel.UUID
	variantID kernel.UUID
	sku       string
}

type harness struct {
	factory     *memory.UnitOfWorkFactory
	catalog     *catalogStub
	courier     *courierClientMock
	engine      *fulfillment.StockReservationEngine
	registry    *fulfillment.BarcodeUnitRegistry
	coordinator *fulfillment.CourierHandoffCoordinator
	manager     *fulfillment.OrderLifecycleManager
	admin       kernel.Actor
}

func newHarness(t *testing.T, cfg fulfillment.LifecycleConfig) *harness {
	t.Helper()

	opts := []fulfillment.Option{
		fulfillment.WithClock(fixedClock),
		fulfillment.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	h := &harness{
		factory: memory.NewUnitOfWorkFactory(memory.NewStore()),
		catalog: &catalogStub{variants: make(map[kernel.UUID]ports.Variant)},
		courier: &courierClientMock{},
		engine:  fulfillment.NewStockReservationEngine(opts...),
		admin:   mustActor(t, "ops", kernel.RoleAdmin),
	}

	var err error
	h.registry, err = fulfillment.NewBarcodeUnitRegistry(fulfillment.DefaultBarcodePrefix, opts...)
	require.NoError(t, err)
	h.coordinator, err = fulfillment.NewCourierHandoffCoordinator(h.courier,
		&guardStub{seen: make(map[string]bool)}, fulfillment.CourierConfig{Timeout: time.Second}, opts...)
	require.NoError(t, err)
	invoices, err := fulfillment.NewInvoiceNumberAllocator("INV", opts...)
	require.NoError(t, err)
	h.manager, err = fulfillment.NewOrderLifecycleManager(h.catalog, h.engine, h.registry, h.coordinator,
		invoices, cfg, opts...)
	require.NoError(t, err)
	return h
}

// run executes fn in its own unit of work and commits when fn succeeds or reports a
// recorded failure. It is safe to call from goroutines.
func (h *harness) run(ctx context.Context, fn func(tx ports.UnitOfWork) error) error {
	uow := h.factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	err := fn(uow)
	if err == nil || fulfillment.IsRecordedFailure(err) {
		return errors.Join(err, uow.Commit(ctx))
	}
	return errors.Join(err, uow.Rollback(ctx))
}

func (h *harness) addVariant(price string) variant {
	v := variant{productID: kernel.NewUUID(), variantID: kernel.NewUUID(), sku: "SKU-" + price}
	h.catalog.mu.Lock()
	defer h.catalog.mu.Unlock()
	h.catalog.variants[v.variantID] = ports.Variant{
		ID:        v.variantID,
		ProductID: v.productID,
		SKU:       v.sku,
		Exists:    true,
		Priceable: true,
		Price:     kernel.MustMoney(price),
	}
	return v
}

// receive stores a lot of qty units at dhaka together with one barcode unit per item.
func (h *harness) receive(t *testing.T, v variant, qty int, receivedAt time.Time, expiry *time.Time) *stock.Lot {
	t.Helper()
	lot, err := stock.ReceiveLot(kernel.NewUUID(), v.productID, v.variantID, dhaka, qty,
		kernel.MustMoney("100.00"), receivedAt, expiry, "PO-1")
	require.NoError(t, err)

	lotID := lot.ID()
	require.NoError(t, h.run(t.Context(), func(tx ports.UnitOfWork) error {
		if err := h.engine.ReceiveLot(t.Context(), tx, lot); err != nil {
			return err
		}
		_, err := h.registry.GenerateBatch(t.Context(), tx, fulfillment.GenerateBatchRequest{
			ProductID: v.productID,
			VariantID: v.variantID,
			SKU:       v.sku,
			Count:     qty,
			LotID:     &lotID,
		}, h.admin)
		return err
	}))
	return lot
}

func item(v variant, qty int) fulfillment.ItemRequest {
	return fulfillment.ItemRequest{VariantID: v.variantID, Location: dhaka, Quantity: qty}
}

func (h *harness) place(ctx context.Context, method order.PaymentMethod, items ...fulfillment.ItemRequest) (*order.Order, error) {
	var placed *order.Order
	err := h.run(ctx, func(tx ports.UnitOfWork) error {
		o, err := h.manager.PlaceOrder(ctx, tx, fulfillment.PlaceOrderRequest{
			OrderID:       kernel.NewUUID(),
			Buyer:         buyer,
			OrderedBy:     order.OrderedByUser,
			PaymentMethod: method,
			Items:         items,
			Actor:         kernel.SystemActor,
		})
		placed = o
		return err
	})
	return placed, err
}

func (h *harness) update(t *testing.T, orderID kernel.UUID, target order.Status) error {
	t.Helper()
	return h.run(t.Context(), func(tx ports.UnitOfWork) error {
		_, err := h.manager.UpdateStatus(t.Context(), tx, orderID, target, h.admin, "")
		return err
	})
}

// handOver expects one successful courier call and moves a placed order to
// handed_over_to_courier.
func (h *harness) handOver(t *testing.T, orderID kernel.UUID) string {
	t.Helper()
	trackingCode := "TRK-" + orderID.String()
	h.courier.On("CreateOrder", mock.Anything, mock.Anything).Return(trackingCode, nil).Once()
	for _, target := range []order.Status{order.Accepted, order.RTS, order.HandedOverToCourier} {
		require.NoError(t, h.update(t, orderID, target), "moving to %s", target)
	}
	return trackingCode
}

// deliver moves a placed order all the way to delivered.
func (h *harness) deliver(t *testing.T, orderID kernel.UUID) {
	t.Helper()
	h.handOver(t, orderID)
	require.NoError(t, h.update(t, orderID, order.InTransit))
	require.NoError(t, h.update(t, orderID, order.Delivered))
}

func (h *harness) reader() ports.UnitOfWork {
	return h.factory.Create()
}

func (h *harness) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := h.reader().OrderRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

func (h *harness) lot(t *testing.T, id kernel.UUID) *stock.Lot {
	t.Helper()
	lot, err := h.reader().LotRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return lot
}

func (h *harness) globalStock(t *testing.T, v variant) *stock.GlobalStock {
	t.Helper()
	gs, err := h.reader().GlobalStockRepository().GetForUpdate(t.Context(), v.productID, v.variantID)
	require.NoError(t, err)
	return gs
}

func (h *harness) unit(t *testing.T, code string) *barcode.Unit {
	t.Helper()
	u, err := h.reader().BarcodeUnitRepository().Get(t.Context(), code)
	require.NoError(t, err)
	return u
}

func (h *harness) orderUnits(t *testing.T, orderID kernel.UUID) []*barcode.Unit {
	t.Helper()
	units, err := h.reader().BarcodeUnitRepository().ListByOrderForUpdate(t.Context(), orderID)
	require.NoError(t, err)
	return units
}
