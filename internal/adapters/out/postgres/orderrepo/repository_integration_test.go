package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// MockAggregateTracker is a mock implementation of the aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) Track(source kernel.EventSource) {
	m.Called(source)
}

// OrderRepositoryIntegrationTestSuite provides integration tests for OrderRepository
// using PostgreSQL containers to verify database persistence behavior.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	// Clean the database before each test
	suite.Require().NoError(suite.pg.Truncate())

	// Create fresh repository and tracker for each test
	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("Track", mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.pg.DB, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

// TestAdd_RoundTrip stores a placed order with split allocations and reads it back.
func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_RoundTrip() {
	ctx := context.Background()

	// Place an order whose single line is served by two lots
	o := suite.placedOrder("INV-2025-000001")
	li := o.LineItems()[0]

	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.tracker.AssertCalled(suite.T(), "Track", o)

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.True(stored.IsEqual(o))
	suite.Equal(order.Placed, stored.Status())
	suite.Equal(order.PaymentCOD, stored.PaymentMethod())
	suite.Equal("INV-2025-000001", stored.InvoiceNumber())
	suite.True(stored.Total().IsEqual(kernel.MustMoney("240.00")))
	suite.True(stored.CreatedAt().Equal(now))

	suite.Require().Len(stored.LineItems(), 1)
	storedItem := stored.LineItems()[0]
	suite.True(storedItem.ID().IsEqual(li.ID()))
	suite.Equal(order.ReservationReserved, storedItem.ReservationState())
	suite.Equal(li.Allocations(), storedItem.Allocations())
	suite.True(storedItem.Location().IsEqual(kernel.MustNewLocation("DHK-01")))

	suite.Require().Len(stored.AdminNotes(), 1)
	suite.Equal("placed for test", stored.AdminNotes()[0].Note)
}

// TestAdd_DuplicateInvoice relies on the unique index over invoice numbers.
func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateInvoice() {
	ctx := context.Background()

	suite.Require().NoError(suite.repository.Add(ctx, suite.placedOrder("INV-2025-000007")))

	err := suite.repository.Add(ctx, suite.placedOrder("INV-2025-000007"))
	suite.Require().ErrorIs(err, order.ErrDuplicateInvoice)
	suite.assertOrderCount(1)
}

// TestAdd_DraftsWithoutInvoice checks that orders without an invoice do not collide.
func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DraftsWithoutInvoice() {
	ctx := context.Background()

	suite.Require().NoError(suite.repository.Add(ctx, suite.pendingOrder()))
	suite.Require().NoError(suite.repository.Add(ctx, suite.pendingOrder()))
	suite.assertOrderCount(2)
}

// TestUpdate_AppendsNotesAndTracking persists status, tracking code and new notes.
func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_AppendsNotesAndTracking() {
	ctx := context.Background()

	o := suite.placedOrder("INV-2025-000002")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	// Move the order on and annotate it twice
	later := now.Add(time.Hour)
	suite.Require().NoError(o.TransitionTo(order.Accepted, kernel.SystemActor, "", later))
	suite.Require().NoError(o.TransitionTo(order.RTS, kernel.SystemActor, "packed", later))
	suite.Require().NoError(o.SetTrackingCode("TRK-55"))
	suite.Require().NoError(o.AddAdminNote(kernel.SystemActor, "fragile", later))
	suite.Require().NoError(suite.repository.Update(ctx, o))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.RTS, stored.Status())
	suite.Equal("TRK-55", stored.TrackingCode())
	suite.Require().Len(stored.AdminNotes(), 3)
	suite.Equal("packed", stored.AdminNotes()[1].Note)
	suite.Equal(order.RTS, stored.AdminNotes()[1].Status)
	suite.Equal("fragile", stored.AdminNotes()[2].Note)
	suite.True(stored.UpdatedAt().Equal(later))

	// A second save without new notes keeps the note count
	suite.Require().NoError(suite.repository.Update(ctx, stored))
	reloaded, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Len(reloaded.AdminNotes(), 3)
	suite.Len(reloaded.LineItems(), 1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsNotFound() {
	err := suite.repository.Update(context.Background(), suite.pendingOrder())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFound() {
	ctx := context.Background()

	stored, err := suite.repository.Get(ctx, kernel.NewUUID())
	suite.Nil(stored)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)

	_, err = suite.repository.GetForUpdate(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByTrackingCode() {
	ctx := context.Background()

	o := suite.placedOrder("INV-2025-000003")
	suite.Require().NoError(o.SetTrackingCode("TRK-9"))
	suite.Require().NoError(suite.repository.Add(ctx, o))

	stored, err := suite.repository.GetByTrackingCode(ctx, "TRK-9")
	suite.Require().NoError(err)
	suite.True(stored.ID().IsEqual(o.ID()))

	_, err = suite.repository.GetByTrackingCode(ctx, "TRK-404")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	_, err = suite.repository.GetByTrackingCode(ctx, "")
	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
}

// TestListIDs returns ids oldest first and honours the limit.
func (suite *OrderRepositoryIntegrationTestSuite) TestListIDs() {
	ctx := context.Background()

	first := suite.placedOrder("INV-2025-000010")
	second := suite.placedOrder("INV-2025-000011")
	pending := suite.pendingOrder()
	second.MarkPendingCourierConfirmation("timeout", now)
	for _, o := range []*order.Order{second, pending, first} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}
	// created_at decides the order, not insertion
	suite.Require().NoError(suite.pg.DB.Exec(
		"UPDATE orders SET created_at = created_at - interval '1 minute' WHERE id = ?", first.ID().Bytes()).Error)

	ids, err := suite.repository.ListIDsByStatus(ctx, []order.Status{order.Placed}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(ids, 2)
	suite.True(ids[0].IsEqual(first.ID()))
	suite.True(ids[1].IsEqual(second.ID()))

	ids, err = suite.repository.ListIDsByStatus(ctx, []order.Status{order.Placed, order.Pending}, 1)
	suite.Require().NoError(err)
	suite.Len(ids, 1)

	ids, err = suite.repository.ListIDsPendingCourierConfirmation(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(ids, 1)
	suite.True(ids[0].IsEqual(second.ID()))
}

func (suite *OrderRepositoryIntegrationTestSuite) pendingOrder() *order.Order {
	o, err := order.NewOrder(
		kernel.NewUUID(),
		order.Buyer{Name: "Rahim", Phone: "01700000000", Address: "Road 5, Dhaka"},
		order.OrderedByUser,
		order.PaymentCOD,
		[]order.LineItemInput{{
			ProductID: kernel.NewUUID(),
			VariantID: kernel.NewUUID(),
			Location:  kernel.MustNewLocation("DHK-01"),
			Quantity:  2,
			UnitPrice: kernel.MustMoney("120.00"),
		}},
		now,
	)
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) placedOrder(invoice string) *order.Order {
	o := suite.pendingOrder()
	li := o.LineItems()[0]
	suite.Require().NoError(o.AssignInvoiceNumber(invoice))
	suite.Require().NoError(o.MarkLineItemReserved(li.ID(), []stock.Split{
		{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 1},
		{ReservationID: kernel.NewUUID(), LotID: kernel.NewUUID(), Quantity: 1},
	}))
	suite.Require().NoError(o.TransitionTo(order.Placed, kernel.SystemActor, "placed for test", now))
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int64) {
	var count int64
	suite.Require().NoError(suite.pg.DB.Model(&orderrepo.OrderDTO{}).Count(&count).Error)
	suite.Equal(expected, count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
