package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type mockAggregateTracker struct{}

func (m *mockAggregateTracker) TrackAggregate(_ kernel.UUID, _ any) {}

type GormOrderRepositoryTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	repo      *orderrepo.GormOrderRepository
}

func (suite *GormOrderRepositoryTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.LineItemDTO{}, &orderrepo.EventDTO{})
	suite.Require().NoError(err)

	suite.repo = orderrepo.NewGormOrderRepository(db, &mockAggregateTracker{})
}

func (suite *GormOrderRepositoryTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *GormOrderRepositoryTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, order_line_items, order_events CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *GormOrderRepositoryTestSuite) newOrder(items ...order.LineItem) *order.Order {
	if len(items) == 0 {
		item, err := order.NewLineItem("widget", 2, decimal.RequireFromString("9.99"))
		suite.Require().NoError(err)
		items = []order.LineItem{item}
	}

	ord, err := order.NewOrder(kernel.NewUUID(), uuid.NewString(), items)
	suite.Require().NoError(err)
	return ord
}

func (suite *GormOrderRepositoryTestSuite) TestAddAndGet_RoundTrip() {
	ctx := context.Background()

	item1, err := order.NewLineItem("keyboard", 1, decimal.RequireFromString("49.90"))
	suite.Require().NoError(err)
	item2, err := order.NewLineItem("mouse", 3, decimal.RequireFromString("19.99"))
	suite.Require().NoError(err)
	ord := suite.newOrder(item1, item2)

	err = suite.repo.Add(ctx, ord)
	suite.Require().NoError(err)

	loaded, err := suite.repo.Get(ctx, ord.ID())
	suite.Require().NoError(err)

	suite.True(loaded.ID().IsEqual(ord.ID()))
	suite.Equal(ord.ExternalRef(), loaded.ExternalRef())
	suite.Equal(order.Pending, loaded.Status())
	suite.True(loaded.TotalAmount().Equal(decimal.RequireFromString("109.87")))

	items := loaded.LineItems()
	suite.Require().Len(items, 2)
	suite.Equal("keyboard", items[0].ProductName())
	suite.Equal("mouse", items[1].ProductName())
	suite.Equal(3, items[1].Quantity())
	suite.True(items[1].UnitPrice().Equal(decimal.RequireFromString("19.99")))

	events := loaded.Events()
	suite.Require().Len(events, 1)
	suite.Equal(order.EventOrderCreated, events[0].Type())
	suite.Nil(events[0].Payload())
}

func (suite *GormOrderRepositoryTestSuite) TestGet_NotFound() {
	_, err := suite.repo.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *GormOrderRepositoryTestSuite) TestUpdate_AppendsOnlyNewEvents() {
	ctx := context.Background()
	ord := suite.newOrder()

	suite.Require().NoError(suite.repo.Add(ctx, ord))

	started, err := ord.StartProcessing()
	suite.Require().NoError(err)
	suite.Require().True(started)
	suite.Require().NoError(suite.repo.Update(ctx, ord))

	// A second write without new transitions must not duplicate events.
	suite.Require().NoError(suite.repo.Update(ctx, ord))

	loaded, err := suite.repo.Get(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Processing, loaded.Status())

	events := loaded.Events()
	suite.Require().Len(events, 2)
	suite.Equal(order.EventOrderCreated, events[0].Type())
	suite.Equal(order.EventProcessingStarted, events[1].Type())
}

func (suite *GormOrderRepositoryTestSuite) TestUpdate_PersistsFailurePayload() {
	ctx := context.Background()
	ord := suite.newOrder()
	suite.Require().NoError(suite.repo.Add(ctx, ord))

	started, err := ord.StartProcessing()
	suite.Require().NoError(err)
	suite.Require().True(started)
	suite.Require().NoError(ord.FailAfterRetries("upstream timeout", 3))
	suite.Require().NoError(suite.repo.Update(ctx, ord))

	loaded, err := suite.repo.Get(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Failed, loaded.Status())

	events := loaded.Events()
	suite.Require().Len(events, 3)
	payload := events[2].Payload()
	suite.Equal(order.FailureReasonInfrastructure, payload[order.PayloadKeyReason])
	suite.Equal("upstream timeout", payload[order.PayloadKeyError])
	// JSON numbers come back as float64.
	suite.InDelta(3, payload[order.PayloadKeyRetries], 0)
}

func (suite *GormOrderRepositoryTestSuite) TestUpdate_NotFound() {
	ord := suite.newOrder()
	err := suite.repo.Update(context.Background(), ord)
	suite.Require().ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *GormOrderRepositoryTestSuite) TestGetByExternalRef() {
	ctx := context.Background()
	ord := suite.newOrder()
	suite.Require().NoError(suite.repo.Add(ctx, ord))

	loaded, err := suite.repo.GetByExternalRef(ctx, ord.ExternalRef())
	suite.Require().NoError(err)
	suite.True(loaded.ID().IsEqual(ord.ID()))

	_, err = suite.repo.GetByExternalRef(ctx, uuid.NewString())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *GormOrderRepositoryTestSuite) TestGetForUpdate_ReturnsFullAggregate() {
	ctx := context.Background()
	ord := suite.newOrder()
	suite.Require().NoError(suite.repo.Add(ctx, ord))

	loaded, err := suite.repo.GetForUpdate(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.True(loaded.ID().IsEqual(ord.ID()))
	suite.Len(loaded.LineItems(), 1)
	suite.Len(loaded.Events(), 1)
}

func (suite *GormOrderRepositoryTestSuite) TestGetAllPendingBefore() {
	ctx := context.Background()

	pending := suite.newOrder()
	suite.Require().NoError(suite.repo.Add(ctx, pending))

	processing := suite.newOrder()
	started, err := processing.StartProcessing()
	suite.Require().NoError(err)
	suite.Require().True(started)
	suite.Require().NoError(suite.repo.Add(ctx, processing))

	cutoff := time.Now().UTC().Add(time.Minute)
	orders, err := suite.repo.GetAllPendingBefore(ctx, cutoff)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.True(orders[0].ID().IsEqual(pending.ID()))

	// A cutoff in the past matches nothing.
	orders, err = suite.repo.GetAllPendingBefore(ctx, time.Now().UTC().Add(-time.Minute))
	suite.Require().NoError(err)
	suite.Empty(orders)
}

func TestGormOrderRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(GormOrderRepositoryTestSuite))
}
