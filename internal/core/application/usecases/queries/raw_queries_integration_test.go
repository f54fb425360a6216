package queries_test

import (
	"context"
	"testing"
	"time"

	"turbodelivery/internal/adapters/out/postgres/courierrepo"
	"turbodelivery/internal/adapters/out/postgres/orderrepo"
	"turbodelivery/internal/adapters/out/postgres/pgtest"
	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/domain/model/order/ordertest"

	"github.com/stretchr/testify/suite"
)

// RawQueriesIntegrationTestSuite runs the SQL-backed read models against a real PostgreSQL.
type RawQueriesIntegrationTestSuite struct {
	suite.Suite
	database *pgtest.Database
	admin    kernel.Actor
}

func (suite *RawQueriesIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.admin = ordertest.Actor(suite.T(), kernel.RoleAdmin, kernel.NewUUID())
}

func (suite *RawQueriesIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *RawQueriesIntegrationTestSuite) TearDownSuite() {
	if suite.database != nil {
		suite.Require().NoError(suite.database.Terminate(context.Background()))
	}
}

func (suite *RawQueriesIntegrationTestSuite) TestGetActiveOrders_SkipsTerminalOrders() {
	ctx := context.Background()
	repo := orderrepo.NewGormOrderRepository(suite.database.DB)
	courierID := kernel.NewUUID()

	placed := ordertest.Placed(suite.T(), kernel.NewUUID())
	s := ordertest.InStatus(suite.T(), kernel.NewUUID(), order.OnTheWay, &courierID).Snapshot()
	s.CreatedAt = ordertest.PlacedAt.Add(time.Minute)
	onTheWay, err := order.RestoreOrder(s)
	suite.Require().NoError(err)
	delivered := ordertest.InStatus(suite.T(), kernel.NewUUID(), order.Delivered, &courierID)
	cancelled := ordertest.InStatus(suite.T(), kernel.NewUUID(), order.Cancelled, nil)
	for _, o := range []*order.Order{placed, onTheWay, delivered, cancelled} {
		suite.Require().NoError(repo.Add(ctx, o))
	}

	query, err := queries.NewGetActiveOrdersQuery(suite.admin)
	suite.Require().NoError(err)
	views, err := queries.NewGetActiveOrdersQueryHandler(suite.database.DB).Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(views, 2)
	suite.Equal(placed.ID(), views[0].ID)
	suite.Equal("placed", views[0].Status)
	suite.Nil(views[0].CourierID)
	suite.Equal(placed.Pricing().Total(), views[0].Total)
	suite.Equal(onTheWay.ID(), views[1].ID)
	suite.Equal("on-the-way", views[1].Status)
	suite.Require().NotNil(views[1].CourierID)
	suite.Equal(courierID, *views[1].CourierID)
	suite.Equal(onTheWay.CustomerID(), views[1].CustomerID)
}

func (suite *RawQueriesIntegrationTestSuite) TestGetCouriers_OverlaysPresence() {
	ctx := context.Background()
	repo := courierrepo.NewGormCourierRepository(suite.database.DB)

	stored, err := courier.NewCourier(kernel.NewUUID(), 0)
	suite.Require().NoError(err)
	suite.Require().NoError(stored.MoveTo(ordertest.Pickup, ordertest.PlacedAt))
	suite.Require().NoError(repo.Add(ctx, stored))

	connected, err := courier.NewCourier(kernel.NewUUID(), 2)
	suite.Require().NoError(err)
	suite.Require().NoError(repo.Add(ctx, connected))
	suite.Require().NoError(repo.AdjustStats(ctx, connected.ID(), 0, 3))

	live := fakePresence{
		positions: map[kernel.UUID]kernel.GeoPoint{connected.ID(): ordertest.DropOff},
		at:        ordertest.PlacedAt.Add(time.Hour),
	}
	query, err := queries.NewGetCouriersQuery(suite.admin)
	suite.Require().NoError(err)

	views, err := queries.NewGetCouriersQueryHandler(suite.database.DB, live).Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(views, 2)

	first := views[0]
	suite.Equal(connected.ID(), first.ID)
	suite.True(first.Connected)
	suite.True(first.Online)
	suite.Equal(2, first.MaxOrders)
	suite.Equal(3, first.TotalDeliveries)
	suite.Require().NotNil(first.Location)
	suite.Equal(ordertest.DropOff, *first.Location)

	second := views[1]
	suite.Equal(stored.ID(), second.ID)
	suite.False(second.Connected)
	suite.Require().NotNil(second.Location)
	suite.InDelta(ordertest.Pickup.Latitude(), second.Location.Latitude(), 1e-9)
	suite.Require().NotNil(second.LocationUpdatedAt)
	suite.True(ordertest.PlacedAt.Equal(*second.LocationUpdatedAt))
}

func TestRawQueriesIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RawQueriesIntegrationTestSuite))
}
