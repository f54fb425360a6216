package courierrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"turbodelivery/internal/adapters/out/postgres/courierrepo"
	"turbodelivery/internal/adapters/out/postgres/pgtest"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

// CourierRepositoryIntegrationTestSuite runs the repository against a real PostgreSQL.
type CourierRepositoryIntegrationTestSuite struct {
	suite.Suite
	database   *pgtest.Database
	repository *courierrepo.GormCourierRepository
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
	suite.repository = courierrepo.NewGormCourierRepository(suite.database.DB)
}

func (suite *CourierRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.database != nil {
		suite.Require().NoError(suite.database.Terminate(context.Background()))
	}
}

func (suite *CourierRepositoryIntegrationTestSuite) addCourier() *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), courier.DefaultMaxOrders)
	suite.Require().NoError(err)
	c.Approve()
	suite.Require().NoError(suite.repository.Add(context.Background(), c))
	return c
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAdd_RoundTrip() {
	c := suite.addCourier()

	got, err := suite.repository.Get(context.Background(), c.ID())

	suite.Require().NoError(err)
	suite.True(got.IsEqual(c))
	suite.True(got.IsApproved())
	suite.True(got.IsActive())
	suite.Equal(courier.DefaultMaxOrders, got.MaxOrders())
	suite.Zero(got.CurrentOrders())
	suite.Nil(got.Location())
	suite.Nil(got.LocationUpdatedAt())
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAdd_Duplicate_IsRejected() {
	c := suite.addCourier()

	err := suite.repository.Add(context.Background(), c)

	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestGet_Missing_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestDriverFailure_IsTransient() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.repository.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrTransient)

	err = suite.repository.AdjustStats(ctx, kernel.NewUUID(), 1, 0)
	suite.Require().ErrorIs(err, errs.ErrTransient)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestUpdateLocation_StoresPointAndTime() {
	ctx := context.Background()
	c := suite.addCourier()
	point := kernel.MustNewGeoPoint(40.7484, -73.9857)
	at := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	suite.Require().NoError(suite.repository.UpdateLocation(ctx, c.ID(), point, at))

	got, err := suite.repository.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(got.Location())
	suite.InDelta(point.Latitude(), got.Location().Latitude(), 1e-9)
	suite.InDelta(point.Longitude(), got.Location().Longitude(), 1e-9)
	suite.Require().NotNil(got.LocationUpdatedAt())
	suite.True(at.Equal(*got.LocationUpdatedAt()))

	err = suite.repository.UpdateLocation(ctx, kernel.NewUUID(), point, at)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAdjustStats_ConcurrentDeltasAddUp() {
	ctx := context.Background()
	c := suite.addCourier()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suite.NoError(suite.repository.AdjustStats(ctx, c.ID(), 1, 0))
		}()
	}
	wg.Wait()
	suite.Require().NoError(suite.repository.AdjustStats(ctx, c.ID(), -4, 4))

	got, err := suite.repository.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Equal(6, got.CurrentOrders())
	suite.Equal(4, got.TotalDeliveries())
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAdjustStats_ClampsAtZero() {
	ctx := context.Background()
	c := suite.addCourier()

	suite.Require().NoError(suite.repository.AdjustStats(ctx, c.ID(), -1, 0))

	got, err := suite.repository.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Zero(got.CurrentOrders())

	err = suite.repository.AdjustStats(ctx, kernel.NewUUID(), 1, 0)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func TestCourierRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(CourierRepositoryIntegrationTestSuite))
}
