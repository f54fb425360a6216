package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/domain/model/order/ordertest"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number order.Number) (*order.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignCourier(ctx context.Context, orderID, courierID kernel.UUID) (bool, error) {
	args := m.Called(ctx, orderID, courierID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ConsumeConfirmationCode(ctx context.Context, orderID kernel.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GetActiveByCourier(
	ctx context.Context,
	courierID kernel.UUID,
	statuses []order.Status,
) ([]*order.Order, error) {
	args := m.Called(ctx, courierID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPendingUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) UpdateLocation(ctx context.Context, id kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	args := m.Called(ctx, id, point, at)
	return args.Error(0)
}

func (m *MockCourierRepository) AdjustStats(ctx context.Context, id kernel.UUID, currentDelta, totalDelta int) error {
	args := m.Called(ctx, id, currentDelta, totalDelta)
	return args.Error(0)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockCourierPresence struct{ mock.Mock }

func (m *MockCourierPresence) CheckEligible(courierID kernel.UUID) error {
	args := m.Called(courierID)
	return args.Error(0)
}

func (m *MockCourierPresence) AdjustLoad(courierID kernel.UUID, delta int) {
	m.Called(courierID, delta)
}

func (m *MockCourierPresence) SetAvailability(courierID kernel.UUID, online, available bool) (presence.Snapshot, error) {
	args := m.Called(courierID, online, available)
	return args.Get(0).(presence.Snapshot), args.Error(1)
}

func (m *MockCourierPresence) UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint) error {
	args := m.Called(ctx, courierID, point)
	return args.Error(0)
}

func (m *MockCourierPresence) FlushLocations(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

type MockOfferBook struct{ mock.Mock }

func (m *MockOfferBook) Offer(ctx context.Context, o *order.Order) (int, error) {
	args := m.Called(ctx, o)
	return args.Int(0), args.Error(1)
}

func (m *MockOfferBook) RecordRejection(ctx context.Context, orderID, courierID kernel.UUID) {
	m.Called(ctx, orderID, courierID)
}

func (m *MockOfferBook) Accepted(ctx context.Context, orderID, winnerID kernel.UUID) {
	m.Called(ctx, orderID, winnerID)
}

func (m *MockOfferBook) Withdraw(ctx context.Context, orderID kernel.UUID, reason string) {
	m.Called(ctx, orderID, reason)
}

func (m *MockOfferBook) ExpireStale(ctx context.Context) ([]kernel.UUID, []kernel.UUID) {
	args := m.Called(ctx)
	reoffer, _ := args.Get(0).([]kernel.UUID)
	exhausted, _ := args.Get(1).([]kernel.UUID)
	return reoffer, exhausted
}

func (m *MockOfferBook) HasOpenOffer(orderID kernel.UUID) bool {
	args := m.Called(orderID)
	return args.Bool(0)
}

func (m *MockOfferBook) CanReoffer(orderID kernel.UUID) bool {
	args := m.Called(orderID)
	return args.Bool(0)
}

type MockStatusTracker struct{ mock.Mock }

func (m *MockStatusTracker) PublishStatus(ctx context.Context, o *order.Order) {
	m.Called(ctx, o)
}

func (m *MockStatusTracker) PublishLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	args := m.Called(ctx, courierID, point, at)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pinnedClock() time.Time {
	return ordertest.PlacedAt.Add(time.Minute)
}

func TestRespondToOfferCommandHandler_Handle_Accept(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	testOrder := ordertest.Placed(t, kernel.NewUUID())
	cmd, err := commands.NewRespondToOfferCommand(courierID, testOrder.ID(), commands.OfferAccept)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)
	presenceMock := new(MockCourierPresence)
	offers := new(MockOfferBook)
	tracker := new(MockStatusTracker)
	publisher := &recordingPublisher{}

	factory.On("Create").Return(uow).Twice()
	mock.InOrder(
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		presenceMock.On("CheckEligible", courierID).Return(nil).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		orderRepo.On("AssignCourier", ctx, testOrder.ID(), courierID).Return(true, nil).Once(),
		orderRepo.On("Update", ctx, testOrder).Return(nil).Once(),
		courierRepo.On("AdjustStats", ctx, courierID, 1, 0).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(errors.New("not in transaction")).Once(),
		presenceMock.On("AdjustLoad", courierID, 1).Return().Once(),
		offers.On("Accepted", ctx, testOrder.ID(), courierID).Return().Once(),
		tracker.On("PublishStatus", ctx, testOrder).Return().Once(),
	)

	handler := commands.NewRespondToOfferCommandHandler(factory, presenceMock, offers, tracker, publisher,
		pinnedClock, discardLogger())
	got, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, got.Status())
	assert.True(t, got.IsAssignedTo(courierID))
	assert.Equal(t, []string{"confirmed"}, publisher.statuses())
	orderRepo.AssertExpectations(t)
	courierRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
	presenceMock.AssertExpectations(t)
	offers.AssertExpectations(t)
	tracker.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_Handle_LostRace(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	testOrder := ordertest.Placed(t, kernel.NewUUID())
	cmd, err := commands.NewRespondToOfferCommand(courierID, testOrder.ID(), commands.OfferAccept)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)
	presenceMock := new(MockCourierPresence)
	offers := new(MockOfferBook)
	tracker := new(MockStatusTracker)

	factory.On("Create").Return(uow).Twice()
	uow.On("OrderRepository").Return(orderRepo).Twice()
	uow.On("CourierRepository").Return(courierRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Twice()
	presenceMock.On("CheckEligible", courierID).Return(nil).Once()
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		orderRepo.On("AssignCourier", ctx, testOrder.ID(), courierID).Return(false, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	handler := commands.NewRespondToOfferCommandHandler(factory, presenceMock, offers, tracker, &recordingPublisher{},
		pinnedClock, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrAlreadyTaken)
	assert.Equal(t, order.Placed, testOrder.Status())
	uow.AssertNotCalled(t, "Commit", ctx)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	courierRepo.AssertNotCalled(t, "AdjustStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	presenceMock.AssertNotCalled(t, "AdjustLoad", mock.Anything, mock.Anything)
	offers.AssertNotCalled(t, "Accepted", mock.Anything, mock.Anything, mock.Anything)
	tracker.AssertNotCalled(t, "PublishStatus", mock.Anything, mock.Anything)
	uow.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	testOrder := ordertest.Placed(t, kernel.NewUUID())
	cmd, err := commands.NewRespondToOfferCommand(courierID, testOrder.ID(), commands.OfferAccept)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)
	presenceMock := new(MockCourierPresence)

	factory.On("Create").Return(uow).Twice()
	mock.InOrder(
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		presenceMock.On("CheckEligible", courierID).Return(nil).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)

	handler := commands.NewRespondToOfferCommandHandler(factory, presenceMock, new(MockOfferBook),
		new(MockStatusTracker), &recordingPublisher{}, pinnedClock, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.EqualError(t, err, "begin error")
	uow.AssertNotCalled(t, "Rollback", ctx)
	uow.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_Handle_NotEligible(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	testOrder := ordertest.Placed(t, kernel.NewUUID())
	cmd, err := commands.NewRespondToOfferCommand(courierID, testOrder.ID(), commands.OfferAccept)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)
	presenceMock := new(MockCourierPresence)

	factory.On("Create").Return(uow).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	presenceMock.On("CheckEligible", courierID).Return(errs.NewNotEligibleError(courierID, "is offline")).Once()

	handler := commands.NewRespondToOfferCommandHandler(factory, presenceMock, new(MockOfferBook),
		new(MockStatusTracker), &recordingPublisher{}, pinnedClock, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrNotEligible)
	uow.AssertNotCalled(t, "Begin", mock.Anything)
	factory.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_Handle_Reject(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	testOrder := ordertest.Placed(t, kernel.NewUUID())
	cmd, err := commands.NewRespondToOfferCommand(courierID, testOrder.ID(), commands.OfferReject)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)
	offers := new(MockOfferBook)
	presenceMock := new(MockCourierPresence)

	factory.On("Create").Return(uow).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	offers.On("RecordRejection", ctx, testOrder.ID(), courierID).Return().Once()

	handler := commands.NewRespondToOfferCommandHandler(factory, presenceMock, offers,
		new(MockStatusTracker), &recordingPublisher{}, pinnedClock, discardLogger())
	got, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Nil(t, got)
	offers.AssertExpectations(t)
	presenceMock.AssertNotCalled(t, "CheckEligible", mock.Anything)
}

func TestRespondToOfferCommandHandler_Handle_ValidationError(t *testing.T) {
	factory := new(MockUoWFactory)
	handler := commands.NewRespondToOfferCommandHandler(factory, new(MockCourierPresence), new(MockOfferBook),
		new(MockStatusTracker), &recordingPublisher{}, pinnedClock, discardLogger())

	_, err := handler.Handle(t.Context(), commands.RespondToOfferCommand{})

	require.ErrorIs(t, err, commands.ErrRespondToOfferCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
