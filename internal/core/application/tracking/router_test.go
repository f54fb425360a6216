package tracking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"turbodelivery/internal/adapters/out/memory"
	"turbodelivery/internal/core/application/tracking"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/domain/model/order/ordertest"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	userID  kernel.UUID
	event   string
	payload any
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []delivery
	failFor   map[kernel.UUID]bool
}

func (n *recordingNotifier) EmitToUser(_ context.Context, userID kernel.UUID, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[userID] {
		return errors.New("connection closed")
	}
	n.delivered = append(n.delivered, delivery{userID: userID, event: event, payload: payload})
	return nil
}

func (n *recordingNotifier) EmitToRoom(context.Context, string, string, any) error {
	return nil
}

func (n *recordingNotifier) to(event string) []kernel.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []kernel.UUID
	for _, d := range n.delivered {
		if d.event == event {
			out = append(out, d.userID)
		}
	}
	return out
}

type fixture struct {
	router   *tracking.Router
	notifier *recordingNotifier
	repo     ports.OrderRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	notifier := &recordingNotifier{failFor: map[kernel.UUID]bool{}}
	router := tracking.NewRouter(factory, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(router.Close)

	return &fixture{router: router, notifier: notifier, repo: factory.Create().OrderRepository()}
}

func (f *fixture) store(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	require.NoError(t, f.repo.Add(t.Context(), o))
	return o
}

func TestRouter_Subscribe(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()
	o := f.store(t, ordertest.Placed(t, customerID))

	t.Run("should let the customer and admins subscribe", func(t *testing.T) {
		customer := ordertest.Actor(t, kernel.RoleCustomer, customerID)
		admin := ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID())

		got, err := f.router.Subscribe(t.Context(), customer, o.ID())
		require.NoError(t, err)
		assert.True(t, got.IsEqual(o))
		_, err = f.router.Subscribe(t.Context(), admin, o.ID())
		require.NoError(t, err)

		assert.ElementsMatch(t, []kernel.Actor{customer, admin}, f.router.Subscribers(o.ID()))
	})

	t.Run("should forbid other customers and couriers", func(t *testing.T) {
		for _, role := range []kernel.Role{kernel.RoleCustomer, kernel.RoleCourier} {
			_, err := f.router.Subscribe(t.Context(), ordertest.Actor(t, role, kernel.NewUUID()), o.ID())
			require.ErrorIs(t, err, errs.ErrForbidden)
		}
	})

	t.Run("should report unknown orders", func(t *testing.T) {
		_, err := f.router.Subscribe(t.Context(), ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID()), kernel.NewUUID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestRouter_PublishLocation(t *testing.T) {
	// Given a courier carrying one order, assigned to another that is still being prepared,
	// and a second courier carrying a third order
	f := newFixture(t)
	courierID, otherCourierID := kernel.NewUUID(), kernel.NewUUID()
	carriedCustomer, waitingCustomer, otherCustomer := kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()
	admin := ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID())

	carried := f.store(t, ordertest.InStatus(t, carriedCustomer, order.OnTheWay, &courierID))
	waiting := f.store(t, ordertest.InStatus(t, waitingCustomer, order.Preparing, &courierID))
	other := f.store(t, ordertest.InStatus(t, otherCustomer, order.PickedUp, &otherCourierID))

	ctx := t.Context()
	for _, sub := range []struct {
		actor   kernel.Actor
		orderID kernel.UUID
	}{
		{ordertest.Actor(t, kernel.RoleCustomer, carriedCustomer), carried.ID()},
		{admin, carried.ID()},
		{ordertest.Actor(t, kernel.RoleCustomer, waitingCustomer), waiting.ID()},
		{ordertest.Actor(t, kernel.RoleCustomer, otherCustomer), other.ID()},
	} {
		_, err := f.router.Subscribe(ctx, sub.actor, sub.orderID)
		require.NoError(t, err)
	}

	// When the courier reports a position
	at := ordertest.PlacedAt.Add(time.Hour)
	require.NoError(t, f.router.PublishLocation(ctx, courierID, ordertest.DropOff, at))

	// Then only the subscribers of the carried order hear about it
	assert.ElementsMatch(t, []kernel.UUID{carriedCustomer, admin.ID()},
		f.notifier.to(ports.EventCourierLocationChanged))

	payload, ok := f.notifier.delivered[0].payload.(tracking.LocationPayload)
	require.True(t, ok)
	assert.Equal(t, tracking.LocationPayload{
		OrderID:   carried.ID().String(),
		CourierID: courierID.String(),
		Latitude:  ordertest.DropOff.Latitude(),
		Longitude: ordertest.DropOff.Longitude(),
		Timestamp: at,
	}, payload)
}

func TestRouter_PublishLocation_NoSubscribers(t *testing.T) {
	f := newFixture(t)
	courierID := kernel.NewUUID()
	f.store(t, ordertest.InStatus(t, kernel.NewUUID(), order.OnTheWay, &courierID))

	require.NoError(t, f.router.PublishLocation(t.Context(), courierID, ordertest.DropOff, ordertest.PlacedAt))

	assert.Empty(t, f.notifier.to(ports.EventCourierLocationChanged))
}

func TestRouter_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	courierID := kernel.NewUUID()
	customerID := kernel.NewUUID()
	first := f.store(t, ordertest.InStatus(t, customerID, order.PickedUp, &courierID))
	second := f.store(t, ordertest.InStatus(t, customerID, order.OnTheWay, &courierID))
	customer := ordertest.Actor(t, kernel.RoleCustomer, customerID)
	ctx := t.Context()

	for _, o := range []*order.Order{first, second} {
		_, err := f.router.Subscribe(ctx, customer, o.ID())
		require.NoError(t, err)
	}

	f.router.Unsubscribe(customerID, first.ID())
	assert.Empty(t, f.router.Subscribers(first.ID()))
	assert.Len(t, f.router.Subscribers(second.ID()), 1)

	f.router.DropObserver(customerID)
	assert.Empty(t, f.router.Subscribers(second.ID()))

	require.NoError(t, f.router.PublishLocation(ctx, courierID, ordertest.DropOff, ordertest.PlacedAt))
	assert.Empty(t, f.notifier.to(ports.EventCourierLocationChanged))
}

func TestRouter_PublishStatus(t *testing.T) {
	f := newFixture(t)
	courierID := kernel.NewUUID()
	customerID := kernel.NewUUID()
	o := f.store(t, ordertest.InStatus(t, customerID, order.Ready, &courierID))
	admin := ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID())
	_, err := f.router.Subscribe(t.Context(), admin, o.ID())
	require.NoError(t, err)
	_, err = f.router.Subscribe(t.Context(), ordertest.Actor(t, kernel.RoleCustomer, customerID), o.ID())
	require.NoError(t, err)

	f.router.PublishStatus(t.Context(), o)

	assert.ElementsMatch(t, []kernel.UUID{customerID, admin.ID()}, f.notifier.to(ports.EventOrderStatusChanged),
		"the customer is notified once, subscribed or not")
	payload, ok := f.notifier.delivered[0].payload.(tracking.StatusPayload)
	require.True(t, ok)
	assert.Equal(t, "ready", payload.Status)
	assert.Equal(t, "Order ready", payload.Note)
	assert.Empty(t, f.notifier.to(ports.EventCourierLocationChanged))
}

func TestRouter_FailedDeliveriesAreSwallowed(t *testing.T) {
	f := newFixture(t)
	courierID := kernel.NewUUID()
	customerID := kernel.NewUUID()
	o := f.store(t, ordertest.InStatus(t, customerID, order.OnTheWay, &courierID))
	admin := ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID())
	for _, a := range []kernel.Actor{ordertest.Actor(t, kernel.RoleCustomer, customerID), admin} {
		_, err := f.router.Subscribe(t.Context(), a, o.ID())
		require.NoError(t, err)
	}
	f.notifier.failFor[customerID] = true

	require.NoError(t, f.router.PublishLocation(t.Context(), courierID, ordertest.DropOff, ordertest.PlacedAt))

	assert.Equal(t, []kernel.UUID{admin.ID()}, f.notifier.to(ports.EventCourierLocationChanged))
}
