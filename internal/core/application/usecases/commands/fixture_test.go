package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"turbodelivery/internal/adapters/out/memory"
	"turbodelivery/internal/core/application/dispatch"
	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/application/tracking"
	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order/ordertest"
	"turbodelivery/internal/core/ports"

	"github.com/stretchr/testify/require"
)

type notification struct {
	to      string
	event   string
	payload any
}

// recordingNotifier stands in for the websocket hub.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) EmitToUser(ctx context.Context, userID kernel.UUID, event string, payload any) error {
	return n.EmitToRoom(ctx, ports.UserRoom(userID), event, payload)
}

func (n *recordingNotifier) EmitToRoom(_ context.Context, room string, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{to: room, event: event, payload: payload})
	return nil
}

// events lists the events delivered to userID, in order.
func (n *recordingNotifier) events(userID kernel.UUID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.to == ports.UserRoom(userID) {
			out = append(out, s.event)
		}
	}
	return out
}

func (n *recordingNotifier) last(room, event string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].to == room && n.sent[i].event == event {
			return n.sent[i].payload, true
		}
	}
	return nil, false
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []ports.OrderStatusChanged
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, event ports.OrderStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.Status)
	}
	return out
}

type uowFactory struct{ inner ports.UnitOfWorkFactory }

func (f uowFactory) Create() commands.UoW { return f.inner.Create() }

type orderUoWFactory struct{ inner ports.UnitOfWorkFactory }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.inner.Create() }

type courierUoWFactory struct{ inner ports.UnitOfWorkFactory }

func (f courierUoWFactory) Create() commands.CourierUoW { return f.inner.Create() }

// app wires every handler over the in-memory store, the real registries and a pinned clock.
type app struct {
	store     ports.UnitOfWorkFactory
	presence  *presence.Registry
	engine    *dispatch.Engine
	router    *tracking.Router
	notifier  *recordingNotifier
	publisher *recordingPublisher
	now       time.Time

	place        *commands.PlaceOrderCommandHandler
	respond      *commands.RespondToOfferCommandHandler
	updateStatus *commands.UpdateOrderStatusCommandHandler
	confirm      *commands.ConfirmDeliveryCommandHandler
	cancel       *commands.CancelOrderCommandHandler
	rate         *commands.RateOrderCommandHandler
	reoffer      *commands.ReofferPendingOrdersCommandHandler
	availability *commands.UpdateCourierAvailabilityCommandHandler
	location     *commands.ReportCourierLocationCommandHandler
	register     *commands.RegisterCourierCommandHandler
}

func newApp(t *testing.T) *app {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &app{
		store:     memory.NewUnitOfWorkFactory(memory.NewStore()),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		now:       ordertest.PlacedAt,
	}
	clock := func() time.Time { return a.now }

	a.presence = presence.NewRegistry(a.store, presence.Config{Now: clock}, logger)
	a.engine = dispatch.NewEngine(a.presence, a.notifier, dispatch.Config{MaxDistanceKm: 10, Now: clock}, logger)
	a.router = tracking.NewRouter(a.store, a.notifier, logger)
	a.presence.OnDisconnect(a.engine.VoidCourier)
	t.Cleanup(func() {
		a.presence.Close()
		a.engine.Close()
		a.router.Close()
	})

	uows, orderUoWs := uowFactory{a.store}, orderUoWFactory{a.store}
	a.place = commands.NewPlaceOrderCommandHandler(orderUoWs, a.engine, a.notifier, a.router, a.publisher, clock, logger)
	a.respond = commands.NewRespondToOfferCommandHandler(uows, a.presence, a.engine, a.router, a.publisher, clock, logger)
	a.cancel = commands.NewCancelOrderCommandHandler(uows, a.presence, a.engine, a.notifier, a.router, a.publisher,
		clock, logger)
	a.updateStatus = commands.NewUpdateOrderStatusCommandHandler(orderUoWs, a.cancel, a.router, a.publisher, clock, logger)
	a.confirm = commands.NewConfirmDeliveryCommandHandler(uows, a.presence, a.notifier, a.router, a.publisher, clock,
		logger)
	a.rate = commands.NewRateOrderCommandHandler(orderUoWs)
	a.reoffer = commands.NewReofferPendingOrdersCommandHandler(orderUoWs, a.engine, a.notifier, a.router, a.publisher,
		clock, logger)
	a.availability = commands.NewUpdateCourierAvailabilityCommandHandler(a.presence, a.notifier, clock, logger)
	a.location = commands.NewReportCourierLocationCommandHandler(a.presence, a.router, clock, logger)
	a.register = commands.NewRegisterCourierCommandHandler(courierUoWFactory{a.store})
	return a
}

// onlineCourier registers an approved courier, connects it and parks it at point.
func (a *app) onlineCourier(t *testing.T, point kernel.GeoPoint) kernel.UUID {
	t.Helper()
	ctx := t.Context()

	cmd, err := commands.NewRegisterCourierCommand(kernel.NewUUID(), 0, true)
	require.NoError(t, err)
	profile, err := a.register.Handle(ctx, cmd)
	require.NoError(t, err)

	id := profile.ID()
	require.NoError(t, a.presence.Connect(ctx, id, "conn-"+id.String()))
	availability, err := commands.NewUpdateCourierAvailabilityCommand(id, true, true)
	require.NoError(t, err)
	_, err = a.availability.Handle(ctx, availability)
	require.NoError(t, err)
	report, err := commands.NewReportCourierLocationCommand(id, point.Latitude(), point.Longitude())
	require.NoError(t, err)
	require.NoError(t, a.location.Handle(ctx, report))
	return id
}

func (a *app) placeOrder(t *testing.T, customerID kernel.UUID) commands.PlacedOrder {
	t.Helper()

	cmd, err := commands.NewPlaceOrderCommand(ordertest.Actor(t, kernel.RoleCustomer, customerID),
		ordertest.Details(t, customerID))
	require.NoError(t, err)
	placed, err := a.place.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return placed
}

func (a *app) profile(t *testing.T, courierID kernel.UUID) *courier.Courier {
	t.Helper()

	c, err := a.store.Create().CourierRepository().Get(t.Context(), courierID)
	require.NoError(t, err)
	return c
}

func mustUUID(t *testing.T, s string) kernel.UUID {
	t.Helper()

	id, err := kernel.UUIDFromString(s)
	require.NoError(t, err)
	return id
}
