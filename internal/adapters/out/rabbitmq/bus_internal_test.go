package rabbitmq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

// loopback hands every published message straight back to the bus, like a fanout exchange
// with this instance as its only consumer.
type loopback struct {
	bus       *Bus
	published []amqp.Publishing
}

func (l *loopback) PublishWithContext(ctx context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	if exchange != "notifications" {
		return amqp.ErrClosed
	}
	l.published = append(l.published, msg)
	l.bus.deliver(ctx, msg.Body)
	return nil
}

type received struct {
	room  string
	event string
	data  json.RawMessage
}

type localHub struct {
	mu  sync.Mutex
	got []received
}

func (h *localHub) EmitToUser(ctx context.Context, userID kernel.UUID, event string, payload any) error {
	return h.EmitToRoom(ctx, ports.UserRoom(userID), event, payload)
}

func (h *localHub) EmitToRoom(_ context.Context, room string, event string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	raw, _ := payload.(json.RawMessage)
	h.got = append(h.got, received{room: room, event: event, data: raw})
	return nil
}

func TestBus_RoundTripsFramesToTheLocalHub(t *testing.T) {
	// Given
	hub := &localHub{}
	pub := &loopback{}
	bus := newBus(pub, "notifications", hub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pub.bus = bus
	userID := kernel.NewUUID()

	// When
	err := bus.EmitToUser(t.Context(), userID, ports.EventOrderTaken, map[string]string{"orderId": "o-1"})

	// Then
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	require.Equal(t, "application/json", pub.published[0].ContentType)
	require.Len(t, hub.got, 1)
	require.Equal(t, ports.UserRoom(userID), hub.got[0].room)
	require.Equal(t, ports.EventOrderTaken, hub.got[0].event)
	require.JSONEq(t, `{"orderId":"o-1"}`, string(hub.got[0].data))
}

func TestBus_PublishFailureIsReturned(t *testing.T) {
	hub := &localHub{}
	pub := &loopback{}
	bus := newBus(pub, "elsewhere", hub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pub.bus = bus

	err := bus.EmitToRoom(t.Context(), ports.AdminRoom, ports.EventCourierStatusChanged, nil)

	require.ErrorIs(t, err, amqp.ErrClosed)
	require.Empty(t, hub.got)
}

func TestBus_DropsMalformedMessages(t *testing.T) {
	hub := &localHub{}
	bus := newBus(&loopback{}, "notifications", hub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	bus.deliver(t.Context(), []byte("not json"))

	require.Empty(t, hub.got)
}
