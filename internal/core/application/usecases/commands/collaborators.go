package commands

import (
	"context"
	"log/slog"
	"time"

	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
)

// CourierPresence is the view of the presence registry the commands need.
type CourierPresence interface {
	CheckEligible(courierID kernel.UUID) error
	AdjustLoad(courierID kernel.UUID, delta int)
	SetAvailability(courierID kernel.UUID, online, available bool) (presence.Snapshot, error)
	UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint) error
	FlushLocations(ctx context.Context) int
}

// OfferBook is the view of the dispatch engine the commands need.
type OfferBook interface {
	Offer(ctx context.Context, o *order.Order) (int, error)
	RecordRejection(ctx context.Context, orderID, courierID kernel.UUID)
	Accepted(ctx context.Context, orderID, winnerID kernel.UUID)
	Withdraw(ctx context.Context, orderID kernel.UUID, reason string)
	ExpireStale(ctx context.Context) (reoffer, exhausted []kernel.UUID)
	HasOpenOffer(orderID kernel.UUID) bool
	CanReoffer(orderID kernel.UUID) bool
}

// StatusTracker is the view of the tracking router the commands need.
type StatusTracker interface {
	PublishStatus(ctx context.Context, o *order.Order)
	PublishLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, at time.Time) error
}

// Clock returns the current time. Handlers take it as a dependency so tests can pin it.
type Clock func() time.Time

// afterCommit holds what every status-changing handler does once the transaction is
// committed. Failures here are logged, never returned: the change itself is durable.
type afterCommit struct {
	tracker StatusTracker
	events  ports.OrderEventPublisher
	logger  *slog.Logger
}

func (a afterCommit) statusChanged(ctx context.Context, o *order.Order) {
	a.tracker.PublishStatus(ctx, o)

	last := o.LastTimelineEntry()
	event := ports.OrderStatusChanged{
		OrderID:     o.ID().String(),
		OrderNumber: o.Number().String(),
		CustomerID:  o.CustomerID().String(),
		Status:      last.Status().String(),
		Note:        last.Note(),
		OccurredAt:  last.Timestamp(),
	}
	if courierID := o.CourierID(); courierID != nil {
		event.CourierID = courierID.String()
	}

	if err := a.events.PublishOrderStatusChanged(ctx, event); err != nil {
		a.logger.ErrorContext(ctx, "failed to publish order status change",
			"orderId", event.OrderID, "status", event.Status, "error", err)
	}
}

func notify(ctx context.Context, logger *slog.Logger, n ports.Notifier, userID kernel.UUID, event string, payload any) {
	if err := n.EmitToUser(ctx, userID, event, payload); err != nil {
		logger.WarnContext(ctx, "failed to notify user", "userId", userID.String(), "event", event, "error", err)
	}
}
