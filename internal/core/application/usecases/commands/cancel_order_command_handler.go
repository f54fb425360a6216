package commands

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
)

// CancelledPayload is sent with order_cancelled to the assigned courier.
type CancelledPayload struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	presence   CourierPresence
	offers     OfferBook
	notifier   ports.Notifier
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	presence CourierPresence,
	offers OfferBook,
	notifier ports.Notifier,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *CancelOrderCommandHandler {
	logger = logger.With("component", "cancel_order")
	return &CancelOrderCommandHandler{
		uowFactory: uowFactory,
		presence:   presence,
		offers:     offers,
		notifier:   notifier,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

// Handle cancels the order. The assigned courier, if any, loses the order from its load and
// is told; couriers still holding an offer see it withdrawn.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	if err = o.Transition(order.Cancelled, cmd.Reason(), cmd.Actor(), h.now()); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	courierID := o.CourierID()
	if courierID != nil {
		if err = uow.CourierRepository().AdjustStats(ctx, *courierID, -1, 0); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	if courierID != nil {
		h.presence.AdjustLoad(*courierID, -1)
		notify(ctx, h.logger, h.notifier, *courierID, ports.EventOrderCancelled,
			CancelledPayload{OrderID: o.ID().String(), Reason: cmd.Reason()})
	}
	h.offers.Withdraw(ctx, o.ID(), "cancelled")
	h.after.statusChanged(ctx, o)

	h.logger.InfoContext(ctx, "order cancelled", "orderId", o.ID().String(), "actor", cmd.Actor().String())
	return o, nil
}
