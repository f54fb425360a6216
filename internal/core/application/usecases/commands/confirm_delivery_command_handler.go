package commands

import (
	"context"
	"log/slog"
	"time"

	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

// DeliveredPayload is sent with order_delivered to the customer.
type DeliveredPayload struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// ConfirmDeliveryCommandHandler closes an order with the code the customer hands over.
//
// Example:
//
//	handler := NewConfirmDeliveryCommandHandler(uowFactory, registry, hub, router, publisher, time.Now, logger)
//	cmd, _ := NewConfirmDeliveryCommand(courierID, orderID, "4821")
//
//	if _, err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("delivery not confirmed: %w", err)
//	}
type ConfirmDeliveryCommandHandler struct {
	uowFactory UoWFactory
	presence   CourierPresence
	notifier   ports.Notifier
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

func NewConfirmDeliveryCommandHandler(
	uowFactory UoWFactory,
	presence CourierPresence,
	notifier ports.Notifier,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *ConfirmDeliveryCommandHandler {
	logger = logger.With("component", "confirm_delivery")
	return &ConfirmDeliveryCommandHandler{
		uowFactory: uowFactory,
		presence:   presence,
		notifier:   notifier,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

// Handle checks the code the customer handed to the courier and closes the order. Two
// concurrent confirmations with the right code race on the store; the loser gets
// ErrCodeAlreadyUsed.
func (h *ConfirmDeliveryCommandHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*order.Order, error) {
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

	if err = o.ConfirmDelivery(cmd.Code(), cmd.CourierID(), h.now()); err != nil {
		return nil, err
	}

	consumed, err := orderRepo.ConsumeConfirmationCode(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, errs.NewCodeAlreadyUsedError()
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.CourierRepository().AdjustStats(ctx, cmd.CourierID(), -1, 1); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.presence.AdjustLoad(cmd.CourierID(), -1)
	deliveredAt := o.LastTimelineEntry().Timestamp()
	notify(ctx, h.logger, h.notifier, o.CustomerID(), ports.EventOrderDelivered, DeliveredPayload{
		OrderID:     o.ID().String(),
		OrderNumber: o.Number().String(),
		DeliveredAt: deliveredAt,
	})
	h.after.statusChanged(ctx, o)

	h.logger.InfoContext(ctx, "order delivered", "orderId", o.ID().String(), "courierId", cmd.CourierID().String())
	return o, nil
}
