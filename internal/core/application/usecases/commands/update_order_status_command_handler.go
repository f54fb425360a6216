package commands

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
)

type UpdateOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	cancel     *CancelOrderCommandHandler
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

// NewUpdateOrderStatusCommandHandler builds the handler for plain status moves. Moves to
// cancelled are handed to cancel so they get the same side effects as an explicit cancel.
func NewUpdateOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	cancel *CancelOrderCommandHandler,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *UpdateOrderStatusCommandHandler {
	logger = logger.With("component", "update_order_status")
	return &UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		cancel:     cancel,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.Status() == order.Cancelled {
		cancelCmd, err := NewCancelOrderCommand(cmd.Actor(), cmd.OrderID(), cmd.Note())
		if err != nil {
			return nil, err
		}
		return h.cancel.Handle(ctx, cancelCmd)
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

	if err = o.Transition(cmd.Status(), cmd.Note(), cmd.Actor(), h.now()); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.after.statusChanged(ctx, o)
	h.logger.InfoContext(ctx, "order status updated",
		"orderId", o.ID().String(), "status", o.Status().String(), "actor", cmd.Actor().String())
	return o, nil
}
