package commands

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"
)

// UnclaimedReason is sent with order_cancelled when no courier took the order.
const UnclaimedReason = "no courier accepted the order"

type ReofferPendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	offers     OfferBook
	notifier   ports.Notifier
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

// NewReofferPendingOrdersCommandHandler creates the handler behind the reoffer job.
//
// Example:
//
//	handler := commands.NewReofferPendingOrdersCommandHandler(
//	    orderUoWs, engine, hub, router, publisher, time.Now, logger,
//	)
//	cmd, _ := commands.NewReofferPendingOrdersCommand(commands.DefaultReofferBatch)
//	offered, err := handler.Handle(ctx, cmd)
func NewReofferPendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	offers OfferBook,
	notifier ports.Notifier,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *ReofferPendingOrdersCommandHandler {
	logger = logger.With("component", "reoffer_pending_orders")
	return &ReofferPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		offers:     offers,
		notifier:   notifier,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

// Handle expires stale offers, cancels the orders whose last round went unanswered and
// offers every placed, unassigned order that has no open offer and rounds left. It returns
// the number of orders that reached at least one courier.
func (h *ReofferPendingOrdersCommandHandler) Handle(ctx context.Context, cmd ReofferPendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	_, exhausted := h.offers.ExpireStale(ctx)
	for _, orderID := range exhausted {
		if err := h.abandon(ctx, orderID); err != nil {
			h.logger.ErrorContext(ctx, "failed to cancel unclaimed order", "orderId", orderID.String(), "error", err)
		}
	}

	pending, err := h.uowFactory.Create().OrderRepository().GetPendingUnassigned(ctx, cmd.Batch())
	if err != nil {
		return 0, err
	}

	offered := 0
	for _, o := range pending {
		if h.offers.HasOpenOffer(o.ID()) || !h.offers.CanReoffer(o.ID()) {
			continue
		}
		n, offerErr := h.offers.Offer(ctx, o)
		if offerErr != nil {
			h.logger.ErrorContext(ctx, "failed to re-offer order", "orderId", o.ID().String(), "error", offerErr)
			continue
		}
		if n > 0 {
			offered++
		}
	}

	return offered, nil
}

func (h *ReofferPendingOrdersCommandHandler) abandon(ctx context.Context, orderID kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if err = o.Abandon(h.now()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	notify(ctx, h.logger, h.notifier, o.CustomerID(), ports.EventOrderCancelled,
		CancelledPayload{OrderID: o.ID().String(), Reason: UnclaimedReason})
	h.after.statusChanged(ctx, o)

	h.logger.InfoContext(ctx, "unclaimed order cancelled", "orderId", o.ID().String())
	return nil
}
