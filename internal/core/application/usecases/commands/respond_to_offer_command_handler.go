package commands

import (
	"context"
	"log/slog"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

const acceptedNote = "Order accepted by courier"

// RespondToOfferCommandHandler settles a courier's answer to an offer. Accepts race on the
// conditional assignment in the store; the losers get ErrAlreadyTaken.
//
// Example:
//
//	handler := NewRespondToOfferCommandHandler(uowFactory, registry, engine, router, publisher, time.Now, logger)
//	cmd, err := NewRespondToOfferCommand(courierID, orderID, OfferAccept)
//	if err != nil {
//	    return fmt.Errorf("invalid response: %w", err)
//	}
//
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrAlreadyTaken) {
//	    // another courier was faster
//	}
type RespondToOfferCommandHandler struct {
	uowFactory UoWFactory
	presence   CourierPresence
	offers     OfferBook
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

func NewRespondToOfferCommandHandler(
	uowFactory UoWFactory,
	presence CourierPresence,
	offers OfferBook,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *RespondToOfferCommandHandler {
	logger = logger.With("component", "respond_to_offer")
	return &RespondToOfferCommandHandler{
		uowFactory: uowFactory,
		presence:   presence,
		offers:     offers,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

// Handle applies a courier's answer. An accept returns the confirmed order; a reject returns nil.
//
// Accepts race on the store: the first conditional assignment wins and every later one gets
// ErrAlreadyTaken without side effects.
func (h *RespondToOfferCommandHandler) Handle(ctx context.Context, cmd RespondToOfferCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID()); err != nil {
		return nil, err
	}

	if cmd.Action() == OfferReject {
		h.offers.RecordRejection(ctx, cmd.OrderID(), cmd.CourierID())
		return nil, nil
	}

	if err := h.presence.CheckEligible(cmd.CourierID()); err != nil {
		return nil, err
	}

	accepted, err := h.accept(ctx, cmd.OrderID(), cmd.CourierID())
	if err != nil {
		return nil, err
	}

	h.presence.AdjustLoad(cmd.CourierID(), 1)
	h.offers.Accepted(ctx, cmd.OrderID(), cmd.CourierID())
	h.after.statusChanged(ctx, accepted)

	h.logger.InfoContext(ctx, "order accepted",
		"orderId", cmd.OrderID().String(), "courierId", cmd.CourierID().String())
	return accepted, nil
}

func (h *RespondToOfferCommandHandler) accept(ctx context.Context, orderID, courierID kernel.UUID) (*order.Order, error) {
	courierActor, err := kernel.NewActor(courierID, kernel.RoleCourier)
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	courierRepo := uow.CourierRepository()

	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	won, err := orderRepo.AssignCourier(ctx, orderID, courierID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errs.NewAlreadyTakenError(orderID)
	}

	if err = o.AssignCourier(courierID); err != nil {
		return nil, err
	}
	if err = o.Transition(order.Confirmed, acceptedNote, courierActor, h.now()); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err = courierRepo.AdjustStats(ctx, courierID, 1, 0); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
