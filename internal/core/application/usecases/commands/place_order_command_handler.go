package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
)

// placeOrderAttempts bounds the retries on order number collisions.
const placeOrderAttempts = 3

// PlacedOrder is what the customer gets back after placing an order.
type PlacedOrder struct {
	OrderID               string    `json:"orderId"`
	OrderNumber           string    `json:"orderNumber"`
	ConfirmationCode      string    `json:"confirmationCode"`
	EstimatedDeliveryTime time.Time `json:"estimatedDeliveryTime"`
}

type PlaceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	offers     OfferBook
	notifier   ports.Notifier
	after      afterCommit
	now        Clock
	logger     *slog.Logger
}

func NewPlaceOrderCommandHandler(
	uowFactory OrderUoWFactory,
	offers OfferBook,
	notifier ports.Notifier,
	tracker StatusTracker,
	events ports.OrderEventPublisher,
	now Clock,
	logger *slog.Logger,
) *PlaceOrderCommandHandler {
	logger = logger.With("component", "place_order")
	return &PlaceOrderCommandHandler{
		uowFactory: uowFactory,
		offers:     offers,
		notifier:   notifier,
		after:      afterCommit{tracker: tracker, events: events, logger: logger},
		now:        now,
		logger:     logger,
	}
}

// Handle stores the order, tells the customer and offers the order to nearby couriers.
func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (PlacedOrder, error) {
	if err := cmd.Validate(); err != nil {
		return PlacedOrder{}, err
	}

	var (
		placed *order.Order
		err    error
	)
	for range placeOrderAttempts {
		placed, err = h.place(ctx, cmd)
		if !errors.Is(err, ports.ErrOrderNumberTaken) {
			break
		}
		h.logger.WarnContext(ctx, "order number collision, retrying")
	}
	if err != nil {
		return PlacedOrder{}, err
	}

	result := PlacedOrder{
		OrderID:               placed.ID().String(),
		OrderNumber:           placed.Number().String(),
		ConfirmationCode:      placed.ConfirmationCode().Code(),
		EstimatedDeliveryTime: placed.EstimatedDeliveryTime(),
	}
	notify(ctx, h.logger, h.notifier, placed.CustomerID(), ports.EventOrderPlaced, result)
	h.after.statusChanged(ctx, placed)

	if _, err = h.offers.Offer(ctx, placed); err != nil {
		h.logger.ErrorContext(ctx, "failed to offer order", "orderId", result.OrderID, "error", err)
	}

	h.logger.InfoContext(ctx, "order placed", "orderId", result.OrderID, "orderNumber", result.OrderNumber)
	return result, nil
}

func (h *PlaceOrderCommandHandler) place(ctx context.Context, cmd PlaceOrderCommand) (*order.Order, error) {
	now := h.now()
	placed, err := order.NewOrder(kernel.NewUUID(), order.GenerateNumber(now), cmd.Details(),
		order.GenerateConfirmationCode(now), now)
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

	if err = uow.OrderRepository().Add(ctx, placed); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return placed, nil
}
