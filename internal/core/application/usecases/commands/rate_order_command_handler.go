package commands

import (
	"context"

	"turbodelivery/internal/core/domain/model/order"
)

type RateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewRateOrderCommandHandler(uowFactory OrderUoWFactory) *RateOrderCommandHandler {
	return &RateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h *RateOrderCommandHandler) Handle(ctx context.Context, cmd RateOrderCommand) (*order.Order, error) {
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

	if err = o.Rate(cmd.Actor(), cmd.Rating()); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
