package commands

import (
	"context"

	"turbodelivery/internal/core/domain/model/courier"
)

type RegisterCourierCommandHandler struct {
	uowFactory CourierUoWFactory
}

func NewRegisterCourierCommandHandler(uowFactory CourierUoWFactory) *RegisterCourierCommandHandler {
	return &RegisterCourierCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h *RegisterCourierCommandHandler) Handle(ctx context.Context, cmd RegisterCourierCommand) (*courier.Courier, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := courier.NewCourier(cmd.CourierID(), cmd.MaxOrders())
	if err != nil {
		return nil, err
	}
	if cmd.Approved() {
		profile.Approve()
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.CourierRepository().Add(ctx, profile); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return profile, nil
}
