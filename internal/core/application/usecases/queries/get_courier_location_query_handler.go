package queries

import (
	"context"

	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

// GetCourierLocationQueryHandler answers with the cached position of a connected courier
// and falls back to the last persisted one.
type GetCourierLocationQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	presence   PresenceReader
}

func NewGetCourierLocationQueryHandler(
	uowFactory ports.UnitOfWorkFactory,
	presence PresenceReader,
) GetCourierLocationQueryHandler {
	return GetCourierLocationQueryHandler{uowFactory: uowFactory, presence: presence}
}

func (h GetCourierLocationQueryHandler) Handle(
	ctx context.Context,
	query GetCourierLocationQuery,
) (CourierLocationView, error) {
	if err := query.Validate(); err != nil {
		return CourierLocationView{}, err
	}

	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return CourierLocationView{}, err
	}
	if !o.CanBeTrackedBy(query.Actor()) {
		return CourierLocationView{}, errs.NewForbiddenError("%s may not track order %s", query.Actor(), o.ID())
	}

	courierID := o.CourierID()
	if courierID == nil {
		return CourierLocationView{}, errs.NewObjectNotFoundError("courier of order", o.ID().String())
	}

	view := CourierLocationView{OrderID: o.ID(), CourierID: *courierID}
	if point, at, ok := h.presence.Location(*courierID); ok {
		view.Location, view.UpdatedAt, view.Live = point, at, true
		return view, nil
	}

	profile, err := uow.CourierRepository().Get(ctx, *courierID)
	if err != nil {
		return CourierLocationView{}, err
	}
	if profile.Location() == nil {
		return CourierLocationView{}, errs.NewObjectNotFoundError("location of courier", courierID.String())
	}
	view.Location = *profile.Location()
	if at := profile.LocationUpdatedAt(); at != nil {
		view.UpdatedAt = *at
	}

	return view, nil
}
