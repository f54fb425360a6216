package queries

import (
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

var (
	ErrGetCouriersQueryIsNotConstructed = errors.New(
		"GetCouriersQuery must be created via NewGetCouriersQuery constructor",
	)
)

// GetCouriersQuery lists every courier profile together with its live presence.
// Only admins may run it.
//
// Example:
//
//	query, err := NewGetCouriersQuery(admin)
//	if err != nil {
//	    return err
//	}
//
//	couriers, err := handler.Handle(ctx, query)
type GetCouriersQuery struct {
	actor kernel.Actor
	guard guard.ConstructorGuard
}

func NewGetCouriersQuery(actor kernel.Actor) (GetCouriersQuery, error) {
	if err := actor.Validate(); err != nil {
		return GetCouriersQuery{}, err
	}
	if !actor.IsAdmin() {
		return GetCouriersQuery{}, errs.NewForbiddenError("%s may not list couriers", actor)
	}
	return GetCouriersQuery{actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCouriersQuery) Validate() error {
	return q.guard.Validate(ErrGetCouriersQueryIsNotConstructed)
}

// CourierView is one row of GetCouriersQuery. Online and Available come from the presence
// registry and are false for couriers that are not connected to this instance.
type CourierView struct {
	ID                kernel.UUID
	Approved          bool
	Active            bool
	MaxOrders         int
	CurrentOrders     int
	TotalDeliveries   int
	Location          *kernel.GeoPoint
	LocationUpdatedAt *time.Time
	Connected         bool
	Online            bool
	Available         bool
}
