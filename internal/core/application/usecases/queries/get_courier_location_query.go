package queries

import (
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/guard"
)

var (
	ErrGetCourierLocationQueryIsNotConstructed = errors.New(
		"GetCourierLocationQuery must be created via NewGetCourierLocationQuery constructor",
	)
)

// GetCourierLocationQuery asks where the courier carrying an order currently is.
type GetCourierLocationQuery struct { //nolint:recvcheck //using for validation
	actor   kernel.Actor
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetCourierLocationQuery(actor kernel.Actor, orderID kernel.UUID) (GetCourierLocationQuery, error) {
	if err := errors.Join(actor.Validate(), orderID.Validate()); err != nil {
		return GetCourierLocationQuery{}, err
	}
	return GetCourierLocationQuery{actor: actor, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierLocationQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierLocationQueryIsNotConstructed)
}

func (q GetCourierLocationQuery) Actor() kernel.Actor {
	return q.actor
}

func (q GetCourierLocationQuery) OrderID() kernel.UUID {
	return q.orderID
}

// CourierLocationView is the answer to GetCourierLocationQuery. Live is false when the
// position comes from the stored profile rather than the presence cache.
type CourierLocationView struct {
	OrderID   kernel.UUID
	CourierID kernel.UUID
	Location  kernel.GeoPoint
	UpdatedAt time.Time
	Live      bool
}
