package queries

import (
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

var (
	ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
		"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
	)
)

// GetActiveOrdersQuery lists orders that are neither delivered nor cancelled, oldest first.
// It backs the admin dashboard; unassigned orders show a nil CourierID.
type GetActiveOrdersQuery struct {
	actor kernel.Actor
	guard guard.ConstructorGuard
}

func NewGetActiveOrdersQuery(actor kernel.Actor) (GetActiveOrdersQuery, error) {
	if err := actor.Validate(); err != nil {
		return GetActiveOrdersQuery{}, err
	}
	if !actor.IsAdmin() {
		return GetActiveOrdersQuery{}, errs.NewForbiddenError("%s may not list active orders", actor)
	}
	return GetActiveOrdersQuery{actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

type ActiveOrderView struct {
	ID         kernel.UUID
	Number     string
	CustomerID kernel.UUID
	CourierID  *kernel.UUID
	Status     string
	Total      kernel.Money
	CreatedAt  time.Time
}
