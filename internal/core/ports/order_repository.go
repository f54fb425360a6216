// Package ports defines the contracts between the dispatch core and its infrastructure:
// persistence, realtime notification, event publishing and identity resolution.
package ports

import (
	"context"
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
)

// ErrOrderNumberTaken is returned by OrderRepository.Add when the order number collides
// with a stored one. Callers retry with a fresh number.
var ErrOrderNumberTaken = errors.New("order number already taken")

// OrderRepository persists Order aggregates.
type OrderRepository interface {
	// Add stores a newly placed order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the whole aggregate if the stored version still equals aggregate.Version(),
	// then advances the aggregate's version. A mismatch returns *errs.VersionIsInvalidError.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	GetByNumber(ctx context.Context, number order.Number) (*order.Order, error)

	// AssignCourier sets the courier only if the order is still placed and unassigned.
	// It reports whether this call won; the version is left alone so the winner can
	// Update the aggregate it already holds.
	AssignCourier(ctx context.Context, orderID, courierID kernel.UUID) (bool, error)

	// ConsumeConfirmationCode flips the code's used flag only if it is still unused and
	// reports whether this call won.
	ConsumeConfirmationCode(ctx context.Context, orderID kernel.UUID) (bool, error)

	// GetActiveByCourier lists the courier's orders whose status is one of statuses.
	GetActiveByCourier(ctx context.Context, courierID kernel.UUID, statuses []order.Status) ([]*order.Order, error)

	// GetPendingUnassigned lists placed orders without a courier, oldest first.
	GetPendingUnassigned(ctx context.Context, limit int) ([]*order.Order, error)
}
