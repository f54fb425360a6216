package ports

import (
	"context"
	"time"

	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
)

// CourierRepository persists courier profiles.
type CourierRepository interface {
	Add(ctx context.Context, aggregate *courier.Courier) error

	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// UpdateLocation stores the last known position of a courier.
	UpdateLocation(ctx context.Context, id kernel.UUID, point kernel.GeoPoint, at time.Time) error

	// AdjustStats atomically adds the deltas to the current order count and the lifetime
	// delivery count. The current order count is clamped at zero.
	AdjustStats(ctx context.Context, id kernel.UUID, currentOrdersDelta, totalDeliveriesDelta int) error
}
