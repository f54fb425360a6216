package memory

import (
	"context"
	"time"

	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

var _ ports.CourierRepository = (*CourierRepository)(nil)

type courierRecord struct {
	id                kernel.UUID
	approved          bool
	active            bool
	maxOrders         int
	currentOrders     int
	totalDeliveries   int
	location          *kernel.GeoPoint
	locationUpdatedAt *time.Time
}

func recordOf(c *courier.Courier) courierRecord {
	return courierRecord{
		id:                c.ID(),
		approved:          c.IsApproved(),
		active:            c.IsActive(),
		maxOrders:         c.MaxOrders(),
		currentOrders:     c.CurrentOrders(),
		totalDeliveries:   c.TotalDeliveries(),
		location:          c.Location(),
		locationUpdatedAt: c.LocationUpdatedAt(),
	}
}

func (rec courierRecord) restore() (*courier.Courier, error) {
	return courier.RestoreCourier(rec.id, rec.approved, rec.active, rec.maxOrders,
		rec.currentOrders, rec.totalDeliveries, rec.location, rec.locationUpdatedAt)
}

type CourierRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *CourierRepository) Add(_ context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := aggregate.ID()
	if _, ok := r.store.couriers[id]; ok {
		return errs.NewValueIsInvalidError("courier already exists")
	}
	r.store.couriers[id] = recordOf(aggregate)
	r.uow.record(func() { delete(r.store.couriers, id) })
	return nil
}

func (r *CourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	rec, ok := r.store.couriers[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}
	return rec.restore()
}

func (r *CourierRepository) UpdateLocation(_ context.Context, id kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	return r.modify(id, func(rec *courierRecord) {
		rec.location = &point
		rec.locationUpdatedAt = &at
	})
}

func (r *CourierRepository) AdjustStats(_ context.Context, id kernel.UUID, currentOrdersDelta, totalDeliveriesDelta int) error {
	return r.modify(id, func(rec *courierRecord) {
		rec.currentOrders = max(rec.currentOrders+currentOrdersDelta, 0)
		rec.totalDeliveries = max(rec.totalDeliveries+totalDeliveriesDelta, 0)
	})
}

func (r *CourierRepository) modify(id kernel.UUID, change func(rec *courierRecord)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.couriers[id]
	if !ok {
		return errs.NewObjectNotFoundError("courier", id.String())
	}
	next := prev
	change(&next)
	r.store.couriers[id] = next
	r.uow.record(func() { r.store.couriers[id] = prev })
	return nil
}
