package memory

import (
	"context"
	"slices"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[aggregate.ID()]; ok {
		return errs.NewValueIsInvalidError("order already exists")
	}
	if _, ok := r.store.numbers[aggregate.Number()]; ok {
		return ports.ErrOrderNumberTaken
	}

	id, number := aggregate.ID(), aggregate.Number()
	r.store.orders[id] = aggregate.Snapshot()
	r.store.numbers[number] = id
	r.uow.record(func() {
		delete(r.store.orders, id)
		delete(r.store.numbers, number)
	})
	return nil
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.orders[aggregate.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	if prev.Version != aggregate.Version() {
		return errs.NewVersionIsInvalidError("order " + aggregate.ID().String())
	}

	next := aggregate.Snapshot()
	next.Version++
	r.store.orders[aggregate.ID()] = next
	r.uow.record(func() { r.store.orders[prev.ID] = prev })
	aggregate.AdvanceVersion()
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	snap, ok := r.store.orders[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(snap)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number order.Number) (*order.Order, error) {
	r.store.mu.Lock()
	id, ok := r.store.numbers[number]
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderNumber", number.String())
	}
	return r.Get(ctx, id)
}

func (r *OrderRepository) AssignCourier(_ context.Context, orderID, courierID kernel.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.orders[orderID]
	if !ok {
		return false, errs.NewObjectNotFoundError("order", orderID.String())
	}
	if prev.CourierID != nil || prev.Status != order.Placed {
		return false, nil
	}

	next := prev
	next.CourierID = &courierID
	r.store.orders[orderID] = next
	r.uow.record(func() { r.store.orders[orderID] = prev })
	return true, nil
}

func (r *OrderRepository) ConsumeConfirmationCode(_ context.Context, orderID kernel.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.orders[orderID]
	if !ok {
		return false, errs.NewObjectNotFoundError("order", orderID.String())
	}
	if prev.ConfirmationCode.IsUsed() {
		return false, nil
	}

	used, err := order.NewConfirmationCode(prev.ConfirmationCode.Code(), true, prev.ConfirmationCode.ExpiresAt())
	if err != nil {
		return false, err
	}
	next := prev
	next.ConfirmationCode = used
	r.store.orders[orderID] = next
	r.uow.record(func() { r.store.orders[orderID] = prev })
	return true, nil
}

func (r *OrderRepository) GetActiveByCourier(
	_ context.Context,
	courierID kernel.UUID,
	statuses []order.Status,
) ([]*order.Order, error) {
	return r.filter(0, func(s order.Snapshot) bool {
		return s.CourierID != nil && s.CourierID.IsEqual(courierID) && slices.Contains(statuses, s.Status)
	})
}

func (r *OrderRepository) GetPendingUnassigned(_ context.Context, limit int) ([]*order.Order, error) {
	return r.filter(limit, func(s order.Snapshot) bool {
		return s.Status == order.Placed && s.CourierID == nil
	})
}

func (r *OrderRepository) filter(limit int, keep func(order.Snapshot) bool) ([]*order.Order, error) {
	r.store.mu.Lock()
	var matched []order.Snapshot
	for _, s := range r.store.orders {
		if keep(s) {
			matched = append(matched, s)
		}
	}
	r.store.mu.Unlock()

	slices.SortFunc(matched, func(a, b order.Snapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*order.Order, 0, len(matched))
	for _, s := range matched {
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
