// Package tracking relays live courier positions and order status changes to the users who
// asked to follow an order.
//
// Subscriptions are process-local and keyed both by order and by observer, so a closing
// connection can drop all of its subscriptions at once.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

// LocationPayload is sent with courier_location_changed.
type LocationPayload struct {
	OrderID   string    `json:"orderId"`
	CourierID string    `json:"captainId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusPayload is sent with order_status_changed.
type StatusPayload struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Note        string    `json:"note"`
}

type Router struct {
	uowFactory ports.UnitOfWorkFactory
	notifier   ports.Notifier
	logger     *slog.Logger

	mu         sync.RWMutex
	byOrder    map[kernel.UUID]map[kernel.UUID]kernel.Actor
	byObserver map[kernel.UUID]map[kernel.UUID]struct{}
}

// NewRouter creates a router without subscriptions.
//
// Example:
//
//	router := tracking.NewRouter(uowFactory, hub, logger)
//	o, err := router.Subscribe(ctx, customer, orderID)
//	if err != nil {
//	    return err
//	}
//	defer router.Unsubscribe(customer.ID(), o.ID())
func NewRouter(uowFactory ports.UnitOfWorkFactory, notifier ports.Notifier, logger *slog.Logger) *Router {
	return &Router{
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     logger.With("component", "tracking_router"),
		byOrder:    make(map[kernel.UUID]map[kernel.UUID]kernel.Actor),
		byObserver: make(map[kernel.UUID]map[kernel.UUID]struct{}),
	}
}

// Subscribe makes observer receive live updates of the order. Only the order's customer and
// admins may subscribe. It returns the order so the caller can send the current state.
func (r *Router) Subscribe(ctx context.Context, observer kernel.Actor, orderID kernel.UUID) (*order.Order, error) {
	if err := observer.Validate(); err != nil {
		return nil, err
	}

	o, err := r.uowFactory.Create().OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeTrackedBy(observer) {
		return nil, errs.NewForbiddenError("%s may not track order %s", observer, orderID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byOrder[orderID] == nil {
		r.byOrder[orderID] = make(map[kernel.UUID]kernel.Actor)
	}
	r.byOrder[orderID][observer.ID()] = observer
	if r.byObserver[observer.ID()] == nil {
		r.byObserver[observer.ID()] = make(map[kernel.UUID]struct{})
	}
	r.byObserver[observer.ID()][orderID] = struct{}{}
	return o, nil
}

func (r *Router) Unsubscribe(observerID, orderID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(observerID, orderID)
}

// DropObserver removes every subscription of the observer.
func (r *Router) DropObserver(observerID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orderID := range r.byObserver[observerID] {
		r.remove(observerID, orderID)
	}
}

// Subscribers lists the observers of the order.
func (r *Router) Subscribers(orderID kernel.UUID) []kernel.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]kernel.Actor, 0, len(r.byOrder[orderID]))
	for _, a := range r.byOrder[orderID] {
		out = append(out, a)
	}
	return out
}

// PublishLocation sends courier_location_changed to the subscribers of every order the
// courier is carrying, i.e. assigned orders that are picked up or on the way.
func (r *Router) PublishLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	orders, err := r.uowFactory.Create().OrderRepository().GetActiveByCourier(ctx, courierID, order.TrackedStatuses())
	if err != nil {
		return err
	}

	for _, o := range orders {
		payload := LocationPayload{
			OrderID:   o.ID().String(),
			CourierID: courierID.String(),
			Latitude:  point.Latitude(),
			Longitude: point.Longitude(),
			Timestamp: at,
		}
		for _, observer := range r.Subscribers(o.ID()) {
			r.emit(ctx, observer.ID(), ports.EventCourierLocationChanged, payload)
		}
	}
	return nil
}

// PublishStatus sends order_status_changed for the order's current status to its customer
// and to admins following it.
func (r *Router) PublishStatus(ctx context.Context, o *order.Order) {
	last := o.LastTimelineEntry()
	payload := StatusPayload{
		OrderID:     o.ID().String(),
		OrderNumber: o.Number().String(),
		Status:      last.Status().String(),
		Timestamp:   last.Timestamp(),
		Note:        last.Note(),
	}

	r.emit(ctx, o.CustomerID(), ports.EventOrderStatusChanged, payload)
	for _, observer := range r.Subscribers(o.ID()) {
		if observer.IsAdmin() {
			r.emit(ctx, observer.ID(), ports.EventOrderStatusChanged, payload)
		}
	}
}

// Close drops every subscription.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.byOrder)
	clear(r.byObserver)
}

func (r *Router) remove(observerID, orderID kernel.UUID) {
	if observers, ok := r.byOrder[orderID]; ok {
		delete(observers, observerID)
		if len(observers) == 0 {
			delete(r.byOrder, orderID)
		}
	}
	if orders, ok := r.byObserver[observerID]; ok {
		delete(orders, orderID)
		if len(orders) == 0 {
			delete(r.byObserver, observerID)
		}
	}
}

func (r *Router) emit(ctx context.Context, userID kernel.UUID, event string, payload any) {
	if err := r.notifier.EmitToUser(ctx, userID, event, payload); err != nil {
		r.logger.WarnContext(ctx, "failed to notify observer",
			"userId", userID.String(), "event", event, "error", err)
	}
}
