// Package dispatch offers placed orders to nearby couriers and keeps the book of open offers.
//
// An offer is a broadcast, not a reservation: every eligible courier sees it and the first
// accepted response that wins the conditional write in the order store gets the order. The
// engine only remembers who saw which order, so the losers can be told the order is gone
// and so expired offers can be re-sent.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/domain/services"
	"turbodelivery/internal/core/ports"
)

const (
	DefaultOfferTTL  = 60 * time.Second
	DefaultMaxRounds = 5
)

// CourierFinder lists the couriers an order may be offered to, nearest first.
type CourierFinder interface {
	FindEligible(origin kernel.GeoPoint, maxDistanceKm float64) ([]services.RankedCandidate, error)
}

type Config struct {
	// MaxDistanceKm limits offers to couriers within this distance of the pickup; 0 disables the limit.
	MaxDistanceKm float64
	OfferTTL      time.Duration
	// MaxRounds caps how often one order is offered.
	MaxRounds int
	Now       func() time.Time
}

// OfferPayload is sent with new_order_available.
type OfferPayload struct {
	OrderID         string             `json:"orderId"`
	OrderNumber     string             `json:"orderNumber"`
	RestaurantID    string             `json:"restaurantId"`
	Pickup          LocationPayload    `json:"pickup"`
	DeliveryAddress DestinationPayload `json:"deliveryAddress"`
	Total           int64              `json:"total"`
	EstimatedTime   time.Time          `json:"estimatedTime"`
	DistanceKm      *float64           `json:"distanceKm,omitempty"`
	ExpiresAt       time.Time          `json:"expiresAt"`
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DestinationPayload struct {
	Street  string          `json:"street"`
	City    string          `json:"city"`
	State   string          `json:"state"`
	ZipCode string          `json:"zipCode"`
	Point   LocationPayload `json:"coordinates"`
}

// OrderRefPayload is sent with order_taken and offer_expired.
type OrderRefPayload struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

type book struct {
	offered   map[kernel.UUID]struct{}
	offeredAt time.Time
}

type Engine struct {
	finder   CourierFinder
	notifier ports.Notifier
	cfg      Config
	logger   *slog.Logger

	mu     sync.Mutex
	books  map[kernel.UUID]*book
	rounds map[kernel.UUID]int
	// rejections outlive a round so a courier who said no is not asked again.
	rejections map[kernel.UUID]map[kernel.UUID]struct{}
	// closed holds orders that were taken, withdrawn or ran out of rounds, for one TTL, so an
	// Offer working from an older read cannot open them again.
	closed map[kernel.UUID]time.Time
}

// NewEngine creates the offer book. Zero OfferTTL, MaxRounds and Now fall back to the defaults.
//
// Example:
//
//	engine := dispatch.NewEngine(registry, hub, dispatch.Config{MaxDistanceKm: 5}, logger)
//	registry.OnDisconnect(engine.VoidCourier)
//
//	n, err := engine.Offer(ctx, placed)
//	if err != nil {
//	    return err
//	}
//	logger.Info("order offered", "couriers", n)
func NewEngine(finder CourierFinder, notifier ports.Notifier, cfg Config, logger *slog.Logger) *Engine {
	if cfg.OfferTTL <= 0 {
		cfg.OfferTTL = DefaultOfferTTL
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		finder:     finder,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With("component", "dispatch_engine"),
		books:      make(map[kernel.UUID]*book),
		rounds:     make(map[kernel.UUID]int),
		rejections: make(map[kernel.UUID]map[kernel.UUID]struct{}),
		closed:     make(map[kernel.UUID]time.Time),
	}
}

// Offer sends new_order_available to every eligible courier that has not rejected the order
// yet and returns how many were reached. A round that reaches nobody is not counted, and
// orders closed within the last TTL are skipped.
func (e *Engine) Offer(ctx context.Context, o *order.Order) (int, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	if o.Status() != order.Placed || o.CourierID() != nil {
		return 0, nil
	}

	ranked, err := e.finder.FindEligible(o.Pickup(), e.cfg.MaxDistanceKm)
	if err != nil {
		return 0, err
	}

	now := e.cfg.Now()

	e.mu.Lock()
	if _, gone := e.closed[o.ID()]; gone || e.rounds[o.ID()] >= e.cfg.MaxRounds {
		e.mu.Unlock()
		return 0, nil
	}
	rejected := e.rejections[o.ID()]
	recipients := make([]services.RankedCandidate, 0, len(ranked))
	for _, c := range ranked {
		if _, no := rejected[c.CourierID]; !no {
			recipients = append(recipients, c)
		}
	}
	if len(recipients) == 0 {
		e.mu.Unlock()
		e.logger.InfoContext(ctx, "no eligible courier for order", "orderId", o.ID().String())
		return 0, nil
	}

	b := &book{
		offered:   make(map[kernel.UUID]struct{}, len(recipients)),
		offeredAt: now,
	}
	for _, c := range recipients {
		b.offered[c.CourierID] = struct{}{}
	}
	e.books[o.ID()] = b
	e.rounds[o.ID()]++
	round := e.rounds[o.ID()]
	e.mu.Unlock()

	base := newOfferPayload(o, now.Add(e.cfg.OfferTTL))
	for _, c := range recipients {
		payload := base
		if c.Location != nil {
			d := c.DistanceKm
			payload.DistanceKm = &d
		}
		e.emit(ctx, c.CourierID, ports.EventNewOrderAvailable, payload)
	}

	e.logger.InfoContext(ctx, "order offered",
		"orderId", o.ID().String(), "couriers", len(recipients), "round", round)
	return len(recipients), nil
}

// RecordRejection notes that courierID declined the order. The order is not offered to
// that courier again.
func (e *Engine) RecordRejection(ctx context.Context, orderID, courierID kernel.UUID) {
	e.mu.Lock()
	if b, ok := e.books[orderID]; ok {
		delete(b.offered, courierID)
	}
	if e.rejections[orderID] == nil {
		e.rejections[orderID] = make(map[kernel.UUID]struct{})
	}
	e.rejections[orderID][courierID] = struct{}{}
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "offer rejected", "orderId", orderID.String(), "courierId", courierID.String())
}

// Accepted closes the offer after winnerID took the order and sends order_taken to every
// other courier that saw it.
func (e *Engine) Accepted(ctx context.Context, orderID, winnerID kernel.UUID) {
	for _, courierID := range e.close(orderID) {
		if courierID.IsEqual(winnerID) {
			continue
		}
		e.emit(ctx, courierID, ports.EventOrderTaken, OrderRefPayload{OrderID: orderID.String()})
	}
}

// Withdraw closes the offer of an order that can no longer be taken, e.g. a cancelled one.
func (e *Engine) Withdraw(ctx context.Context, orderID kernel.UUID, reason string) {
	for _, courierID := range e.close(orderID) {
		e.emit(ctx, courierID, ports.EventOfferExpired, OrderRefPayload{OrderID: orderID.String(), Reason: reason})
	}
}

// VoidCourier forgets the courier in every open offer. It is registered as a presence
// disconnect listener.
func (e *Engine) VoidCourier(courierID kernel.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.books {
		delete(b.offered, courierID)
	}
}

// ExpireStale closes offers older than the TTL and tells their couriers offer_expired.
// It returns the orders that still have rounds left and the orders that used their last
// round; the engine forgets the latter, so the caller is expected to retire them.
func (e *Engine) ExpireStale(ctx context.Context) (reoffer, exhausted []kernel.UUID) {
	now := e.cfg.Now()

	type expired struct {
		orderID  kernel.UUID
		couriers []kernel.UUID
	}

	var closed []expired

	e.mu.Lock()
	for orderID, at := range e.closed {
		if now.Sub(at) >= e.cfg.OfferTTL {
			delete(e.closed, orderID)
		}
	}
	for orderID, b := range e.books {
		if now.Sub(b.offeredAt) < e.cfg.OfferTTL {
			continue
		}
		delete(e.books, orderID)
		closed = append(closed, expired{orderID: orderID, couriers: keys(b.offered)})
		if e.rounds[orderID] < e.cfg.MaxRounds {
			reoffer = append(reoffer, orderID)
			continue
		}
		delete(e.rounds, orderID)
		delete(e.rejections, orderID)
		e.closed[orderID] = now
		exhausted = append(exhausted, orderID)
	}
	e.mu.Unlock()

	for _, x := range closed {
		for _, courierID := range x.couriers {
			e.emit(ctx, courierID, ports.EventOfferExpired, OrderRefPayload{OrderID: x.orderID.String(), Reason: "expired"})
		}
		e.logger.InfoContext(ctx, "offer expired", "orderId", x.orderID.String())
	}
	return reoffer, exhausted
}

// HasOpenOffer reports whether the order has an offer that has neither expired nor closed.
func (e *Engine) HasOpenOffer(orderID kernel.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.books[orderID]
	return ok
}

// CanReoffer reports whether the order has rounds left and was not closed recently.
func (e *Engine) CanReoffer(orderID kernel.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, gone := e.closed[orderID]; gone {
		return false
	}
	return e.rounds[orderID] < e.cfg.MaxRounds
}

// Offered lists the couriers currently holding an offer for the order.
func (e *Engine) Offered(orderID kernel.UUID) []kernel.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.books[orderID]; ok {
		return keys(b.offered)
	}
	return nil
}

// Close forgets every offer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.books)
	clear(e.rounds)
	clear(e.rejections)
	clear(e.closed)
}

func (e *Engine) close(orderID kernel.UUID) []kernel.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[orderID]
	delete(e.books, orderID)
	delete(e.rounds, orderID)
	delete(e.rejections, orderID)
	e.closed[orderID] = e.cfg.Now()
	if !ok {
		return nil
	}
	return keys(b.offered)
}

func (e *Engine) emit(ctx context.Context, courierID kernel.UUID, event string, payload any) {
	if err := e.notifier.EmitToUser(ctx, courierID, event, payload); err != nil {
		e.logger.WarnContext(ctx, "failed to notify courier",
			"courierId", courierID.String(), "event", event, "error", err)
	}
}

func newOfferPayload(o *order.Order, expiresAt time.Time) OfferPayload {
	d := o.Destination()
	return OfferPayload{
		OrderID:      o.ID().String(),
		OrderNumber:  o.Number().String(),
		RestaurantID: o.RestaurantID().String(),
		Pickup:       locationOf(o.Pickup()),
		DeliveryAddress: DestinationPayload{
			Street:  d.Street(),
			City:    d.City(),
			State:   d.State(),
			ZipCode: d.ZipCode(),
			Point:   locationOf(d.Point()),
		},
		Total:         o.Pricing().Total().MinorUnits(),
		EstimatedTime: o.EstimatedDeliveryTime(),
		ExpiresAt:     expiresAt,
	}
}

func locationOf(p kernel.GeoPoint) LocationPayload {
	return LocationPayload{Latitude: p.Latitude(), Longitude: p.Longitude()}
}

func keys(set map[kernel.UUID]struct{}) []kernel.UUID {
	out := make([]kernel.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
