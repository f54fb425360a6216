// Package presence tracks which couriers are connected to this instance, whether they want
// work, how loaded they are and where they were last seen.
//
// The registry is process-local. Every courier has at most one live connection; a newer
// connection replaces the older one, and a late Disconnect from the replaced connection is
// ignored. Entries are sharded over a fixed number of stripes so that updates for different
// couriers never contend on one lock.
package presence

import (
	"context"
	"errors"
	"hash/maphash"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/services"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"
)

const (
	DefaultPersistInterval = 30 * time.Second
	stripeCount            = 64
)

// ErrRegistryClosed is returned by Connect after Close.
var ErrRegistryClosed = errors.New("presence registry is closed")

// DisconnectListener is called after a courier's live connection went away.
type DisconnectListener func(courierID kernel.UUID)

type Config struct {
	// PersistInterval is the minimum time between two durable location writes of one courier.
	PersistInterval time.Duration
	Now             func() time.Time
}

// Snapshot is a copy of one courier's presence.
type Snapshot struct {
	CourierID     kernel.UUID
	ConnRef       string
	Online        bool
	Available     bool
	Approved      bool
	Active        bool
	CurrentOrders int
	MaxOrders     int
	Location      *kernel.GeoPoint
	LastUpdated   time.Time
	LastPersisted time.Time
}

// Eligible reports whether the courier may receive and accept offers.
func (s Snapshot) Eligible() bool {
	return s.ineligibility() == ""
}

func (s Snapshot) ineligibility() string {
	switch {
	case !s.Approved:
		return "is not approved"
	case !s.Active:
		return "is not active"
	case !s.Online:
		return "is offline"
	case !s.Available:
		return "is not available"
	case s.CurrentOrders >= s.MaxOrders:
		return "has no free capacity"
	}
	return ""
}

type entry struct {
	Snapshot
	pendingPersist bool
}

type stripe struct {
	mu      sync.Mutex
	entries map[kernel.UUID]*entry
}

type Registry struct {
	uowFactory ports.UnitOfWorkFactory
	ranker     services.CourierRanker
	cfg        Config
	logger     *slog.Logger

	seed    maphash.Seed
	stripes [stripeCount]stripe

	listenersMu sync.RWMutex
	listeners   []DisconnectListener

	closed atomic.Bool
}

// NewRegistry creates an empty registry. Profiles are read and positions written through
// uowFactory.
//
// Example:
//
//	registry := presence.NewRegistry(uowFactory, presence.Config{PersistInterval: time.Minute}, logger)
//	defer registry.Close()
//
//	if err := registry.Connect(ctx, courierID, connRef); err != nil {
//	    return err
//	}
//	defer registry.Disconnect(ctx, courierID, connRef)
func NewRegistry(uowFactory ports.UnitOfWorkFactory, cfg Config, logger *slog.Logger) *Registry {
	if cfg.PersistInterval <= 0 {
		cfg.PersistInterval = DefaultPersistInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Registry{
		uowFactory: uowFactory,
		ranker:     services.NewCourierRanker(),
		cfg:        cfg,
		logger:     logger.With("component", "presence_registry"),
		seed:       maphash.MakeSeed(),
	}
	for i := range r.stripes {
		r.stripes[i].entries = make(map[kernel.UUID]*entry)
	}
	return r
}

// OnDisconnect registers a listener. Listeners run synchronously on the goroutine that
// called Disconnect, after the entry has been removed.
func (r *Registry) OnDisconnect(listener DisconnectListener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// Connect registers connRef as the courier's live connection. The profile is loaded from the
// store; when an older connection is replaced, the courier keeps its flags and position.
func (r *Registry) Connect(ctx context.Context, courierID kernel.UUID, connRef string) error {
	if r.closed.Load() {
		return ErrRegistryClosed
	}

	profile, err := r.uowFactory.Create().CourierRepository().Get(ctx, courierID)
	if err != nil {
		return err
	}

	s := r.stripeFor(courierID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[courierID]; ok {
		prev.ConnRef = connRef
		prev.Approved = profile.IsApproved()
		prev.Active = profile.IsActive()
		prev.MaxOrders = profile.MaxOrders()
		prev.CurrentOrders = profile.CurrentOrders()
		r.logger.InfoContext(ctx, "courier connection replaced", "courierId", courierID.String())
		return nil
	}

	s.entries[courierID] = &entry{Snapshot: Snapshot{
		CourierID:     courierID,
		ConnRef:       connRef,
		Available:     true,
		Approved:      profile.IsApproved(),
		Active:        profile.IsActive(),
		CurrentOrders: profile.CurrentOrders(),
		MaxOrders:     profile.MaxOrders(),
	}}
	r.logger.InfoContext(ctx, "courier connected", "courierId", courierID.String())
	return nil
}

// Disconnect removes the courier if connRef is still its live connection and reports
// whether it did. An unpersisted position is written out before the entry is dropped.
func (r *Registry) Disconnect(ctx context.Context, courierID kernel.UUID, connRef string) bool {
	s := r.stripeFor(courierID)
	s.mu.Lock()
	e, ok := s.entries[courierID]
	if !ok || e.ConnRef != connRef {
		s.mu.Unlock()
		return false
	}
	delete(s.entries, courierID)
	s.mu.Unlock()

	if e.pendingPersist && e.Location != nil {
		r.persist(ctx, courierID, *e.Location, e.LastUpdated)
	}

	r.logger.InfoContext(ctx, "courier disconnected", "courierId", courierID.String())

	r.listenersMu.RLock()
	listeners := append([]DisconnectListener(nil), r.listeners...)
	r.listenersMu.RUnlock()
	for _, l := range listeners {
		l(courierID)
	}
	return true
}

// SetAvailability sets the courier's flags. Repeating the same values is harmless.
func (r *Registry) SetAvailability(courierID kernel.UUID, online, available bool) (Snapshot, error) {
	s := r.stripeFor(courierID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[courierID]
	if !ok {
		return Snapshot{}, errs.NewNotConnectedError(courierID)
	}
	e.Online = online
	e.Available = available
	return e.copy(), nil
}

// UpdateLocation caches the position of a connected courier. The durable write happens at
// most once per PersistInterval; positions in between are picked up by FlushLocations or
// Disconnect. Positions from couriers that are not connected are dropped.
func (r *Registry) UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}

	now := r.cfg.Now()

	s := r.stripeFor(courierID)
	s.mu.Lock()
	e, ok := s.entries[courierID]
	if !ok {
		s.mu.Unlock()
		r.logger.WarnContext(ctx, "location from disconnected courier ignored", "courierId", courierID.String())
		return nil
	}
	e.Location = &point
	e.LastUpdated = now

	persistNow := e.LastPersisted.IsZero() || now.Sub(e.LastPersisted) >= r.cfg.PersistInterval
	if persistNow {
		e.LastPersisted = now
		e.pendingPersist = false
	} else {
		e.pendingPersist = true
	}
	s.mu.Unlock()

	if persistNow {
		r.persist(ctx, courierID, point, now)
	}
	return nil
}

// FlushLocations writes every cached position that has not been persisted yet.
func (r *Registry) FlushLocations(ctx context.Context) int {
	type pending struct {
		id    kernel.UUID
		point kernel.GeoPoint
		at    time.Time
	}

	now := r.cfg.Now()
	var batch []pending
	for i := range r.stripes {
		s := &r.stripes[i]
		s.mu.Lock()
		for id, e := range s.entries {
			if !e.pendingPersist || e.Location == nil {
				continue
			}
			batch = append(batch, pending{id: id, point: *e.Location, at: e.LastUpdated})
			e.pendingPersist = false
			e.LastPersisted = now
		}
		s.mu.Unlock()
	}

	for _, p := range batch {
		r.persist(ctx, p.id, p.point, p.at)
	}
	return len(batch)
}

// FindEligible lists couriers that may receive an offer for a pickup at origin, nearest first.
// With maxDistanceKm > 0 couriers without a known position are left out.
func (r *Registry) FindEligible(origin kernel.GeoPoint, maxDistanceKm float64) ([]services.RankedCandidate, error) {
	var candidates []services.Candidate
	for i := range r.stripes {
		s := &r.stripes[i]
		s.mu.Lock()
		for _, e := range s.entries {
			if !e.Eligible() {
				continue
			}
			candidates = append(candidates, services.Candidate{
				CourierID:   e.CourierID,
				Location:    copyPoint(e.Location),
				LastUpdated: e.LastUpdated,
			})
		}
		s.mu.Unlock()
	}

	return r.ranker.Rank(origin, maxDistanceKm, candidates)
}

// CheckEligible returns NotEligible with the first failing condition, or nil.
func (r *Registry) CheckEligible(courierID kernel.UUID) error {
	snap, ok := r.Get(courierID)
	if !ok {
		return errs.NewNotEligibleError(courierID, "is not connected")
	}
	if reason := snap.ineligibility(); reason != "" {
		return errs.NewNotEligibleError(courierID, reason)
	}
	return nil
}

// AdjustLoad adds delta to the cached order count, clamped at zero. Unknown couriers are ignored.
func (r *Registry) AdjustLoad(courierID kernel.UUID, delta int) {
	s := r.stripeFor(courierID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[courierID]
	if !ok {
		return
	}
	e.CurrentOrders = max(e.CurrentOrders+delta, 0)
}

// Location returns the last cached position of a connected courier.
func (r *Registry) Location(courierID kernel.UUID) (kernel.GeoPoint, time.Time, bool) {
	snap, ok := r.Get(courierID)
	if !ok || snap.Location == nil {
		return kernel.GeoPoint{}, time.Time{}, false
	}
	return *snap.Location, snap.LastUpdated, true
}

func (r *Registry) Get(courierID kernel.UUID) (Snapshot, bool) {
	s := r.stripeFor(courierID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[courierID]
	if !ok {
		return Snapshot{}, false
	}
	return e.copy(), true
}

// Close drops every entry without calling disconnect listeners. Later Connect calls fail.
func (r *Registry) Close() {
	r.closed.Store(true)
	for i := range r.stripes {
		s := &r.stripes[i]
		s.mu.Lock()
		clear(s.entries)
		s.mu.Unlock()
	}
}

func (r *Registry) persist(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, at time.Time) {
	err := r.uowFactory.Create().CourierRepository().UpdateLocation(ctx, courierID, point, at)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to persist courier location",
			"courierId", courierID.String(), "error", err)
	}
}

func (r *Registry) stripeFor(courierID kernel.UUID) *stripe {
	id := courierID.Bytes()
	return &r.stripes[maphash.Bytes(r.seed, id[:])%stripeCount]
}

func (e *entry) copy() Snapshot {
	snap := e.Snapshot
	snap.Location = copyPoint(e.Location)
	return snap
}

func copyPoint(p *kernel.GeoPoint) *kernel.GeoPoint {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
