package courier

import (
	"errors"
	"fmt"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

// DefaultMaxOrders is the capacity of a courier profile created without an explicit limit.
const DefaultMaxOrders = 3

var ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or RestoreCourier constructor")

// Courier is the durable profile of a delivery courier. Its id is the courier's user id.
type Courier struct {
	id                kernel.UUID
	approved          bool
	active            bool
	maxOrders         int
	currentOrders     int
	totalDeliveries   int
	location          *kernel.GeoPoint
	locationUpdatedAt *time.Time
	guard             guard.ConstructorGuard
}

// NewCourier registers a courier awaiting approval. A maxOrders of zero selects DefaultMaxOrders.
func NewCourier(id kernel.UUID, maxOrders int) (*Courier, error) {
	if maxOrders == 0 {
		maxOrders = DefaultMaxOrders
	}

	c := &Courier{
		active: true,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(c.setID(id), c.setMaxOrders(maxOrders)); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreCourier rebuilds a profile from storage.
func RestoreCourier(
	id kernel.UUID,
	approved bool,
	active bool,
	maxOrders int,
	currentOrders int,
	totalDeliveries int,
	location *kernel.GeoPoint,
	locationUpdatedAt *time.Time,
) (*Courier, error) {
	c := &Courier{
		approved:          approved,
		active:            active,
		locationUpdatedAt: locationUpdatedAt,
		guard:             guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setMaxOrders(maxOrders),
		c.setCounters(currentOrders, totalDeliveries),
		c.setLocation(location),
	); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

func (c *Courier) ID() kernel.UUID      { return c.id }
func (c *Courier) IsApproved() bool     { return c.approved }
func (c *Courier) IsActive() bool       { return c.active }
func (c *Courier) MaxOrders() int       { return c.maxOrders }
func (c *Courier) CurrentOrders() int   { return c.currentOrders }
func (c *Courier) TotalDeliveries() int { return c.totalDeliveries }

// Location returns the last persisted position, or nil if none was ever stored.
func (c *Courier) Location() *kernel.GeoPoint {
	if c.location == nil {
		return nil
	}
	p := *c.location
	return &p
}

func (c *Courier) LocationUpdatedAt() *time.Time {
	if c.locationUpdatedAt == nil {
		return nil
	}
	t := *c.locationUpdatedAt
	return &t
}

// CanReceiveOffers reports whether the back office lets this courier work.
func (c *Courier) CanReceiveOffers() bool {
	return c.approved && c.active
}

func (c *Courier) HasCapacity() bool {
	return c.currentOrders < c.maxOrders
}

func (c *Courier) Approve() {
	c.approved = true
}

func (c *Courier) Deactivate() {
	c.active = false
}

// TakeOrder counts one more order in hand.
func (c *Courier) TakeOrder() error {
	if !c.HasCapacity() {
		return errs.NewNotEligibleError(c.id, fmt.Sprintf("already holds %d of %d orders", c.currentOrders, c.maxOrders))
	}
	c.currentOrders++
	return nil
}

// CompleteDelivery releases an order in hand and counts a finished delivery.
func (c *Courier) CompleteDelivery() {
	c.ReleaseOrder()
	c.totalDeliveries++
}

// ReleaseOrder releases an order in hand without counting a delivery, e.g. on cancellation.
func (c *Courier) ReleaseOrder() {
	if c.currentOrders > 0 {
		c.currentOrders--
	}
}

// MoveTo records a persisted position.
func (c *Courier) MoveTo(point kernel.GeoPoint, at time.Time) error {
	if err := point.Validate(); err != nil {
		return err
	}
	c.location = &point
	c.locationUpdatedAt = &at
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setMaxOrders(maxOrders int) error {
	if maxOrders < 1 {
		return errs.NewValueIsInvalidErrorWithCause("maxOrders", fmt.Errorf("%d is less than 1", maxOrders))
	}
	c.maxOrders = maxOrders
	return nil
}

func (c *Courier) setCounters(currentOrders, totalDeliveries int) error {
	if currentOrders < 0 || totalDeliveries < 0 {
		return errs.NewValueIsInvalidErrorWithCause("stats",
			fmt.Errorf("counters must not be negative: current=%d total=%d", currentOrders, totalDeliveries))
	}
	c.currentOrders = currentOrders
	c.totalDeliveries = totalDeliveries
	return nil
}

func (c *Courier) setLocation(location *kernel.GeoPoint) error {
	if location == nil {
		return nil
	}
	if err := location.Validate(); err != nil {
		return err
	}
	p := *location
	c.location = &p
	return nil
}
