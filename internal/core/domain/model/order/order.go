package order

import (
	"errors"
	"fmt"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

const (
	// EstimatedDeliveryLead is added to the placement time to produce the first ETA.
	EstimatedDeliveryLead = 45 * time.Minute

	placedNote    = "Order placed successfully"
	deliveredNote = "Order delivered and confirmed with code"
	unclaimedNote = "No courier accepted the order"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	ErrItemsAreRequired = errs.NewValueIsRequiredError("items")
)

// Details is what a customer submits when placing an order.
type Details struct {
	CustomerID          kernel.UUID
	RestaurantID        kernel.UUID
	Pickup              kernel.GeoPoint
	Items               []Item
	Destination         Destination
	Pricing             Pricing
	PaymentMethod       PaymentMethod
	SpecialInstructions string
}

// Snapshot is the complete persisted state of an Order. Repositories read it with
// Order.Snapshot and rebuild the aggregate with RestoreOrder.
type Snapshot struct {
	ID                    kernel.UUID
	Number                Number
	CustomerID            kernel.UUID
	RestaurantID          kernel.UUID
	Pickup                kernel.GeoPoint
	CourierID             *kernel.UUID
	Items                 []Item
	Destination           Destination
	Pricing               Pricing
	PaymentMethod         PaymentMethod
	PaymentStatus         PaymentStatus
	Status                Status
	ConfirmationCode      ConfirmationCode
	EstimatedDeliveryTime time.Time
	ActualDeliveryTime    *time.Time
	SpecialInstructions   string
	Rating                *Rating
	Timeline              []TimelineEntry
	CreatedAt             time.Time
	Version               int64
}

// Order is the aggregate root of the dispatch domain. It owns the lifecycle state machine,
// the courier assignment and the delivery confirmation code.
//
// Order follows these invariants:
//   - the last timeline entry carries the current status
//   - the timeline grows by exactly one entry per successful transition
//   - the confirmation code is issued once at placement and consumed at most once
//   - a courier is attached exactly once, while the order is still placed
//
// Every method is pure: notifications, courier statistics and persistence belong to the
// application layer.
type Order struct {
	id                    kernel.UUID
	number                Number
	customerID            kernel.UUID
	restaurantID          kernel.UUID
	pickup                kernel.GeoPoint
	courierID             *kernel.UUID
	items                 []Item
	destination           Destination
	pricing               Pricing
	paymentMethod         PaymentMethod
	paymentStatus         PaymentStatus
	status                Status
	confirmationCode      ConfirmationCode
	estimatedDeliveryTime time.Time
	actualDeliveryTime    *time.Time
	specialInstructions   string
	rating                *Rating
	timeline              []TimelineEntry
	createdAt             time.Time
	version               int64
	guard                 guard.ConstructorGuard
}

// NewOrder places a new order: status placed, no courier, payment pending, ETA
// now+EstimatedDeliveryLead and a single "placed" timeline entry.
//
// Example:
//
//	code := order.GenerateConfirmationCode(now)
//	o, err := order.NewOrder(kernel.NewUUID(), order.GenerateNumber(now), details, code, now)
//	if err != nil {
//	    // Handle validation error
//	}
func NewOrder(id kernel.UUID, number Number, details Details, code ConfirmationCode, now time.Time) (*Order, error) {
	o := &Order{
		status:                Placed,
		paymentStatus:         PaymentPending,
		specialInstructions:   details.SpecialInstructions,
		estimatedDeliveryTime: now.Add(EstimatedDeliveryLead),
		createdAt:             now,
		guard:                 guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setParties(details.CustomerID, details.RestaurantID),
		o.setPickup(details.Pickup),
		o.setItems(details.Items),
		o.setDestination(details.Destination),
		o.setPaymentMethod(details.PaymentMethod),
		o.setConfirmationCode(code),
	); err != nil {
		return nil, err
	}
	o.pricing = details.Pricing

	entry, err := NewTimelineEntry(Placed, now, placedNote)
	if err != nil {
		return nil, err
	}
	o.timeline = []TimelineEntry{entry}

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state and re-checks the aggregate invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		pricing:               s.Pricing,
		estimatedDeliveryTime: s.EstimatedDeliveryTime,
		actualDeliveryTime:    s.ActualDeliveryTime,
		specialInstructions:   s.SpecialInstructions,
		rating:                s.Rating,
		createdAt:             s.CreatedAt,
		version:               s.Version,
		guard:                 guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setNumber(s.Number),
		o.setParties(s.CustomerID, s.RestaurantID),
		o.setPickup(s.Pickup),
		o.setItems(s.Items),
		o.setDestination(s.Destination),
		o.setPaymentMethod(s.PaymentMethod),
		o.setPaymentStatus(s.PaymentStatus),
		o.setConfirmationCode(s.ConfirmationCode),
		o.setCourierAndStatus(s.CourierID, s.Status),
		o.setTimeline(s.Timeline),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate fails for a nil or zero-value Order.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID                    { return o.id }
func (o *Order) Number() Number                     { return o.number }
func (o *Order) CustomerID() kernel.UUID            { return o.customerID }
func (o *Order) RestaurantID() kernel.UUID          { return o.restaurantID }
func (o *Order) Pickup() kernel.GeoPoint            { return o.pickup }
func (o *Order) Destination() Destination           { return o.destination }
func (o *Order) Pricing() Pricing                   { return o.pricing }
func (o *Order) PaymentMethod() PaymentMethod       { return o.paymentMethod }
func (o *Order) PaymentStatus() PaymentStatus       { return o.paymentStatus }
func (o *Order) Status() Status                     { return o.status }
func (o *Order) ConfirmationCode() ConfirmationCode { return o.confirmationCode }
func (o *Order) EstimatedDeliveryTime() time.Time   { return o.estimatedDeliveryTime }
func (o *Order) SpecialInstructions() string        { return o.specialInstructions }
func (o *Order) CreatedAt() time.Time               { return o.createdAt }

// Version is the optimistic concurrency token of the stored record.
func (o *Order) Version() int64 { return o.version }

// AdvanceVersion is called by repositories after a successful version-checked write.
func (o *Order) AdvanceVersion() { o.version++ }

// CourierID returns the assigned courier, or nil before matching.
func (o *Order) CourierID() *kernel.UUID {
	if o.courierID == nil {
		return nil
	}
	id := *o.courierID
	return &id
}

func (o *Order) ActualDeliveryTime() *time.Time {
	if o.actualDeliveryTime == nil {
		return nil
	}
	t := *o.actualDeliveryTime
	return &t
}

func (o *Order) Rating() *Rating {
	if o.rating == nil {
		return nil
	}
	r := *o.rating
	return &r
}

func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, len(o.timeline))
	copy(out, o.timeline)
	return out
}

// LastTimelineEntry is the entry describing the current status.
func (o *Order) LastTimelineEntry() TimelineEntry {
	return o.timeline[len(o.timeline)-1]
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                    o.id,
		Number:                o.number,
		CustomerID:            o.customerID,
		RestaurantID:          o.restaurantID,
		Pickup:                o.pickup,
		CourierID:             o.CourierID(),
		Items:                 o.Items(),
		Destination:           o.destination,
		Pricing:               o.pricing,
		PaymentMethod:         o.paymentMethod,
		PaymentStatus:         o.paymentStatus,
		Status:                o.status,
		ConfirmationCode:      o.confirmationCode,
		EstimatedDeliveryTime: o.estimatedDeliveryTime,
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		SpecialInstructions:   o.specialInstructions,
		Rating:                o.Rating(),
		Timeline:              o.Timeline(),
		CreatedAt:             o.createdAt,
		Version:               o.version,
	}
}

// IsAssignedTo reports whether courierID is the matched courier.
func (o *Order) IsAssignedTo(courierID kernel.UUID) bool {
	return o.courierID != nil && o.courierID.IsEqual(courierID)
}

// CanBeViewedBy allows the customer, the assigned courier and admins.
func (o *Order) CanBeViewedBy(actor kernel.Actor) bool {
	return actor.IsAdmin() ||
		actor.Is(kernel.RoleCustomer, o.customerID) ||
		(actor.Role() == kernel.RoleCourier && o.IsAssignedTo(actor.ID()))
}

// CanBeTrackedBy allows the customer and admins to observe live updates.
func (o *Order) CanBeTrackedBy(actor kernel.Actor) bool {
	return actor.IsAdmin() || actor.Is(kernel.RoleCustomer, o.customerID)
}

// AssignCourier attaches the courier that won the accept race. It does not change the status;
// the winner confirms the order with Transition right after.
//
// Returns ErrAlreadyTaken if a courier is already attached or the order left placed.
func (o *Order) AssignCourier(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if o.courierID != nil || o.status != Placed {
		return errs.NewAlreadyTakenError(o.id)
	}

	o.courierID = &courierID
	return nil
}

// Transition moves the order to next on behalf of actor.
//
// Checks, in order:
//   - ErrInvalidTransition if next is not a legal successor of the current status
//   - ErrForbidden if actor may not take this edge: forward edges belong to the assigned
//     courier; cancel before picked-up to the customer or an admin; cancel afterwards to
//     an admin only; delivered requires a consumed confirmation code
//
// On success a {next, now, note} entry is appended (note defaults to "Order <status>"),
// and delivered stamps the actual delivery time.
func (o *Order) Transition(next Status, note string, actor kernel.Actor, now time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Next(next)
	if err != nil {
		return err
	}

	if err = o.authorize(newStatus, actor); err != nil {
		return err
	}

	entry, err := NewTimelineEntry(newStatus, now, note)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.timeline = append(o.timeline, entry)
	if newStatus == Delivered {
		deliveredAt := now
		o.actualDeliveryTime = &deliveredAt
	}
	return nil
}

// Abandon cancels a placed order that no courier took after every offer round.
//
// Returns ErrAlreadyTaken if a courier is attached and ErrInvalidTransition if the order
// left placed.
func (o *Order) Abandon(now time.Time) error {
	if o.courierID != nil {
		return errs.NewAlreadyTakenError(o.id)
	}
	if o.status != Placed {
		return errs.NewInvalidTransitionError(o.status, Cancelled)
	}

	entry, err := NewTimelineEntry(Cancelled, now, unclaimedNote)
	if err != nil {
		return err
	}

	o.status = Cancelled
	o.timeline = append(o.timeline, entry)
	return nil
}

// ConfirmDelivery consumes the confirmation code and marks the order delivered.
//
// Checks, in order: ErrForbidden (not the assigned courier), ErrCodeMismatch,
// ErrCodeAlreadyUsed, ErrCodeExpired (now after expiry), then ErrInvalidTransition
// if the order is not on the way. Nothing changes when any check fails.
func (o *Order) ConfirmDelivery(code string, courierID kernel.UUID, now time.Time) error {
	if !o.IsAssignedTo(courierID) {
		return errs.NewForbiddenError("only the assigned courier can confirm delivery of order %s", o.id)
	}

	if err := o.confirmationCode.Check(code, now); err != nil {
		return err
	}

	if !o.status.CanTransitionTo(Delivered) {
		return errs.NewInvalidTransitionError(o.status, Delivered)
	}

	courier, err := kernel.NewActor(courierID, kernel.RoleCourier)
	if err != nil {
		return err
	}

	o.confirmationCode.markUsed()
	return o.Transition(Delivered, deliveredNote, courier, now)
}

// Rate stores the customer's rating. Only the customer may rate, and only once delivered.
func (o *Order) Rate(actor kernel.Actor, rating Rating) error {
	if !actor.Is(kernel.RoleCustomer, o.customerID) {
		return errs.NewForbiddenError("only the customer can rate order %s", o.id)
	}
	if o.status != Delivered {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("can only rate delivered orders, order is %s", o.status))
	}

	o.rating = &rating
	return nil
}

func (o *Order) authorize(next Status, actor kernel.Actor) error {
	switch next {
	case Cancelled:
		if actor.IsAdmin() {
			return nil
		}
		if o.status.CanBeCancelledByCustomer() && actor.Is(kernel.RoleCustomer, o.customerID) {
			return nil
		}
		return errs.NewForbiddenError("%s may not cancel order %s in status %s", actor, o.id, o.status)
	case Delivered:
		if !o.confirmationCode.IsUsed() {
			return errs.NewForbiddenError("order %s can only be delivered with a confirmation code", o.id)
		}
		fallthrough
	default:
		if actor.Role() != kernel.RoleCourier || !o.IsAssignedTo(actor.ID()) {
			return errs.NewForbiddenError("only the assigned courier may move order %s to %s", o.id, next)
		}
		return nil
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number Number) error {
	n, err := ParseNumber(number.String())
	if err != nil {
		return err
	}
	o.number = n
	return nil
}

func (o *Order) setParties(customerID, restaurantID kernel.UUID) error {
	if err := errors.Join(customerID.Validate(), restaurantID.Validate()); err != nil {
		return err
	}
	o.customerID = customerID
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setPickup(pickup kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return err
	}
	o.pickup = pickup
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setDestination(destination Destination) error {
	if err := destination.Validate(); err != nil {
		return err
	}
	o.destination = destination
	return nil
}

func (o *Order) setPaymentMethod(method PaymentMethod) error {
	m, err := ParsePaymentMethod(string(method))
	if err != nil {
		return err
	}
	o.paymentMethod = m
	return nil
}

func (o *Order) setPaymentStatus(status PaymentStatus) error {
	ps, err := ParsePaymentStatus(string(status))
	if err != nil {
		return err
	}
	o.paymentStatus = ps
	return nil
}

func (o *Order) setConfirmationCode(code ConfirmationCode) error {
	if err := code.Validate(); err != nil {
		return err
	}
	o.confirmationCode = code
	return nil
}

// setCourierAndStatus checks that only placed and cancelled orders may lack a courier.
func (o *Order) setCourierAndStatus(courierID *kernel.UUID, status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if courierID == nil && status != Placed && status != Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("courierId", fmt.Errorf("%s order must have a courier", status))
	}
	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return err
		}
		id := *courierID
		o.courierID = &id
	}
	o.status = status
	return nil
}

func (o *Order) setTimeline(timeline []TimelineEntry) error {
	if len(timeline) == 0 {
		return errs.NewValueIsRequiredError("timeline")
	}
	if last := timeline[len(timeline)-1]; last.Status() != o.status {
		return errs.NewValueIsInvalidErrorWithCause("timeline",
			fmt.Errorf("last entry is %s but status is %s", last.Status(), o.status))
	}
	o.timeline = make([]TimelineEntry, len(timeline))
	copy(o.timeline, timeline)
	return nil
}
