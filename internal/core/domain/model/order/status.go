package order

import (
	"fmt"

	"turbodelivery/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	placed ──> confirmed ──> preparing ──> ready ──> picked-up ──> on-the-way ──> delivered
//	  │            │             │           │           │              │
//	  └────────────┴─────────────┴───────────┴───────────┴──────────────┴──> cancelled
//
// The zero value Unknown is invalid and helps catch uninitialized statuses.
type Status int

const (
	Unknown Status = iota
	Placed
	Confirmed
	Preparing
	Ready
	PickedUp
	OnTheWay
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Placed:    "placed",
		Confirmed: "confirmed",
		Preparing: "preparing",
		Ready:     "ready",
		PickedUp:  "picked-up",
		OnTheWay:  "on-the-way",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// forwardSuccessor maps each non-terminal status to the single next step of the happy path.
func forwardSuccessor() map[Status]Status {
	//nolint:exhaustive // terminal and unknown statuses have no successor
	return map[Status]Status{
		Placed:    Confirmed,
		Confirmed: Preparing,
		Preparing: Ready,
		Ready:     PickedUp,
		PickedUp:  OnTheWay,
		OnTheWay:  Delivered,
	}
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Placed, Confirmed, Preparing, Ready, PickedUp, OnTheWay, Delivered, Cancelled}
}

// ActiveStatuses lists the non-terminal statuses.
func ActiveStatuses() []Status {
	return []Status{Placed, Confirmed, Preparing, Ready, PickedUp, OnTheWay}
}

// TrackedStatuses lists the statuses in which the courier carries the order and
// location updates are relayed to its observers.
func TrackedStatuses() []Status {
	return []Status{PickedUp, OnTheWay}
}

// ParseStatus converts the wire form ("picked-up", "on-the-way", ...) into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and out-of-range values, e.g. from a corrupted row.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsTracked reports whether courier positions are relayed for orders in this status.
func (s Status) IsTracked() bool {
	return s == PickedUp || s == OnTheWay
}

// CanBeCancelledByCustomer reports whether the food has not left the restaurant yet.
func (s Status) CanBeCancelledByCustomer() bool {
	return s == Placed || s == Confirmed || s == Preparing || s == Ready
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Validate() != nil || s.IsTerminal() {
		return false
	}
	if next == Cancelled {
		return true
	}
	succ, ok := forwardSuccessor()[s]
	return ok && succ == next
}

// Next returns next if the move is legal and an ErrInvalidTransition error otherwise.
func (s Status) Next(next Status) (Status, error) {
	if !s.CanTransitionTo(next) {
		return Unknown, errs.NewInvalidTransitionError(s, next)
	}
	return next, nil
}
