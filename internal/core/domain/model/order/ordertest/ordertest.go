// Package ordertest builds orders for tests of the packages around the order aggregate.
package ordertest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

// PlacedAt is the placement time of every order built here.
var PlacedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// Code is the confirmation code of every order built here.
const Code = "4821"

// Restaurant and drop-off points, about 1 km apart in midtown Manhattan.
var (
	Pickup  = kernel.MustNewGeoPoint(40.7580, -73.9855)
	DropOff = kernel.MustNewGeoPoint(40.7484, -73.9857)
)

var sequence atomic.Int64

func Details(t testing.TB, customerID kernel.UUID) order.Details {
	t.Helper()

	item, err := order.NewItem(kernel.NewUUID(), 2, 1250, "no onions")
	require.NoError(t, err)
	destination, err := order.NewDestination("5th Avenue 1", "New York", "NY", "10001", DropOff, "ring twice")
	require.NoError(t, err)
	pricing, err := order.NewPricing(2500, 300, 250, 0)
	require.NoError(t, err)

	return order.Details{
		CustomerID:    customerID,
		RestaurantID:  kernel.NewUUID(),
		Pickup:        Pickup,
		Items:         []order.Item{item},
		Destination:   destination,
		Pricing:       pricing,
		PaymentMethod: order.PaymentCard,
	}
}

// UniqueNumber returns an order number that no other call in this process returns.
func UniqueNumber() order.Number {
	return order.Number(fmt.Sprintf("TD%d%06d", PlacedAt.UnixMilli(), sequence.Add(1)))
}

// Placed builds a freshly placed order of customerID.
func Placed(t testing.TB, customerID kernel.UUID) *order.Order {
	t.Helper()

	code, err := order.NewConfirmationCode(Code, false, PlacedAt.Add(order.ConfirmationCodeTTL))
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), UniqueNumber(), Details(t, customerID), code, PlacedAt)
	require.NoError(t, err)
	return o
}

// InStatus restores an order of customerID sitting in status, assigned to courierID.
func InStatus(t testing.TB, customerID kernel.UUID, status order.Status, courierID *kernel.UUID) *order.Order {
	t.Helper()

	s := Placed(t, customerID).Snapshot()
	s.Status = status
	s.CourierID = courierID
	if status == order.Delivered {
		code, err := order.NewConfirmationCode(Code, true, PlacedAt.Add(order.ConfirmationCodeTTL))
		require.NoError(t, err)
		s.ConfirmationCode = code
	}
	if status != order.Placed {
		entry, err := order.NewTimelineEntry(status, PlacedAt.Add(time.Minute), "")
		require.NoError(t, err)
		s.Timeline = append(s.Timeline, entry)
	}

	o, err := order.RestoreOrder(s)
	require.NoError(t, err)
	return o
}

func Actor(t testing.TB, role kernel.Role, id kernel.UUID) kernel.Actor {
	t.Helper()

	a, err := kernel.NewActor(id, role)
	require.NoError(t, err)
	return a
}
