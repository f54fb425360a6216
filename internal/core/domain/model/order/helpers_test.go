package order_test

import (
	"testing"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var placedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newDetails(t *testing.T, customerID kernel.UUID) order.Details {
	t.Helper()

	item, err := order.NewItem(kernel.NewUUID(), 2, 1250, "no onions")
	require.NoError(t, err)
	destination, err := order.NewDestination("5th Avenue 1", "New York", "NY", "10001",
		kernel.MustNewGeoPoint(40.7484, -73.9857), "ring twice")
	require.NoError(t, err)
	pricing, err := order.NewPricing(2500, 300, 250, 0)
	require.NoError(t, err)

	return order.Details{
		CustomerID:    customerID,
		RestaurantID:  kernel.NewUUID(),
		Pickup:        kernel.MustNewGeoPoint(40.7580, -73.9855),
		Items:         []order.Item{item},
		Destination:   destination,
		Pricing:       pricing,
		PaymentMethod: order.PaymentCard,
	}
}

func newCode(t *testing.T, code string) order.ConfirmationCode {
	t.Helper()

	c, err := order.NewConfirmationCode(code, false, placedAt.Add(order.ConfirmationCodeTTL))
	require.NoError(t, err)
	return c
}

func newPlacedOrder(t *testing.T, customerID kernel.UUID) *order.Order {
	t.Helper()

	o, err := order.NewOrder(kernel.NewUUID(), order.GenerateNumber(placedAt), newDetails(t, customerID),
		newCode(t, "4821"), placedAt)
	require.NoError(t, err)
	return o
}

// orderInStatus restores an order sitting in status with the given courier and code usage.
func orderInStatus(t *testing.T, status order.Status, courierID *kernel.UUID, codeUsed bool) *order.Order {
	t.Helper()

	s := newPlacedOrder(t, kernel.NewUUID()).Snapshot()
	s.Status = status
	s.CourierID = courierID
	code, err := order.NewConfirmationCode("4821", codeUsed, placedAt.Add(order.ConfirmationCodeTTL))
	require.NoError(t, err)
	s.ConfirmationCode = code
	if status != order.Placed {
		entry, entryErr := order.NewTimelineEntry(status, placedAt.Add(time.Minute), "")
		require.NoError(t, entryErr)
		s.Timeline = append(s.Timeline, entry)
	}

	o, err := order.RestoreOrder(s)
	require.NoError(t, err)
	return o
}

func actor(t *testing.T, role kernel.Role, id kernel.UUID) kernel.Actor {
	t.Helper()

	a, err := kernel.NewActor(id, role)
	require.NoError(t, err)
	return a
}
