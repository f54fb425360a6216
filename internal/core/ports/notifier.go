package ports

import (
	"context"

	"turbodelivery/internal/core/domain/model/kernel"
)

// Wire names of the events pushed to connected clients.
const (
	EventNewOrderAvailable      = "new_order_available"
	EventOrderTaken             = "order_taken"
	EventOfferExpired           = "offer_expired"
	EventOrderPlaced            = "order_placed"
	EventOrderStatusChanged     = "order_status_changed"
	EventCourierLocationChanged = "courier_location_changed"
	EventOrderDelivered         = "order_delivered"
	EventOrderCancelled         = "order_cancelled"
	EventCourierStatusChanged   = "captain_status_changed"
)

// AdminRoom is the room every connected admin joins with join_admin.
const AdminRoom = "admin_room"

// UserRoom is the personal room of a user; all of the user's connections are in it.
func UserRoom(userID kernel.UUID) string {
	return "user_" + userID.String()
}

// Notifier delivers events to connected clients. Delivery is best effort: a user without
// a live connection simply misses the event.
type Notifier interface {
	EmitToUser(ctx context.Context, userID kernel.UUID, event string, payload any) error
	EmitToRoom(ctx context.Context, room string, event string, payload any) error
}
