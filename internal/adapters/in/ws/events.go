package ws

// Inbound events.
const (
	eventOrderResponse       = "order_response"
	eventUpdateOrderStatus   = "update_order_status"
	eventCourierStatusUpdate = "captain_status_update"
	eventLocationUpdate      = "location_update"
	eventTrackOrder          = "track_order"
	eventStopTracking        = "stop_tracking"
	eventGetCourierLocation  = "get_captain_location"
	eventJoinAdmin           = "join_admin"
	eventPing                = "ping"
)

// Replies sent to the requesting session only.
const (
	eventError                = "error"
	eventPong                 = "pong"
	eventOrderResponseSuccess = "order_response_success"
	eventStatusUpdateSuccess  = "status_update_success"
	eventStatusUpdated        = "status_updated"
	eventTrackingStarted      = "tracking_started"
	eventTrackingStopped      = "tracking_stopped"
	eventCourierLocation      = "captain_location_update"
	eventAdminJoined          = "admin_joined"
)

type orderRef struct {
	OrderID string `json:"orderId"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
	Action  string `json:"action"`
}

type statusUpdate struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

type availabilityUpdate struct {
	IsOnline    bool `json:"isOnline"`
	IsAvailable bool `json:"isAvailable"`
}

type locationUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}
