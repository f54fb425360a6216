package ports

import (
	"context"
	"time"
)

// OrderStatusChanged is published to downstream consumers (billing, analytics) after every
// committed status change.
type OrderStatusChanged struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	CourierID   string    `json:"courierId,omitempty"`
	Status      string    `json:"status"`
	Note        string    `json:"note"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type OrderEventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
}
