package http

import (
	"errors"
	"time"

	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/pkg/errs"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Address struct {
	Street       string      `json:"street"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	ZipCode      string      `json:"zipCode"`
	Coordinates  Coordinates `json:"coordinates"`
	Instructions string      `json:"instructions,omitempty"`
}

type Item struct {
	FoodItemID          string `json:"foodItemId"`
	Quantity            int    `json:"quantity"`
	Price               int64  `json:"price"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

type Pricing struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"deliveryFee"`
	Tax         int64 `json:"tax"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
}

type NewOrder struct {
	RestaurantID        string      `json:"restaurantId"`
	Pickup              Coordinates `json:"pickup"`
	Items               []Item      `json:"items"`
	DeliveryAddress     Address     `json:"deliveryAddress"`
	Pricing             Pricing     `json:"pricing"`
	PaymentMethod       string      `json:"paymentMethod"`
	SpecialInstructions string      `json:"specialInstructions"`
}

type StatusChange struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type DeliveryConfirmation struct {
	Code string `json:"code"`
}

type Cancellation struct {
	Reason string `json:"reason"`
}

type RatingRequest struct {
	Food     int    `json:"food"`
	Delivery int    `json:"delivery"`
	Comment  string `json:"comment"`
}

type NewCourier struct {
	CourierID string `json:"courierId"`
	MaxOrders int    `json:"maxOrders"`
	Approved  bool   `json:"approved"`
}

type TimelineEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

type Rating struct {
	Food     int    `json:"food"`
	Delivery int    `json:"delivery"`
	Comment  string `json:"comment,omitempty"`
}

type Order struct {
	ID                    string          `json:"id"`
	OrderNumber           string          `json:"orderNumber"`
	CustomerID            string          `json:"customerId"`
	RestaurantID          string          `json:"restaurantId"`
	CourierID             *string         `json:"captainId,omitempty"`
	Status                string          `json:"status"`
	Items                 []Item          `json:"items"`
	DeliveryAddress       Address         `json:"deliveryAddress"`
	Pricing               Pricing         `json:"pricing"`
	PaymentMethod         string          `json:"paymentMethod"`
	PaymentStatus         string          `json:"paymentStatus"`
	ConfirmationCode      string          `json:"confirmationCode,omitempty"`
	EstimatedDeliveryTime time.Time       `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time      `json:"actualDeliveryTime,omitempty"`
	SpecialInstructions   string          `json:"specialInstructions,omitempty"`
	Rating                *Rating         `json:"rating,omitempty"`
	Timeline              []TimelineEntry `json:"timeline"`
	CreatedAt             time.Time       `json:"createdAt"`
}

type ActiveOrder struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	CourierID   *string   `json:"captainId,omitempty"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CourierLocation struct {
	OrderID   string    `json:"orderId"`
	CourierID string    `json:"captainId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Live      bool      `json:"live"`
}

type Courier struct {
	ID                string       `json:"id"`
	Approved          bool         `json:"approved"`
	Active            bool         `json:"active"`
	MaxOrders         int          `json:"maxOrders"`
	CurrentOrders     int          `json:"currentOrders"`
	TotalDeliveries   int          `json:"totalDeliveries"`
	Location          *Coordinates `json:"location,omitempty"`
	LocationUpdatedAt *time.Time   `json:"locationUpdatedAt,omitempty"`
	Connected         bool         `json:"connected"`
	Online            bool         `json:"isOnline"`
	Available         bool         `json:"isAvailable"`
}

// toDetails converts the request body into order details. The customer is filled in by
// the command from the authenticated actor.
func (r NewOrder) toDetails() (order.Details, error) {
	restaurantID, err := kernel.UUIDFromString(r.RestaurantID)
	if err != nil {
		return order.Details{}, errs.NewValueIsInvalidErrorWithCause("restaurantId", err)
	}
	pickup, err := kernel.NewGeoPoint(r.Pickup.Latitude, r.Pickup.Longitude)
	if err != nil {
		return order.Details{}, err
	}

	items := make([]order.Item, 0, len(r.Items))
	var itemErrs []error
	for _, it := range r.Items {
		item, err := it.toItem()
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		items = append(items, item)
	}
	if err = errors.Join(itemErrs...); err != nil {
		return order.Details{}, err
	}

	point, err := kernel.NewGeoPoint(r.DeliveryAddress.Coordinates.Latitude, r.DeliveryAddress.Coordinates.Longitude)
	if err != nil {
		return order.Details{}, err
	}
	destination, err := order.NewDestination(
		r.DeliveryAddress.Street,
		r.DeliveryAddress.City,
		r.DeliveryAddress.State,
		r.DeliveryAddress.ZipCode,
		point,
		r.DeliveryAddress.Instructions,
	)
	if err != nil {
		return order.Details{}, err
	}

	pricing, err := order.NewPricing(r.Pricing.Subtotal, r.Pricing.DeliveryFee, r.Pricing.Tax, r.Pricing.Discount)
	if err != nil {
		return order.Details{}, err
	}
	method, err := order.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return order.Details{}, err
	}

	return order.Details{
		RestaurantID:        restaurantID,
		Pickup:              pickup,
		Items:               items,
		Destination:         destination,
		Pricing:             pricing,
		PaymentMethod:       method,
		SpecialInstructions: r.SpecialInstructions,
	}, nil
}

func (it Item) toItem() (order.Item, error) {
	foodItemID, err := kernel.UUIDFromString(it.FoodItemID)
	if err != nil {
		return order.Item{}, errs.NewValueIsInvalidErrorWithCause("foodItemId", err)
	}
	price, err := kernel.NewMoney("price", it.Price)
	if err != nil {
		return order.Item{}, err
	}
	return order.NewItem(foodItemID, it.Quantity, price, it.SpecialInstructions)
}

// orderFor renders o for viewer. The confirmation code is only shown to the customer and
// admins; the courier has to get it from the customer at the door.
func orderFor(o *order.Order, viewer kernel.Actor) Order {
	d := o.Destination()
	p := o.Pricing()

	out := Order{
		ID:           o.ID().String(),
		OrderNumber:  o.Number().String(),
		CustomerID:   o.CustomerID().String(),
		RestaurantID: o.RestaurantID().String(),
		Status:       o.Status().String(),
		DeliveryAddress: Address{
			Street:       d.Street(),
			City:         d.City(),
			State:        d.State(),
			ZipCode:      d.ZipCode(),
			Coordinates:  coordinatesOf(d.Point()),
			Instructions: d.Instructions(),
		},
		Pricing: Pricing{
			Subtotal:    p.Subtotal().MinorUnits(),
			DeliveryFee: p.DeliveryFee().MinorUnits(),
			Tax:         p.Tax().MinorUnits(),
			Discount:    p.Discount().MinorUnits(),
			Total:       p.Total().MinorUnits(),
		},
		PaymentMethod:         string(o.PaymentMethod()),
		PaymentStatus:         string(o.PaymentStatus()),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime(),
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		SpecialInstructions:   o.SpecialInstructions(),
		CreatedAt:             o.CreatedAt(),
	}
	if id := o.CourierID(); id != nil {
		s := id.String()
		out.CourierID = &s
	}
	if viewer.IsAdmin() || viewer.Is(kernel.RoleCustomer, o.CustomerID()) {
		out.ConfirmationCode = o.ConfirmationCode().Code()
	}
	if r := o.Rating(); r != nil {
		out.Rating = &Rating{Food: r.Food(), Delivery: r.Delivery(), Comment: r.Comment()}
	}

	for _, it := range o.Items() {
		out.Items = append(out.Items, Item{
			FoodItemID:          it.FoodItemID().String(),
			Quantity:            it.Quantity(),
			Price:               it.UnitPrice().MinorUnits(),
			SpecialInstructions: it.Note(),
		})
	}
	for _, e := range o.Timeline() {
		out.Timeline = append(out.Timeline, TimelineEntry{
			Status:    e.Status().String(),
			Timestamp: e.Timestamp(),
			Note:      e.Note(),
		})
	}
	return out
}

func activeOrderOf(v queries.ActiveOrderView) ActiveOrder {
	out := ActiveOrder{
		ID:          v.ID.String(),
		OrderNumber: v.Number,
		CustomerID:  v.CustomerID.String(),
		Status:      v.Status,
		Total:       v.Total.MinorUnits(),
		CreatedAt:   v.CreatedAt,
	}
	if v.CourierID != nil {
		s := v.CourierID.String()
		out.CourierID = &s
	}
	return out
}

func courierOf(v queries.CourierView) Courier {
	out := Courier{
		ID:                v.ID.String(),
		Approved:          v.Approved,
		Active:            v.Active,
		MaxOrders:         v.MaxOrders,
		CurrentOrders:     v.CurrentOrders,
		TotalDeliveries:   v.TotalDeliveries,
		LocationUpdatedAt: v.LocationUpdatedAt,
		Connected:         v.Connected,
		Online:            v.Online,
		Available:         v.Available,
	}
	if v.Location != nil {
		c := coordinatesOf(*v.Location)
		out.Location = &c
	}
	return out
}

func registeredCourierOf(c *courier.Courier) Courier {
	out := Courier{
		ID:                c.ID().String(),
		Approved:          c.IsApproved(),
		Active:            c.IsActive(),
		MaxOrders:         c.MaxOrders(),
		CurrentOrders:     c.CurrentOrders(),
		TotalDeliveries:   c.TotalDeliveries(),
		LocationUpdatedAt: c.LocationUpdatedAt(),
	}
	if p := c.Location(); p != nil {
		loc := coordinatesOf(*p)
		out.Location = &loc
	}
	return out
}

func courierLocationOf(v queries.CourierLocationView) CourierLocation {
	return CourierLocation{
		OrderID:   v.OrderID.String(),
		CourierID: v.CourierID.String(),
		Latitude:  v.Location.Latitude(),
		Longitude: v.Location.Longitude(),
		Timestamp: v.UpdatedAt,
		Live:      v.Live,
	}
}

func coordinatesOf(p kernel.GeoPoint) Coordinates {
	return Coordinates{Latitude: p.Latitude(), Longitude: p.Longitude()}
}
