// Package orderrepo persists Order aggregates in the orders table. Value objects without
// their own queries (items, destination, timeline, rating) are stored as JSONB columns.
package orderrepo

import (
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row layout of the orders table.
type OrderDTO struct {
	ID                        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Number                    string         `gorm:"uniqueIndex:orders_number_key"`
	CustomerID                uuid.UUID      `gorm:"type:uuid;index"`
	RestaurantID              uuid.UUID      `gorm:"type:uuid"`
	CourierID                 *uuid.UUID     `gorm:"type:uuid;index"`
	Pickup                    PointDTO       `gorm:"embedded;embeddedPrefix:pickup_"`
	Items                     []ItemDTO      `gorm:"type:jsonb;serializer:json"`
	Destination               DestinationDTO `gorm:"type:jsonb;serializer:json"`
	Subtotal                  int64
	DeliveryFee               int64
	Tax                       int64
	Discount                  int64
	Total                     int64
	PaymentMethod             string
	PaymentStatus             string
	Status                    string `gorm:"index"`
	ConfirmationCode          string
	ConfirmationCodeUsed      bool
	ConfirmationCodeExpiresAt time.Time
	EstimatedDeliveryTime     time.Time
	ActualDeliveryTime        *time.Time
	SpecialInstructions       string
	Rating                    *RatingDTO         `gorm:"type:jsonb;serializer:json"`
	Timeline                  []TimelineEntryDTO `gorm:"type:jsonb;serializer:json"`
	CreatedAt                 time.Time
	Version                   int64
}

func (OrderDTO) TableName() string {
	return "orders"
}

type PointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ItemDTO struct {
	FoodItemID uuid.UUID `json:"foodItemId"`
	Quantity   int       `json:"quantity"`
	UnitPrice  int64     `json:"unitPrice"`
	Note       string    `json:"note,omitempty"`
}

type DestinationDTO struct {
	Street       string   `json:"street"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zipCode"`
	Point        PointDTO `json:"coordinates"`
	Instructions string   `json:"instructions,omitempty"`
}

type TimelineEntryDTO struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

type RatingDTO struct {
	Food     int    `json:"food"`
	Delivery int    `json:"delivery"`
	Comment  string `json:"comment,omitempty"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	var courierID *uuid.UUID
	if s.CourierID != nil {
		raw := s.CourierID.Bytes()
		courierID = &raw
	}

	items := make([]ItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemDTO{
			FoodItemID: it.FoodItemID().Bytes(),
			Quantity:   it.Quantity(),
			UnitPrice:  it.UnitPrice().MinorUnits(),
			Note:       it.Note(),
		})
	}

	timeline := make([]TimelineEntryDTO, 0, len(s.Timeline))
	for _, e := range s.Timeline {
		timeline = append(timeline, TimelineEntryDTO{
			Status:    e.Status().String(),
			Timestamp: e.Timestamp(),
			Note:      e.Note(),
		})
	}

	var rating *RatingDTO
	if s.Rating != nil {
		rating = &RatingDTO{Food: s.Rating.Food(), Delivery: s.Rating.Delivery(), Comment: s.Rating.Comment()}
	}

	d := s.Destination
	return OrderDTO{
		ID:           s.ID.Bytes(),
		Number:       s.Number.String(),
		CustomerID:   s.CustomerID.Bytes(),
		RestaurantID: s.RestaurantID.Bytes(),
		CourierID:    courierID,
		Pickup:       pointOf(s.Pickup),
		Items:        items,
		Destination: DestinationDTO{
			Street:       d.Street(),
			City:         d.City(),
			State:        d.State(),
			ZipCode:      d.ZipCode(),
			Point:        pointOf(d.Point()),
			Instructions: d.Instructions(),
		},
		Subtotal:                  s.Pricing.Subtotal().MinorUnits(),
		DeliveryFee:               s.Pricing.DeliveryFee().MinorUnits(),
		Tax:                       s.Pricing.Tax().MinorUnits(),
		Discount:                  s.Pricing.Discount().MinorUnits(),
		Total:                     s.Pricing.Total().MinorUnits(),
		PaymentMethod:             string(s.PaymentMethod),
		PaymentStatus:             string(s.PaymentStatus),
		Status:                    s.Status.String(),
		ConfirmationCode:          s.ConfirmationCode.Code(),
		ConfirmationCodeUsed:      s.ConfirmationCode.IsUsed(),
		ConfirmationCodeExpiresAt: s.ConfirmationCode.ExpiresAt(),
		EstimatedDeliveryTime:     s.EstimatedDeliveryTime,
		ActualDeliveryTime:        s.ActualDeliveryTime,
		SpecialInstructions:       s.SpecialInstructions,
		Rating:                    rating,
		Timeline:                  timeline,
		CreatedAt:                 s.CreatedAt,
		Version:                   s.Version,
	}
}

// toDomain rebuilds the aggregate through RestoreOrder, so a row that breaks an invariant
// surfaces as an error instead of a half-valid order.
func toDomain(dto OrderDTO) (*order.Order, error) {
	s := order.Snapshot{
		EstimatedDeliveryTime: dto.EstimatedDeliveryTime,
		ActualDeliveryTime:    dto.ActualDeliveryTime,
		SpecialInstructions:   dto.SpecialInstructions,
		CreatedAt:             dto.CreatedAt,
		Version:               dto.Version,
	}

	var (
		errList []error
		err     error
	)
	collect := func(e error) {
		if e != nil {
			errList = append(errList, e)
		}
	}

	s.ID, err = kernel.UUIDFromGoogle(dto.ID)
	collect(err)
	s.Number, err = order.ParseNumber(dto.Number)
	collect(err)
	s.CustomerID, err = kernel.UUIDFromGoogle(dto.CustomerID)
	collect(err)
	s.RestaurantID, err = kernel.UUIDFromGoogle(dto.RestaurantID)
	collect(err)
	if dto.CourierID != nil {
		courierID, courierErr := kernel.UUIDFromGoogle(*dto.CourierID)
		collect(courierErr)
		s.CourierID = &courierID
	}
	s.Pickup, err = kernel.NewGeoPoint(dto.Pickup.Latitude, dto.Pickup.Longitude)
	collect(err)

	for _, it := range dto.Items {
		foodItemID, idErr := kernel.UUIDFromGoogle(it.FoodItemID)
		collect(idErr)
		item, itemErr := order.NewItem(foodItemID, it.Quantity, kernel.Money(it.UnitPrice), it.Note)
		collect(itemErr)
		s.Items = append(s.Items, item)
	}

	point, pointErr := kernel.NewGeoPoint(dto.Destination.Point.Latitude, dto.Destination.Point.Longitude)
	collect(pointErr)
	s.Destination, err = order.NewDestination(dto.Destination.Street, dto.Destination.City, dto.Destination.State,
		dto.Destination.ZipCode, point, dto.Destination.Instructions)
	collect(err)

	s.Pricing, err = order.NewPricing(dto.Subtotal, dto.DeliveryFee, dto.Tax, dto.Discount)
	collect(err)
	s.PaymentMethod, err = order.ParsePaymentMethod(dto.PaymentMethod)
	collect(err)
	s.PaymentStatus, err = order.ParsePaymentStatus(dto.PaymentStatus)
	collect(err)
	s.Status, err = order.ParseStatus(dto.Status)
	collect(err)
	s.ConfirmationCode, err = order.NewConfirmationCode(dto.ConfirmationCode, dto.ConfirmationCodeUsed,
		dto.ConfirmationCodeExpiresAt)
	collect(err)

	for _, e := range dto.Timeline {
		status, statusErr := order.ParseStatus(e.Status)
		collect(statusErr)
		entry, entryErr := order.NewTimelineEntry(status, e.Timestamp, e.Note)
		collect(entryErr)
		s.Timeline = append(s.Timeline, entry)
	}

	if dto.Rating != nil {
		rating, ratingErr := order.NewRating(dto.Rating.Food, dto.Rating.Delivery, dto.Rating.Comment)
		collect(ratingErr)
		s.Rating = &rating
	}

	if len(errList) > 0 {
		return nil, errors.Join(errList...)
	}
	return order.RestoreOrder(s)
}

func pointOf(p kernel.GeoPoint) PointDTO {
	return PointDTO{Latitude: p.Latitude(), Longitude: p.Longitude()}
}

func statusNames(statuses []order.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
