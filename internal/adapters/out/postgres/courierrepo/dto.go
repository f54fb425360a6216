// Package courierrepo persists courier profiles in the couriers table.
package courierrepo

import (
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO is the row layout of the couriers table. The position columns are NULL until
// the courier reports one.
type CourierDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Approved          bool      `gorm:"not null"`
	Active            bool      `gorm:"not null"`
	MaxOrders         int       `gorm:"not null"`
	CurrentOrders     int       `gorm:"not null"`
	TotalDeliveries   int       `gorm:"not null"`
	Latitude          *float64
	Longitude         *float64
	LocationUpdatedAt *time.Time
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromDomain(c *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:                c.ID().Bytes(),
		Approved:          c.IsApproved(),
		Active:            c.IsActive(),
		MaxOrders:         c.MaxOrders(),
		CurrentOrders:     c.CurrentOrders(),
		TotalDeliveries:   c.TotalDeliveries(),
		LocationUpdatedAt: c.LocationUpdatedAt(),
	}
	if p := c.Location(); p != nil {
		lat, lon := p.Latitude(), p.Longitude()
		dto.Latitude, dto.Longitude = &lat, &lon
	}

	return dto
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	var location *kernel.GeoPoint
	if dto.Latitude != nil && dto.Longitude != nil {
		p, pointErr := kernel.NewGeoPoint(*dto.Latitude, *dto.Longitude)
		if pointErr != nil {
			return nil, errors.Join(errors.New("stored courier location is invalid"), pointErr)
		}
		location = &p
	}

	return courier.RestoreCourier(id, dto.Approved, dto.Active, dto.MaxOrders, dto.CurrentOrders,
		dto.TotalDeliveries, location, dto.LocationUpdatedAt)
}
