package queries

import (
	"context"
	"database/sql"
	"time"

	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresenceReader is the view of the presence registry the queries need.
type PresenceReader interface {
	Get(courierID kernel.UUID) (presence.Snapshot, bool)
	Location(courierID kernel.UUID) (kernel.GeoPoint, time.Time, bool)
}

// GetCouriersQueryHandler reads the couriers table directly and overlays the live presence
// of connected couriers. Cached positions win over stored ones since they are newer.
type GetCouriersQueryHandler struct {
	db       *gorm.DB
	presence PresenceReader
}

func NewGetCouriersQueryHandler(db *gorm.DB, presence PresenceReader) GetCouriersQueryHandler {
	return GetCouriersQueryHandler{db: db, presence: presence}
}

func (h GetCouriersQueryHandler) Handle(ctx context.Context, query GetCouriersQuery) ([]CourierView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	couriers := make([]CourierView, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			approved,
			active,
			max_orders,
			current_orders,
			total_deliveries,
			latitude,
			longitude,
			location_updated_at
		FROM couriers
		ORDER BY total_deliveries DESC, id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			view                CourierView
			id                  uuid.UUID
			latitude, longitude sql.NullFloat64
			updatedAt           sql.NullTime
		)

		err = rows.Scan(
			&id,
			&view.Approved,
			&view.Active,
			&view.MaxOrders,
			&view.CurrentOrders,
			&view.TotalDeliveries,
			&latitude,
			&longitude,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		courierID, idErr := kernel.UUIDFromGoogle(id)
		if idErr != nil {
			return nil, idErr
		}
		view.ID = courierID

		if latitude.Valid && longitude.Valid {
			point, pointErr := kernel.NewGeoPoint(latitude.Float64, longitude.Float64)
			if pointErr != nil {
				return nil, pointErr
			}
			view.Location = &point
		}
		if updatedAt.Valid {
			view.LocationUpdatedAt = &updatedAt.Time
		}

		h.overlayPresence(&view)
		couriers = append(couriers, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return couriers, nil
}

func (h GetCouriersQueryHandler) overlayPresence(view *CourierView) {
	snap, ok := h.presence.Get(view.ID)
	if !ok {
		return
	}

	view.Connected = true
	view.Online = snap.Online
	view.Available = snap.Available
	view.CurrentOrders = snap.CurrentOrders
	if snap.Location != nil {
		updated := snap.LastUpdated
		view.Location = snap.Location
		view.LocationUpdatedAt = &updated
	}
}
