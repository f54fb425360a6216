package queries

import (
	"context"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOrdersQueryHandler reads the orders table directly, bypassing the aggregate.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

func (h GetActiveOrdersQueryHandler) Handle(ctx context.Context, query GetActiveOrdersQuery) ([]ActiveOrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	active := order.ActiveStatuses()
	statuses := make([]string, 0, len(active))
	for _, s := range active {
		statuses = append(statuses, s.String())
	}

	orders := make([]ActiveOrderView, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			customer_id,
			courier_id,
			status,
			total,
			created_at
		FROM orders
		WHERE status IN ?
		ORDER BY created_at, id
	`, statuses).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			view       ActiveOrderView
			id         uuid.UUID
			customerID uuid.UUID
			courierID  uuid.NullUUID
			total      int64
		)

		err = rows.Scan(
			&id,
			&view.Number,
			&customerID,
			&courierID,
			&view.Status,
			&total,
			&view.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if view.ID, err = kernel.UUIDFromGoogle(id); err != nil {
			return nil, err
		}
		if view.CustomerID, err = kernel.UUIDFromGoogle(customerID); err != nil {
			return nil, err
		}
		if courierID.Valid {
			assigned, idErr := kernel.UUIDFromGoogle(courierID.UUID)
			if idErr != nil {
				return nil, idErr
			}
			view.CourierID = &assigned
		}
		view.Total = kernel.Money(total)

		orders = append(orders, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
