package courierrepo

import (
	"context"
	"errors"
	"time"

	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var _ ports.CourierRepository = (*GormCourierRepository)(nil)

// GormCourierRepository implements ports.CourierRepository using GORM.
type GormCourierRepository struct {
	db *gorm.DB
}

func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Add saves a new courier profile.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errs.NewValueIsInvalidError("courier already exists")
		}
		return errs.NewTransientError("add courier", err)
	}

	return nil
}

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, errs.NewTransientError("get courier", err)
	}

	return toDomain(dto)
}

func (r *GormCourierRepository) UpdateLocation(
	ctx context.Context,
	id kernel.UUID,
	point kernel.GeoPoint,
	at time.Time,
) error {
	if err := point.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&CourierDTO{}).
		Where("id = ?", id.Bytes()).
		Updates(map[string]any{
			"latitude":            point.Latitude(),
			"longitude":           point.Longitude(),
			"location_updated_at": at,
		})
	return r.checkAffected("update courier location", result, id)
}

// AdjustStats applies both deltas in one statement so concurrent adjustments never lose
// each other's increments.
func (r *GormCourierRepository) AdjustStats(
	ctx context.Context,
	id kernel.UUID,
	currentOrdersDelta int,
	totalDeliveriesDelta int,
) error {
	result := r.db.WithContext(ctx).Model(&CourierDTO{}).
		Where("id = ?", id.Bytes()).
		Updates(map[string]any{
			"current_orders":   gorm.Expr("GREATEST(current_orders + ?, 0)", currentOrdersDelta),
			"total_deliveries": gorm.Expr("total_deliveries + ?", totalDeliveriesDelta),
		})
	return r.checkAffected("adjust courier stats", result, id)
}

func (r *GormCourierRepository) checkAffected(op string, result *gorm.DB, id kernel.UUID) error {
	if result.Error != nil {
		return errs.NewTransientError(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", id.String())
	}
	return nil
}
