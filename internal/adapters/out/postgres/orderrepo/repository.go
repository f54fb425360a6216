package orderrepo

import (
	"context"
	"errors"
	"strings"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a newly placed order. A clash on the order number returns ports.ErrOrderNumberTaken.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, "number") {
			return ports.ErrOrderNumberTaken
		}
		return errs.NewTransientError("add order", err)
	}

	return nil
}

// Update writes the whole row if nobody changed it since aggregate was read.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Select("*").Omit("id", "number", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return errs.NewTransientError("update order", result.Error)
	}

	if result.RowsAffected == 0 {
		if err := r.exists(ctx, aggregate.ID()); err != nil {
			return err
		}
		return errs.NewVersionIsInvalidError("order " + aggregate.ID().String())
	}

	aggregate.AdvanceVersion()
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, errs.NewTransientError("get order", err)
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) GetByNumber(ctx context.Context, number order.Number) (*order.Order, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "number = ?", number.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("orderNumber", number.String())
		}
		return nil, errs.NewTransientError("get order by number", err)
	}

	return toDomain(dto)
}

// AssignCourier is a single conditional UPDATE. Concurrent callers serialize on the row lock
// and every one after the first sees courier_id already set.
func (r *GormOrderRepository) AssignCourier(ctx context.Context, orderID, courierID kernel.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND courier_id IS NULL AND status = ?", orderID.Bytes(), order.Placed.String()).
		Update("courier_id", courierID.Bytes())
	if result.Error != nil {
		return false, errs.NewTransientError("assign courier", result.Error)
	}

	if result.RowsAffected == 0 {
		return false, r.exists(ctx, orderID)
	}
	return true, nil
}

func (r *GormOrderRepository) ConsumeConfirmationCode(ctx context.Context, orderID kernel.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND confirmation_code_used = ?", orderID.Bytes(), false).
		Update("confirmation_code_used", true)
	if result.Error != nil {
		return false, errs.NewTransientError("consume confirmation code", result.Error)
	}

	if result.RowsAffected == 0 {
		return false, r.exists(ctx, orderID)
	}
	return true, nil
}

func (r *GormOrderRepository) GetActiveByCourier(
	ctx context.Context,
	courierID kernel.UUID,
	statuses []order.Status,
) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("courier_id = ? AND status IN ?", courierID.Bytes(), statusNames(statuses)).
		Order("created_at").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewTransientError("list orders", err)
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) GetPendingUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND courier_id IS NULL", order.Placed.String()).
		Order("created_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewTransientError("list orders", err)
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) exists(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return errs.NewTransientError("check order", err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return nil
}

func toDomainList(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
