package orderrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its line items and events in one insert batch.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}

	if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves the current status of an existing order and appends the
// events recorded since the last write. Line items are immutable and never
// rewritten; event rows already persisted are never touched, which keeps the
// event table strictly append-only.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}

	tx := r.db.WithContext(ctx)
	result := tx.Model(&OrderDTO{}).Where("id = ?", dto.ID).
		Select("Status").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err = r.appendNewEvents(tx, dto); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// appendNewEvents inserts the tail of the aggregate's event log that is not
// persisted yet, determined by comparing lengths. Valid because the log is
// append-only and the caller holds the row lock on the order.
func (r *GormOrderRepository) appendNewEvents(tx *gorm.DB, dto OrderDTO) error {
	var persisted int64
	if err := tx.Model(&EventDTO{}).Where("order_id = ?", dto.ID).Count(&persisted).Error; err != nil {
		return err
	}

	if int(persisted) >= len(dto.Events) {
		return nil
	}

	newEvents := dto.Events[persisted:]
	return tx.Create(&newEvents).Error
}

// Get retrieves an order by its internal identifier.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	return r.getOne(ctx, false, "id = ?", id.Bytes())
}

// GetForUpdate retrieves an order by its internal identifier with a row lock
// held until the surrounding transaction ends.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	return r.getOne(ctx, true, "id = ?", id.Bytes())
}

// GetByExternalRef retrieves an order by its client-facing reference.
func (r *GormOrderRepository) GetByExternalRef(ctx context.Context, externalRef string) (*order.Order, error) {
	if externalRef == "" {
		return nil, errs.NewValueIsRequiredError("externalRef")
	}

	return r.getOne(ctx, false, "external_ref = ?", externalRef)
}

// GetByExternalRefForUpdate is GetByExternalRef with a row lock.
func (r *GormOrderRepository) GetByExternalRefForUpdate(ctx context.Context, externalRef string) (*order.Order, error) {
	if externalRef == "" {
		return nil, errs.NewValueIsRequiredError("externalRef")
	}

	return r.getOne(ctx, true, "external_ref = ?", externalRef)
}

func (r *GormOrderRepository) getOne(
	ctx context.Context,
	forUpdate bool,
	cond string,
	arg any,
) (*order.Order, error) {
	tx := r.withChildren(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var dto OrderDTO
	if err := tx.First(&dto, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", arg)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllPendingBefore retrieves orders still Pending that were created before
// the cutoff. Used by the enqueue sweep to find orders whose processing job
// was lost before reaching the queue.
func (r *GormOrderRepository) GetAllPendingBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.withChildren(ctx).
		Where("status = ? AND created_at < ?", int(order.Pending), cutoff).
		Order("created_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// withChildren preloads line items and events in their insertion order, which
// for events is also lifecycle order.
func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	return r.db.WithContext(ctx).
		Preload("LineItems", byID).
		Preload("Events", byID)
}
