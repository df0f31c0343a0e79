package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/pgerr"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// aggregateTracker is the part of the unit of work that collects aggregates for the outbox.
type aggregateTracker interface {
	Track(source kernel.EventSource)
}

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts the order with its line items and notes.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return mapWriteError(err, dto)
	}

	r.tracker.Track(aggregate)
	return nil
}

// Update rewrites the order row and its line items and appends notes that are not
// stored yet.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return mapWriteError(result.Error, dto)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if err := db.Where("order_id = ?", dto.ID).Delete(&LineItemDTO{}).Error; err != nil {
		return err
	}
	if len(dto.LineItems) > 0 {
		if err := db.Create(&dto.LineItems).Error; err != nil {
			return err
		}
	}

	var stored int64
	if err := db.Model(&AdminNoteDTO{}).Where("order_id = ?", dto.ID).Count(&stored).Error; err != nil {
		return err
	}
	if fresh := dto.Notes[min(int(stored), len(dto.Notes)):]; len(fresh) > 0 {
		if err := db.Create(&fresh).Error; err != nil {
			return err
		}
	}

	r.tracker.Track(aggregate)
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.load(r.db.WithContext(ctx), "id = ?", id.Bytes())
}

// GetForUpdate takes a row lock on the order before loading it.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var locked OrderDTO
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}
	return r.load(db, "id = ?", id.Bytes())
}

func (r *GormOrderRepository) GetByTrackingCode(ctx context.Context, trackingCode string) (*order.Order, error) {
	if trackingCode == "" {
		return nil, errs.NewValueIsRequiredError("tracking code")
	}
	o, err := r.load(r.db.WithContext(ctx), "tracking_code = ?", trackingCode)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewObjectNotFoundError("trackingCode", trackingCode)
	}
	return o, err
}

func (r *GormOrderRepository) ListIDsByStatus(ctx context.Context, statuses []order.Status, limit int) ([]kernel.UUID, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return r.listIDs(r.db.WithContext(ctx).Where("status IN ?", names), limit)
}

func (r *GormOrderRepository) ListIDsPendingCourierConfirmation(ctx context.Context, limit int) ([]kernel.UUID, error) {
	return r.listIDs(r.db.WithContext(ctx).Where("pending_courier_confirmation = ?", true), limit)
}

func (r *GormOrderRepository) listIDs(query *gorm.DB, limit int) ([]kernel.UUID, error) {
	query = query.Model(&OrderDTO{}).Order("created_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var raw []uuid.UUID
	if err := query.Pluck("id", &raw).Error; err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(raw))
	for _, id := range raw {
		restored, err := kernel.RestoreUUID(id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, restored)
	}
	return ids, nil
}

func (r *GormOrderRepository) load(db *gorm.DB, query string, args ...any) (*order.Order, error) {
	var dto OrderDTO
	err := db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Where(query, args...).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", fmt.Sprint(args...))
		}
		return nil, err
	}
	return toDomain(dto)
}

func mapWriteError(err error, dto OrderDTO) error {
	if pgerr.IsUniqueViolation(err, InvoiceNumberIndex) {
		return fmt.Errorf("%w: %s", order.ErrDuplicateInvoice, value(dto.InvoiceNumber))
	}
	return err
}
