package barcoderepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/pgerr"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// GormUnitRepository implements ports.BarcodeUnitRepository using GORM.
type GormUnitRepository struct {
	db *gorm.DB
}

func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// Add inserts a batch of units and their first log entries. A barcode that already exists
// fails the whole batch with barcode.ErrDuplicateBarcode.
func (r *GormUnitRepository) Add(ctx context.Context, units ...*barcode.Unit) error {
	if len(units) == 0 {
		return nil
	}

	dtos := make([]UnitDTO, 0, len(units))
	var logs []LogEntryDTO
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, unitFromDomain(u))
		logs = append(logs, logEntriesFromDomain(u.Barcode(), u.PendingLogEntries())...)
	}

	db := r.db.WithContext(ctx)
	if err := db.CreateInBatches(&dtos, insertBatchSize).Error; err != nil {
		if pgerr.IsUniqueViolation(err, primaryKey) {
			return fmt.Errorf("%w: %v", barcode.ErrDuplicateBarcode, err)
		}
		return err
	}
	if err := r.insertLogs(db, logs); err != nil {
		return err
	}

	for _, u := range units {
		u.ClearPendingLogEntries()
	}
	return nil
}

func (r *GormUnitRepository) Update(ctx context.Context, u *barcode.Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}

	dto := unitFromDomain(u)
	db := r.db.WithContext(ctx)
	result := db.Model(&UnitDTO{}).
		Where("barcode = ?", dto.Barcode).
		Select("*").
		Omit("barcode", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("barcode", u.Barcode())
	}

	if err := r.insertLogs(db, logEntriesFromDomain(u.Barcode(), u.PendingLogEntries())); err != nil {
		return err
	}
	u.ClearPendingLogEntries()
	return nil
}

func (r *GormUnitRepository) insertLogs(db *gorm.DB, logs []LogEntryDTO) error {
	if len(logs) == 0 {
		return nil
	}
	return db.CreateInBatches(&logs, insertBatchSize).Error
}

func (r *GormUnitRepository) Get(ctx context.Context, code string) (*barcode.Unit, error) {
	return r.get(r.db.WithContext(ctx), code)
}

func (r *GormUnitRepository) GetForUpdate(ctx context.Context, code string) (*barcode.Unit, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func (r *GormUnitRepository) get(db *gorm.DB, code string) (*barcode.Unit, error) {
	var dto UnitDTO
	if err := db.First(&dto, "barcode = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("barcode", code)
		}
		return nil, err
	}
	return unitToDomain(dto)
}

// ListAssignableForUpdate skips units locked by a concurrent assignment so two orders
// drawing from the same lot never wait on each other for the same rows.
func (r *GormUnitRepository) ListAssignableForUpdate(ctx context.Context, lotID kernel.UUID, limit int) ([]*barcode.Unit, error) {
	if err := lotID.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("lot_id = ? AND status IN ?", lotID.Bytes(),
			[]string{barcode.Unassigned.String(), barcode.Reserved.String()}).
		Order("barcode")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.list(query)
}

func (r *GormUnitRepository) ListByOrderForUpdate(ctx context.Context, orderID kernel.UUID) ([]*barcode.Unit, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID.Bytes()).
		Order("barcode")
	return r.list(query)
}

func (r *GormUnitRepository) list(query *gorm.DB) ([]*barcode.Unit, error) {
	var dtos []UnitDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	units := make([]*barcode.Unit, 0, len(dtos))
	for _, dto := range dtos {
		u, err := unitToDomain(dto)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Log returns the status history of a unit, oldest first.
func (r *GormUnitRepository) Log(ctx context.Context, code string) ([]barcode.LogEntry, error) {
	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&UnitDTO{}).Where("barcode = ?", code).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, errs.NewObjectNotFoundError("barcode", code)
	}

	var dtos []LogEntryDTO
	if err := db.Where("barcode = ?", code).Order("seq").Find(&dtos).Error; err != nil {
		return nil, err
	}

	entries := make([]barcode.LogEntry, 0, len(dtos))
	for _, dto := range dtos {
		entry, err := logEntryToDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
