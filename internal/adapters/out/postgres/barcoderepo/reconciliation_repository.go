package barcoderepo

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

// GormReconciliationRepository implements ports.ReconciliationRepository using GORM.
type GormReconciliationRepository struct {
	db *gorm.DB
}

func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

func (r *GormReconciliationRepository) Add(ctx context.Context, rec ports.BarcodeReconciliation) error {
	if err := rec.ID.Validate(); err != nil {
		return err
	}
	dto := reconciliationFromDomain(rec)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormReconciliationRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]ports.BarcodeReconciliation, error) {
	var dtos []ReconciliationDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	records := make([]ports.BarcodeReconciliation, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := reconciliationToDomain(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
