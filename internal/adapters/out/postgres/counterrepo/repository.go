// Package counterrepo keeps named monotonic sequences in a single table.
package counterrepo

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

type CounterDTO struct {
	Name  string `gorm:"size:64;primaryKey"`
	Value int64  `gorm:"not null"`
}

func (CounterDTO) TableName() string {
	return "counters"
}

const incrementSQL = `
INSERT INTO counters (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = counters.value + EXCLUDED.value
RETURNING value`

// GormCounterRepository implements ports.CounterRepository. The upsert holds the counter
// row lock until the surrounding transaction ends, so values handed out by a transaction
// that rolls back are reused by the next one.
type GormCounterRepository struct {
	db *gorm.DB
}

func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

func (r *GormCounterRepository) Increment(ctx context.Context, name string) (int64, error) {
	return r.IncrementBy(ctx, name, 1)
}

func (r *GormCounterRepository) IncrementBy(ctx context.Context, name string, n int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errs.NewValueIsRequiredError("counter name")
	}
	if n <= 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("counter increment", fmt.Errorf("%d is not greater than 0", n))
	}

	var value int64
	if err := r.db.WithContext(ctx).Raw(incrementSQL, name, n).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}
