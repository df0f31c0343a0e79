// Package outboxrepo stores domain events written in the same transaction as the
// aggregates that raised them.
package outboxrepo

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxMessageDTO struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	AggregateID uuid.UUID      `gorm:"type:uuid;not null;index"`
	EventName   string         `gorm:"size:64;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	OccurredAt  time.Time      `gorm:"not null;index:idx_outbox_unpublished,where:published_at IS NULL"`
	PublishedAt *time.Time
}

func (OutboxMessageDTO) TableName() string {
	return "outbox_messages"
}

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, messages ...ports.OutboxMessage) error {
	if len(messages) == 0 {
		return nil
	}

	dtos := make([]OutboxMessageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, OutboxMessageDTO{
			ID:          m.ID.Bytes(),
			AggregateID: m.AggregateID.Bytes(),
			EventName:   m.EventName,
			Payload:     datatypes.JSON(m.Payload),
			OccurredAt:  m.OccurredAt,
			PublishedAt: m.PublishedAt,
		})
	}
	return r.db.WithContext(ctx).Create(&dtos).Error
}

// ListUnpublished uses SKIP LOCKED so that several relays can drain the outbox in parallel.
func (r *GormOutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Order("occurred_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []OutboxMessageDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		id, err := kernel.RestoreUUID(dto.ID)
		if err != nil {
			return nil, err
		}
		aggregateID, err := kernel.RestoreUUID(dto.AggregateID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, ports.OutboxMessage{
			ID:          id,
			AggregateID: aggregateID,
			EventName:   dto.EventName,
			Payload:     []byte(dto.Payload),
			OccurredAt:  dto.OccurredAt,
			PublishedAt: dto.PublishedAt,
		})
	}
	return messages, nil
}

func (r *GormOutboxRepository) MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Bytes())
	}
	return r.db.WithContext(ctx).
		Model(&OutboxMessageDTO{}).
		Where("id IN ? AND published_at IS NULL", raw).
		Update("published_at", at).Error
}
