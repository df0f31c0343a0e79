package memory

import (
	"context"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

type outboxRepository struct {
	uow *UnitOfWork
}

func (r *outboxRepository) Add(_ context.Context, messages ...ports.OutboxMessage) error {
	return r.uow.do(func(st *state) error {
		st.outbox = append(st.outbox, messages...)
		return nil
	})
}

func (r *outboxRepository) ListUnpublished(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	var pending []ports.OutboxMessage
	err := r.uow.do(func(st *state) error {
		for _, msg := range st.outbox {
			if msg.PublishedAt == nil {
				pending = append(pending, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(pending, func(a, b ports.OutboxMessage) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, ids []kernel.UUID, at time.Time) error {
	return r.uow.do(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].PublishedAt != nil {
				continue
			}
			if slices.ContainsFunc(ids, st.outbox[i].ID.IsEqual) {
				published := at
				st.outbox[i].PublishedAt = &published
			}
		}
		return nil
	})
}

type reconciliationRepository struct {
	uow *UnitOfWork
}

func (r *reconciliationRepository) Add(_ context.Context, rec ports.BarcodeReconciliation) error {
	return r.uow.do(func(st *state) error {
		st.reconciliations = append(st.reconciliations, rec)
		return nil
	})
}

func (r *reconciliationRepository) ListByOrder(_ context.Context, orderID kernel.UUID) ([]ports.BarcodeReconciliation, error) {
	var found []ports.BarcodeReconciliation
	err := r.uow.do(func(st *state) error {
		for _, rec := range st.reconciliations {
			if rec.OrderID.IsEqual(orderID) {
				found = append(found, rec)
			}
		}
		return nil
	})
	return found, err
}
