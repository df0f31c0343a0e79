package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.orders[aggregate.ID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("order %s already exists", aggregate.ID()))
		}
		return r.put(st, aggregate)
	})
}

func (r *orderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.orders[aggregate.ID()]; !ok {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return r.put(st, aggregate)
	})
}

// put enforces the unique invoice number the way the orders table index does.
func (r *orderRepository) put(st *state, aggregate *order.Order) error {
	snapshot := aggregate.Snapshot()
	if snapshot.InvoiceNumber != "" {
		for id, other := range st.orders {
			if other.InvoiceNumber == snapshot.InvoiceNumber && !id.IsEqual(snapshot.ID) {
				return fmt.Errorf("%w: %s is used by order %s", order.ErrDuplicateInvoice, snapshot.InvoiceNumber, id)
			}
		}
	}
	st.orders[snapshot.ID] = snapshot
	return nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	var snapshot order.Snapshot
	err := r.uow.do(func(st *state) error {
		s, ok := st.orders[id]
		if !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order.RestoreOrder(snapshot)
}

// GetForUpdate needs no row lock: the unit of work already holds the store.
func (r *orderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepository) GetByTrackingCode(_ context.Context, trackingCode string) (*order.Order, error) {
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return nil, errs.NewValueIsRequiredError("tracking code")
	}
	var snapshot *order.Snapshot
	err := r.uow.do(func(st *state) error {
		for _, s := range st.orders {
			if s.TrackingCode == trackingCode {
				snapshot = &s
				return nil
			}
		}
		return errs.NewObjectNotFoundError("trackingCode", trackingCode)
	})
	if err != nil {
		return nil, err
	}
	return order.RestoreOrder(*snapshot)
}

func (r *orderRepository) ListIDsByStatus(_ context.Context, statuses []order.Status, limit int) ([]kernel.UUID, error) {
	return r.listIDs(limit, func(s order.Snapshot) bool {
		return slices.Contains(statuses, s.Status)
	})
}

func (r *orderRepository) ListIDsPendingCourierConfirmation(_ context.Context, limit int) ([]kernel.UUID, error) {
	return r.listIDs(limit, func(s order.Snapshot) bool {
		return s.PendingCourierConfirmation
	})
}

// listIDs returns matching ids, oldest order first.
func (r *orderRepository) listIDs(limit int, match func(order.Snapshot) bool) ([]kernel.UUID, error) {
	var found []order.Snapshot
	err := r.uow.do(func(st *state) error {
		for _, s := range st.orders {
			if match(s) {
				found = append(found, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(found, func(a, b order.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	ids := make([]kernel.UUID, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
