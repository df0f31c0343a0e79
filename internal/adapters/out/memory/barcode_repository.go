package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

type barcodeUnitRepository struct {
	uow *UnitOfWork
}

func (r *barcodeUnitRepository) Add(_ context.Context, units ...*barcode.Unit) error {
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	return r.uow.do(func(st *state) error {
		for _, u := range units {
			if _, ok := st.units[u.Barcode()]; ok {
				return fmt.Errorf("%w: %s", barcode.ErrDuplicateBarcode, u.Barcode())
			}
		}
		for _, u := range units {
			r.put(st, u)
		}
		return nil
	})
}

func (r *barcodeUnitRepository) Update(_ context.Context, u *barcode.Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.units[u.Barcode()]; !ok {
			return errs.NewObjectNotFoundError("barcode", u.Barcode())
		}
		r.put(st, u)
		return nil
	})
}

func (r *barcodeUnitRepository) put(st *state, u *barcode.Unit) {
	st.units[u.Barcode()] = u.Snapshot()
	st.unitLogs[u.Barcode()] = append(st.unitLogs[u.Barcode()], u.PendingLogEntries()...)
	u.ClearPendingLogEntries()
}

func (r *barcodeUnitRepository) Get(_ context.Context, code string) (*barcode.Unit, error) {
	var snapshot barcode.UnitSnapshot
	err := r.uow.do(func(st *state) error {
		s, ok := st.units[code]
		if !ok {
			return errs.NewObjectNotFoundError("barcode", code)
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return barcode.RestoreUnit(snapshot)
}

func (r *barcodeUnitRepository) GetForUpdate(ctx context.Context, code string) (*barcode.Unit, error) {
	return r.Get(ctx, code)
}

func (r *barcodeUnitRepository) ListAssignableForUpdate(_ context.Context, lotID kernel.UUID, limit int) ([]*barcode.Unit, error) {
	return r.list(limit, func(s barcode.UnitSnapshot) bool {
		return s.LotID != nil && s.LotID.IsEqual(lotID) &&
			(s.Status == barcode.Unassigned || s.Status == barcode.Reserved)
	})
}

func (r *barcodeUnitRepository) ListByOrderForUpdate(_ context.Context, orderID kernel.UUID) ([]*barcode.Unit, error) {
	return r.list(0, func(s barcode.UnitSnapshot) bool {
		return s.OrderID != nil && s.OrderID.IsEqual(orderID)
	})
}

// list returns matching units in barcode order.
func (r *barcodeUnitRepository) list(limit int, match func(barcode.UnitSnapshot) bool) ([]*barcode.Unit, error) {
	var snapshots []barcode.UnitSnapshot
	err := r.uow.do(func(st *state) error {
		for _, s := range st.units {
			if match(s) {
				snapshots = append(snapshots, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(snapshots, func(a, b barcode.UnitSnapshot) int {
		return strings.Compare(a.Barcode, b.Barcode)
	})
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}

	units := make([]*barcode.Unit, 0, len(snapshots))
	for _, s := range snapshots {
		u, err := barcode.RestoreUnit(s)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func (r *barcodeUnitRepository) Log(_ context.Context, code string) ([]barcode.LogEntry, error) {
	var entries []barcode.LogEntry
	err := r.uow.do(func(st *state) error {
		if _, ok := st.units[code]; !ok {
			return errs.NewObjectNotFoundError("barcode", code)
		}
		entries = slices.Clone(st.unitLogs[code])
		return nil
	})
	return entries, err
}
