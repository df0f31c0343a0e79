package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"
)

type lotRepository struct {
	uow *UnitOfWork
}

func (r *lotRepository) Add(_ context.Context, lot *stock.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.lots[lot.ID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("lot", fmt.Errorf("lot %s already exists", lot.ID()))
		}
		st.lots[lot.ID()] = lot.Snapshot()
		return nil
	})
}

func (r *lotRepository) Update(_ context.Context, lot *stock.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.lots[lot.ID()]; !ok {
			return errs.NewObjectNotFoundError("lot", lot.ID().String())
		}
		st.lots[lot.ID()] = lot.Snapshot()
		return nil
	})
}

func (r *lotRepository) Get(_ context.Context, id kernel.UUID) (*stock.Lot, error) {
	var snapshot stock.LotSnapshot
	err := r.uow.do(func(st *state) error {
		s, ok := st.lots[id]
		if !ok {
			return errs.NewObjectNotFoundError("lot", id.String())
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock.RestoreLot(snapshot)
}

func (r *lotRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*stock.Lot, error) {
	return r.Get(ctx, id)
}

func (r *lotRepository) ListActiveForUpdate(
	_ context.Context,
	productID, variantID kernel.UUID,
	location kernel.Location,
) ([]*stock.Lot, error) {
	var snapshots []stock.LotSnapshot
	err := r.uow.do(func(st *state) error {
		for _, s := range st.lots {
			if s.Status == stock.LotActive &&
				s.ProductID.IsEqual(productID) &&
				s.VariantID.IsEqual(variantID) &&
				s.Location.IsEqual(location) {
				snapshots = append(snapshots, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(snapshots, func(a, b stock.LotSnapshot) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	lots := make([]*stock.Lot, 0, len(snapshots))
	for _, s := range snapshots {
		lot, err := stock.RestoreLot(s)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

type globalStockRepository struct {
	uow *UnitOfWork
}

func (r *globalStockRepository) GetForUpdate(_ context.Context, productID, variantID kernel.UUID) (*stock.GlobalStock, error) {
	var snapshot stock.GlobalStockSnapshot
	err := r.uow.do(func(st *state) error {
		s, ok := st.globalStock[variantKey{productID: productID, variantID: variantID}]
		if !ok {
			return errs.NewObjectNotFoundError("globalStock", variantID.String())
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock.RestoreGlobalStock(snapshot)
}

func (r *globalStockRepository) GetOrCreateForUpdate(
	ctx context.Context,
	productID, variantID kernel.UUID,
) (*stock.GlobalStock, error) {
	gs, err := r.GetForUpdate(ctx, productID, variantID)
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return gs, err
	}
	if gs, err = stock.NewGlobalStock(productID, variantID); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, gs); err != nil {
		return nil, err
	}
	return gs, nil
}

func (r *globalStockRepository) Save(_ context.Context, gs *stock.GlobalStock) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		st.globalStock[variantKey{productID: gs.ProductID(), variantID: gs.VariantID()}] = gs.Snapshot()
		return nil
	})
}

type reservationRepository struct {
	uow *UnitOfWork
}

func (r *reservationRepository) Add(_ context.Context, reservation *stock.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.reservations[reservation.ID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("reservation",
				fmt.Errorf("reservation %s already exists", reservation.ID()))
		}
		st.reservations[reservation.ID()] = reservation.Snapshot()
		return nil
	})
}

func (r *reservationRepository) Update(_ context.Context, reservation *stock.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}
	return r.uow.do(func(st *state) error {
		if _, ok := st.reservations[reservation.ID()]; !ok {
			return errs.NewObjectNotFoundError("reservation", reservation.ID().String())
		}
		st.reservations[reservation.ID()] = reservation.Snapshot()
		return nil
	})
}

func (r *reservationRepository) GetForUpdate(_ context.Context, id kernel.UUID) (*stock.Reservation, error) {
	var snapshot stock.ReservationSnapshot
	err := r.uow.do(func(st *state) error {
		s, ok := st.reservations[id]
		if !ok {
			return errs.NewObjectNotFoundError("reservation", id.String())
		}
		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock.RestoreReservation(snapshot)
}
