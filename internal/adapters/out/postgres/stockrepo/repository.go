package stockrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// GormLotRepository implements ports.LotRepository using GORM.
type GormLotRepository struct {
	db *gorm.DB
}

func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

func (r *GormLotRepository) Add(ctx context.Context, lot *stock.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	dto := lotFromDomain(lot)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormLotRepository) Update(ctx context.Context, lot *stock.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}

	dto := lotFromDomain(lot)
	result := r.db.WithContext(ctx).Model(&LotDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("lot", lot.ID().String())
	}
	return nil
}

func (r *GormLotRepository) Get(ctx context.Context, id kernel.UUID) (*stock.Lot, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormLotRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*stock.Lot, error) {
	return r.get(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

// ListActiveForUpdate locks the matching rows in id order so that concurrent reservations
// for the same variant queue up instead of deadlocking.
func (r *GormLotRepository) ListActiveForUpdate(
	ctx context.Context,
	productID, variantID kernel.UUID,
	location kernel.Location,
) ([]*stock.Lot, error) {
	var dtos []LotDTO
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("product_id = ? AND variant_id = ? AND location = ? AND status = ?",
			productID.Bytes(), variantID.Bytes(), location.Code(), string(stock.LotActive)).
		Order("id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	lots := make([]*stock.Lot, 0, len(dtos))
	for _, dto := range dtos {
		lot, err := lotToDomain(dto)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func (r *GormLotRepository) get(db *gorm.DB, id kernel.UUID) (*stock.Lot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto LotDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("lot", id.String())
		}
		return nil, err
	}
	return lotToDomain(dto)
}

// GormGlobalStockRepository implements ports.GlobalStockRepository using GORM.
type GormGlobalStockRepository struct {
	db *gorm.DB
}

func NewGormGlobalStockRepository(db *gorm.DB) *GormGlobalStockRepository {
	return &GormGlobalStockRepository{db: db}
}

func (r *GormGlobalStockRepository) GetForUpdate(ctx context.Context, productID, variantID kernel.UUID) (*stock.GlobalStock, error) {
	if err := errors.Join(productID.Validate(), variantID.Validate()); err != nil {
		return nil, err
	}

	var dto GlobalStockDTO
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		First(&dto, "product_id = ? AND variant_id = ?", productID.Bytes(), variantID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("globalStock", fmt.Sprintf("%s/%s", productID, variantID))
		}
		return nil, err
	}
	return globalStockToDomain(dto)
}

// GetOrCreateForUpdate inserts a zero row unless one exists, then locks it. A concurrent
// first receipt blocks on the insert until the other transaction ends.
func (r *GormGlobalStockRepository) GetOrCreateForUpdate(
	ctx context.Context,
	productID, variantID kernel.UUID,
) (*stock.GlobalStock, error) {
	gs, err := stock.NewGlobalStock(productID, variantID)
	if err != nil {
		return nil, err
	}

	dto := globalStockFromDomain(gs)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto).Error
	if err != nil {
		return nil, err
	}
	return r.GetForUpdate(ctx, productID, variantID)
}

// Save upserts the counters row of the variant.
func (r *GormGlobalStockRepository) Save(ctx context.Context, gs *stock.GlobalStock) error {
	if err := gs.Validate(); err != nil {
		return err
	}

	dto := globalStockFromDomain(gs)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available", "reserved", "total", "total_sold"}),
		}).
		Create(&dto).Error
}

// GormReservationRepository implements ports.ReservationRepository using GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Add(ctx context.Context, reservation *stock.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}
	dto := reservationFromDomain(reservation)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormReservationRepository) Update(ctx context.Context, reservation *stock.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}

	dto := reservationFromDomain(reservation)
	result := r.db.WithContext(ctx).Model(&ReservationDTO{}).
		Where("id = ?", dto.ID).
		Select("quantity", "state", "updated_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("reservation", reservation.ID().String())
	}
	return nil
}

func (r *GormReservationRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*stock.Reservation, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ReservationDTO
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("reservation", id.String())
		}
		return nil, err
	}
	return reservationToDomain(dto)
}
