// Package stockrepo persists lots, the per-variant global stock counters and the
// reservations drawn from lots.
package stockrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LotDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_variant_location,priority:1"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_variant_location,priority:2"`
	Location    string          `gorm:"size:32;not null;index:idx_lots_variant_location,priority:3"`
	Received    int             `gorm:"not null;check:chk_lots_received,received > 0"`
	Available   int             `gorm:"not null;check:chk_lots_available,available >= 0"`
	Reserved    int             `gorm:"not null;check:chk_lots_reserved,reserved >= 0"`
	Sold        int             `gorm:"not null;check:chk_lots_sold,sold >= 0"`
	Returned    int             `gorm:"not null;check:chk_lots_returned,returned >= 0"`
	CostPerUnit decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ReceivedAt  time.Time       `gorm:"not null"`
	ExpiryDate  *time.Time
	Status      string `gorm:"size:16;not null;index"`
	SourceRef   string `gorm:"size:64"`
}

func (LotDTO) TableName() string {
	return "lots"
}

// GlobalStockDTO holds one row per variant across every location.
type GlobalStockDTO struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Available int       `gorm:"not null"`
	Reserved  int       `gorm:"not null"`
	Total     int       `gorm:"not null"`
	TotalSold int       `gorm:"not null"`
}

func (GlobalStockDTO) TableName() string {
	return "global_stock"
}

type ReservationDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	LineItemID uuid.UUID `gorm:"type:uuid;not null"`
	LotID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null"`
	Quantity   int       `gorm:"not null"`
	State      string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (ReservationDTO) TableName() string {
	return "reservations"
}

func lotFromDomain(lot *stock.Lot) LotDTO {
	s := lot.Snapshot()
	return LotDTO{
		ID:          s.ID.Bytes(),
		ProductID:   s.ProductID.Bytes(),
		VariantID:   s.VariantID.Bytes(),
		Location:    s.Location.Code(),
		Received:    s.Received,
		Available:   s.Available,
		Reserved:    s.Reserved,
		Sold:        s.Sold,
		Returned:    s.Returned,
		CostPerUnit: s.CostPerUnit.Amount(),
		ReceivedAt:  s.ReceivedAt,
		ExpiryDate:  s.ExpiryDate,
		Status:      string(s.Status),
		SourceRef:   s.SourceRef,
	}
}

func lotToDomain(dto LotDTO) (*stock.Lot, error) {
	ids, err := restoreIDs(dto.ID, dto.ProductID, dto.VariantID)
	if err != nil {
		return nil, err
	}
	location, err := kernel.NewLocation(dto.Location)
	if err != nil {
		return nil, err
	}
	cost, err := kernel.NewMoney(dto.CostPerUnit)
	if err != nil {
		return nil, err
	}

	return stock.RestoreLot(stock.LotSnapshot{
		ID:          ids[0],
		ProductID:   ids[1],
		VariantID:   ids[2],
		Location:    location,
		Received:    dto.Received,
		Available:   dto.Available,
		Reserved:    dto.Reserved,
		Sold:        dto.Sold,
		Returned:    dto.Returned,
		CostPerUnit: cost,
		ReceivedAt:  dto.ReceivedAt,
		ExpiryDate:  dto.ExpiryDate,
		Status:      stock.LotStatus(dto.Status),
		SourceRef:   dto.SourceRef,
	})
}

func globalStockFromDomain(gs *stock.GlobalStock) GlobalStockDTO {
	s := gs.Snapshot()
	return GlobalStockDTO{
		ProductID: s.ProductID.Bytes(),
		VariantID: s.VariantID.Bytes(),
		Available: s.Available,
		Reserved:  s.Reserved,
		Total:     s.Total,
		TotalSold: s.TotalSold,
	}
}

func globalStockToDomain(dto GlobalStockDTO) (*stock.GlobalStock, error) {
	ids, err := restoreIDs(dto.ProductID, dto.VariantID)
	if err != nil {
		return nil, err
	}
	return stock.RestoreGlobalStock(stock.GlobalStockSnapshot{
		ProductID: ids[0],
		VariantID: ids[1],
		Available: dto.Available,
		Reserved:  dto.Reserved,
		Total:     dto.Total,
		TotalSold: dto.TotalSold,
	})
}

func reservationFromDomain(r *stock.Reservation) ReservationDTO {
	s := r.Snapshot()
	return ReservationDTO{
		ID:         s.ID.Bytes(),
		OrderID:    s.OrderID.Bytes(),
		LineItemID: s.LineItemID.Bytes(),
		LotID:      s.LotID.Bytes(),
		ProductID:  s.ProductID.Bytes(),
		VariantID:  s.VariantID.Bytes(),
		Quantity:   s.Quantity,
		State:      string(s.State),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func reservationToDomain(dto ReservationDTO) (*stock.Reservation, error) {
	ids, err := restoreIDs(dto.ID, dto.OrderID, dto.LineItemID, dto.LotID, dto.ProductID, dto.VariantID)
	if err != nil {
		return nil, err
	}
	return stock.RestoreReservation(stock.ReservationSnapshot{
		ID:         ids[0],
		OrderID:    ids[1],
		LineItemID: ids[2],
		LotID:      ids[3],
		ProductID:  ids[4],
		VariantID:  ids[5],
		Quantity:   dto.Quantity,
		State:      stock.ReservationState(dto.State),
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
	})
}

func restoreIDs(raw ...uuid.UUID) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.RestoreUUID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
