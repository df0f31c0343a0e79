// Package barcoderepo persists barcode units, their append-only status log and the
// parcel reconciliation records.
package barcoderepo

import (
	"time"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const primaryKey = "barcode_units_pkey"

type UnitDTO struct {
	Barcode    string     `gorm:"size:13;primaryKey"`
	SKU        string     `gorm:"size:64;not null"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null"`
	VariantID  uuid.UUID  `gorm:"type:uuid;not null"`
	LotID      *uuid.UUID `gorm:"type:uuid;index:idx_barcode_units_lot_status,priority:1"`
	Status     string     `gorm:"size:24;not null;index:idx_barcode_units_lot_status,priority:2"`
	Condition  string     `gorm:"size:16;not null"`
	IsUsed     bool       `gorm:"not null"`
	OrderID    *uuid.UUID `gorm:"type:uuid;index"`
	LineItemID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime:false"`
	LastLogSeq int        `gorm:"not null"`
	LastLogAt  time.Time
}

func (UnitDTO) TableName() string {
	return "barcode_units"
}

type LogEntryDTO struct {
	Barcode       string `gorm:"size:13;primaryKey"`
	Seq           int    `gorm:"primaryKey;autoIncrement:false"`
	Status        string `gorm:"size:24;not null"`
	Name          string `gorm:"size:128;not null"`
	Role          string `gorm:"size:32;not null"`
	Note          string
	SystemMessage string
	Date          time.Time `gorm:"not null"`
}

func (LogEntryDTO) TableName() string {
	return "barcode_unit_logs"
}

type ReconciliationDTO struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind       string         `gorm:"size:16;not null"`
	Expected   pq.StringArray `gorm:"type:text[]"`
	Scanned    pq.StringArray `gorm:"type:text[]"`
	Missing    pq.StringArray `gorm:"type:text[]"`
	Unexpected pq.StringArray `gorm:"type:text[]"`
	Matched    bool           `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime:false"`
}

func (ReconciliationDTO) TableName() string {
	return "barcode_reconciliations"
}

func unitFromDomain(u *barcode.Unit) UnitDTO {
	s := u.Snapshot()
	return UnitDTO{
		Barcode:    s.Barcode,
		SKU:        s.SKU,
		ProductID:  s.ProductID.Bytes(),
		VariantID:  s.VariantID.Bytes(),
		LotID:      kernel.OptionalBytes(s.LotID),
		Status:     s.Status.String(),
		Condition:  string(s.Condition),
		IsUsed:     s.IsUsed,
		OrderID:    kernel.OptionalBytes(s.OrderID),
		LineItemID: kernel.OptionalBytes(s.LineItemID),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		LastLogSeq: s.LastLogSeq,
		LastLogAt:  s.LastLogAt,
	}
}

func unitToDomain(dto UnitDTO) (*barcode.Unit, error) {
	productID, err := kernel.RestoreUUID(dto.ProductID)
	if err != nil {
		return nil, err
	}
	variantID, err := kernel.RestoreUUID(dto.VariantID)
	if err != nil {
		return nil, err
	}
	lotID, err := kernel.RestoreOptionalUUID(dto.LotID)
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.RestoreOptionalUUID(dto.OrderID)
	if err != nil {
		return nil, err
	}
	lineItemID, err := kernel.RestoreOptionalUUID(dto.LineItemID)
	if err != nil {
		return nil, err
	}
	status, err := barcode.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return barcode.RestoreUnit(barcode.UnitSnapshot{
		Barcode:    dto.Barcode,
		SKU:        dto.SKU,
		ProductID:  productID,
		VariantID:  variantID,
		LotID:      lotID,
		Status:     status,
		Condition:  barcode.Condition(dto.Condition),
		IsUsed:     dto.IsUsed,
		OrderID:    orderID,
		LineItemID: lineItemID,
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
		LastLogSeq: dto.LastLogSeq,
		LastLogAt:  dto.LastLogAt,
	})
}

func logEntriesFromDomain(code string, entries []barcode.LogEntry) []LogEntryDTO {
	dtos := make([]LogEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LogEntryDTO{
			Barcode:       code,
			Seq:           e.Seq,
			Status:        e.Status.String(),
			Name:          e.Name,
			Role:          string(e.Role),
			Note:          e.Note,
			SystemMessage: e.SystemMessage,
			Date:          e.Date,
		})
	}
	return dtos
}

func logEntryToDomain(dto LogEntryDTO) (barcode.LogEntry, error) {
	status, err := barcode.ParseStatus(dto.Status)
	if err != nil {
		return barcode.LogEntry{}, err
	}
	return barcode.LogEntry{
		Seq:           dto.Seq,
		Status:        status,
		Name:          dto.Name,
		Role:          kernel.Role(dto.Role),
		Note:          dto.Note,
		SystemMessage: dto.SystemMessage,
		Date:          dto.Date,
	}, nil
}

func reconciliationFromDomain(r ports.BarcodeReconciliation) ReconciliationDTO {
	return ReconciliationDTO{
		ID:         r.ID.Bytes(),
		OrderID:    r.OrderID.Bytes(),
		Kind:       string(r.Kind),
		Expected:   r.Expected,
		Scanned:    r.Scanned,
		Missing:    r.Missing,
		Unexpected: r.Unexpected,
		Matched:    r.Matched,
		CreatedAt:  r.CreatedAt,
	}
}

func reconciliationToDomain(dto ReconciliationDTO) (ports.BarcodeReconciliation, error) {
	id, err := kernel.RestoreUUID(dto.ID)
	if err != nil {
		return ports.BarcodeReconciliation{}, err
	}
	orderID, err := kernel.RestoreUUID(dto.OrderID)
	if err != nil {
		return ports.BarcodeReconciliation{}, err
	}
	return ports.BarcodeReconciliation{
		ID:         id,
		OrderID:    orderID,
		Kind:       ports.ReconciliationKind(dto.Kind),
		Expected:   dto.Expected,
		Scanned:    dto.Scanned,
		Missing:    dto.Missing,
		Unexpected: dto.Unexpected,
		Matched:    dto.Matched,
		CreatedAt:  dto.CreatedAt,
	}, nil
}
