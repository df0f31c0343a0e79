// Package orderrepo persists the order aggregate: the order row, its line items and its
// append-only admin notes.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceNumberIndex is the unique index that backs order.ErrDuplicateInvoice.
const InvoiceNumberIndex = "uq_orders_invoice_number"

// OrderDTO is the orders row. Timestamps come from the domain, so gorm's automatic
// tracking is switched off.
type OrderDTO struct {
	ID                         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderedBy                  string          `gorm:"size:16;not null"`
	BuyerName                  string          `gorm:"not null"`
	BuyerPhone                 string          `gorm:"size:32;not null"`
	BuyerAddress               string
	Status                     string          `gorm:"size:32;not null;index"`
	PaymentStatus              string          `gorm:"size:16;not null"`
	PaymentMethod              string          `gorm:"size:16;not null"`
	Kind                       string          `gorm:"size:16;not null"`
	OriginalOrderID            *uuid.UUID      `gorm:"type:uuid;index"`
	Total                      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	InvoiceNumber              *string         `gorm:"size:64;uniqueIndex:uq_orders_invoice_number"`
	TrackingCode               *string         `gorm:"size:64;index"`
	PendingCourierConfirmation bool            `gorm:"not null;default:false;index"`
	CreatedAt                  time.Time       `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt                  time.Time       `gorm:"not null;autoUpdateTime:false"`

	LineItems []LineItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Notes     []AdminNoteDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO keeps the lot splits as jsonb and the bound barcodes as a text array.
type LineItemDTO struct {
	ID                 uuid.UUID                         `gorm:"type:uuid;primaryKey"`
	OrderID            uuid.UUID                         `gorm:"type:uuid;not null;index"`
	Position           int                               `gorm:"not null"`
	ProductID          uuid.UUID                         `gorm:"type:uuid;not null"`
	VariantID          uuid.UUID                         `gorm:"type:uuid;not null;index"`
	Location           string                            `gorm:"size:32;not null"`
	Quantity           int                               `gorm:"not null"`
	UnitPrice          decimal.Decimal                   `gorm:"type:numeric(14,2);not null"`
	ReservationState   string                            `gorm:"size:16;not null"`
	Allocations        datatypes.JSONSlice[AllocationDTO] `gorm:"type:jsonb"`
	Barcodes           pq.StringArray                    `gorm:"type:text[]"`
	OriginalLineItemID *uuid.UUID                        `gorm:"type:uuid"`
	ReturnedBarcodes   pq.StringArray                    `gorm:"type:text[]"`
	ReturnCondition    string                            `gorm:"size:16;not null"`
}

func (LineItemDTO) TableName() string {
	return "order_line_items"
}

type AllocationDTO struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	LotID         uuid.UUID `json:"lot_id"`
	Quantity      int       `json:"quantity"`
}

type AdminNoteDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"primaryKey;autoIncrement:false"`
	Author  string    `gorm:"not null"`
	Role    string    `gorm:"size:16;not null"`
	Status  string    `gorm:"size:32;not null"`
	Note    string    `gorm:"not null"`
	Date    time.Time `gorm:"not null"`
}

func (AdminNoteDTO) TableName() string {
	return "order_admin_notes"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	s := aggregate.Snapshot()
	id := s.ID.Bytes()

	items := make([]LineItemDTO, 0, len(s.Items))
	for i, li := range s.Items {
		allocations := make(datatypes.JSONSlice[AllocationDTO], 0, len(li.Allocations))
		for _, split := range li.Allocations {
			allocations = append(allocations, AllocationDTO{
				ReservationID: split.ReservationID.Bytes(),
				LotID:         split.LotID.Bytes(),
				Quantity:      split.Quantity,
			})
		}
		items = append(items, LineItemDTO{
			ID:                 li.ID.Bytes(),
			OrderID:            id,
			Position:           i,
			ProductID:          li.ProductID.Bytes(),
			VariantID:          li.VariantID.Bytes(),
			Location:           li.Location.Code(),
			Quantity:           li.Quantity,
			UnitPrice:          li.UnitPrice.Amount(),
			ReservationState:   string(li.ReservationState),
			Allocations:        allocations,
			Barcodes:           pq.StringArray(li.Barcodes),
			OriginalLineItemID: kernel.OptionalBytes(li.OriginalLineItemID),
			ReturnedBarcodes:   pq.StringArray(li.ReturnedBarcodes),
			ReturnCondition:    string(li.ReturnCondition),
		})
	}

	notes := make([]AdminNoteDTO, 0, len(s.Notes))
	for i, n := range s.Notes {
		notes = append(notes, AdminNoteDTO{
			OrderID: id,
			Seq:     i + 1,
			Author:  n.Author,
			Role:    string(n.Role),
			Status:  n.Status.String(),
			Note:    n.Note,
			Date:    n.Date,
		})
	}

	return OrderDTO{
		ID:                         id,
		OrderedBy:                  string(s.OrderedBy),
		BuyerName:                  s.Buyer.Name,
		BuyerPhone:                 s.Buyer.Phone,
		BuyerAddress:               s.Buyer.Address,
		Status:                     s.Status.String(),
		PaymentStatus:              string(s.PaymentStatus),
		PaymentMethod:              string(s.PaymentMethod),
		Kind:                       string(s.Kind),
		OriginalOrderID:            kernel.OptionalBytes(s.OriginalOrderID),
		Total:                      s.Total.Amount(),
		InvoiceNumber:              nullable(s.InvoiceNumber),
		TrackingCode:               nullable(s.TrackingCode),
		PendingCourierConfirmation: s.PendingCourierConfirmation,
		CreatedAt:                  s.CreatedAt,
		UpdatedAt:                  s.UpdatedAt,
		LineItems:                  items,
		Notes:                      notes,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.RestoreUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	originalID, err := kernel.RestoreOptionalUUID(dto.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	total, err := kernel.NewMoney(dto.Total)
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItemSnapshot, 0, len(dto.LineItems))
	for _, li := range dto.LineItems {
		item, err := lineItemToDomain(li)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	notes := make([]order.AdminNote, 0, len(dto.Notes))
	for _, n := range dto.Notes {
		noteStatus, err := order.ParseStatus(n.Status)
		if err != nil {
			return nil, err
		}
		notes = append(notes, order.AdminNote{
			Author: n.Author,
			Role:   kernel.Role(n.Role),
			Status: noteStatus,
			Note:   n.Note,
			Date:   n.Date,
		})
	}

	return order.RestoreOrder(order.Snapshot{
		ID:                         id,
		OrderedBy:                  order.OrderedBy(dto.OrderedBy),
		Buyer:                      order.Buyer{Name: dto.BuyerName, Phone: dto.BuyerPhone, Address: dto.BuyerAddress},
		Status:                     status,
		PaymentStatus:              order.PaymentStatus(dto.PaymentStatus),
		PaymentMethod:              order.PaymentMethod(dto.PaymentMethod),
		Kind:                       order.Kind(dto.Kind),
		OriginalOrderID:            originalID,
		Items:                      items,
		Total:                      total,
		InvoiceNumber:              value(dto.InvoiceNumber),
		TrackingCode:               value(dto.TrackingCode),
		PendingCourierConfirmation: dto.PendingCourierConfirmation,
		Notes:                      notes,
		CreatedAt:                  dto.CreatedAt,
		UpdatedAt:                  dto.UpdatedAt,
	})
}

func lineItemToDomain(dto LineItemDTO) (order.LineItemSnapshot, error) {
	ids := make([]kernel.UUID, 0, 3)
	for _, raw := range []uuid.UUID{dto.ID, dto.ProductID, dto.VariantID} {
		id, err := kernel.RestoreUUID(raw)
		if err != nil {
			return order.LineItemSnapshot{}, err
		}
		ids = append(ids, id)
	}
	originalLineItemID, err := kernel.RestoreOptionalUUID(dto.OriginalLineItemID)
	if err != nil {
		return order.LineItemSnapshot{}, err
	}
	location, err := kernel.NewLocation(dto.Location)
	if err != nil {
		return order.LineItemSnapshot{}, err
	}
	price, err := kernel.NewMoney(dto.UnitPrice)
	if err != nil {
		return order.LineItemSnapshot{}, err
	}

	splits := make([]stock.Split, 0, len(dto.Allocations))
	for _, a := range dto.Allocations {
		reservationID, err := kernel.RestoreUUID(a.ReservationID)
		if err != nil {
			return order.LineItemSnapshot{}, err
		}
		lotID, err := kernel.RestoreUUID(a.LotID)
		if err != nil {
			return order.LineItemSnapshot{}, err
		}
		splits = append(splits, stock.Split{ReservationID: reservationID, LotID: lotID, Quantity: a.Quantity})
	}

	return order.LineItemSnapshot{
		ID:                 ids[0],
		ProductID:          ids[1],
		VariantID:          ids[2],
		Location:           location,
		Quantity:           dto.Quantity,
		UnitPrice:          price,
		ReservationState:   order.ReservationState(dto.ReservationState),
		Allocations:        splits,
		Barcodes:           []string(dto.Barcodes),
		OriginalLineItemID: originalLineItemID,
		ReturnedBarcodes:   []string(dto.ReturnedBarcodes),
		ReturnCondition:    barcode.Condition(dto.ReturnCondition),
	}, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
