package postgres

import (
	"fulfillment/internal/adapters/out/postgres/barcoderepo"
	"fulfillment/internal/adapters/out/postgres/counterrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/outboxrepo"
	"fulfillment/internal/adapters/out/postgres/stockrepo"

	"gorm.io/gorm"
)

// Tables lists every table owned by the service, in truncation-safe order.
var Tables = []string{
	"order_admin_notes", "order_line_items", "orders",
	"reservations", "lots", "global_stock",
	"barcode_unit_logs", "barcode_units", "barcode_reconciliations",
	"counters", "outbox_messages",
}

// AutoMigrate creates or updates the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.LineItemDTO{},
		&orderrepo.AdminNoteDTO{},
		&stockrepo.LotDTO{},
		&stockrepo.GlobalStockDTO{},
		&stockrepo.ReservationDTO{},
		&barcoderepo.UnitDTO{},
		&barcoderepo.LogEntryDTO{},
		&barcoderepo.ReconciliationDTO{},
		&counterrepo.CounterDTO{},
		&outboxrepo.OutboxMessageDTO{},
	)
}
