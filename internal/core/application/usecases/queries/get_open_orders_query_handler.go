package queries

import (
	"context"
	"database/sql"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GetOpenOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetOpenOrdersQueryHandler(db *gorm.DB) GetOpenOrdersQueryHandler {
	return GetOpenOrdersQueryHandler{db: db}
}

// Handle returns up to the query limit orders in the requested statuses, ordered by
// creation time and id.
func (h GetOpenOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetOpenOrdersQuery,
) ([]GetOpenOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(query.statuses))
	for _, s := range query.statuses {
		names = append(names, s.String())
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			invoice_number,
			tracking_code,
			total,
			pending_courier_confirmation,
			created_at
		FROM orders
		WHERE status IN ?
		ORDER BY created_at, id
		LIMIT ?
	`, names, query.limit).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]GetOpenOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			id                    uuid.UUID
			status                string
			invoice, tracking     sql.NullString
			total                 decimal.Decimal
			pendingCourierConfirm bool
			createdAt             time.Time
		)
		if err := rows.Scan(&id, &status, &invoice, &tracking, &total, &pendingCourierConfirm, &createdAt); err != nil {
			return nil, err
		}

		orderID, err := kernel.RestoreUUID(id)
		if err != nil {
			return nil, err
		}
		parsed, err := order.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		money, err := kernel.NewMoney(total)
		if err != nil {
			return nil, err
		}

		orders = append(orders, GetOpenOrdersQueryResponse{
			ID:                         orderID,
			Status:                     parsed,
			InvoiceNumber:              invoice.String,
			TrackingCode:               tracking.String,
			Total:                      money,
			PendingCourierConfirmation: pendingCourierConfirm,
			CreatedAt:                  createdAt.UTC(),
		})
	}

	return orders, rows.Err()
}
