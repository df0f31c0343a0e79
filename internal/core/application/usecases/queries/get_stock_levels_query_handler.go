package queries

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

type GetStockLevelsQueryHandler struct {
	db *gorm.DB
}

func NewGetStockLevelsQueryHandler(db *gorm.DB) GetStockLevelsQueryHandler {
	return GetStockLevelsQueryHandler{db: db}
}

// Handle returns errs.ErrObjectNotFound for a variant that never received stock.
func (h GetStockLevelsQueryHandler) Handle(
	ctx context.Context,
	query GetStockLevelsQuery,
) (GetStockLevelsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetStockLevelsQueryResponse{}, err
	}

	resp := GetStockLevelsQueryResponse{
		ProductID: query.productID,
		VariantID: query.variantID,
		Locations: make([]LocationStock, 0),
	}

	productID, variantID := query.productID.Bytes(), query.variantID.Bytes()
	row := h.db.WithContext(ctx).Raw(`
		SELECT available, reserved, total, total_sold
		FROM global_stock
		WHERE product_id = ? AND variant_id = ?
	`, productID, variantID).Row()
	if err := row.Scan(&resp.Available, &resp.Reserved, &resp.Total, &resp.TotalSold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetStockLevelsQueryResponse{}, errs.NewObjectNotFoundError("variantId", query.variantID.String())
		}
		return GetStockLevelsQueryResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT location, SUM(available), SUM(reserved), COUNT(*)
		FROM lots
		WHERE product_id = ? AND variant_id = ? AND status = ?
		GROUP BY location
		ORDER BY location
	`, productID, variantID, string(stock.LotActive)).Rows()
	if err != nil {
		return GetStockLevelsQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l LocationStock
		if err := rows.Scan(&l.Location, &l.Available, &l.Reserved, &l.Lots); err != nil {
			return GetStockLevelsQueryResponse{}, err
		}
		resp.Locations = append(resp.Locations, l)
	}

	return resp, rows.Err()
}
