// Package catalog reads variant facts from the catalog service.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const variantPath = "/api/v1/variants/{id}"

type variantResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	SKU       string           `json:"sku"`
	Price     *decimal.Decimal `json:"price"`
	Active    bool             `json:"active"`
}

// Client implements ports.Catalog over go-resty.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errs.NewValueIsRequiredError("catalog base url")
	}

	client := resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{http: client}, nil
}

// GetVariant reports Exists=false for a 404. A variant is priceable when it is active
// and carries a positive price.
func (c *Client) GetVariant(ctx context.Context, variantID kernel.UUID) (ports.Variant, error) {
	if err := variantID.Validate(); err != nil {
		return ports.Variant{}, err
	}

	var result variantResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", variantID.String()).
		SetResult(&result).
		Get(variantPath)
	if err != nil {
		return ports.Variant{}, fmt.Errorf("catalog request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ports.Variant{ID: variantID}, nil
	}
	if resp.IsError() {
		return ports.Variant{}, fmt.Errorf("catalog responded %d: %s", resp.StatusCode(), resp.String())
	}

	productID, err := kernel.RestoreUUID(result.ProductID)
	if err != nil {
		return ports.Variant{}, fmt.Errorf("catalog variant %s: %w", variantID, err)
	}

	v := ports.Variant{
		ID:        variantID,
		ProductID: productID,
		SKU:       result.SKU,
		Exists:    true,
	}
	if result.Active && result.Price != nil && result.Price.IsPositive() {
		price, err := kernel.NewMoney(*result.Price)
		if err != nil {
			return ports.Variant{}, err
		}
		v.Price = price
		v.Priceable = true
	}
	return v, nil
}
