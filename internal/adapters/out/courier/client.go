// Package courier is the HTTP client of the courier service.
package courier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
)

const (
	createOrderPath = "/api/v1/create_order"
	statusPath      = "/api/v1/status_by_trackingcode/{code}"
)

type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	// Timeout caps a single request. The caller usually sets a tighter deadline per attempt.
	Timeout time.Duration
}

type createOrderRequest struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CODAmount        float64 `json:"cod_amount"`
	ItemCount        int     `json:"item_count"`
	Note             string  `json:"note,omitempty"`
}

type createOrderResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Consignment struct {
		ConsignmentID int64  `json:"consignment_id"`
		Invoice       string `json:"invoice"`
		TrackingCode  string `json:"tracking_code"`
	} `json:"consignment"`
}

type statusResponse struct {
	Status         int    `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
}

// Client implements ports.CourierClient over go-resty.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errs.NewValueIsRequiredError("courier base url")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Api-Key", cfg.APIKey).
		SetHeader("Secret-Key", cfg.SecretKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{http: client}, nil
}

// CreateOrder books a parcel. The courier de-duplicates on the invoice number, so a
// repeated call for the same order returns the existing tracking code.
func (c *Client) CreateOrder(ctx context.Context, shipment ports.CourierShipment) (string, error) {
	body := createOrderRequest{
		Invoice:          shipment.InvoiceNumber,
		RecipientName:    shipment.RecipientName,
		RecipientPhone:   shipment.RecipientPhone,
		RecipientAddress: shipment.RecipientAddress,
		CODAmount:        shipment.CODAmount.Amount().InexactFloat64(),
		ItemCount:        shipment.ItemCount,
		Note:             shipment.Note,
	}

	var result createOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(createOrderPath)
	if err != nil {
		return "", transportError(err)
	}
	if resp.IsError() {
		return "", &ports.CourierHTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	code := strings.TrimSpace(result.Consignment.TrackingCode)
	if code == "" {
		return "", &ports.CourierHTTPError{StatusCode: resp.StatusCode(), Body: "response without tracking code: " + resp.String()}
	}
	return code, nil
}

func (c *Client) GetStatus(ctx context.Context, trackingCode string) (ports.CourierStatus, error) {
	if strings.TrimSpace(trackingCode) == "" {
		return ports.CourierStatusUnknown, errs.NewValueIsRequiredError("tracking code")
	}

	var result statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("code", trackingCode).
		SetResult(&result).
		Get(statusPath)
	if err != nil {
		return ports.CourierStatusUnknown, transportError(err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ports.CourierStatusUnknown, errs.NewObjectNotFoundError("trackingCode", trackingCode)
	}
	if resp.IsError() {
		return ports.CourierStatusUnknown, &ports.CourierHTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return mapDeliveryStatus(result.DeliveryStatus), nil
}

// mapDeliveryStatus folds the courier's delivery states onto CourierStatus. Approval
// states count as the state being approved.
func mapDeliveryStatus(s string) ports.CourierStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "in_review":
		return ports.CourierPending
	case "picked_up":
		return ports.CourierPickedUp
	case "in_transit", "hold":
		return ports.CourierInTransit
	case "delivered", "delivered_approval_pending", "partial_delivered", "partial_delivered_approval_pending":
		return ports.CourierDelivered
	case "return_pending", "cancelled_approval_pending":
		return ports.CourierReturnPending
	case "returned":
		return ports.CourierReturned
	case "lost":
		return ports.CourierLost
	case "cancelled":
		return ports.CourierCancelled
	default:
		return ports.CourierStatusUnknown
	}
}

// transportError marks timeouts so the coordinator can tell an unknown outcome from a
// failed attempt.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ports.ErrCourierTimeout, err)
	}
	return fmt.Errorf("courier request: %w", err)
}
