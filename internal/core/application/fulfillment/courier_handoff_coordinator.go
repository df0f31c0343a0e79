package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultCourierTimeout     = 10 * time.Second
	DefaultCourierMaxAttempts = 3
	DefaultScanDedupTTL       = 10 * time.Minute
)

// ScanKind is the physical event a warehouse scanner reports for a parcel.
type ScanKind string

const (
	ScanHandover ScanKind = "handover"
	ScanReturn   ScanKind = "return"
)

// Target is the order status a scan of this kind forwards to.
func (k ScanKind) Target() (order.Status, error) {
	switch k {
	case ScanHandover:
		return order.InTransit, nil
	case ScanReturn:
		return order.PendingReturn, nil
	default:
		return order.StatusUndefined, errs.NewValueIsInvalidErrorWithCause("scan kind", fmt.Errorf("%q is not a scan kind", string(k)))
	}
}

type CourierConfig struct {
	Timeout     time.Duration
	MaxAttempts int
	ScanTTL     time.Duration
}

// CourierHandoffCoordinator hands parcels to the courier and maps the courier's view of
// them back onto order statuses.
type CourierHandoffCoordinator struct {
	client     ports.CourierClient
	guard      ports.IdempotencyGuard
	cfg        CourierConfig
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
	inst       *instruments
}

func NewCourierHandoffCoordinator(
	client ports.CourierClient,
	guard ports.IdempotencyGuard,
	cfg CourierConfig,
	opts ...Option,
) (*CourierHandoffCoordinator, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("courier client")
	}
	if guard == nil {
		return nil, errs.NewValueIsRequiredError("idempotency guard")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCourierTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultCourierMaxAttempts
	}
	if cfg.ScanTTL <= 0 {
		cfg.ScanTTL = DefaultScanDedupTTL
	}

	s := newSettings(opts)
	return &CourierHandoffCoordinator{
		client:     client,
		guard:      guard,
		cfg:        cfg,
		newBackOff: s.newBackOff,
		logger:     s.logger.With(zap.String("component", "courier_handoff")),
		inst:       newInstruments(),
	}, nil
}

// Transfer creates the courier parcel for o and returns its tracking code.
//
// Failed attempts (non-2xx, connection errors) are retried with back-off up to
// MaxAttempts. An attempt that times out is not retried: the courier may have created
// the parcel, so the returned CourierUnavailableError has Timeout set and the caller
// marks the order for confirmation.
func (c *CourierHandoffCoordinator) Transfer(ctx context.Context, o *order.Order) (string, error) {
	ctx, span := c.inst.tracer.Start(ctx, "courier.transfer", trace.WithAttributes(
		attribute.String("order.id", o.ID().String()),
		attribute.String("invoice.number", o.InvoiceNumber()),
	))
	defer span.End()

	shipment := shipmentFor(o)
	attempts := 0
	timedOut := false
	var trackingCode string

	operation := func() error {
		attempts++
		c.inst.transferAttempts.Add(ctx, 1)

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		code, err := c.client.CreateOrder(attemptCtx, shipment)
		switch {
		case err == nil:
			trackingCode = code
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case errors.Is(err, ports.ErrCourierTimeout), errors.Is(err, context.DeadlineExceeded):
			timedOut = true
			return backoff.Permanent(err)
		}

		c.logger.Warn("courier transfer attempt failed",
			zap.String("order_id", o.ID().String()),
			zap.Int("attempt", attempts),
			zap.Error(err))
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		span.RecordError(err)
		return "", &ports.CourierUnavailableError{Attempts: attempts, Timeout: timedOut, Cause: err}
	}

	if strings.TrimSpace(trackingCode) == "" {
		err := errors.New("courier returned an empty tracking code")
		span.RecordError(err)
		return "", &ports.CourierUnavailableError{Attempts: attempts, Cause: err}
	}
	return trackingCode, nil
}

// StatusByTrackingCode asks the courier about a parcel and maps the answer to the order
// status it implies. ok is false when the courier state implies no transition.
func (c *CourierHandoffCoordinator) StatusByTrackingCode(ctx context.Context, trackingCode string) (order.Status, bool, error) {
	status, err := c.client.GetStatus(ctx, trackingCode)
	if err != nil {
		return order.StatusUndefined, false, err
	}
	target, ok := MapCourierStatus(status)
	return target, ok, nil
}

// MapCourierStatus translates a courier parcel state to a lifecycle target.
func MapCourierStatus(status ports.CourierStatus) (order.Status, bool) {
	//nolint:exhaustive // the remaining courier states imply no transition
	switch status {
	case ports.CourierPickedUp, ports.CourierInTransit:
		return order.InTransit, true
	case ports.CourierDelivered:
		return order.Delivered, true
	case ports.CourierReturnPending, ports.CourierReturned:
		return order.PendingReturn, true
	case ports.CourierLost:
		return order.Lost, true
	default:
		return order.StatusUndefined, false
	}
}

// RecordScan registers a physical scan of a parcel. It returns the status to forward to
// and whether this is the first scan of its kind for the tracking code within the dedup
// window; repeated scans must not be forwarded.
func (c *CourierHandoffCoordinator) RecordScan(ctx context.Context, kind ScanKind, trackingCode string) (order.Status, bool, error) {
	target, err := kind.Target()
	if err != nil {
		return order.StatusUndefined, false, err
	}
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return order.StatusUndefined, false, errs.NewValueIsRequiredError("tracking code")
	}

	first, err := c.guard.Acquire(ctx, scanKey(kind, trackingCode), c.cfg.ScanTTL)
	if err != nil {
		return order.StatusUndefined, false, fmt.Errorf("record %s scan: %w", kind, err)
	}
	return target, first, nil
}

// ForgetScan drops a recorded scan whose processing failed, so the parcel can be scanned
// again at once.
func (c *CourierHandoffCoordinator) ForgetScan(ctx context.Context, kind ScanKind, trackingCode string) {
	if err := c.guard.Release(ctx, scanKey(kind, strings.TrimSpace(trackingCode))); err != nil {
		c.logger.Warn("failed to forget parcel scan",
			zap.String("kind", string(kind)), zap.String("tracking_code", trackingCode), zap.Error(err))
	}
}

func scanKey(kind ScanKind, trackingCode string) string {
	return fmt.Sprintf("scan:%s:%s", kind, trackingCode)
}

func shipmentFor(o *order.Order) ports.CourierShipment {
	cod := kernel.ZeroMoney()
	if o.PaymentMethod() == order.PaymentCOD && o.PaymentStatus() != order.PaymentPaid {
		cod = o.Total()
	}
	buyer := o.Buyer()
	return ports.CourierShipment{
		InvoiceNumber:    o.InvoiceNumber(),
		OrderID:          o.ID(),
		RecipientName:    buyer.Name,
		RecipientPhone:   buyer.Phone,
		RecipientAddress: buyer.Address,
		CODAmount:        cod,
		ItemCount:        o.TotalQuantity(),
	}
}
