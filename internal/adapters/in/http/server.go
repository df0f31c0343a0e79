package http

import (
	"context"
	"errors"
	"net/http"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ParcelScanner interface {
	Handle(ctx context.Context, cmd commands.ScanParcelCommand) (commands.ScanResult, error)
}

type BarcodeProcessor interface {
	Handle(ctx context.Context, cmd commands.ProcessBarcodesCommand) (services.Reconciliation, error)
}

// Error is the body of every failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ScanRequest struct {
	TrackingCode string `json:"tracking_code"`
	ScannedBy    string `json:"scanned_by"`
}

type ScanResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type BarcodesRequest struct {
	Barcodes  []string `json:"barcodes"`
	ScannedBy string   `json:"scanned_by"`
}

type ReconciliationResponse struct {
	Matched    bool     `json:"matched"`
	Expected   []string `json:"expected"`
	Scanned    []string `json:"scanned"`
	Missing    []string `json:"missing"`
	Unexpected []string `json:"unexpected"`
}

// Server serves the warehouse scanner devices.
type Server struct {
	scanner  ParcelScanner
	barcodes BarcodeProcessor
	logger   *zap.Logger
}

func NewServer(scanner ParcelScanner, barcodes BarcodeProcessor, logger *zap.Logger) *Server {
	return &Server{
		scanner:  scanner,
		barcodes: barcodes,
		logger:   logger.With(zap.String("component", "http")),
	}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/scans/handover", s.ScanHandover)
	v1.POST("/scans/return", s.ScanReturn)
	v1.POST("/orders/:id/barcodes/pick", s.ProcessPickBarcodes)
	v1.POST("/orders/:id/barcodes/return", s.ProcessReturnBarcodes)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// ScanHandover handles POST /api/v1/scans/handover - a courier picked up a parcel.
func (s *Server) ScanHandover(ctx echo.Context) error {
	return s.scan(ctx, fulfillment.ScanHandover)
}

// ScanReturn handles POST /api/v1/scans/return - a parcel came back to the warehouse.
func (s *Server) ScanReturn(ctx echo.Context) error {
	return s.scan(ctx, fulfillment.ScanReturn)
}

func (s *Server) scan(ctx echo.Context, kind fulfillment.ScanKind) error {
	var req ScanRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
	}

	actor, err := kernel.NewActor(req.ScannedBy, kernel.RoleWarehouse)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewScanParcelCommand(kind, req.TrackingCode, actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.scanner.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, ScanResponse{
		OrderID: result.OrderID.String(),
		Status:  result.Status.String(),
	})
}

// ProcessPickBarcodes handles POST /api/v1/orders/{id}/barcodes/pick.
func (s *Server) ProcessPickBarcodes(ctx echo.Context) error {
	return s.reconcile(ctx, ports.ReconciliationPick)
}

// ProcessReturnBarcodes handles POST /api/v1/orders/{id}/barcodes/return.
func (s *Server) ProcessReturnBarcodes(ctx echo.Context) error {
	return s.reconcile(ctx, ports.ReconciliationReturn)
}

// reconcile answers 200 on a match and 409 with the difference on a mismatch.
func (s *Server) reconcile(ctx echo.Context, kind ports.ReconciliationKind) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, errs.NewValueIsInvalidErrorWithCause("id", err))
	}
	var req BarcodesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
	}

	actor, err := kernel.NewActor(req.ScannedBy, kernel.RoleWarehouse)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewProcessBarcodesCommand(orderID, kind, req.Barcodes, actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	rec, err := s.barcodes.Handle(ctx.Request().Context(), cmd)
	if err != nil && !errors.Is(err, barcode.ErrBarcodeMismatch) {
		return s.fail(ctx, err)
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusConflict
	}
	return ctx.JSON(status, ReconciliationResponse{
		Matched:    rec.Matched(),
		Expected:   nonNil(rec.Expected),
		Scanned:    nonNil(rec.Scanned),
		Missing:    nonNil(rec.Missing),
		Unexpected: nonNil(rec.Unexpected),
	})
}

func (s *Server) fail(ctx echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", ctx.Request().Method),
			zap.String("path", ctx.Path()),
			zap.Error(err))
		return ctx.JSON(code, Error{Code: code, Message: "Internal error"})
	}
	return ctx.JSON(code, Error{Code: code, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, kernel.ErrUUIDIsNotConstructed):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, fulfillment.ErrDuplicateScan),
		errors.Is(err, barcode.ErrBarcodeMismatch),
		errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrCourierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
