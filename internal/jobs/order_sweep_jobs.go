package jobs

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/ports"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OrderSweeper runs one operation over a batch of orders and reports the outcome per order.
type OrderSweeper interface {
	Handle(ctx context.Context, cmd commands.SweepCommand) ([]commands.BulkUpdateResult, error)
}

// OrderSweepJob periodically runs an OrderSweeper. It backs both the courier status
// reconciliation and the back-order retry.
type OrderSweepJob struct {
	expr      string
	handler   OrderSweeper
	batchSize int
	cron      *cron.Cron
	logger    *zap.Logger
}

// NewCourierReconciliationJob polls the courier for every open shipment and for orders
// whose transfer outcome is unknown.
func NewCourierReconciliationJob(handler OrderSweeper, batchSize int, logger *zap.Logger) *OrderSweepJob {
	return newOrderSweepJob("courier_reconciliation_job", CourierReconciliationSchedule, handler, batchSize, logger)
}

// NewBackorderRetryJob retries the reservation of every order waiting for stock.
func NewBackorderRetryJob(handler OrderSweeper, batchSize int, logger *zap.Logger) *OrderSweepJob {
	return newOrderSweepJob("backorder_retry_job", BackorderRetrySchedule, handler, batchSize, logger)
}

func newOrderSweepJob(name, expr string, handler OrderSweeper, batchSize int, logger *zap.Logger) *OrderSweepJob {
	return &OrderSweepJob{
		expr:      expr,
		handler:   handler,
		batchSize: batchSize,
		cron:      newCron(),
		logger:    logger.With(zap.String("component", name)),
	}
}

// Run sweeps one batch. Orders that failed for an expected business reason are not
// reported as failures.
func (j *OrderSweepJob) Run(ctx context.Context) {
	cmd, err := commands.NewSweepCommand(j.batchSize)
	if err != nil {
		j.logger.Error("Sweep job misconfigured", zap.Error(err))
		return
	}

	results, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.Error("Sweep job failed", zap.Error(err))
		return
	}

	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if isExpected(r.Err) {
			j.logger.Debug("Order left unchanged",
				zap.String("order_id", r.OrderID.String()), zap.Error(r.Err))
			continue
		}
		failed++
		j.logger.Error("Order sweep failed",
			zap.String("order_id", r.OrderID.String()), zap.Error(r.Err))
	}
	if len(results) > 0 {
		j.logger.Debug("Sweep finished", zap.Int("orders", len(results)), zap.Int("failed", failed))
	}
}

func (j *OrderSweepJob) Start() error {
	if err := schedule(j.cron, j.expr, 2*time.Minute, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Sweep job started", zap.String("schedule", j.expr))
	return nil
}

func (j *OrderSweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Sweep job stopped")
}

func isExpected(err error) bool {
	return errors.Is(err, stock.ErrInsufficientStock) ||
		errors.Is(err, ports.ErrCourierUnavailable) ||
		fulfillment.IsRecordedFailure(err)
}
