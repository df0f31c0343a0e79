package jobs

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OutboxRelayer publishes pending outbox messages and reports how many were sent.
type OutboxRelayer interface {
	Handle(ctx context.Context, cmd commands.SweepCommand) (int, error)
}

// OutboxRelayJob drains the transactional outbox to the broker every few seconds.
type OutboxRelayJob struct {
	handler   OutboxRelayer
	batchSize int
	cron      *cron.Cron
	logger    *zap.Logger
}

func NewOutboxRelayJob(handler OutboxRelayer, batchSize int, logger *zap.Logger) *OutboxRelayJob {
	return &OutboxRelayJob{
		handler:   handler,
		batchSize: batchSize,
		cron:      newCron(),
		logger:    logger.With(zap.String("component", "outbox_relay_job")),
	}
}

// Run relays one batch.
func (j *OutboxRelayJob) Run(ctx context.Context) {
	cmd, err := commands.NewSweepCommand(j.batchSize)
	if err != nil {
		j.logger.Error("Outbox relay job misconfigured", zap.Error(err))
		return
	}

	sent, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.Error("Outbox relay job failed", zap.Error(err))
		return
	}
	if sent > 0 {
		j.logger.Debug("Outbox messages relayed", zap.Int("count", sent))
	}
}

func (j *OutboxRelayJob) Start() error {
	if err := schedule(j.cron, OutboxRelaySchedule, 30*time.Second, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Outbox relay job started", zap.String("schedule", OutboxRelaySchedule))
	return nil
}

func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Outbox relay job stopped")
}
