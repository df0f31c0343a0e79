package jobs

import (
	"fmt"

	"go.uber.org/zap"
)

type job interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	outboxRelayJob           *OutboxRelayJob
	courierReconciliationJob *OrderSweepJob
	backorderRetryJob        *OrderSweepJob
}

func NewJobManager(
	relayOutboxHandler OutboxRelayer,
	reconcileCourierHandler OrderSweeper,
	retryBackordersHandler OrderSweeper,
	batchSize int,
	logger *zap.Logger,
) *JobManager {
	return &JobManager{
		outboxRelayJob:           NewOutboxRelayJob(relayOutboxHandler, batchSize, logger),
		courierReconciliationJob: NewCourierReconciliationJob(reconcileCourierHandler, batchSize, logger),
		backorderRetryJob:        NewBackorderRetryJob(retryBackordersHandler, batchSize, logger),
	}
}

func (jm *JobManager) jobs() []job {
	return []job{jm.outboxRelayJob, jm.courierReconciliationJob, jm.backorderRetryJob}
}

// StartAll starts all scheduled jobs. If one fails to start, the ones already running
// are stopped.
func (jm *JobManager) StartAll() error {
	all := jm.jobs()
	for i, j := range all {
		if err := j.Start(); err != nil {
			for _, started := range all[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start job %d: %w", i, err)
		}
	}
	return nil
}

// StopAll stops all scheduled jobs and waits for running ticks to finish.
func (jm *JobManager) StopAll() {
	for _, j := range jm.jobs() {
		j.Stop()
	}
}
