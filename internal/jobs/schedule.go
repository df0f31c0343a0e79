package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	OutboxRelaySchedule           = "*/5 * * * * *"
	CourierReconciliationSchedule = "0 */5 * * * *"
	BackorderRetrySchedule        = "30 * * * * *"
)

// newCron builds a seconds-resolution scheduler that skips a tick while the previous one
// is still running.
func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}

func schedule(c *cron.Cron, expr string, timeout time.Duration, run func(ctx context.Context)) error {
	_, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		run(ctx)
	})
	return err
}
