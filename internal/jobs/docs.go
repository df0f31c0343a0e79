// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds resolution). A tick that is
// still running when the next one is due is skipped.
//
// # Available Jobs
//
// 1. OutboxRelayJob - every 5 seconds publishes pending lifecycle events to Kafka
// 2. Courier reconciliation (OrderSweepJob) - every 5 minutes follows open shipments at the
// courier and retries transfers whose outcome is unknown
// 3. Back-order retry (OrderSweepJob) - every minute retries reservation of orders awaiting stock
//
// # Usage
//
//	jobManager := jobs.NewJobManager(relayOutbox, reconcileCourier, retryBackorders, batchSize, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatalf("failed to start jobs: %v", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Sweeps report one result per order. Insufficient stock, an unavailable courier and
// failures already recorded on the order are expected and logged at debug level only.
package jobs
