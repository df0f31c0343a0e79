package commands

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// RelayOutboxCommandHandler publishes stored domain events. Messages are locked while
// they are published and marked in the same transaction, so two relays never send the
// same batch. A publish failure rolls back and the batch is retried on the next run;
// consumers see events at least once.
type RelayOutboxCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	publisher  ports.EventPublisher
	clock      func() time.Time
}

func NewRelayOutboxCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
) RelayOutboxCommandHandler {
	return RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle returns how many messages were published.
func (h *RelayOutboxCommandHandler) Handle(ctx context.Context, cmd SweepCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	published := 0
	err := inUnitOfWork(ctx, h.uowFactory, func(uow ports.UnitOfWork) error {
		messages, err := uow.OutboxRepository().ListUnpublished(ctx, cmd.batchSize)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}

		if err := h.publisher.Publish(ctx, messages); err != nil {
			return fmt.Errorf("publish %d outbox messages: %w", len(messages), err)
		}

		ids := make([]kernel.UUID, 0, len(messages))
		for _, m := range messages {
			ids = append(ids, m.ID)
		}
		if err := uow.OutboxRepository().MarkPublished(ctx, ids, h.clock()); err != nil {
			return err
		}
		published = len(messages)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
