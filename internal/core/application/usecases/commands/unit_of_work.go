package commands

import (
	"context"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/ports"
)

// inUnitOfWork runs fn inside a fresh unit of work. The unit of work is committed when fn
// succeeds or reports a recorded failure; in the latter case the failure is returned
// after the commit.
func inUnitOfWork(ctx context.Context, factory ports.UnitOfWorkFactory, fn func(uow ports.UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	err := fn(uow)
	if err != nil && !fulfillment.IsRecordedFailure(err) {
		return err
	}

	if commitErr := uow.Commit(ctx); commitErr != nil {
		return commitErr
	}

	return err
}
