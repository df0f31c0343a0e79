package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one business transaction. Repositories it returns are bound to the
// transaction opened by Begin. Commit first writes the domain events of every tracked
// aggregate to the outbox, inside the same transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Track registers an aggregate whose events must reach the outbox on Commit.
	Track(source kernel.EventSource)

	OrderRepository() OrderRepository
	LotRepository() LotRepository
	GlobalStockRepository() GlobalStockRepository
	ReservationRepository() ReservationRepository
	BarcodeUnitRepository() BarcodeUnitRepository
	CounterRepository() CounterRepository
	OutboxRepository() OutboxRepository
	ReconciliationRepository() ReconciliationRepository
}
