package memory

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

var ErrNoTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork works on a private copy of the store state between Begin and Commit.
// Repositories used outside a transaction act on the committed state directly.
type UnitOfWork struct {
	store   *Store
	work    *state
	tracked []kernel.EventSource
}

// Begin takes the store lock and blocks while another unit of work holds it.
func (uow *UnitOfWork) Begin(ctx context.Context) error {
	if uow.work != nil {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	uow.store.mu.Lock()
	uow.work = uow.store.state.clone()
	uow.tracked = nil
	return nil
}

// Commit moves the events of tracked aggregates to the outbox and publishes the copy.
func (uow *UnitOfWork) Commit(_ context.Context) error {
	if uow.work == nil {
		return ErrNoTransaction
	}
	defer uow.release()

	for _, source := range uow.tracked {
		for _, event := range source.PullDomainEvents() {
			msg, err := ports.NewOutboxMessage(event)
			if err != nil {
				return err
			}
			uow.work.outbox = append(uow.work.outbox, msg)
		}
	}

	uow.store.state = uow.work
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if uow.work == nil {
		return ErrNoTransaction
	}
	uow.release()
	return nil
}

func (uow *UnitOfWork) release() {
	uow.work = nil
	uow.tracked = nil
	uow.store.mu.Unlock()
}

// Track registers an aggregate once per unit of work.
func (uow *UnitOfWork) Track(source kernel.EventSource) {
	for _, tracked := range uow.tracked {
		if tracked == source {
			return
		}
	}
	uow.tracked = append(uow.tracked, source)
}

// do runs fn against the transaction copy, or against the committed state under the
// store lock when no transaction is open.
func (uow *UnitOfWork) do(fn func(st *state) error) error {
	if uow.work != nil {
		return fn(uow.work)
	}
	return uow.store.read(fn)
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

func (uow *UnitOfWork) LotRepository() ports.LotRepository {
	return &lotRepository{uow: uow}
}

func (uow *UnitOfWork) GlobalStockRepository() ports.GlobalStockRepository {
	return &globalStockRepository{uow: uow}
}

func (uow *UnitOfWork) ReservationRepository() ports.ReservationRepository {
	return &reservationRepository{uow: uow}
}

func (uow *UnitOfWork) BarcodeUnitRepository() ports.BarcodeUnitRepository {
	return &barcodeUnitRepository{uow: uow}
}

func (uow *UnitOfWork) CounterRepository() ports.CounterRepository {
	return &counterRepository{uow: uow}
}

func (uow *UnitOfWork) OutboxRepository() ports.OutboxRepository {
	return &outboxRepository{uow: uow}
}

func (uow *UnitOfWork) ReconciliationRepository() ports.ReconciliationRepository {
	return &reconciliationRepository{uow: uow}
}
