// Package postgres provides the GORM-based Unit of Work over the fulfillment schema.
// A unit of work maintains the aggregates touched by one business transaction and
// writes their domain events to the outbox table before the transaction commits, so
// state changes and the events describing them become visible together.
//
// Key Features:
//   - One transaction shared by every repository handed out by the unit of work
//   - Aggregate tracking feeding the transactional outbox
//   - Row locks through the ForUpdate repository methods
//
// Usage Patterns:
//
// Basic Transaction Management:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    if r := recover(); r != nil {
//	        uow.Rollback(ctx)
//	        panic(r)
//	    }
//	}()
//
//	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
//	if err != nil {
//	    uow.Rollback(ctx)
//	    return err
//	}
//	// change the order, then
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    uow.Rollback(ctx)
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns at most one transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - Lots are locked in id order, orders before their lots and units
package postgres

import (
	"context"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/barcoderepo"
	"fulfillment/internal/adapters/out/postgres/counterrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/outboxrepo"
	"fulfillment/internal/adapters/out/postgres/stockrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Factory ensures each business operation gets a fresh unit of work instance
// with proper isolation from other concurrent operations.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with its own transaction state and
// aggregate tracking.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates a database transaction and the aggregates modified in it.
//
// Example usage:
//
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return fmt.Errorf("failed to begin transaction: %w", err)
//	}
//
//	lot, err := uow.LotRepository().GetForUpdate(ctx, lotID)
//	if err != nil {
//	    uow.Rollback(ctx)
//	    return err
//	}
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    uow.Rollback(ctx)
//	    return fmt.Errorf("failed to update order: %w", err)
//	}
//
//	// the order events land in outbox_messages in the same commit
//	if err := uow.Commit(ctx); err != nil {
//	    return fmt.Errorf("failed to commit transaction: %w", err)
//	}
type GormUnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	tracked []kernel.EventSource
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	uow.tracked = nil
	return nil
}

// Commit drains the domain events of every tracked aggregate into the outbox and then
// commits. When the outbox write fails the transaction is rolled back.
//
// Returns gorm.ErrInvalidTransaction if no active transaction exists.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	if err := uow.flushEvents(ctx); err != nil {
		_ = uow.tx.Rollback().Error
		uow.reset()
		return err
	}

	err := uow.tx.Commit().Error
	uow.reset()
	return err
}

func (uow *GormUnitOfWork) flushEvents(ctx context.Context) error {
	var messages []ports.OutboxMessage
	for _, source := range uow.tracked {
		for _, event := range source.PullDomainEvents() {
			msg, err := ports.NewOutboxMessage(event)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
	}
	if err := outboxrepo.NewGormOutboxRepository(uow.tx).Add(ctx, messages...); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

// Rollback discards all changes made within the current transaction together with
// the tracked aggregates.
//
// Returns gorm.ErrInvalidTransaction if no active transaction exists.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.reset()
	return err
}

func (uow *GormUnitOfWork) reset() {
	uow.tx = nil
	uow.tracked = nil
}

// Track registers an aggregate whose events go to the outbox on Commit. Repositories
// call it from Add and Update; an aggregate is kept once however often it is saved.
func (uow *GormUnitOfWork) Track(source kernel.EventSource) {
	for _, tracked := range uow.tracked {
		if tracked == source {
			return
		}
	}
	uow.tracked = append(uow.tracked, source)
}

// conn returns the open transaction, or the plain connection for reads outside one.
func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// OrderRepository provides access to order persistence within the unit of work.
// Saved orders are tracked for the outbox.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) LotRepository() ports.LotRepository {
	return stockrepo.NewGormLotRepository(uow.conn())
}

func (uow *GormUnitOfWork) GlobalStockRepository() ports.GlobalStockRepository {
	return stockrepo.NewGormGlobalStockRepository(uow.conn())
}

func (uow *GormUnitOfWork) ReservationRepository() ports.ReservationRepository {
	return stockrepo.NewGormReservationRepository(uow.conn())
}

func (uow *GormUnitOfWork) BarcodeUnitRepository() ports.BarcodeUnitRepository {
	return barcoderepo.NewGormUnitRepository(uow.conn())
}

func (uow *GormUnitOfWork) CounterRepository() ports.CounterRepository {
	return counterrepo.NewGormCounterRepository(uow.conn())
}

func (uow *GormUnitOfWork) OutboxRepository() ports.OutboxRepository {
	return outboxrepo.NewGormOutboxRepository(uow.conn())
}

func (uow *GormUnitOfWork) ReconciliationRepository() ports.ReconciliationRepository {
	return barcoderepo.NewGormReconciliationRepository(uow.conn())
}
