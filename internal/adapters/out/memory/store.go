// Package memory keeps the whole fulfillment state in process memory. A unit of work holds
// the store-wide lock from Begin until Commit or Rollback and works on a copy of the
// state, so transactions are serializable and a rollback simply drops the copy.
//
// It backs application tests and local runs without Postgres.
package memory

import (
	"maps"
	"slices"
	"sync"

	"fulfillment/internal/core/domain/model/barcode"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/core/ports"
)

type variantKey struct {
	productID kernel.UUID
	variantID kernel.UUID
}

type state struct {
	orders          map[kernel.UUID]order.Snapshot
	lots            map[kernel.UUID]stock.LotSnapshot
	globalStock     map[variantKey]stock.GlobalStockSnapshot
	reservations    map[kernel.UUID]stock.ReservationSnapshot
	units           map[string]barcode.UnitSnapshot
	unitLogs        map[string][]barcode.LogEntry
	counters        map[string]int64
	outbox          []ports.OutboxMessage
	reconciliations []ports.BarcodeReconciliation
}

func newState() *state {
	return &state{
		orders:       make(map[kernel.UUID]order.Snapshot),
		lots:         make(map[kernel.UUID]stock.LotSnapshot),
		globalStock:  make(map[variantKey]stock.GlobalStockSnapshot),
		reservations: make(map[kernel.UUID]stock.ReservationSnapshot),
		units:        make(map[string]barcode.UnitSnapshot),
		unitLogs:     make(map[string][]barcode.LogEntry),
		counters:     make(map[string]int64),
	}
}

// clone copies the maps. Stored snapshots are replaced, never changed in place, so the
// values can be shared.
func (s *state) clone() *state {
	logs := make(map[string][]barcode.LogEntry, len(s.unitLogs))
	for code, entries := range s.unitLogs {
		logs[code] = slices.Clip(entries)
	}
	return &state{
		orders:          maps.Clone(s.orders),
		lots:            maps.Clone(s.lots),
		globalStock:     maps.Clone(s.globalStock),
		reservations:    maps.Clone(s.reservations),
		units:           maps.Clone(s.units),
		unitLogs:        logs,
		counters:        maps.Clone(s.counters),
		outbox:          slices.Clone(s.outbox),
		reconciliations: slices.Clone(s.reconciliations),
	}
}

// Store is the shared in-memory database.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// read runs fn against the committed state under the store lock.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}
