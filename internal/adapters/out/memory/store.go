// Package memory keeps orders and courier profiles in process memory. It backs single-node
// and development deployments and the application tests.
//
// Conditional writes (AssignCourier, ConsumeConfirmationCode) and version-checked updates are
// decided under one data lock, so they linearize exactly like their SQL counterparts.
// Transactions are serialized by a separate lock and undone from a record-level undo log on
// Rollback. Reads outside a transaction may observe writes of a transaction that has not
// committed yet.
package memory

import (
	"context"
	"errors"
	"sync"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
)

var ErrNoTransaction = errors.New("no active transaction")

// Store is the shared state behind every unit of work created by its factory.
type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	orders   map[kernel.UUID]order.Snapshot
	numbers  map[order.Number]kernel.UUID
	couriers map[kernel.UUID]courierRecord
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[kernel.UUID]order.Snapshot),
		numbers:  make(map[order.Number]kernel.UUID),
		couriers: make(map[kernel.UUID]courierRecord),
	}
}

// UnitOfWorkFactory creates units of work over a Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork implements ports.UnitOfWork. Repositories obtained outside Begin/Commit write
// through immediately.
type UnitOfWork struct {
	store *Store
	undo  []func()
	inTx  bool
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.inTx {
		return nil
	}
	u.store.txMu.Lock()
	u.inTx = true
	u.undo = u.undo[:0]
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.inTx {
		return ErrNoTransaction
	}
	u.undo = nil
	u.inTx = false
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.inTx {
		return ErrNoTransaction
	}

	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()

	u.undo = nil
	u.inTx = false
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) CourierRepository() ports.CourierRepository {
	return &CourierRepository{store: u.store, uow: u}
}

// record registers an undo step; it must be called with store.mu held.
func (u *UnitOfWork) record(step func()) {
	if u.inTx {
		u.undo = append(u.undo, step)
	}
}
