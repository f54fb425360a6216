package ports

import (
	"context"
)

type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork scopes repository calls to one transaction. Repositories obtained before Begin
// run outside of it.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	Commit(ctx context.Context) error

	// Rollback fails once the transaction has been committed; handlers defer it and ignore the result.
	Rollback(ctx context.Context) error

	CourierRepository() CourierRepository

	OrderRepository() OrderRepository
}
