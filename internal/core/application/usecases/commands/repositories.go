// Package commands contains the operations that change orders, courier profiles and the
// live dispatch state. Every handler follows the same shape: validate the command, do the
// store work inside one unit of work, commit, and only then notify.
package commands

import (
	"context"

	"turbodelivery/internal/core/ports"
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	// OrderUoW is used by commands that only touch orders.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CourierUoW is used by commands that only touch courier profiles.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// UoW spans orders and courier profiles, e.g. an accept that assigns the order and
	// bumps the courier's load in one transaction.
	//
	//	uow := factory.Create()
	//	if err := uow.Begin(ctx); err != nil {
	//	    return err
	//	}
	//	defer func() { _ = uow.Rollback(ctx) }()
	//
	//	won, err := uow.OrderRepository().AssignCourier(ctx, orderID, courierID)
	//	...
	//	err = uow.CourierRepository().AdjustStats(ctx, courierID, 1, 0)
	//	...
	//	return uow.Commit(ctx)
	UoW interface {
		TxManager
		CourierRepoFactory
		OrderRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
