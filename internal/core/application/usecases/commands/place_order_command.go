package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	customer kernel.Actor
	details  order.Details

	guard guard.ConstructorGuard
}

// NewPlaceOrderCommand places an order on behalf of customer. details.CustomerID is
// overwritten with the customer's id; the rest of details is checked by the order aggregate.
func NewPlaceOrderCommand(customer kernel.Actor, details order.Details) (PlaceOrderCommand, error) {
	command := PlaceOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := command.setCustomer(customer); err != nil {
		return PlaceOrderCommand{}, err
	}
	details.CustomerID = customer.ID()
	command.details = details

	return command, nil
}

func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) Customer() kernel.Actor {
	return c.customer
}

func (c PlaceOrderCommand) Details() order.Details {
	return c.details
}

func (c *PlaceOrderCommand) setCustomer(customer kernel.Actor) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	if customer.Role() != kernel.RoleCustomer {
		return errs.NewForbiddenError("only customers place orders, got %s", customer)
	}

	c.customer = customer
	return nil
}
