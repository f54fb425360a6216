package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/pkg/guard"
)

var ErrRateOrderCommandIsNotConstructed = errors.New(
	"RateOrderCommand must be created via NewRateOrderCommand constructor",
)

type RateOrderCommand struct { //nolint:recvcheck //using for validation
	actor   kernel.Actor
	orderID kernel.UUID
	rating  order.Rating

	guard guard.ConstructorGuard
}

func NewRateOrderCommand(actor kernel.Actor, orderID kernel.UUID, food, delivery int, comment string) (RateOrderCommand, error) {
	command := RateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	rating, ratingErr := order.NewRating(food, delivery, comment)
	if err := errors.Join(actor.Validate(), orderID.Validate(), ratingErr); err != nil {
		return RateOrderCommand{}, err
	}
	command.actor = actor
	command.orderID = orderID
	command.rating = rating

	return command, nil
}

func (c RateOrderCommand) Validate() error {
	return c.guard.Validate(ErrRateOrderCommandIsNotConstructed)
}

func (c RateOrderCommand) Actor() kernel.Actor {
	return c.actor
}

func (c RateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RateOrderCommand) Rating() order.Rating {
	return c.rating
}
