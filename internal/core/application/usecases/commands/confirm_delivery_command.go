package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

type ConfirmDeliveryCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	orderID   kernel.UUID
	code      string

	guard guard.ConstructorGuard
}

func NewConfirmDeliveryCommand(courierID, orderID kernel.UUID, code string) (ConfirmDeliveryCommand, error) {
	command := ConfirmDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courierID.Validate(),
		orderID.Validate(),
		command.setCode(code),
	); err != nil {
		return ConfirmDeliveryCommand{}, err
	}
	command.courierID = courierID
	command.orderID = orderID

	return command, nil
}

func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

func (c ConfirmDeliveryCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c ConfirmDeliveryCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ConfirmDeliveryCommand) Code() string {
	return c.code
}

func (c *ConfirmDeliveryCommand) setCode(code string) error {
	if code == "" {
		return errs.NewValueIsRequiredError("code")
	}

	c.code = code
	return nil
}
