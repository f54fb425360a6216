package commands

import (
	"errors"
	"fmt"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

var ErrRespondToOfferCommandIsNotConstructed = errors.New(
	"RespondToOfferCommand must be created via NewRespondToOfferCommand constructor",
)

// OfferAction is a courier's answer to an offer.
type OfferAction string

const (
	OfferAccept OfferAction = "accept"
	OfferReject OfferAction = "reject"
)

func ParseOfferAction(s string) (OfferAction, error) {
	switch a := OfferAction(s); a {
	case OfferAccept, OfferReject:
		return a, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("%q is neither accept nor reject", s))
}

type RespondToOfferCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	orderID   kernel.UUID
	action    OfferAction

	guard guard.ConstructorGuard
}

func NewRespondToOfferCommand(courierID, orderID kernel.UUID, action OfferAction) (RespondToOfferCommand, error) {
	command := RespondToOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(courierID),
		command.setOrderID(orderID),
		command.setAction(action),
	); err != nil {
		return RespondToOfferCommand{}, err
	}

	return command, nil
}

func (c RespondToOfferCommand) Validate() error {
	return c.guard.Validate(ErrRespondToOfferCommandIsNotConstructed)
}

func (c RespondToOfferCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c RespondToOfferCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RespondToOfferCommand) Action() OfferAction {
	return c.action
}

func (c *RespondToOfferCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *RespondToOfferCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *RespondToOfferCommand) setAction(action OfferAction) error {
	if _, err := ParseOfferAction(string(action)); err != nil {
		return err
	}

	c.action = action
	return nil
}
