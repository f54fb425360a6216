package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/guard"
)

var ErrRegisterCourierCommandIsNotConstructed = errors.New(
	"RegisterCourierCommand must be created via NewRegisterCourierCommand constructor",
)

type RegisterCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	maxOrders int
	approved  bool

	guard guard.ConstructorGuard
}

// NewRegisterCourierCommand creates a profile for the courier user courierID. A maxOrders
// of zero selects the default capacity.
func NewRegisterCourierCommand(courierID kernel.UUID, maxOrders int, approved bool) (RegisterCourierCommand, error) {
	if err := courierID.Validate(); err != nil {
		return RegisterCourierCommand{}, err
	}

	return RegisterCourierCommand{
		courierID: courierID,
		maxOrders: maxOrders,
		approved:  approved,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c RegisterCourierCommand) Validate() error {
	return c.guard.Validate(ErrRegisterCourierCommandIsNotConstructed)
}

func (c RegisterCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c RegisterCourierCommand) MaxOrders() int {
	return c.maxOrders
}

func (c RegisterCourierCommand) Approved() bool {
	return c.approved
}
