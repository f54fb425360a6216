package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/guard"
)

var ErrUpdateCourierAvailabilityCommandIsNotConstructed = errors.New(
	"UpdateCourierAvailabilityCommand must be created via NewUpdateCourierAvailabilityCommand constructor",
)

type UpdateCourierAvailabilityCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	online    bool
	available bool

	guard guard.ConstructorGuard
}

func NewUpdateCourierAvailabilityCommand(courierID kernel.UUID, online, available bool) (UpdateCourierAvailabilityCommand, error) {
	if err := courierID.Validate(); err != nil {
		return UpdateCourierAvailabilityCommand{}, err
	}

	return UpdateCourierAvailabilityCommand{
		courierID: courierID,
		online:    online,
		available: available,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierAvailabilityCommandIsNotConstructed)
}

func (c UpdateCourierAvailabilityCommand) CourierID() kernel.UUID { return c.courierID }
func (c UpdateCourierAvailabilityCommand) Online() bool           { return c.online }
func (c UpdateCourierAvailabilityCommand) Available() bool        { return c.available }
