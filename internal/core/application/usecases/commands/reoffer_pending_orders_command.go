package commands

import (
	"errors"
	"fmt"

	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

// DefaultReofferBatch is the number of unassigned orders looked at per run.
const DefaultReofferBatch = 50

var ErrReofferPendingOrdersCommandIsNotConstructed = errors.New(
	"ReofferPendingOrdersCommand must be created via NewReofferPendingOrdersCommand constructor",
)

type ReofferPendingOrdersCommand struct { //nolint:recvcheck //using for validation
	batch int

	guard guard.ConstructorGuard
}

func NewReofferPendingOrdersCommand(batch int) (ReofferPendingOrdersCommand, error) {
	if batch <= 0 {
		return ReofferPendingOrdersCommand{}, errs.NewValueIsInvalidErrorWithCause("batch", fmt.Errorf("%d is not positive", batch))
	}

	return ReofferPendingOrdersCommand{
		batch: batch,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c ReofferPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrReofferPendingOrdersCommandIsNotConstructed)
}

func (c ReofferPendingOrdersCommand) Batch() int {
	return c.batch
}
