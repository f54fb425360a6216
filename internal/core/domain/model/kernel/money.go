package kernel

import (
	"fmt"

	"turbodelivery/internal/pkg/errs"
)

// Money is an amount in minor currency units (cents). Negative amounts are rejected by NewMoney.
type Money int64

// NewMoney validates that the amount is non-negative.
func NewMoney(paramName string, minorUnits int64) (Money, error) {
	if minorUnits < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause(paramName, fmt.Errorf("%d is negative", minorUnits))
	}
	return Money(minorUnits), nil
}

func (m Money) MinorUnits() int64 {
	return int64(m)
}

// String renders the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}
