package order

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"turbodelivery/internal/pkg/errs"
)

var orderNumberPattern = regexp.MustCompile(`^TD[0-9]{13,}$`)

// Number is the human-readable order reference shown to customers and couriers.
type Number string

// GenerateNumber builds "TD" + unix milliseconds + three random digits. Collisions are
// possible and are resolved by the store's unique index; callers retry with a fresh number.
func GenerateNumber(now time.Time) Number {
	return Number(fmt.Sprintf("TD%d%03d", now.UnixMilli(), rand.IntN(1000))) //nolint:gosec // not a secret
}

func ParseNumber(s string) (Number, error) {
	if !orderNumberPattern.MatchString(s) {
		return "", errs.NewValueIsInvalidErrorWithCause("orderNumber", fmt.Errorf("%q is malformed", s))
	}
	return Number(s), nil
}

func (n Number) String() string {
	return string(n)
}
