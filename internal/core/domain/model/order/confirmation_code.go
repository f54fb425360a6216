package order

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

const (
	// ConfirmationCodeTTL is how long a freshly issued code stays valid.
	ConfirmationCodeTTL = 24 * time.Hour

	confirmationCodeMin = 1000
	confirmationCodeMax = 9999
)

var (
	ErrConfirmationCodeIsNotConstructed = errs.NewValueIsRequiredError(
		"confirmation code must be created via NewConfirmationCode or GenerateConfirmationCode")

	confirmationCodePattern = regexp.MustCompile(`^[1-9][0-9]{3}$`)
)

// ConfirmationCode is the single-use code the customer hands to the courier at the door.
type ConfirmationCode struct { //nolint:recvcheck //using for validation
	code      string
	used      bool
	expiresAt time.Time
	guard     guard.ConstructorGuard
}

// GenerateConfirmationCode issues a random 4-digit code (1000-9999) valid for ConfirmationCodeTTL.
func GenerateConfirmationCode(now time.Time) ConfirmationCode {
	n := rand.IntN(confirmationCodeMax-confirmationCodeMin+1) + confirmationCodeMin //nolint:gosec // not a secret
	return ConfirmationCode{
		code:      fmt.Sprintf("%d", n),
		expiresAt: now.Add(ConfirmationCodeTTL),
		guard:     guard.NewConstructorGuard(),
	}
}

// NewConfirmationCode rebuilds a code from stored state.
func NewConfirmationCode(code string, used bool, expiresAt time.Time) (ConfirmationCode, error) {
	if !confirmationCodePattern.MatchString(code) {
		return ConfirmationCode{}, errs.NewValueIsInvalidErrorWithCause(
			"confirmationCode", fmt.Errorf("%q is not a 4-digit code", code))
	}
	if expiresAt.IsZero() {
		return ConfirmationCode{}, errs.NewValueIsRequiredError("confirmationCode.expiresAt")
	}
	return ConfirmationCode{code: code, used: used, expiresAt: expiresAt, guard: guard.NewConstructorGuard()}, nil
}

func (c ConfirmationCode) Validate() error {
	return c.guard.Validate(ErrConfirmationCodeIsNotConstructed)
}

func (c ConfirmationCode) Code() string         { return c.code }
func (c ConfirmationCode) IsUsed() bool         { return c.used }
func (c ConfirmationCode) ExpiresAt() time.Time { return c.expiresAt }

// Check verifies a submitted code: mismatch first, then reuse, then expiry.
func (c ConfirmationCode) Check(submitted string, now time.Time) error {
	if submitted != c.code {
		return errs.NewCodeMismatchError()
	}
	if c.used {
		return errs.NewCodeAlreadyUsedError()
	}
	if now.After(c.expiresAt) {
		return errs.NewCodeExpiredError()
	}
	return nil
}

func (c *ConfirmationCode) markUsed() {
	c.used = true
}
