package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors in this package unwrap to them, so callers classify
// failures with errors.Is instead of matching types.
var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrValueIsInvalid    = errors.New("value is invalid")
	ErrValueIsOutOfRange = errors.New("value is out of range")
	ErrValueIsRequired   = errors.New("value is required")
	ErrVersionIsInvalid  = errors.New("version is invalid")

	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyTaken      = errors.New("order already taken")
	ErrNotEligible       = errors.New("courier is not eligible")
	ErrCodeMismatch      = errors.New("confirmation code mismatch")
	ErrCodeExpired       = errors.New("confirmation code expired")
	ErrCodeAlreadyUsed   = errors.New("confirmation code already used")
	ErrNotConnected      = errors.New("courier is not connected")
	ErrTransient         = errors.New("transient store failure")
)

// ObjectNotFoundError reports a lookup that found nothing.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, sanitize(fmt.Sprintf("%s", e.ID)), e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, sanitize(fmt.Sprintf("%s", e.ID)))
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a value that failed a business rule.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsOutOfRangeError reports a value outside [Min, Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %v is %s, min value is %v, max value is %v",
		ErrValueIsInvalid, sanitize(fmt.Sprintf("%v", e.Value)), e.ParamName, e.Min, e.Max)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

// ValueIsRequiredError reports a missing mandatory value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// VersionIsInvalidError reports an optimistic concurrency conflict on a versioned aggregate.
type VersionIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewVersionIsInvalidError(paramName string) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName}
}

func NewVersionIsInvalidErrorWithCause(paramName string, cause error) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *VersionIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrVersionIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrVersionIsInvalid, e.ParamName)
}

// Unwrap exposes both the version sentinel and ErrTransient: a version conflict is retryable.
func (e *VersionIsInvalidError) Unwrap() []error {
	return []error{ErrVersionIsInvalid, ErrTransient}
}

// DomainError is a failure of one of the dispatch rules (ownership, transition legality,
// the accept race, confirmation codes, presence). Kind is one of the sentinels above.
type DomainError struct {
	Kind   error
	Detail string
}

func newDomainError(kind error, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func NewForbiddenError(format string, args ...any) *DomainError {
	return newDomainError(ErrForbidden, format, args...)
}

func NewInvalidTransitionError(from, to fmt.Stringer) *DomainError {
	return newDomainError(ErrInvalidTransition, "%s -> %s is not allowed", from, to)
}

func NewAlreadyTakenError(orderID fmt.Stringer) *DomainError {
	return newDomainError(ErrAlreadyTaken, "order %s", orderID)
}

func NewNotEligibleError(courierID fmt.Stringer, reason string) *DomainError {
	return newDomainError(ErrNotEligible, "courier %s %s", courierID, reason)
}

func NewCodeMismatchError() *DomainError {
	return newDomainError(ErrCodeMismatch, "")
}

func NewCodeExpiredError() *DomainError {
	return newDomainError(ErrCodeExpired, "")
}

func NewCodeAlreadyUsedError() *DomainError {
	return newDomainError(ErrCodeAlreadyUsed, "")
}

func NewNotConnectedError(courierID fmt.Stringer) *DomainError {
	return newDomainError(ErrNotConnected, "courier %s", courierID)
}

// TransientError wraps an infrastructure failure that may succeed on retry.
type TransientError struct {
	Op    string
	Cause error
}

func NewTransientError(op string, cause error) *TransientError {
	return &TransientError{Op: op, Cause: cause}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrTransient, e.Op, e.Cause)
}

func (e *TransientError) Unwrap() []error {
	return []error{ErrTransient, e.Cause}
}

func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
