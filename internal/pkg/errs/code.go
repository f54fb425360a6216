package errs

import "errors"

// Code names the kind of err for API clients. The names are part of the wire contract of
// both the REST and the websocket adapter.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyTaken):
		return "already_taken"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, ErrCodeExpired):
		return "code_expired"
	case errors.Is(err, ErrCodeAlreadyUsed):
		return "code_already_used"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrTransient), errors.Is(err, ErrVersionIsInvalid):
		return "conflict"
	case errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsOutOfRange):
		return "invalid"
	default:
		return "internal"
	}
}
