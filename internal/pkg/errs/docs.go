// Package errs provides the error vocabulary shared by the domain, the application layer
// and the adapters.
//
// Two families live here:
//   - value errors (ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError,
//     ObjectNotFoundError, VersionIsInvalidError) produced by constructors and repositories;
//   - dispatch errors (DomainError with a Kind of ErrForbidden, ErrInvalidTransition,
//     ErrAlreadyTaken, ErrNotEligible, ErrCode*, ErrNotConnected) and TransientError,
//     produced by the order state machine, the dispatch engine and the presence registry.
//
// Every type follows the same pattern: a sentinel variable, a struct carrying details,
// New* constructors, Error() and Unwrap(). Callers branch with errors.Is on the sentinel;
// the inbound adapters map sentinels to HTTP statuses and websocket error payloads.
package errs
