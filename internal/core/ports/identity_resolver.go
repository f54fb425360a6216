package ports

import (
	"context"
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
)

// ErrUnauthenticated is returned when a credential is missing, malformed or expired.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityResolver turns a bearer credential into the acting user.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (kernel.Actor, error)
}
