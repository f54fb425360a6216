package kernel

import (
	"errors"
	"fmt"

	"turbodelivery/internal/pkg/errs"
	"turbodelivery/internal/pkg/guard"
)

// Role is the capability set of an authenticated caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCourier  Role = "captain"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts the role names carried in identity tokens.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleCourier, RoleAdmin:
		return r, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", s))
	}
}

func (r Role) String() string {
	return string(r)
}

// ErrActorIsNotConstructed is returned when using a zero-value Actor.
var ErrActorIsNotConstructed = errs.NewValueIsRequiredError("actor must be created via NewActor")

// Actor is the resolved identity performing an operation.
type Actor struct {
	id    UUID
	role  Role
	guard guard.ConstructorGuard
}

func NewActor(id UUID, role Role) (Actor, error) {
	if err := errors.Join(id.Validate(), validateRole(role)); err != nil {
		return Actor{}, err
	}
	return Actor{id: id, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (a Actor) Validate() error {
	return a.guard.Validate(ErrActorIsNotConstructed)
}

func (a Actor) ID() UUID {
	return a.id
}

func (a Actor) Role() Role {
	return a.role
}

func (a Actor) IsAdmin() bool {
	return a.role == RoleAdmin
}

// Is reports whether the actor has the given role and id.
func (a Actor) Is(role Role, id UUID) bool {
	return a.role == role && a.id.IsEqual(id)
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.role, a.id)
}

func validateRole(role Role) error {
	_, err := ParseRole(string(role))
	return err
}
