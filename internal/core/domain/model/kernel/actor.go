package kernel

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Role is the kind of party that caused a state change.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAdmin     Role = "admin"
	RoleWarehouse Role = "warehouse"
	RoleCourier   Role = "courier"
	RoleCustomer  Role = "customer"
)

func (r Role) Validate() error {
	switch r {
	case RoleSystem, RoleAdmin, RoleWarehouse, RoleCourier, RoleCustomer:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", string(r)))
	}
}

// Actor is who performed an operation, recorded in notes and unit logs.
type Actor struct {
	name string
	role Role
}

// SystemActor is used for changes made by jobs and consumers.
var SystemActor = Actor{name: "system", role: RoleSystem}

func NewActor(name string, role Role) (Actor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor name")
	}
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{name: name, role: role}, nil
}

func (a Actor) Validate() error {
	if a.name == "" {
		return errs.NewValueIsRequiredError("actor name")
	}
	return a.role.Validate()
}

func (a Actor) Name() string {
	return a.name
}

func (a Actor) Role() Role {
	return a.role
}
