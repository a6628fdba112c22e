package auth

import (
	"fmt"
	"slices"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

// Mode says whether a policy needs the authenticator to run.
type Mode int

const (
	ModeNone     Mode = iota // never authenticate
	ModeOptional             // authenticate, swallow failures
	ModeRequired             // authenticate, fail the request on error
)

type policyKind int

const (
	kindPublic policyKind = iota
	kindOptional
	kindAuthenticated
	kindRoles
	kindOwner
)

// Policy is the access requirement attached to a route.
type Policy struct {
	kind  policyKind
	roles []model.Role
	param string
}

var (
	// Public routes never look at credentials.
	Public = Policy{kind: kindPublic}
	// OptionalAuth attaches an identity when a valid token is present and
	// proceeds anonymously otherwise. Handlers must not assume an identity.
	OptionalAuth = Policy{kind: kindOptional}
	// Authenticated admits any caller with a valid token.
	Authenticated = Policy{kind: kindAuthenticated}
)

// Roles admits callers whose role is one of roles.
func Roles(roles ...model.Role) Policy {
	return Policy{kind: kindRoles, roles: roles}
}

// Owner admits admins, and any caller whose id equals the named path
// parameter.
func Owner(param string) Policy {
	return Policy{kind: kindOwner, param: param}
}

// Mode reports how the authenticator must run for p.
func (p Policy) Mode() Mode {
	switch p.kind {
	case kindPublic:
		return ModeNone
	case kindOptional:
		return ModeOptional
	default:
		return ModeRequired
	}
}

// String describes the policy for logs and route listings.
func (p Policy) String() string {
	switch p.kind {
	case kindPublic:
		return "public"
	case kindOptional:
		return "optional"
	case kindAuthenticated:
		return "authenticated"
	case kindRoles:
		return fmt.Sprintf("roles%v", p.roles)
	case kindOwner:
		return "owner:" + p.param
	}
	return "unknown"
}

// Enforce evaluates p for the caller id. pathParam resolves route
// parameters for ownership checks.
//
// Returns ErrUnauthenticated when p needs an identity and id is nil, and
// ErrForbidden when the role or ownership check fails.
func Enforce(p Policy, id *Identity, pathParam func(string) string) error {
	switch p.kind {
	case kindPublic, kindOptional:
		return nil
	}

	if id == nil {
		return ErrUnauthenticated
	}

	switch p.kind {
	case kindRoles:
		if !slices.Contains(p.roles, id.Role) {
			return fmt.Errorf("%w: role %q is not allowed", ErrForbidden, id.Role)
		}
	case kindOwner:
		if id.Role == model.RoleAdmin {
			return nil
		}
		if pathParam == nil || pathParam(p.param) != id.ID {
			return fmt.Errorf("%w: not the owner of this resource", ErrForbidden)
		}
	}
	return nil
}

// IsOwner applies the ownership rule to a subject taken from a request
// body rather than the path.
func IsOwner(id *Identity, subject string) bool {
	if id == nil {
		return false
	}
	return id.Role == model.RoleAdmin || id.ID == subject
}
