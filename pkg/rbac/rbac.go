// Package rbac holds the role set and the single authorization decision used by
// both the API middleware and client navigation guards.
package rbac

import "strings"

// Role is one of the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleLead  Role = "lead"
	RoleUser  Role = "user"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleLead, RoleUser}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLead, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Parse maps a raw role string onto the closed set. The second result is false
// for anything outside it.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Set is a set of required roles. The zero value means "any authenticated role".
type Set map[Role]struct{}

// NewSet builds a Set from roles.
func NewSet(roles ...Role) Set {
	s := make(Set, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Allows decides whether role may pass a gate requiring one of required.
// An empty set admits any valid role; an invalid role never passes.
func Allows(role Role, required Set) bool {
	if !role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	return required.Has(role)
}
