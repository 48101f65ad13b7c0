// internal/role/hierarchy.go
package role

import "multi-tenant-crm/internal/model"

type Role string

const (
	User       Role = "user"
	Agent      Role = "agent"
	Manager    Role = "manager"
	Admin      Role = "admin"
	SuperAdmin Role = "super_admin"
)

// levels orders the roles; higher means more privilege.
var levels = map[Role]int{
	User:       1,
	Agent:      2,
	Manager:    3,
	Admin:      4,
	SuperAdmin: 5,
}

// All returns the known roles from least to most privileged.
func All() []Role {
	return []Role{User, Agent, Manager, Admin, SuperAdmin}
}

// Level returns the hierarchy level of r, or 0 for an unknown role.
func Level(r Role) int {
	return levels[r]
}

func Valid(r string) bool {
	_, ok := levels[Role(r)]
	return ok
}

// AtLeast reports whether have is at least as privileged as min.
// An unknown role never satisfies anything since it sits below User.
func AtLeast(have, min Role) bool {
	l := Level(have)
	return l > 0 && l >= Level(min)
}

// HasRequiredRole reports whether the profile's role is one of roles.
func HasRequiredRole(p *model.Profile, roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if Role(p.Role) == r {
			return true
		}
	}
	return false
}

// HasMinimumRole reports whether the profile's role is at or above min.
func HasMinimumRole(p *model.Profile, min Role) bool {
	if p == nil {
		return false
	}
	return AtLeast(Role(p.Role), min)
}
