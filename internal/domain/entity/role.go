package entity

// Role is a user's authorization role.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// RoleSet is a route's authorization policy: the roles allowed through.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a policy allowing exactly the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		s.roles[r] = struct{}{}
	}
	return s
}

// Allows reports whether r is in the set. The zero RoleSet allows nothing.
func (s RoleSet) Allows(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// Roles returns the members of the set in declaration order of the known roles.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s.roles))
	for _, r := range []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin} {
		if s.Allows(r) {
			out = append(out, r)
		}
	}
	return out
}
