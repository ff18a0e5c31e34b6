package accesscontrol

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Identity is the (role, superuser flag) tuple the capability predicates are
// computed from. The booleans are never stored; they are derived here and
// nowhere else so the invariant lives in one place.
type Identity struct {
	Role        Role
	IsSuperuser bool
}

// IsAdmin reports whether the identity holds admin capability: either the
// superuser flag is set or the role is admin.
func IsAdmin(id Identity) bool {
	return id.IsSuperuser || id.Role == RoleAdmin
}

// IsModerator reports whether the identity holds moderator capability.
// Admins are moderators.
func IsModerator(id Identity) bool {
	return IsAdmin(id) || id.Role == RoleModerator
}
