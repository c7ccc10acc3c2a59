package domain

// Role staff role carried in the access token
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
)

// ActorContext identifies who performs an operation
type ActorContext struct {
	UserID int64
	Role   Role
}

// Is reports whether the actor holds one of roles
func (a ActorContext) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// ParseRole normalizes a role claim; unknown values yield "" and false
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer:
		return r, true
	}
	switch s {
	case "SuperAdmin", "Super Admin":
		return RoleSuperAdmin, true
	case "Admin":
		return RoleAdmin, true
	case "Editor":
		return RoleEditor, true
	case "Viewer":
		return RoleViewer, true
	}
	return "", false
}
