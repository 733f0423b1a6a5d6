package identity

// UserRole is the user's role
type UserRole string

const (
	// RoleAdopter is the default role assigned at registration (i.e. apply, track own applications)
	RoleAdopter UserRole = "adopter"
	// RoleAdmin is the staff role (i.e. review applications, manage users)
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdopter, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdopter,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// RoleIn reports whether the role is a member of the allowed set
func RoleIn(role UserRole, allowed ...UserRole) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
