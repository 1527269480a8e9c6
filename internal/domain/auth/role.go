package auth

import "strings"

// UserRole identifies the privileges assigned to a user.
type UserRole string

const (
	// RoleUser represents a standard application user.
	RoleUser UserRole = "user"
	// RoleAdmin represents an administrative user.
	RoleAdmin UserRole = "admin"
)

// DefaultRole is assigned to new users unless another role is requested.
const DefaultRole = RoleUser

var roleLevels = map[UserRole]int{
	RoleUser:  1,
	RoleAdmin: 10,
}

// ParseRole normalises a role name. An empty string yields DefaultRole.
func ParseRole(raw string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if role == "" {
		return DefaultRole, nil
	}
	if _, ok := roleLevels[role]; !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

// HasRole reports whether role satisfies required. Admins satisfy every role.
func HasRole(role, required UserRole) bool {
	if role == "" {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	return role == required
}

// IsAdmin reports whether role is the admin role.
func IsAdmin(role UserRole) bool {
	return role == RoleAdmin
}

// HasMinimumRole compares roles by privilege level.
func HasMinimumRole(role, minimum UserRole) bool {
	if role == "" {
		return false
	}
	return roleLevels[role] >= roleLevels[minimum]
}
