package auth

// Role represents a user role.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleAccountant, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

// Require is the single capability check used by write operations.
// Services take the actor role explicitly instead of re-deriving it
// from ambient request state.
func Require(actor Role, required Role) error {
	if !RoleAtLeast(actor, required) {
		return ErrForbidden
	}
	return nil
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleAccountant:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
