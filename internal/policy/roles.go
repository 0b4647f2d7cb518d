package policy

import "github.com/google/uuid"

// Role is the platform access level of a caller.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleBettor   Role = "bettor"
)

// Caller identifies who is invoking an operation.
type Caller struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// IsStaff returns true for roles that may run fight control operations.
func (c Caller) IsStaff() bool {
	return c.Role == RoleAdmin || c.Role == RoleOperator
}
