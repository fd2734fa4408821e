package model

import "time"

// Role enumerates account roles.  The JWT "role" claim carries one of these
// values and the role middleware gates routes on them.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleOwner || r == RoleAdmin
}

// ApprovalStatus tracks where a user stands in the owner approval flow.
// Regular accounts stay at "none"; applicants move pending -> approved or
// pending -> rejected, driven exclusively by the registration workflow.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User mirrors the `users` table.
type User struct {
	ID             uint64
	Name           string
	Email          string
	PasswordHash   string
	Phone          *string
	Role           Role
	ApprovalStatus ApprovalStatus
	ApprovedBy     *uint64
	ApprovedAt     *time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
