package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a firm member's role. Roles fall into two access classes:
// full-access roles see all firm data, assignment-based roles see only the
// cases and clients they are explicitly assigned to.
type Role string

const (
	RolePartner       Role = "partner"
	RoleAssociate     Role = "associate"
	RoleBusinessOwner Role = "business_owner"
	RoleAssociateJr   Role = "associate_jr"
	RoleParalegal     Role = "paralegal"
)

// FullAccess reports whether the role sees all firm data without assignment.
func (r Role) FullAccess() bool {
	switch r {
	case RolePartner, RoleAssociate, RoleBusinessOwner:
		return true
	}
	return false
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePartner, RoleAssociate, RoleBusinessOwner, RoleAssociateJr, RoleParalegal:
		return true
	}
	return false
}

// User is a firm member.
type User struct {
	ID     uuid.UUID `json:"id"`
	FirmID uuid.UUID `json:"firm_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   Role      `json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
