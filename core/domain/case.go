package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the lifecycle status of a legal case.
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "open"
	CaseStatusPending  CaseStatus = "pending"
	CaseStatusClosed   CaseStatus = "closed"
	CaseStatusArchived CaseStatus = "archived"
)

// Active reports whether the case still receives mail routing.
func (s CaseStatus) Active() bool {
	return s == CaseStatusOpen || s == CaseStatusPending
}

// Case is a legal matter handled by a firm. A case has zero or one client.
type Case struct {
	ID     uuid.UUID  `json:"id"`
	FirmID uuid.UUID  `json:"firm_id"`
	// ClientID is nil for internal or pro-bono matters without a client record.
	ClientID *uuid.UUID `json:"client_id,omitempty"`

	// ReferenceCode is the firm's docket reference, e.g. "2024-CIV-0187".
	// Reference-number classification matches it against subject lines.
	ReferenceCode string     `json:"reference_code"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        CaseStatus `json:"status"`

	// AssignedUserIDs controls visibility for assignment-based roles.
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`

	// ThreadIDs are conversation threads already linked to this case, the
	// strongest classification signal for follow-up mail.
	ThreadIDs []string `json:"thread_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAssigned reports whether the user is explicitly assigned to the case.
func (c *Case) IsAssigned(userID uuid.UUID) bool {
	for _, id := range c.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasThread reports whether the thread is already linked to the case.
func (c *Case) HasThread(threadID string) bool {
	if threadID == "" {
		return false
	}
	for _, id := range c.ThreadIDs {
		if id == threadID {
			return true
		}
	}
	return false
}

// CaseFilter narrows case listing queries.
type CaseFilter struct {
	FirmID   uuid.UUID
	ClientID *uuid.UUID
	Status   *CaseStatus
	// AssignedUserID restricts results to cases the user is assigned to.
	AssignedUserID *uuid.UUID
	Search         *string
	Limit          int
	Offset         int
}
