package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note is a case note. Private notes are visible only to their author.
type Note struct {
	ID     uuid.UUID `json:"id"`
	FirmID uuid.UUID `json:"firm_id"`
	CaseID uuid.UUID `json:"case_id"`

	AuthorID uuid.UUID `json:"author_id"`
	Body     string    `json:"body"`
	Private  bool      `json:"private"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the user may read the note. Private notes are
// author-only regardless of role; case-level access is checked separately.
func (n *Note) VisibleTo(userID uuid.UUID) bool {
	if !n.Private {
		return true
	}
	return n.AuthorID == userID
}
