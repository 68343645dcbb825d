// Package authz builds role- and firm-scoped visibility predicates.
//
// Roles fall into two access classes: full-access roles (partner, associate,
// business owner) see all firm data; assignment-based roles (junior
// associate, paralegal) see only cases and clients they are explicitly
// assigned to, plus their own private items. There is no state here, only
// predicate construction.
package authz

import (
	"fmt"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// Actor is the authenticated principal a request runs as.
type Actor struct {
	UserID uuid.UUID
	FirmID uuid.UUID
	Role   domain.Role
}

// FullAccess reports whether the actor sees all firm data.
func (a *Actor) FullAccess() bool {
	return a.Role.FullAccess()
}

// CanAccessCase reports whether the actor may read the case. The case must
// already be firm-scoped; cross-firm rows never reach this check.
func (a *Actor) CanAccessCase(c *domain.Case) bool {
	if c.FirmID != a.FirmID {
		return false
	}
	if a.FullAccess() {
		return true
	}
	return c.IsAssigned(a.UserID)
}

// CanAccessClient reports whether the actor may read the client.
func (a *Actor) CanAccessClient(c *domain.Client) bool {
	if c.FirmID != a.FirmID {
		return false
	}
	if a.FullAccess() {
		return true
	}
	return c.IsAssigned(a.UserID)
}

// CanReadNote combines case access with note privacy: private notes are
// author-only regardless of role.
func (a *Actor) CanReadNote(c *domain.Case, n *domain.Note) bool {
	if !a.CanAccessCase(c) {
		return false
	}
	return n.VisibleTo(a.UserID)
}

// CanReadDocument combines case access with document privacy.
func (a *Actor) CanReadDocument(c *domain.Case, d *domain.Document) bool {
	if !a.CanAccessCase(c) {
		return false
	}
	if !d.Private {
		return true
	}
	return d.AuthorID == a.UserID
}

// Filter is a SQL predicate fragment plus its positional arguments, appended
// to repository WHERE clauses. Argument placeholders are written as $N
// starting at the given index.
type Filter struct {
	Clause string
	Args   []any
}

// Scope builds the visibility predicate for listing firm rows from a table
// with firm_id and assigned_user_ids columns. startIdx is the first free
// positional placeholder index.
func Scope(a *Actor, startIdx int) *Filter {
	if a.FullAccess() {
		return &Filter{
			Clause: fmt.Sprintf("firm_id = $%d", startIdx),
			Args:   []any{a.FirmID},
		}
	}
	return &Filter{
		Clause: fmt.Sprintf("firm_id = $%d AND assigned_user_ids @> ARRAY[$%d]::uuid[]", startIdx, startIdx+1),
		Args:   []any{a.FirmID, a.UserID},
	}
}
