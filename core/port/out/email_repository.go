package out

import (
	"context"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// EmailRepository defines the outbound port for email persistence.
// Every read is firm-scoped; a cross-firm id behaves as not found.
type EmailRepository interface {
	Create(ctx context.Context, email *domain.Email) error
	GetByID(ctx context.Context, firmID, emailID uuid.UUID) (*domain.Email, error)
	List(ctx context.Context, filter *domain.EmailFilter) ([]*domain.Email, int, error)

	// ApplyVerdict overwrites the email's classification columns with the
	// verdict. It is an idempotent overwrite, not an append: re-applying the
	// same verdict leaves the row unchanged.
	ApplyVerdict(ctx context.Context, firmID, emailID uuid.UUID, verdict *domain.Verdict, classifiedBy string) error

	// FindReclassifyCandidates returns unassigned emails (case_id is null) in
	// the firm whose sender or any recipient equals the address, in state
	// pending/uncertain, or client_inbox when clientID matches. An address of
	// the form "@domain" matches by sender domain instead.
	FindReclassifyCandidates(ctx context.Context, firmID uuid.UUID, address string, clientID *uuid.UUID) ([]*domain.Email, error)

	// UpsertCaseLink records match provenance; unique per (email, case) so
	// repeated passes do not duplicate rows.
	UpsertCaseLink(ctx context.Context, firmID uuid.UUID, link *domain.EmailCaseLink) error
	ListCaseLinks(ctx context.Context, firmID, emailID uuid.UUID) ([]*domain.EmailCaseLink, error)
}
