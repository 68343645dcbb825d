package out

import (
	"context"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// CaseRepository defines the outbound port for case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, firmID, caseID uuid.UUID) (*domain.Case, error)
	List(ctx context.Context, filter *domain.CaseFilter) ([]*domain.Case, int, error)

	// ListActiveByClient returns the client's open/pending cases. The
	// reclassification fast path depends on the count being exact.
	ListActiveByClient(ctx context.Context, firmID, clientID uuid.UUID) ([]*domain.Case, error)

	// ListActiveByFirm returns all open/pending cases for scoring.
	ListActiveByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.Case, error)

	// AddThread links a conversation thread to the case (idempotent).
	AddThread(ctx context.Context, firmID, caseID uuid.UUID, threadID string) error

	SetAssignedUsers(ctx context.Context, firmID, caseID uuid.UUID, userIDs []uuid.UUID) error
}

// ClientRepository defines the outbound port for client persistence.
type ClientRepository interface {
	Create(ctx context.Context, c *domain.Client) error
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, firmID, clientID uuid.UUID) error
	GetByID(ctx context.Context, firmID, clientID uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, filter *domain.ClientFilter) ([]*domain.Client, int, error)

	// GetByAddress resolves the client owning an address (primary email or a
	// contact entry email). Returns not found when no client matches.
	GetByAddress(ctx context.Context, firmID uuid.UUID, address string) (*domain.Client, error)

	// UpdateContacts replaces the client's contact entry array.
	UpdateContacts(ctx context.Context, firmID, clientID uuid.UUID, contacts []domain.ContactEntry) error
}

// SourceRepository defines the outbound port for the institutional sender
// registry (GlobalEmailSource).
type SourceRepository interface {
	Create(ctx context.Context, s *domain.GlobalEmailSource) error
	Update(ctx context.Context, s *domain.GlobalEmailSource) error
	Delete(ctx context.Context, firmID, sourceID uuid.UUID) error
	GetByID(ctx context.Context, firmID, sourceID uuid.UUID) (*domain.GlobalEmailSource, error)
	ListByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.GlobalEmailSource, error)
}
