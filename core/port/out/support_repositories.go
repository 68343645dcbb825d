package out

import (
	"context"
	"time"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// UserRepository defines the outbound port for firm member lookups.
type UserRepository interface {
	GetByID(ctx context.Context, firmID, userID uuid.UUID) (*domain.User, error)
	ListByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.User, error)
}

// NoteRepository defines the outbound port for case notes.
type NoteRepository interface {
	Create(ctx context.Context, n *domain.Note) error
	Update(ctx context.Context, n *domain.Note) error
	Delete(ctx context.Context, firmID, noteID uuid.UUID) error
	GetByID(ctx context.Context, firmID, noteID uuid.UUID) (*domain.Note, error)
	ListByCase(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.Note, error)
}

// DocumentRepository defines the outbound port for document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, firmID, docID uuid.UUID) error
	GetByID(ctx context.Context, firmID, docID uuid.UUID) (*domain.Document, error)
	ListByCase(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.Document, error)
}

// DocumentBodyRepository stores document content, versioned per document.
type DocumentBodyRepository interface {
	Put(ctx context.Context, body *domain.DocumentBody) error
	Get(ctx context.Context, documentID uuid.UUID, version int) (*domain.DocumentBody, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}

// BillingRepository defines the outbound port for time entries and invoices.
type BillingRepository interface {
	CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error
	ListTimeEntries(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.TimeEntry, error)

	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	UpdateInvoiceStatus(ctx context.Context, firmID, invoiceID uuid.UUID, status domain.InvoiceStatus) error
	GetInvoice(ctx context.Context, firmID, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, firmID uuid.UUID, clientID *uuid.UUID) ([]*domain.Invoice, error)

	// AttachEntriesToInvoice claims unbilled billable entries for the client's
	// cases and returns the claimed total.
	AttachEntriesToInvoice(ctx context.Context, firmID, clientID, invoiceID uuid.UUID) (float64, error)
}

// Cache defines the outbound port for caching and counters: JSON values for
// cached listings, plain counters for epochs and quota windows.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
