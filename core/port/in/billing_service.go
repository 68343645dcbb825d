package in

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type BillingService interface {
	RecordTime(ctx context.Context, actor *authz.Actor, req *RecordTimeRequest) (*domain.TimeEntry, error)
	ListTimeEntries(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.TimeEntry, error)

	// CreateInvoice opens a draft invoice and claims the client's unbilled
	// billable entries into it.
	CreateInvoice(ctx context.Context, actor *authz.Actor, req *CreateInvoiceRequest) (*domain.Invoice, error)
	IssueInvoice(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID, dueAt *time.Time) (*domain.Invoice, error)
	SetInvoiceStatus(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, actor *authz.Actor, clientID *uuid.UUID) ([]*domain.Invoice, error)
}

type RecordTimeRequest struct {
	CaseID      uuid.UUID  `json:"case_id"`
	Description string     `json:"description"`
	Minutes     int        `json:"minutes"`
	HourlyRate  float64    `json:"hourly_rate"`
	Billable    *bool      `json:"billable,omitempty"`
	WorkedAt    *time.Time `json:"worked_at,omitempty"`
}

type CreateInvoiceRequest struct {
	ClientID uuid.UUID  `json:"client_id"`
	Number   string     `json:"number"`
	DueAt    *time.Time `json:"due_at,omitempty"`
}
