// Package billing manages time entries and invoices.
package billing

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

type Service struct {
	billing out.BillingRepository
	cases   out.CaseRepository
	clients out.ClientRepository
}

func NewService(billing out.BillingRepository, cases out.CaseRepository, clients out.ClientRepository) *Service {
	return &Service{
		billing: billing,
		cases:   cases,
		clients: clients,
	}
}

func (s *Service) RecordTime(ctx context.Context, actor *authz.Actor, req *in.RecordTimeRequest) (*domain.TimeEntry, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, req.CaseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}
	if req.Minutes <= 0 {
		return nil, apperr.BadUserInput("minutes must be positive")
	}
	if req.Description == "" {
		return nil, apperr.MissingField("description")
	}

	workedAt := time.Now()
	if req.WorkedAt != nil {
		workedAt = *req.WorkedAt
	}
	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	entry := &domain.TimeEntry{
		ID:          uuid.New(),
		FirmID:      actor.FirmID,
		CaseID:      req.CaseID,
		UserID:      actor.UserID,
		Description: req.Description,
		Minutes:     req.Minutes,
		HourlyRate:  req.HourlyRate,
		Billable:    billable,
		WorkedAt:    workedAt,
		CreatedAt:   time.Now(),
	}
	if err := s.billing.CreateTimeEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) ListTimeEntries(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.TimeEntry, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}
	return s.billing.ListTimeEntries(ctx, actor.FirmID, caseID)
}

// CreateInvoice opens a draft and claims the client's unbilled billable
// entries into it in one pass.
func (s *Service) CreateInvoice(ctx context.Context, actor *authz.Actor, req *in.CreateInvoiceRequest) (*domain.Invoice, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("invoicing requires a full-access role")
	}
	if req.Number == "" {
		return nil, apperr.MissingField("number")
	}
	if _, err := s.clients.GetByID(ctx, actor.FirmID, req.ClientID); err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &domain.Invoice{
		ID:        uuid.New(),
		FirmID:    actor.FirmID,
		ClientID:  req.ClientID,
		Number:    req.Number,
		Status:    domain.InvoiceDraft,
		DueAt:     req.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.billing.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	total, err := s.billing.AttachEntriesToInvoice(ctx, actor.FirmID, req.ClientID, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Total = total
	return inv, nil
}

func (s *Service) IssueInvoice(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID, dueAt *time.Time) (*domain.Invoice, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("invoicing requires a full-access role")
	}
	inv, err := s.billing.GetInvoice(ctx, actor.FirmID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvoiceDraft {
		return nil, apperr.Conflict("only draft invoices can be issued")
	}

	if err := s.billing.UpdateInvoiceStatus(ctx, actor.FirmID, invoiceID, domain.InvoiceIssued); err != nil {
		return nil, err
	}
	now := time.Now()
	inv.Status = domain.InvoiceIssued
	inv.IssuedAt = &now
	if dueAt != nil {
		inv.DueAt = dueAt
	}
	return inv, nil
}

func (s *Service) SetInvoiceStatus(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("invoicing requires a full-access role")
	}
	inv, err := s.billing.GetInvoice(ctx, actor.FirmID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !validTransition(inv.Status, status) {
		return nil, apperr.Conflict("invalid invoice status transition")
	}

	if err := s.billing.UpdateInvoiceStatus(ctx, actor.FirmID, invoiceID, status); err != nil {
		return nil, err
	}
	inv.Status = status
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, actor *authz.Actor, invoiceID uuid.UUID) (*domain.Invoice, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("invoicing requires a full-access role")
	}
	return s.billing.GetInvoice(ctx, actor.FirmID, invoiceID)
}

func (s *Service) ListInvoices(ctx context.Context, actor *authz.Actor, clientID *uuid.UUID) ([]*domain.Invoice, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("invoicing requires a full-access role")
	}
	return s.billing.ListInvoices(ctx, actor.FirmID, clientID)
}

func validTransition(from, to domain.InvoiceStatus) bool {
	switch from {
	case domain.InvoiceDraft:
		return to == domain.InvoiceIssued || to == domain.InvoiceVoided
	case domain.InvoiceIssued:
		return to == domain.InvoicePaid || to == domain.InvoiceVoided || to == domain.InvoiceOverdue
	case domain.InvoiceOverdue:
		return to == domain.InvoicePaid || to == domain.InvoiceVoided
	}
	return false
}
