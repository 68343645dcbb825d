package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is a billable (or non-billable) unit of work on a case.
type TimeEntry struct {
	ID     uuid.UUID `json:"id"`
	FirmID uuid.UUID `json:"firm_id"`
	CaseID uuid.UUID `json:"case_id"`
	UserID uuid.UUID `json:"user_id"`

	Description string    `json:"description"`
	Minutes     int       `json:"minutes"`
	HourlyRate  float64   `json:"hourly_rate"`
	Billable    bool      `json:"billable"`
	WorkedAt    time.Time `json:"worked_at"`

	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Amount returns the entry's monetary value.
func (e *TimeEntry) Amount() float64 {
	return float64(e.Minutes) / 60.0 * e.HourlyRate
}

// InvoiceStatus is the billing lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceIssued  InvoiceStatus = "issued"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceVoided  InvoiceStatus = "voided"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Invoice aggregates billable time entries for a client.
type Invoice struct {
	ID       uuid.UUID `json:"id"`
	FirmID   uuid.UUID `json:"firm_id"`
	ClientID uuid.UUID `json:"client_id"`

	Number   string        `json:"number"`
	Status   InvoiceStatus `json:"status"`
	Total    float64       `json:"total"`
	IssuedAt *time.Time    `json:"issued_at,omitempty"`
	DueAt    *time.Time    `json:"due_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
