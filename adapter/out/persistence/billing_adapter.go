package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BillingAdapter implements out.BillingRepository using PostgreSQL.
type BillingAdapter struct {
	db *sqlx.DB
}

func NewBillingAdapter(db *sqlx.DB) *BillingAdapter {
	return &BillingAdapter{db: db}
}

type timeEntryRow struct {
	ID          uuid.UUID     `db:"id"`
	FirmID      uuid.UUID     `db:"firm_id"`
	CaseID      uuid.UUID     `db:"case_id"`
	UserID      uuid.UUID     `db:"user_id"`
	Description string        `db:"description"`
	Minutes     int           `db:"minutes"`
	HourlyRate  float64       `db:"hourly_rate"`
	Billable    bool          `db:"billable"`
	WorkedAt    time.Time     `db:"worked_at"`
	InvoiceID   uuid.NullUUID `db:"invoice_id"`
	CreatedAt   time.Time     `db:"created_at"`
}

func (r *timeEntryRow) toDomain() *domain.TimeEntry {
	e := &domain.TimeEntry{
		ID:          r.ID,
		FirmID:      r.FirmID,
		CaseID:      r.CaseID,
		UserID:      r.UserID,
		Description: r.Description,
		Minutes:     r.Minutes,
		HourlyRate:  r.HourlyRate,
		Billable:    r.Billable,
		WorkedAt:    r.WorkedAt,
		CreatedAt:   r.CreatedAt,
	}
	if r.InvoiceID.Valid {
		id := r.InvoiceID.UUID
		e.InvoiceID = &id
	}
	return e
}

type invoiceRow struct {
	ID        uuid.UUID    `db:"id"`
	FirmID    uuid.UUID    `db:"firm_id"`
	ClientID  uuid.UUID    `db:"client_id"`
	Number    string       `db:"number"`
	Status    string       `db:"status"`
	Total     float64      `db:"total"`
	IssuedAt  sql.NullTime `db:"issued_at"`
	DueAt     sql.NullTime `db:"due_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r *invoiceRow) toDomain() *domain.Invoice {
	inv := &domain.Invoice{
		ID:        r.ID,
		FirmID:    r.FirmID,
		ClientID:  r.ClientID,
		Number:    r.Number,
		Status:    domain.InvoiceStatus(r.Status),
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.IssuedAt.Valid {
		t := r.IssuedAt.Time
		inv.IssuedAt = &t
	}
	if r.DueAt.Valid {
		t := r.DueAt.Time
		inv.DueAt = &t
	}
	return inv
}

func (a *BillingAdapter) CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error {
	query := `
		INSERT INTO time_entries (id, firm_id, case_id, user_id, description, minutes, hourly_rate, billable, worked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := a.db.QueryRowxContext(ctx, query,
		e.ID, e.FirmID, e.CaseID, e.UserID, e.Description,
		e.Minutes, e.HourlyRate, e.Billable, e.WorkedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return apperr.DatabaseError("create time entry", err)
	}
	return nil
}

func (a *BillingAdapter) ListTimeEntries(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.TimeEntry, error) {
	query := `
		SELECT id, firm_id, case_id, user_id, description, minutes, hourly_rate, billable, worked_at, invoice_id, created_at
		FROM time_entries
		WHERE firm_id = $1 AND case_id = $2
		ORDER BY worked_at DESC`

	var rows []timeEntryRow
	if err := a.db.SelectContext(ctx, &rows, query, firmID, caseID); err != nil {
		return nil, apperr.DatabaseError("list time entries", err)
	}
	entries := make([]*domain.TimeEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toDomain()
	}
	return entries, nil
}

func (a *BillingAdapter) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, firm_id, client_id, number, status, total, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		inv.ID, inv.FirmID, inv.ClientID, inv.Number, string(inv.Status), inv.Total, inv.DueAt,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("invoice")
		}
		return apperr.DatabaseError("create invoice", err)
	}
	return nil
}

func (a *BillingAdapter) UpdateInvoiceStatus(ctx context.Context, firmID, invoiceID uuid.UUID, status domain.InvoiceStatus) error {
	issuedAt := ""
	if status == domain.InvoiceIssued {
		issuedAt = ", issued_at = NOW()"
	}
	query := fmt.Sprintf(`
		UPDATE invoices SET status = $1%s, updated_at = NOW()
		WHERE id = $2 AND firm_id = $3`, issuedAt)

	result, err := a.db.ExecContext(ctx, query, string(status), invoiceID, firmID)
	if err != nil {
		return apperr.DatabaseError("update invoice status", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("invoice")
	}
	return nil
}

func (a *BillingAdapter) GetInvoice(ctx context.Context, firmID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	query := `
		SELECT id, firm_id, client_id, number, status, total, issued_at, due_at, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND firm_id = $2`

	var row invoiceRow
	if err := a.db.GetContext(ctx, &row, query, invoiceID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("invoice")
		}
		return nil, apperr.DatabaseError("get invoice", err)
	}
	return row.toDomain(), nil
}

func (a *BillingAdapter) ListInvoices(ctx context.Context, firmID uuid.UUID, clientID *uuid.UUID) ([]*domain.Invoice, error) {
	query := `
		SELECT id, firm_id, client_id, number, status, total, issued_at, due_at, created_at, updated_at
		FROM invoices
		WHERE firm_id = $1`
	args := []any{firmID}
	if clientID != nil {
		query += ` AND client_id = $2`
		args = append(args, *clientID)
	}
	query += ` ORDER BY created_at DESC`

	var rows []invoiceRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.DatabaseError("list invoices", err)
	}
	invoices := make([]*domain.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].toDomain()
	}
	return invoices, nil
}

// AttachEntriesToInvoice claims unbilled billable entries across the client's
// cases in one transaction and stamps the claimed total on the invoice.
func (a *BillingAdapter) AttachEntriesToInvoice(ctx context.Context, firmID, clientID, invoiceID uuid.UUID) (float64, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.DatabaseError("begin invoice transaction", err)
	}
	defer tx.Rollback()

	claim := `
		UPDATE time_entries SET invoice_id = $1
		WHERE firm_id = $2
		  AND billable
		  AND invoice_id IS NULL
		  AND case_id IN (SELECT id FROM cases WHERE firm_id = $2 AND client_id = $3)
		RETURNING minutes, hourly_rate`

	rows, err := tx.QueryxContext(ctx, claim, invoiceID, firmID, clientID)
	if err != nil {
		return 0, apperr.DatabaseError("claim time entries", err)
	}

	var total float64
	for rows.Next() {
		var minutes int
		var rate float64
		if err := rows.Scan(&minutes, &rate); err != nil {
			rows.Close()
			return 0, apperr.DatabaseError("scan claimed entry", err)
		}
		total += float64(minutes) / 60.0 * rate
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, apperr.DatabaseError("claim time entries", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE invoices SET total = $1, updated_at = NOW()
		WHERE id = $2 AND firm_id = $3`, total, invoiceID, firmID); err != nil {
		return 0, apperr.DatabaseError("stamp invoice total", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.DatabaseError("commit invoice transaction", err)
	}
	return total, nil
}
