package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DocumentAdapter implements out.DocumentRepository using PostgreSQL.
// Document bodies live in MongoDB; this adapter handles metadata only.
type DocumentAdapter struct {
	db *sqlx.DB
}

func NewDocumentAdapter(db *sqlx.DB) *DocumentAdapter {
	return &DocumentAdapter{db: db}
}

type documentRow struct {
	ID        uuid.UUID `db:"id"`
	FirmID    uuid.UUID `db:"firm_id"`
	CaseID    uuid.UUID `db:"case_id"`
	Title     string    `db:"title"`
	Kind      string    `db:"kind"`
	Version   int       `db:"version"`
	Private   bool      `db:"private"`
	AuthorID  uuid.UUID `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *documentRow) toDomain() *domain.Document {
	return &domain.Document{
		ID:        r.ID,
		FirmID:    r.FirmID,
		CaseID:    r.CaseID,
		Title:     r.Title,
		Kind:      domain.DocumentKind(r.Kind),
		Version:   r.Version,
		Private:   r.Private,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (a *DocumentAdapter) Create(ctx context.Context, d *domain.Document) error {
	query := `
		INSERT INTO documents (id, firm_id, case_id, title, kind, version, private, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		d.ID, d.FirmID, d.CaseID, d.Title, string(d.Kind), d.Version, d.Private, d.AuthorID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("create document", err)
	}
	return nil
}

func (a *DocumentAdapter) Update(ctx context.Context, d *domain.Document) error {
	result, err := a.db.ExecContext(ctx, `
		UPDATE documents SET title = $1, kind = $2, version = $3, private = $4, updated_at = NOW()
		WHERE id = $5 AND firm_id = $6`,
		d.Title, string(d.Kind), d.Version, d.Private, d.ID, d.FirmID)
	if err != nil {
		return apperr.DatabaseError("update document", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("document")
	}
	return nil
}

func (a *DocumentAdapter) Delete(ctx context.Context, firmID, docID uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND firm_id = $2`, docID, firmID)
	if err != nil {
		return apperr.DatabaseError("delete document", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("document")
	}
	return nil
}

func (a *DocumentAdapter) GetByID(ctx context.Context, firmID, docID uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT id, firm_id, case_id, title, kind, version, private, author_id, created_at, updated_at
		FROM documents
		WHERE id = $1 AND firm_id = $2`

	var row documentRow
	if err := a.db.GetContext(ctx, &row, query, docID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document")
		}
		return nil, apperr.DatabaseError("get document", err)
	}
	return row.toDomain(), nil
}

func (a *DocumentAdapter) ListByCase(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.Document, error) {
	query := `
		SELECT id, firm_id, case_id, title, kind, version, private, author_id, created_at, updated_at
		FROM documents
		WHERE firm_id = $1 AND case_id = $2
		ORDER BY updated_at DESC`

	var rows []documentRow
	if err := a.db.SelectContext(ctx, &rows, query, firmID, caseID); err != nil {
		return nil, apperr.DatabaseError("list documents", err)
	}
	docs := make([]*domain.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].toDomain()
	}
	return docs, nil
}
