package persistence

import (
	"context"
	"database/sql"
	"errors"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NoteAdapter implements out.NoteRepository using PostgreSQL.
type NoteAdapter struct {
	db *sqlx.DB
}

func NewNoteAdapter(db *sqlx.DB) *NoteAdapter {
	return &NoteAdapter{db: db}
}

type noteRow struct {
	ID        uuid.UUID    `db:"id"`
	FirmID    uuid.UUID    `db:"firm_id"`
	CaseID    uuid.UUID    `db:"case_id"`
	AuthorID  uuid.UUID    `db:"author_id"`
	Body      string       `db:"body"`
	Private   bool         `db:"private"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (r *noteRow) toDomain() *domain.Note {
	n := &domain.Note{
		ID:       r.ID,
		FirmID:   r.FirmID,
		CaseID:   r.CaseID,
		AuthorID: r.AuthorID,
		Body:     r.Body,
		Private:  r.Private,
	}
	if r.CreatedAt.Valid {
		n.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		n.UpdatedAt = r.UpdatedAt.Time
	}
	return n
}

func (a *NoteAdapter) Create(ctx context.Context, n *domain.Note) error {
	query := `
		INSERT INTO case_notes (id, firm_id, case_id, author_id, body, private)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		n.ID, n.FirmID, n.CaseID, n.AuthorID, n.Body, n.Private,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("create note", err)
	}
	return nil
}

func (a *NoteAdapter) Update(ctx context.Context, n *domain.Note) error {
	result, err := a.db.ExecContext(ctx, `
		UPDATE case_notes SET body = $1, private = $2, updated_at = NOW()
		WHERE id = $3 AND firm_id = $4`, n.Body, n.Private, n.ID, n.FirmID)
	if err != nil {
		return apperr.DatabaseError("update note", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("note")
	}
	return nil
}

func (a *NoteAdapter) Delete(ctx context.Context, firmID, noteID uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM case_notes WHERE id = $1 AND firm_id = $2`, noteID, firmID)
	if err != nil {
		return apperr.DatabaseError("delete note", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("note")
	}
	return nil
}

func (a *NoteAdapter) GetByID(ctx context.Context, firmID, noteID uuid.UUID) (*domain.Note, error) {
	query := `
		SELECT id, firm_id, case_id, author_id, body, private, created_at, updated_at
		FROM case_notes
		WHERE id = $1 AND firm_id = $2`

	var row noteRow
	if err := a.db.GetContext(ctx, &row, query, noteID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("note")
		}
		return nil, apperr.DatabaseError("get note", err)
	}
	return row.toDomain(), nil
}

func (a *NoteAdapter) ListByCase(ctx context.Context, firmID, caseID uuid.UUID) ([]*domain.Note, error) {
	query := `
		SELECT id, firm_id, case_id, author_id, body, private, created_at, updated_at
		FROM case_notes
		WHERE firm_id = $1 AND case_id = $2
		ORDER BY created_at DESC`

	var rows []noteRow
	if err := a.db.SelectContext(ctx, &rows, query, firmID, caseID); err != nil {
		return nil, apperr.DatabaseError("list notes", err)
	}
	notes := make([]*domain.Note, len(rows))
	for i := range rows {
		notes[i] = rows[i].toDomain()
	}
	return notes, nil
}
