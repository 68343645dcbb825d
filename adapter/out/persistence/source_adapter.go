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
	"github.com/lib/pq"
)

// SourceAdapter implements out.SourceRepository using PostgreSQL.
type SourceAdapter struct {
	db *sqlx.DB
}

func NewSourceAdapter(db *sqlx.DB) *SourceAdapter {
	return &SourceAdapter{db: db}
}

type sourceRow struct {
	ID        uuid.UUID      `db:"id"`
	FirmID    uuid.UUID      `db:"firm_id"`
	Name      string         `db:"name"`
	Category  string         `db:"category"`
	Domains   pq.StringArray `db:"domains"`
	Addresses pq.StringArray `db:"addresses"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *sourceRow) toDomain() *domain.GlobalEmailSource {
	return &domain.GlobalEmailSource{
		ID:        r.ID,
		FirmID:    r.FirmID,
		Name:      r.Name,
		Category:  domain.SourceCategory(r.Category),
		Domains:   r.Domains,
		Addresses: r.Addresses,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (a *SourceAdapter) Create(ctx context.Context, s *domain.GlobalEmailSource) error {
	query := `
		INSERT INTO global_email_sources (id, firm_id, name, category, domains, addresses)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		s.ID, s.FirmID, s.Name, string(s.Category),
		pq.Array(s.Domains), pq.Array(s.Addresses),
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("source")
		}
		return apperr.DatabaseError("create source", err)
	}
	return nil
}

func (a *SourceAdapter) Update(ctx context.Context, s *domain.GlobalEmailSource) error {
	query := `
		UPDATE global_email_sources SET
			name = $1, category = $2, domains = $3, addresses = $4, updated_at = NOW()
		WHERE id = $5 AND firm_id = $6`

	result, err := a.db.ExecContext(ctx, query,
		s.Name, string(s.Category), pq.Array(s.Domains), pq.Array(s.Addresses),
		s.ID, s.FirmID,
	)
	if err != nil {
		return apperr.DatabaseError("update source", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("source")
	}
	return nil
}

func (a *SourceAdapter) Delete(ctx context.Context, firmID, sourceID uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM global_email_sources WHERE id = $1 AND firm_id = $2`, sourceID, firmID)
	if err != nil {
		return apperr.DatabaseError("delete source", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("source")
	}
	return nil
}

func (a *SourceAdapter) GetByID(ctx context.Context, firmID, sourceID uuid.UUID) (*domain.GlobalEmailSource, error) {
	query := `
		SELECT id, firm_id, name, category, domains, addresses, created_at, updated_at
		FROM global_email_sources
		WHERE id = $1 AND firm_id = $2`

	var row sourceRow
	if err := a.db.GetContext(ctx, &row, query, sourceID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("source")
		}
		return nil, apperr.DatabaseError("get source", err)
	}
	return row.toDomain(), nil
}

func (a *SourceAdapter) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.GlobalEmailSource, error) {
	query := `
		SELECT id, firm_id, name, category, domains, addresses, created_at, updated_at
		FROM global_email_sources
		WHERE firm_id = $1
		ORDER BY name ASC`

	var rows []sourceRow
	if err := a.db.SelectContext(ctx, &rows, query, firmID); err != nil {
		return nil, apperr.DatabaseError("list sources", err)
	}
	sources := make([]*domain.GlobalEmailSource, len(rows))
	for i := range rows {
		sources[i] = rows[i].toDomain()
	}
	return sources, nil
}
