package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CaseAdapter implements out.CaseRepository using PostgreSQL.
type CaseAdapter struct {
	db *sqlx.DB
}

func NewCaseAdapter(db *sqlx.DB) *CaseAdapter {
	return &CaseAdapter{db: db}
}

const caseSelectColumns = `
	id, firm_id, client_id, reference_code, title, description, status,
	assigned_user_ids, thread_ids, created_at, updated_at`

type caseRow struct {
	ID            uuid.UUID     `db:"id"`
	FirmID        uuid.UUID     `db:"firm_id"`
	ClientID      uuid.NullUUID `db:"client_id"`
	ReferenceCode string        `db:"reference_code"`
	Title         string        `db:"title"`
	Description   string        `db:"description"`
	Status        string        `db:"status"`

	AssignedUserIDs pq.StringArray `db:"assigned_user_ids"`
	ThreadIDs       pq.StringArray `db:"thread_ids"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *caseRow) toDomain() (*domain.Case, error) {
	c := &domain.Case{
		ID:            r.ID,
		FirmID:        r.FirmID,
		ReferenceCode: r.ReferenceCode,
		Title:         r.Title,
		Description:   r.Description,
		Status:        domain.CaseStatus(r.Status),
		ThreadIDs:     r.ThreadIDs,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ClientID.Valid {
		id := r.ClientID.UUID
		c.ClientID = &id
	}
	for _, raw := range r.AssignedUserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse assigned user id %q: %w", raw, err)
		}
		c.AssignedUserIDs = append(c.AssignedUserIDs, id)
	}
	return c, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (a *CaseAdapter) Create(ctx context.Context, c *domain.Case) error {
	query := `
		INSERT INTO cases (
			id, firm_id, client_id, reference_code, title, description, status,
			assigned_user_ids, thread_ids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid[], $9)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		c.ID, c.FirmID, c.ClientID, c.ReferenceCode, c.Title, c.Description,
		string(c.Status), pq.Array(uuidStrings(c.AssignedUserIDs)), pq.Array(c.ThreadIDs),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("case")
		}
		return apperr.DatabaseError("create case", err)
	}
	return nil
}

func (a *CaseAdapter) Update(ctx context.Context, c *domain.Case) error {
	query := `
		UPDATE cases SET
			reference_code = $1, title = $2, description = $3, status = $4,
			client_id = $5, updated_at = NOW()
		WHERE id = $6 AND firm_id = $7`

	result, err := a.db.ExecContext(ctx, query,
		c.ReferenceCode, c.Title, c.Description, string(c.Status), c.ClientID,
		c.ID, c.FirmID,
	)
	if err != nil {
		return apperr.DatabaseError("update case", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("case")
	}
	return nil
}

func (a *CaseAdapter) GetByID(ctx context.Context, firmID, caseID uuid.UUID) (*domain.Case, error) {
	query := `SELECT ` + caseSelectColumns + ` FROM cases WHERE id = $1 AND firm_id = $2`

	var row caseRow
	if err := a.db.GetContext(ctx, &row, query, caseID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("case")
		}
		return nil, apperr.DatabaseError("get case", err)
	}
	return row.toDomain()
}

func (a *CaseAdapter) List(ctx context.Context, filter *domain.CaseFilter) ([]*domain.Case, int, error) {
	conds := []string{"firm_id = $1"}
	args := []any{filter.FirmID}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		conds = append(conds, fmt.Sprintf("assigned_user_ids @> ARRAY[$%d]::uuid[]", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+strings.ToLower(*filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(LOWER(title) LIKE $%d OR LOWER(reference_code) LIKE $%d)", n, n))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM cases
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT %d OFFSET %d`, caseSelectColumns, strings.Join(conds, " AND "), limit, filter.Offset)

	type caseRowWithCount struct {
		caseRow
		TotalCount int `db:"total_count"`
	}
	var rows []caseRowWithCount
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperr.DatabaseError("list cases", err)
	}

	cases := make([]*domain.Case, len(rows))
	total := 0
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, apperr.DatabaseError("map case row", err)
		}
		cases[i] = c
		total = rows[i].TotalCount
	}
	return cases, total, nil
}

func (a *CaseAdapter) ListActiveByClient(ctx context.Context, firmID, clientID uuid.UUID) ([]*domain.Case, error) {
	query := `
		SELECT ` + caseSelectColumns + `
		FROM cases
		WHERE firm_id = $1 AND client_id = $2 AND status IN ('open', 'pending')
		ORDER BY created_at ASC`
	return a.selectCases(ctx, query, firmID, clientID)
}

func (a *CaseAdapter) ListActiveByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.Case, error) {
	query := `
		SELECT ` + caseSelectColumns + `
		FROM cases
		WHERE firm_id = $1 AND status IN ('open', 'pending')
		ORDER BY created_at ASC`
	return a.selectCases(ctx, query, firmID)
}

// AddThread appends the thread id unless it is already present, so repeated
// classification passes do not grow the array.
func (a *CaseAdapter) AddThread(ctx context.Context, firmID, caseID uuid.UUID, threadID string) error {
	query := `
		UPDATE cases SET
			thread_ids = array_append(thread_ids, $1),
			updated_at = NOW()
		WHERE id = $2 AND firm_id = $3 AND NOT ($1 = ANY(thread_ids))`

	if _, err := a.db.ExecContext(ctx, query, threadID, caseID, firmID); err != nil {
		return apperr.DatabaseError("add case thread", err)
	}
	return nil
}

func (a *CaseAdapter) SetAssignedUsers(ctx context.Context, firmID, caseID uuid.UUID, userIDs []uuid.UUID) error {
	query := `
		UPDATE cases SET
			assigned_user_ids = $1::uuid[],
			updated_at = NOW()
		WHERE id = $2 AND firm_id = $3`

	result, err := a.db.ExecContext(ctx, query, pq.Array(uuidStrings(userIDs)), caseID, firmID)
	if err != nil {
		return apperr.DatabaseError("set assigned users", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("case")
	}
	return nil
}

func (a *CaseAdapter) selectCases(ctx context.Context, query string, args ...any) ([]*domain.Case, error) {
	var rows []caseRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.DatabaseError("list cases", err)
	}
	cases := make([]*domain.Case, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, apperr.DatabaseError("map case row", err)
		}
		cases[i] = c
	}
	return cases, nil
}
