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

// UserAdapter implements out.UserRepository using PostgreSQL.
type UserAdapter struct {
	db *sqlx.DB
}

func NewUserAdapter(db *sqlx.DB) *UserAdapter {
	return &UserAdapter{db: db}
}

type userRow struct {
	ID        uuid.UUID `db:"id"`
	FirmID    uuid.UUID `db:"firm_id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		FirmID:    r.FirmID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (a *UserAdapter) GetByID(ctx context.Context, firmID, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, firm_id, email, name, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND firm_id = $2`

	var row userRow
	if err := a.db.GetContext(ctx, &row, query, userID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return row.toDomain(), nil
}

func (a *UserAdapter) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT id, firm_id, email, name, role, created_at, updated_at
		FROM users
		WHERE firm_id = $1
		ORDER BY name ASC`

	var rows []userRow
	if err := a.db.SelectContext(ctx, &rows, query, firmID); err != nil {
		return nil, apperr.DatabaseError("list users", err)
	}
	users := make([]*domain.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toDomain()
	}
	return users, nil
}
