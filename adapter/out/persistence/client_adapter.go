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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ClientAdapter implements out.ClientRepository using PostgreSQL. Contact
// entries are stored as a jsonb array on the client row.
type ClientAdapter struct {
	db *sqlx.DB
}

func NewClientAdapter(db *sqlx.DB) *ClientAdapter {
	return &ClientAdapter{db: db}
}

const clientSelectColumns = `
	id, firm_id, name, primary_email, phone, contacts, assigned_user_ids,
	created_at, updated_at`

type clientRow struct {
	ID           uuid.UUID `db:"id"`
	FirmID       uuid.UUID `db:"firm_id"`
	Name         string    `db:"name"`
	PrimaryEmail string    `db:"primary_email"`
	Phone        string    `db:"phone"`

	Contacts        []byte         `db:"contacts"`
	AssignedUserIDs pq.StringArray `db:"assigned_user_ids"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *clientRow) toDomain() (*domain.Client, error) {
	c := &domain.Client{
		ID:           r.ID,
		FirmID:       r.FirmID,
		Name:         r.Name,
		PrimaryEmail: r.PrimaryEmail,
		Phone:        r.Phone,
		Contacts:     []domain.ContactEntry{},
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Contacts) > 0 {
		if err := json.Unmarshal(r.Contacts, &c.Contacts); err != nil {
			return nil, fmt.Errorf("unmarshal contacts: %w", err)
		}
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

func marshalContacts(contacts []domain.ContactEntry) ([]byte, error) {
	if contacts == nil {
		contacts = []domain.ContactEntry{}
	}
	return json.Marshal(contacts)
}

func (a *ClientAdapter) Create(ctx context.Context, c *domain.Client) error {
	contacts, err := marshalContacts(c.Contacts)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	query := `
		INSERT INTO clients (id, firm_id, name, primary_email, phone, contacts, assigned_user_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7::uuid[])
		RETURNING created_at, updated_at`

	err = a.db.QueryRowxContext(ctx, query,
		c.ID, c.FirmID, c.Name, strings.ToLower(c.PrimaryEmail), c.Phone,
		contacts, pq.Array(uuidStrings(c.AssignedUserIDs)),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("client")
		}
		return apperr.DatabaseError("create client", err)
	}
	return nil
}

func (a *ClientAdapter) Update(ctx context.Context, c *domain.Client) error {
	query := `
		UPDATE clients SET
			name = $1, primary_email = $2, phone = $3,
			assigned_user_ids = $4::uuid[], updated_at = NOW()
		WHERE id = $5 AND firm_id = $6`

	result, err := a.db.ExecContext(ctx, query,
		c.Name, strings.ToLower(c.PrimaryEmail), c.Phone,
		pq.Array(uuidStrings(c.AssignedUserIDs)), c.ID, c.FirmID,
	)
	if err != nil {
		return apperr.DatabaseError("update client", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("client")
	}
	return nil
}

func (a *ClientAdapter) Delete(ctx context.Context, firmID, clientID uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM clients WHERE id = $1 AND firm_id = $2`, clientID, firmID)
	if err != nil {
		return apperr.DatabaseError("delete client", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("client")
	}
	return nil
}

func (a *ClientAdapter) GetByID(ctx context.Context, firmID, clientID uuid.UUID) (*domain.Client, error) {
	query := `SELECT ` + clientSelectColumns + ` FROM clients WHERE id = $1 AND firm_id = $2`

	var row clientRow
	if err := a.db.GetContext(ctx, &row, query, clientID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("client")
		}
		return nil, apperr.DatabaseError("get client", err)
	}
	return row.toDomain()
}

func (a *ClientAdapter) List(ctx context.Context, filter *domain.ClientFilter) ([]*domain.Client, int, error) {
	conds := []string{"firm_id = $1"}
	args := []any{filter.FirmID}

	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+strings.ToLower(*filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR primary_email LIKE $%d)", n, n))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		conds = append(conds, fmt.Sprintf("assigned_user_ids @> ARRAY[$%d]::uuid[]", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM clients
		WHERE %s
		ORDER BY name ASC
		LIMIT %d OFFSET %d`, clientSelectColumns, strings.Join(conds, " AND "), limit, filter.Offset)

	type clientRowWithCount struct {
		clientRow
		TotalCount int `db:"total_count"`
	}
	var rows []clientRowWithCount
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperr.DatabaseError("list clients", err)
	}

	clients := make([]*domain.Client, len(rows))
	total := 0
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, apperr.DatabaseError("map client row", err)
		}
		clients[i] = c
		total = rows[i].TotalCount
	}
	return clients, total, nil
}

// GetByAddress resolves the client owning an address, either the primary
// email or an email inside the contacts jsonb array.
func (a *ClientAdapter) GetByAddress(ctx context.Context, firmID uuid.UUID, address string) (*domain.Client, error) {
	address = strings.ToLower(address)
	query := `
		SELECT ` + clientSelectColumns + `
		FROM clients
		WHERE firm_id = $1
		  AND (primary_email = $2
		       OR EXISTS (
		           SELECT 1 FROM jsonb_array_elements(contacts) AS entry
		           WHERE LOWER(entry->>'email') = $2))
		LIMIT 1`

	var row clientRow
	if err := a.db.GetContext(ctx, &row, query, firmID, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("client")
		}
		return nil, apperr.DatabaseError("get client by address", err)
	}
	return row.toDomain()
}

func (a *ClientAdapter) UpdateContacts(ctx context.Context, firmID, clientID uuid.UUID, contacts []domain.ContactEntry) error {
	payload, err := marshalContacts(contacts)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	result, err := a.db.ExecContext(ctx, `
		UPDATE clients SET contacts = $1, updated_at = NOW()
		WHERE id = $2 AND firm_id = $3`, payload, clientID, firmID)
	if err != nil {
		return apperr.DatabaseError("update contacts", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("client")
	}
	return nil
}
