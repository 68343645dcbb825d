// Package persistence provides PostgreSQL adapters implementing the outbound
// repository ports.
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

// EmailAdapter implements out.EmailRepository using PostgreSQL.
type EmailAdapter struct {
	db *sqlx.DB
}

func NewEmailAdapter(db *sqlx.DB) *EmailAdapter {
	return &EmailAdapter{db: db}
}

const emailSelectColumns = `
	id, firm_id, message_id, thread_id, subject, snippet,
	from_address, to_addresses, cc_addresses, direction, received_at,
	state, confidence, match_type, case_id, client_id,
	classified_at, classified_by, created_at, updated_at`

type emailRow struct {
	ID        uuid.UUID `db:"id"`
	FirmID    uuid.UUID `db:"firm_id"`
	MessageID string    `db:"message_id"`
	ThreadID  string    `db:"thread_id"`
	Subject   string    `db:"subject"`
	Snippet   string    `db:"snippet"`

	FromAddress string         `db:"from_address"`
	ToAddresses pq.StringArray `db:"to_addresses"`
	CcAddresses pq.StringArray `db:"cc_addresses"`
	Direction   string         `db:"direction"`
	ReceivedAt  time.Time      `db:"received_at"`

	State      string          `db:"state"`
	Confidence float64         `db:"confidence"`
	MatchType  sql.NullString  `db:"match_type"`
	CaseID     uuid.NullUUID   `db:"case_id"`
	ClientID   uuid.NullUUID   `db:"client_id"`

	ClassifiedAt sql.NullTime   `db:"classified_at"`
	ClassifiedBy sql.NullString `db:"classified_by"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *emailRow) toDomain() *domain.Email {
	e := &domain.Email{
		ID:          r.ID,
		FirmID:      r.FirmID,
		MessageID:   r.MessageID,
		ThreadID:    r.ThreadID,
		Subject:     r.Subject,
		Snippet:     r.Snippet,
		FromAddress: r.FromAddress,
		ToAddresses: r.ToAddresses,
		CcAddresses: r.CcAddresses,
		Direction:   domain.Direction(r.Direction),
		ReceivedAt:  r.ReceivedAt,
		State:       domain.EmailState(r.State),
		Confidence:  r.Confidence,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.MatchType.Valid {
		mt := domain.MatchType(r.MatchType.String)
		e.MatchType = &mt
	}
	if r.CaseID.Valid {
		id := r.CaseID.UUID
		e.CaseID = &id
	}
	if r.ClientID.Valid {
		id := r.ClientID.UUID
		e.ClientID = &id
	}
	if r.ClassifiedAt.Valid {
		t := r.ClassifiedAt.Time
		e.ClassifiedAt = &t
	}
	if r.ClassifiedBy.Valid {
		e.ClassifiedBy = r.ClassifiedBy.String
	}
	return e
}

func (a *EmailAdapter) Create(ctx context.Context, email *domain.Email) error {
	query := `
		INSERT INTO emails (
			id, firm_id, message_id, thread_id, subject, snippet,
			from_address, to_addresses, cc_addresses, direction, received_at, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowxContext(ctx, query,
		email.ID, email.FirmID, email.MessageID, email.ThreadID, email.Subject, email.Snippet,
		strings.ToLower(email.FromAddress), pq.Array(lowerAll(email.ToAddresses)),
		pq.Array(lowerAll(email.CcAddresses)), string(email.Direction), email.ReceivedAt,
		string(email.State),
	).Scan(&email.CreatedAt, &email.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("email")
		}
		return apperr.DatabaseError("create email", err)
	}
	return nil
}

func (a *EmailAdapter) GetByID(ctx context.Context, firmID, emailID uuid.UUID) (*domain.Email, error) {
	query := `SELECT ` + emailSelectColumns + ` FROM emails WHERE id = $1 AND firm_id = $2`

	var row emailRow
	if err := a.db.GetContext(ctx, &row, query, emailID, firmID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("email")
		}
		return nil, apperr.DatabaseError("get email", err)
	}
	return row.toDomain(), nil
}

func (a *EmailAdapter) List(ctx context.Context, filter *domain.EmailFilter) ([]*domain.Email, int, error) {
	conds := []string{"firm_id = $1"}
	args := []any{filter.FirmID}

	if filter.State != nil {
		args = append(args, string(*filter.State))
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.CaseID != nil {
		args = append(args, *filter.CaseID)
		conds = append(conds, fmt.Sprintf("case_id = $%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.ThreadID != nil {
		args = append(args, *filter.ThreadID)
		conds = append(conds, fmt.Sprintf("thread_id = $%d", len(args)))
	}
	if filter.Address != nil {
		args = append(args, strings.ToLower(*filter.Address))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(from_address = $%d OR $%d = ANY(to_addresses) OR $%d = ANY(cc_addresses))", n, n, n))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	where := strings.Join(conds, " AND ")
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM emails
		WHERE %s
		ORDER BY received_at DESC
		LIMIT %d OFFSET %d`, emailSelectColumns, where, limit, filter.Offset)

	type emailRowWithCount struct {
		emailRow
		TotalCount int `db:"total_count"`
	}
	var rows []emailRowWithCount
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperr.DatabaseError("list emails", err)
	}

	emails := make([]*domain.Email, len(rows))
	total := 0
	for i := range rows {
		emails[i] = rows[i].toDomain()
		total = rows[i].TotalCount
	}
	return emails, total, nil
}

// ApplyVerdict overwrites the classification columns in one statement so a
// repeated identical verdict is a no-op beyond updated_at.
func (a *EmailAdapter) ApplyVerdict(ctx context.Context, firmID, emailID uuid.UUID, verdict *domain.Verdict, classifiedBy string) error {
	query := `
		UPDATE emails SET
			state = $1,
			confidence = $2,
			match_type = $3,
			case_id = $4,
			client_id = COALESCE($5, client_id),
			classified_at = NOW(),
			classified_by = $6,
			updated_at = NOW()
		WHERE id = $7 AND firm_id = $8`

	var matchType any
	if verdict.MatchType != "" {
		matchType = string(verdict.MatchType)
	}

	result, err := a.db.ExecContext(ctx, query,
		string(verdict.State), verdict.Confidence, matchType,
		verdict.CaseID, verdict.ClientID, classifiedBy,
		emailID, firmID,
	)
	if err != nil {
		return apperr.DatabaseError("apply verdict", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("email")
	}
	return nil
}

func (a *EmailAdapter) FindReclassifyCandidates(ctx context.Context, firmID uuid.UUID, address string, clientID *uuid.UUID) ([]*domain.Email, error) {
	address = strings.ToLower(address)

	// "@domain" patterns match by sender domain; plain addresses match the
	// sender or any recipient exactly.
	addrCond := `(from_address = $2 OR $2 = ANY(to_addresses) OR $2 = ANY(cc_addresses))`
	if trimmed := strings.TrimPrefix(address, "@"); trimmed != address {
		address = trimmed
		addrCond = `split_part(lower(from_address), '@', 2) = $2`
	}

	conds := `state IN ('pending', 'uncertain')`
	args := []any{firmID, address}
	if clientID != nil {
		args = append(args, *clientID)
		conds = `(state IN ('pending', 'uncertain') OR (state = 'client_inbox' AND client_id = $3))`
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM emails
		WHERE firm_id = $1
		  AND case_id IS NULL
		  AND %s
		  AND %s
		ORDER BY received_at ASC`, emailSelectColumns, addrCond, conds)

	var rows []emailRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.DatabaseError("find reclassify candidates", err)
	}
	emails := make([]*domain.Email, len(rows))
	for i := range rows {
		emails[i] = rows[i].toDomain()
	}
	return emails, nil
}

func (a *EmailAdapter) UpsertCaseLink(ctx context.Context, firmID uuid.UUID, link *domain.EmailCaseLink) error {
	query := `
		INSERT INTO email_case_links (firm_id, email_id, case_id, confidence, match_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email_id, case_id) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			match_type = EXCLUDED.match_type`

	if _, err := a.db.ExecContext(ctx, query,
		firmID, link.EmailID, link.CaseID, link.Confidence, string(link.MatchType),
	); err != nil {
		return apperr.DatabaseError("upsert case link", err)
	}
	return nil
}

func (a *EmailAdapter) ListCaseLinks(ctx context.Context, firmID, emailID uuid.UUID) ([]*domain.EmailCaseLink, error) {
	query := `
		SELECT email_id, case_id, confidence, match_type
		FROM email_case_links
		WHERE firm_id = $1 AND email_id = $2
		ORDER BY confidence DESC`

	var links []*domain.EmailCaseLink
	if err := a.db.SelectContext(ctx, &links, query, firmID, emailID); err != nil {
		return nil, apperr.DatabaseError("list case links", err)
	}
	return links, nil
}
