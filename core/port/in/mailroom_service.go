package in

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type MailroomService interface {
	IngestEmail(ctx context.Context, req *IngestEmailRequest) (*domain.Email, error)
	GetEmail(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) (*domain.Email, error)
	ListEmails(ctx context.Context, actor *authz.Actor, filter *domain.EmailFilter) ([]*domain.Email, int, error)
	GetCaseLinks(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) ([]*domain.EmailCaseLink, error)

	// AssignEmail manually attaches an email to a case, overriding any
	// automatic verdict.
	AssignEmail(ctx context.Context, actor *authz.Actor, emailID, caseID uuid.UUID) (*domain.Email, error)

	// RouteToClientInbox manually routes an email to a client's inbox without
	// naming a case.
	RouteToClientInbox(ctx context.Context, actor *authz.Actor, emailID, clientID uuid.UUID) (*domain.Email, error)

	// ReclassifyCase enqueues a sweep attaching unassigned mail from the
	// address to the case. Fire-and-forget; the worker does the attaching.
	ReclassifyCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, address string) error
}

type IngestEmailRequest struct {
	FirmID    uuid.UUID `json:"firm_id"`
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Subject   string    `json:"subject"`
	Snippet   string    `json:"snippet,omitempty"`

	FromAddress string   `json:"from_address"`
	ToAddresses []string `json:"to_addresses"`
	CcAddresses []string `json:"cc_addresses,omitempty"`

	Direction  domain.Direction `json:"direction,omitempty"`
	ReceivedAt *time.Time       `json:"received_at,omitempty"`
}
