package in

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

// DirectoryService manages clients, their contact entries, and the
// institutional sender registry. Contact-data mutations enqueue background
// reclassification of matching emails.
type DirectoryService interface {
	CreateClient(ctx context.Context, actor *authz.Actor, req *CreateClientRequest) (*domain.Client, error)
	UpdateClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID, req *UpdateClientRequest) (*domain.Client, error)
	DeleteClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID) error
	GetClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID) (*domain.Client, error)
	ListClients(ctx context.Context, actor *authz.Actor, filter *domain.ClientFilter) ([]*domain.Client, int, error)

	AddContact(ctx context.Context, actor *authz.Actor, clientID uuid.UUID, req *ContactEntryRequest) (*domain.Client, error)
	UpdateContact(ctx context.Context, actor *authz.Actor, clientID, contactID uuid.UUID, req *ContactEntryRequest) (*domain.Client, error)
	RemoveContact(ctx context.Context, actor *authz.Actor, clientID, contactID uuid.UUID) (*domain.Client, error)

	CreateSource(ctx context.Context, actor *authz.Actor, req *SourceRequest) (*domain.GlobalEmailSource, error)
	UpdateSource(ctx context.Context, actor *authz.Actor, sourceID uuid.UUID, req *SourceRequest) (*domain.GlobalEmailSource, error)
	DeleteSource(ctx context.Context, actor *authz.Actor, sourceID uuid.UUID) error
	ListSources(ctx context.Context, actor *authz.Actor) ([]*domain.GlobalEmailSource, error)
}

type CreateClientRequest struct {
	Name          string      `json:"name"`
	PrimaryEmail  *string     `json:"primary_email,omitempty"`
	Phone         *string     `json:"phone,omitempty"`
	AssignedUsers []uuid.UUID `json:"assigned_users,omitempty"`
}

type UpdateClientRequest struct {
	Name          *string     `json:"name,omitempty"`
	PrimaryEmail  *string     `json:"primary_email,omitempty"`
	Phone         *string     `json:"phone,omitempty"`
	AssignedUsers []uuid.UUID `json:"assigned_users,omitempty"`
}

// ContactEntryRequest adds or updates one contact entry. CaseID, when set,
// directs matching emails straight to that case instead of re-scoring.
type ContactEntryRequest struct {
	Name   string     `json:"name"`
	Role   *string    `json:"role,omitempty"`
	Email  *string    `json:"email,omitempty"`
	Phone  *string    `json:"phone,omitempty"`
	CaseID *uuid.UUID `json:"case_id,omitempty"`
}

type SourceRequest struct {
	Name      string                `json:"name"`
	Category  domain.SourceCategory `json:"category"`
	Domains   []string              `json:"domains,omitempty"`
	Addresses []string              `json:"addresses,omitempty"`
}
