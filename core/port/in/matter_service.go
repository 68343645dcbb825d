package in

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type MatterService interface {
	CreateCase(ctx context.Context, actor *authz.Actor, req *CreateCaseRequest) (*domain.Case, error)
	UpdateCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *UpdateCaseRequest) (*domain.Case, error)
	GetCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) (*domain.Case, error)
	ListCases(ctx context.Context, actor *authz.Actor, filter *domain.CaseFilter) ([]*domain.Case, int, error)
	AssignUsers(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, userIDs []uuid.UUID) error

	CreateNote(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *CreateNoteRequest) (*domain.Note, error)
	UpdateNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID, req *UpdateNoteRequest) (*domain.Note, error)
	DeleteNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID) error
	GetNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID) (*domain.Note, error)
	ListNotes(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.Note, error)
}

type CreateCaseRequest struct {
	ClientID      *uuid.UUID  `json:"client_id,omitempty"`
	ReferenceCode string      `json:"reference_code"`
	Title         string      `json:"title"`
	Description   *string     `json:"description,omitempty"`
	AssignedUsers []uuid.UUID `json:"assigned_users,omitempty"`
}

type UpdateCaseRequest struct {
	Title         *string            `json:"title,omitempty"`
	Description   *string            `json:"description,omitempty"`
	ReferenceCode *string            `json:"reference_code,omitempty"`
	Status        *domain.CaseStatus `json:"status,omitempty"`
}

type CreateNoteRequest struct {
	Body    string `json:"body"`
	Private bool   `json:"private,omitempty"`
}

type UpdateNoteRequest struct {
	Body    *string `json:"body,omitempty"`
	Private *bool   `json:"private,omitempty"`
}
