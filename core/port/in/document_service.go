package in

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type DocumentService interface {
	CreateDocument(ctx context.Context, actor *authz.Actor, req *CreateDocumentRequest) (*domain.Document, error)
	UpdateContent(ctx context.Context, actor *authz.Actor, docID uuid.UUID, content string) (*domain.Document, error)
	GetDocument(ctx context.Context, actor *authz.Actor, docID uuid.UUID) (*domain.Document, *domain.DocumentBody, error)
	ListDocuments(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.Document, error)
	DeleteDocument(ctx context.Context, actor *authz.Actor, docID uuid.UUID) error
}

type CreateDocumentRequest struct {
	CaseID  uuid.UUID           `json:"case_id"`
	Title   string              `json:"title"`
	Kind    domain.DocumentKind `json:"kind,omitempty"`
	Private bool                `json:"private,omitempty"`
	Content string              `json:"content"`
}
