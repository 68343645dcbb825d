// Package document manages case documents. Metadata lives in Postgres;
// versioned bodies live in the document body store.
package document

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"

	"github.com/google/uuid"
)

type Service struct {
	docs   out.DocumentRepository
	bodies out.DocumentBodyRepository
	cases  out.CaseRepository
}

func NewService(docs out.DocumentRepository, bodies out.DocumentBodyRepository, cases out.CaseRepository) *Service {
	return &Service{
		docs:   docs,
		bodies: bodies,
		cases:  cases,
	}
}

func (s *Service) CreateDocument(ctx context.Context, actor *authz.Actor, req *in.CreateDocumentRequest) (*domain.Document, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, req.CaseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}
	if req.Title == "" {
		return nil, apperr.MissingField("title")
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.New(),
		FirmID:    actor.FirmID,
		CaseID:    req.CaseID,
		Title:     req.Title,
		Kind:      req.Kind,
		Version:   1,
		Private:   req.Private,
		AuthorID:  actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Kind == "" {
		doc.Kind = domain.DocumentOther
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	body := &domain.DocumentBody{
		DocumentID: doc.ID,
		Version:    1,
		Content:    req.Content,
		UpdatedAt:  now,
	}
	if err := s.bodies.Put(ctx, body); err != nil {
		// Roll the metadata back so no document points at a missing body.
		if delErr := s.docs.Delete(ctx, actor.FirmID, doc.ID); delErr != nil {
			logger.WithError(delErr).
				WithField("document_id", doc.ID.String()).
				Error("failed to roll back document metadata")
		}
		return nil, err
	}
	return doc, nil
}

// UpdateContent writes a new body version and bumps the metadata version.
// Old versions stay readable.
func (s *Service) UpdateContent(ctx context.Context, actor *authz.Actor, docID uuid.UUID, content string) (*domain.Document, error) {
	doc, err := s.load(ctx, actor, docID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	next := doc.Version + 1
	if err := s.bodies.Put(ctx, &domain.DocumentBody{
		DocumentID: doc.ID,
		Version:    next,
		Content:    content,
		UpdatedAt:  now,
	}); err != nil {
		return nil, err
	}

	doc.Version = next
	doc.UpdatedAt = now
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, actor *authz.Actor, docID uuid.UUID) (*domain.Document, *domain.DocumentBody, error) {
	doc, err := s.load(ctx, actor, docID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.bodies.Get(ctx, doc.ID, doc.Version)
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}

// ListDocuments returns the case's documents the actor may see; private
// documents by other authors are filtered out.
func (s *Service) ListDocuments(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.Document, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}

	all, err := s.docs.ListByCase(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	visible := make([]*domain.Document, 0, len(all))
	for _, doc := range all {
		if actor.CanReadDocument(c, doc) {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}

func (s *Service) DeleteDocument(ctx context.Context, actor *authz.Actor, docID uuid.UUID) error {
	doc, err := s.load(ctx, actor, docID)
	if err != nil {
		return err
	}
	if doc.AuthorID != actor.UserID && !actor.FullAccess() {
		return apperr.Forbidden("only the author may delete a document")
	}

	if err := s.docs.Delete(ctx, actor.FirmID, docID); err != nil {
		return err
	}
	if err := s.bodies.Delete(ctx, docID); err != nil {
		// Orphaned bodies are harmless; the metadata row is already gone.
		logger.WithError(err).
			WithField("document_id", docID.String()).
			Warn("failed to delete document body")
	}
	return nil
}

func (s *Service) load(ctx context.Context, actor *authz.Actor, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, actor.FirmID, docID)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, doc.CaseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadDocument(c, doc) {
		return nil, apperr.Forbidden("document is not visible to this user")
	}
	return doc, nil
}
