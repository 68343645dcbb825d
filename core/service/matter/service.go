// Package matter manages cases and their notes.
package matter

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

type Service struct {
	cases out.CaseRepository
	notes out.NoteRepository
	users out.UserRepository
}

func NewService(cases out.CaseRepository, notes out.NoteRepository, users out.UserRepository) *Service {
	return &Service{
		cases: cases,
		notes: notes,
		users: users,
	}
}

func (s *Service) CreateCase(ctx context.Context, actor *authz.Actor, req *in.CreateCaseRequest) (*domain.Case, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("case management requires a full-access role")
	}
	if req.Title == "" {
		return nil, apperr.MissingField("title")
	}
	if req.ReferenceCode == "" {
		return nil, apperr.MissingField("reference_code")
	}

	now := time.Now()
	c := &domain.Case{
		ID:              uuid.New(),
		FirmID:          actor.FirmID,
		ClientID:        req.ClientID,
		ReferenceCode:   req.ReferenceCode,
		Title:           req.Title,
		Status:          domain.CaseStatusOpen,
		AssignedUserIDs: req.AssignedUsers,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Description != nil {
		c.Description = *req.Description
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *in.UpdateCaseRequest) (*domain.Case, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("case management requires a full-access role")
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.ReferenceCode != nil {
		c.ReferenceCode = *req.ReferenceCode
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	c.UpdatedAt = time.Now()

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}
	return c, nil
}

// ListCases narrows the filter to the actor's visibility before querying.
func (s *Service) ListCases(ctx context.Context, actor *authz.Actor, filter *domain.CaseFilter) ([]*domain.Case, int, error) {
	filter.FirmID = actor.FirmID
	if !actor.FullAccess() {
		userID := actor.UserID
		filter.AssignedUserID = &userID
	}
	return s.cases.List(ctx, filter)
}

func (s *Service) AssignUsers(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, userIDs []uuid.UUID) error {
	if !actor.FullAccess() {
		return apperr.Forbidden("case assignment requires a full-access role")
	}
	if _, err := s.cases.GetByID(ctx, actor.FirmID, caseID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := s.users.GetByID(ctx, actor.FirmID, userID); err != nil {
			return err
		}
	}
	return s.cases.SetAssignedUsers(ctx, actor.FirmID, caseID, userIDs)
}

func (s *Service) CreateNote(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *in.CreateNoteRequest) (*domain.Note, error) {
	if _, err := s.GetCase(ctx, actor, caseID); err != nil {
		return nil, err
	}
	if req.Body == "" {
		return nil, apperr.MissingField("body")
	}

	now := time.Now()
	n := &domain.Note{
		ID:        uuid.New(),
		FirmID:    actor.FirmID,
		CaseID:    caseID,
		AuthorID:  actor.UserID,
		Body:      req.Body,
		Private:   req.Private,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID, req *in.UpdateNoteRequest) (*domain.Note, error) {
	n, err := s.notes.GetByID(ctx, actor.FirmID, noteID)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != actor.UserID {
		return nil, apperr.Forbidden("only the author may edit a note")
	}

	if req.Body != nil {
		n.Body = *req.Body
	}
	if req.Private != nil {
		n.Private = *req.Private
	}
	n.UpdatedAt = time.Now()

	if err := s.notes.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID) error {
	n, err := s.notes.GetByID(ctx, actor.FirmID, noteID)
	if err != nil {
		return err
	}
	if n.AuthorID != actor.UserID && !actor.FullAccess() {
		return apperr.Forbidden("only the author may delete a note")
	}
	return s.notes.Delete(ctx, actor.FirmID, noteID)
}

func (s *Service) GetNote(ctx context.Context, actor *authz.Actor, noteID uuid.UUID) (*domain.Note, error) {
	n, err := s.notes.GetByID(ctx, actor.FirmID, noteID)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, n.CaseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadNote(c, n) {
		return nil, apperr.Forbidden("note is not visible to this user")
	}
	return n, nil
}

// ListNotes returns the case's notes the actor may read; private notes by
// other authors are filtered out rather than erroring.
func (s *Service) ListNotes(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) ([]*domain.Note, error) {
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(c) {
		return nil, apperr.Forbidden("not assigned to this case")
	}

	all, err := s.notes.ListByCase(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	visible := make([]*domain.Note, 0, len(all))
	for _, n := range all {
		if n.VisibleTo(actor.UserID) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}
