package matter

import (
	"context"
	"testing"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

type fakeCaseRepo struct {
	cases map[uuid.UUID]*domain.Case
}

func (r *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) GetByID(_ context.Context, firmID, caseID uuid.UUID) (*domain.Case, error) {
	c, ok := r.cases[caseID]
	if !ok || c.FirmID != firmID {
		return nil, apperr.NotFound("case")
	}
	return c, nil
}

func (r *fakeCaseRepo) List(_ context.Context, filter *domain.CaseFilter) ([]*domain.Case, int, error) {
	var out []*domain.Case
	for _, c := range r.cases {
		if c.FirmID != filter.FirmID {
			continue
		}
		if filter.AssignedUserID != nil && !c.IsAssigned(*filter.AssignedUserID) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *fakeCaseRepo) ListActiveByClient(_ context.Context, _, _ uuid.UUID) ([]*domain.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) ListActiveByFirm(_ context.Context, _ uuid.UUID) ([]*domain.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) AddThread(_ context.Context, _, _ uuid.UUID, _ string) error { return nil }

func (r *fakeCaseRepo) SetAssignedUsers(_ context.Context, firmID, caseID uuid.UUID, userIDs []uuid.UUID) error {
	c, ok := r.cases[caseID]
	if !ok || c.FirmID != firmID {
		return apperr.NotFound("case")
	}
	c.AssignedUserIDs = userIDs
	return nil
}

type fakeNoteRepo struct {
	notes map[uuid.UUID]*domain.Note
}

func (r *fakeNoteRepo) Create(_ context.Context, n *domain.Note) error {
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) Update(_ context.Context, n *domain.Note) error {
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, _, noteID uuid.UUID) error {
	delete(r.notes, noteID)
	return nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, firmID, noteID uuid.UUID) (*domain.Note, error) {
	n, ok := r.notes[noteID]
	if !ok || n.FirmID != firmID {
		return nil, apperr.NotFound("note")
	}
	return n, nil
}

func (r *fakeNoteRepo) ListByCase(_ context.Context, firmID, caseID uuid.UUID) ([]*domain.Note, error) {
	var out []*domain.Note
	for _, n := range r.notes {
		if n.FirmID == firmID && n.CaseID == caseID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, firmID, userID uuid.UUID) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok || u.FirmID != firmID {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func (r *fakeUserRepo) ListByFirm(_ context.Context, _ uuid.UUID) ([]*domain.User, error) {
	return nil, nil
}

type fixture struct {
	firmID    uuid.UUID
	partner   *authz.Actor
	paralegal *authz.Actor
	assigned  *domain.Case
	unowned   *domain.Case
	svc       *Service
	notes     *fakeNoteRepo
}

func newFixture() *fixture {
	firmID := uuid.New()
	partner := &authz.Actor{UserID: uuid.New(), FirmID: firmID, Role: domain.RolePartner}
	paralegal := &authz.Actor{UserID: uuid.New(), FirmID: firmID, Role: domain.RoleParalegal}

	assigned := &domain.Case{
		ID:              uuid.New(),
		FirmID:          firmID,
		ReferenceCode:   "2024-CIV-0001",
		Title:           "Assigned matter",
		Status:          domain.CaseStatusOpen,
		AssignedUserIDs: []uuid.UUID{paralegal.UserID},
	}
	unowned := &domain.Case{
		ID:            uuid.New(),
		FirmID:        firmID,
		ReferenceCode: "2024-CIV-0002",
		Title:         "Partner-only matter",
		Status:        domain.CaseStatusOpen,
	}

	cases := &fakeCaseRepo{cases: map[uuid.UUID]*domain.Case{assigned.ID: assigned, unowned.ID: unowned}}
	notes := &fakeNoteRepo{notes: map[uuid.UUID]*domain.Note{}}
	users := &fakeUserRepo{users: map[uuid.UUID]*domain.User{
		partner.UserID:   {ID: partner.UserID, FirmID: firmID, Role: domain.RolePartner},
		paralegal.UserID: {ID: paralegal.UserID, FirmID: firmID, Role: domain.RoleParalegal},
	}}

	return &fixture{
		firmID:    firmID,
		partner:   partner,
		paralegal: paralegal,
		assigned:  assigned,
		unowned:   unowned,
		svc:       NewService(cases, notes, users),
		notes:     notes,
	}
}

func TestCreateNoteRequiresCaseAccess(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	req := &in.CreateNoteRequest{Body: "call the clerk tomorrow"}

	if _, err := fx.svc.CreateNote(ctx, fx.partner, fx.unowned.ID, req); err != nil {
		t.Errorf("partner on any firm case: %v", err)
	}
	if _, err := fx.svc.CreateNote(ctx, fx.paralegal, fx.assigned.ID, req); err != nil {
		t.Errorf("paralegal on assigned case: %v", err)
	}

	_, err := fx.svc.CreateNote(ctx, fx.paralegal, fx.unowned.ID, req)
	appErr := apperr.AsAppError(err)
	if appErr.Code != apperr.CodeForbidden {
		t.Errorf("paralegal on unassigned case: code = %s, want FORBIDDEN", appErr.Code)
	}
}

func TestListNotesHidesPrivateNotes(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if _, err := fx.svc.CreateNote(ctx, fx.partner, fx.assigned.ID, &in.CreateNoteRequest{Body: "shared"}); err != nil {
		t.Fatalf("create shared note: %v", err)
	}
	if _, err := fx.svc.CreateNote(ctx, fx.partner, fx.assigned.ID, &in.CreateNoteRequest{Body: "secret", Private: true}); err != nil {
		t.Fatalf("create private note: %v", err)
	}

	mine, err := fx.svc.ListNotes(ctx, fx.partner, fx.assigned.ID)
	if err != nil {
		t.Fatalf("ListNotes as author: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("author sees %d notes, want 2", len(mine))
	}

	theirs, err := fx.svc.ListNotes(ctx, fx.paralegal, fx.assigned.ID)
	if err != nil {
		t.Fatalf("ListNotes as non-author: %v", err)
	}
	if len(theirs) != 1 || theirs[0].Body != "shared" {
		t.Errorf("non-author must see only the shared note, got %d", len(theirs))
	}
}

func TestUpdateNoteAuthorOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	n, err := fx.svc.CreateNote(ctx, fx.paralegal, fx.assigned.ID, &in.CreateNoteRequest{Body: "draft"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body := "edited"
	_, err = fx.svc.UpdateNote(ctx, fx.partner, n.ID, &in.UpdateNoteRequest{Body: &body})
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Errorf("non-author edit must be forbidden, got %v", err)
	}
	if _, err := fx.svc.UpdateNote(ctx, fx.paralegal, n.ID, &in.UpdateNoteRequest{Body: &body}); err != nil {
		t.Errorf("author edit: %v", err)
	}
}

func TestListCasesScopedByRole(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	all, _, err := fx.svc.ListCases(ctx, fx.partner, &domain.CaseFilter{})
	if err != nil {
		t.Fatalf("ListCases partner: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("partner sees %d cases, want 2", len(all))
	}

	scoped, _, err := fx.svc.ListCases(ctx, fx.paralegal, &domain.CaseFilter{})
	if err != nil {
		t.Fatalf("ListCases paralegal: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != fx.assigned.ID {
		t.Errorf("paralegal must see only assigned cases, got %d", len(scoped))
	}
}

func TestCaseManagementRequiresFullAccess(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.CreateCase(ctx, fx.paralegal, &in.CreateCaseRequest{
		ReferenceCode: "2024-CIV-0003",
		Title:         "New matter",
	})
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Errorf("paralegal case creation must be forbidden, got %v", err)
	}

	c, err := fx.svc.CreateCase(ctx, fx.partner, &in.CreateCaseRequest{
		ReferenceCode: "2024-CIV-0003",
		Title:         "New matter",
	})
	if err != nil {
		t.Fatalf("partner case creation: %v", err)
	}
	if c.Status != domain.CaseStatusOpen {
		t.Errorf("new case status = %v, want open", c.Status)
	}
}
