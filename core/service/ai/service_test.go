package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/ratelimit"

	"github.com/google/uuid"
)

type fakeLLM struct {
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeLLM) CompleteWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	f.lastPrompt = userPrompt
	return f.reply, f.err
}

type fakeCache struct {
	counters map[string]int64
}

func (c *fakeCache) Get(_ context.Context, _ string) (string, error)           { return "", nil }
func (c *fakeCache) GetJSON(_ context.Context, _ string, _ any) (bool, error)  { return false, nil }
func (c *fakeCache) SetJSON(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}
func (c *fakeCache) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.counters[key]++
	return c.counters[key], nil
}

type fakeEmailRepo struct {
	emails map[uuid.UUID]*domain.Email
}

func (r *fakeEmailRepo) Create(_ context.Context, e *domain.Email) error {
	r.emails[e.ID] = e
	return nil
}

func (r *fakeEmailRepo) GetByID(_ context.Context, firmID, emailID uuid.UUID) (*domain.Email, error) {
	e, ok := r.emails[emailID]
	if !ok || e.FirmID != firmID {
		return nil, apperr.NotFound("email")
	}
	return e, nil
}

func (r *fakeEmailRepo) List(_ context.Context, _ *domain.EmailFilter) ([]*domain.Email, int, error) {
	return nil, 0, nil
}

func (r *fakeEmailRepo) ApplyVerdict(_ context.Context, _, _ uuid.UUID, _ *domain.Verdict, _ string) error {
	return nil
}

func (r *fakeEmailRepo) FindReclassifyCandidates(_ context.Context, _ uuid.UUID, _ string, _ *uuid.UUID) ([]*domain.Email, error) {
	return nil, nil
}

func (r *fakeEmailRepo) UpsertCaseLink(_ context.Context, _ uuid.UUID, _ *domain.EmailCaseLink) error {
	return nil
}

func (r *fakeEmailRepo) ListCaseLinks(_ context.Context, _, _ uuid.UUID) ([]*domain.EmailCaseLink, error) {
	return nil, nil
}

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

func (r *fakeCaseRepo) List(_ context.Context, _ *domain.CaseFilter) ([]*domain.Case, int, error) {
	return nil, 0, nil
}

func (r *fakeCaseRepo) ListActiveByClient(_ context.Context, _, _ uuid.UUID) ([]*domain.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) ListActiveByFirm(_ context.Context, firmID uuid.UUID) ([]*domain.Case, error) {
	var out []*domain.Case
	for _, c := range r.cases {
		if c.FirmID == firmID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) AddThread(_ context.Context, _, _ uuid.UUID, _ string) error { return nil }

func (r *fakeCaseRepo) SetAssignedUsers(_ context.Context, _, _ uuid.UUID, _ []uuid.UUID) error {
	return nil
}

type fakeNoteRepo struct{}

func (r *fakeNoteRepo) Create(_ context.Context, _ *domain.Note) error { return nil }
func (r *fakeNoteRepo) Update(_ context.Context, _ *domain.Note) error { return nil }
func (r *fakeNoteRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeNoteRepo) GetByID(_ context.Context, _, _ uuid.UUID) (*domain.Note, error) {
	return nil, apperr.NotFound("note")
}

func (r *fakeNoteRepo) ListByCase(_ context.Context, _, _ uuid.UUID) ([]*domain.Note, error) {
	return nil, nil
}

type fakeDocRepo struct {
	docs map[uuid.UUID]*domain.Document
}

func (r *fakeDocRepo) Create(_ context.Context, d *domain.Document) error {
	r.docs[d.ID] = d
	return nil
}

func (r *fakeDocRepo) Update(_ context.Context, d *domain.Document) error {
	r.docs[d.ID] = d
	return nil
}

func (r *fakeDocRepo) Delete(_ context.Context, _, docID uuid.UUID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, firmID, docID uuid.UUID) (*domain.Document, error) {
	d, ok := r.docs[docID]
	if !ok || d.FirmID != firmID {
		return nil, apperr.NotFound("document")
	}
	return d, nil
}

func (r *fakeDocRepo) ListByCase(_ context.Context, _, _ uuid.UUID) ([]*domain.Document, error) {
	return nil, nil
}

type fakeBodyRepo struct {
	bodies map[string]*domain.DocumentBody
}

func bodyKey(docID uuid.UUID, version int) string {
	return fmt.Sprintf("%s:%d", docID, version)
}

func (r *fakeBodyRepo) Put(_ context.Context, b *domain.DocumentBody) error {
	r.bodies[bodyKey(b.DocumentID, b.Version)] = b
	return nil
}

func (r *fakeBodyRepo) Get(_ context.Context, docID uuid.UUID, version int) (*domain.DocumentBody, error) {
	b, ok := r.bodies[bodyKey(docID, version)]
	if !ok {
		return nil, apperr.NotFound("document version")
	}
	return b, nil
}

func (r *fakeBodyRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fixture struct {
	firmID    uuid.UUID
	partner   *authz.Actor
	paralegal *authz.Actor
	kase      *domain.Case
	email     *domain.Email
	llm       *fakeLLM
	docs      *fakeDocRepo
	bodies    *fakeBodyRepo
	svc       *Service
}

func newFixture(quota int64) *fixture {
	firmID := uuid.New()
	partner := &authz.Actor{UserID: uuid.New(), FirmID: firmID, Role: domain.RolePartner}
	paralegal := &authz.Actor{UserID: uuid.New(), FirmID: firmID, Role: domain.RoleParalegal}

	kase := &domain.Case{
		ID:            uuid.New(),
		FirmID:        firmID,
		ReferenceCode: "2024-CIV-0042",
		Title:         "Severance dispute",
		Status:        domain.CaseStatusOpen,
	}
	email := &domain.Email{
		ID:          uuid.New(),
		FirmID:      firmID,
		FromAddress: "opposing@counsel.example",
		Subject:     "Settlement proposal",
		Snippet:     "We propose to settle for the amount discussed.",
		CaseID:      &kase.ID,
	}

	llm := &fakeLLM{reply: "generated text"}
	limiter := ratelimit.NewFixedWindowLimiter(
		&fakeCache{counters: map[string]int64{}}, "quota:test", quota, time.Hour)
	docs := &fakeDocRepo{docs: map[uuid.UUID]*domain.Document{}}
	bodies := &fakeBodyRepo{bodies: map[string]*domain.DocumentBody{}}

	return &fixture{
		firmID:    firmID,
		partner:   partner,
		paralegal: paralegal,
		kase:      kase,
		email:     email,
		llm:       llm,
		docs:      docs,
		bodies:    bodies,
		svc: NewService(
			llm,
			limiter,
			&fakeEmailRepo{emails: map[uuid.UUID]*domain.Email{email.ID: email}},
			&fakeCaseRepo{cases: map[uuid.UUID]*domain.Case{kase.ID: kase}},
			&fakeNoteRepo{},
			docs,
			bodies,
		),
	}
}

func TestDraftReplyGroundsInLinkedCase(t *testing.T) {
	fx := newFixture(10)

	draft, err := fx.svc.DraftReply(context.Background(), fx.partner, fx.email.ID, &in.DraftOptions{Tone: "formal"})
	if err != nil {
		t.Fatalf("DraftReply: %v", err)
	}
	if draft != "generated text" {
		t.Errorf("draft = %q", draft)
	}
	if !strings.Contains(fx.llm.lastPrompt, fx.kase.ReferenceCode) {
		t.Errorf("prompt should mention the linked matter, got:\n%s", fx.llm.lastPrompt)
	}
	if !strings.Contains(fx.llm.lastPrompt, "formal") {
		t.Errorf("prompt should carry the requested tone")
	}
}

func TestGenerationQuotaExhausted(t *testing.T) {
	fx := newFixture(1)
	ctx := context.Background()

	if _, err := fx.svc.DraftReply(ctx, fx.partner, fx.email.ID, nil); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	_, err := fx.svc.DraftReply(ctx, fx.partner, fx.email.ID, nil)
	if apperr.AsAppError(err).Code != apperr.CodeRateLimited {
		t.Errorf("over-quota generation: code = %v, want RATE_LIMITED", err)
	}
}

func TestSuggestClassificationRequiresFullAccess(t *testing.T) {
	fx := newFixture(10)

	_, err := fx.svc.SuggestClassification(context.Background(), fx.paralegal, fx.email.ID)
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Errorf("paralegal suggestion: code = %v, want FORBIDDEN", err)
	}
}

func TestDraftDocumentRequiresCaseAccess(t *testing.T) {
	fx := newFixture(10)
	ctx := context.Background()
	req := &in.DraftDocumentRequest{Kind: domain.DocumentPleading, Title: "Answer to complaint"}

	_, err := fx.svc.DraftDocument(ctx, fx.paralegal, fx.kase.ID, req)
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Errorf("unassigned paralegal: code = %v, want FORBIDDEN", err)
	}

	draft, err := fx.svc.DraftDocument(ctx, fx.partner, fx.kase.ID, req)
	if err != nil {
		t.Fatalf("partner draft: %v", err)
	}
	if draft == "" {
		t.Error("partner draft empty")
	}
	if !strings.Contains(fx.llm.lastPrompt, "pleading") {
		t.Errorf("prompt should name the document kind, got:\n%s", fx.llm.lastPrompt)
	}
}

func TestParseTasksRejectsEmptyText(t *testing.T) {
	fx := newFixture(10)

	_, err := fx.svc.ParseTasks(context.Background(), fx.partner, &in.ParseTasksRequest{Text: "  "})
	if apperr.AsAppError(err).Code != apperr.CodeMissingField {
		t.Errorf("empty text: code = %v, want MISSING_FIELD", err)
	}
}

func TestCompareVersionsPromptsWithBothBodies(t *testing.T) {
	fx := newFixture(10)
	ctx := context.Background()

	doc := &domain.Document{
		ID:       uuid.New(),
		FirmID:   fx.firmID,
		CaseID:   fx.kase.ID,
		Title:    "Settlement agreement",
		Kind:     domain.DocumentContract,
		Version:  2,
		AuthorID: fx.partner.UserID,
	}
	fx.docs.docs[doc.ID] = doc
	fx.bodies.Put(ctx, &domain.DocumentBody{DocumentID: doc.ID, Version: 1, Content: "payment within 60 days"})
	fx.bodies.Put(ctx, &domain.DocumentBody{DocumentID: doc.ID, Version: 2, Content: "payment within 30 days"})

	if _, err := fx.svc.CompareVersions(ctx, fx.partner, doc.ID, 1, 2); err != nil {
		t.Fatalf("CompareVersions: %v", err)
	}
	if !strings.Contains(fx.llm.lastPrompt, "60 days") || !strings.Contains(fx.llm.lastPrompt, "30 days") {
		t.Errorf("prompt should contain both versions, got:\n%s", fx.llm.lastPrompt)
	}

	if _, err := fx.svc.CompareVersions(ctx, fx.partner, doc.ID, 2, 2); apperr.AsAppError(err).Code != apperr.CodeBadUserInput {
		t.Errorf("equal versions: code = %v, want BAD_USER_INPUT", err)
	}
}

func TestCompareVersionsPrivateDocumentHidden(t *testing.T) {
	fx := newFixture(10)
	ctx := context.Background()

	fx.kase.AssignedUserIDs = []uuid.UUID{fx.paralegal.UserID}
	doc := &domain.Document{
		ID:       uuid.New(),
		FirmID:   fx.firmID,
		CaseID:   fx.kase.ID,
		Title:    "Strategy memo",
		Kind:     domain.DocumentMemo,
		Private:  true,
		AuthorID: fx.partner.UserID,
	}
	fx.docs.docs[doc.ID] = doc
	fx.bodies.Put(ctx, &domain.DocumentBody{DocumentID: doc.ID, Version: 1, Content: "v1"})
	fx.bodies.Put(ctx, &domain.DocumentBody{DocumentID: doc.ID, Version: 2, Content: "v2"})

	_, err := fx.svc.CompareVersions(ctx, fx.paralegal, doc.ID, 1, 2)
	if apperr.AsAppError(err).Code != apperr.CodeNotFound {
		t.Errorf("non-author on private document: code = %v, want NOT_FOUND", err)
	}
}

func TestCompareVersionsWithoutBodyStore(t *testing.T) {
	fx := newFixture(10)
	fx.svc.bodies = nil

	_, err := fx.svc.CompareVersions(context.Background(), fx.partner, uuid.New(), 1, 2)
	if apperr.AsAppError(err).Code != apperr.CodeServiceUnavailable {
		t.Errorf("no body store: code = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestUpstreamFailureSurfacesAsUnavailable(t *testing.T) {
	fx := newFixture(10)
	fx.llm.err = errors.New("connection refused")

	_, err := fx.svc.Research(context.Background(), fx.partner, &in.ResearchRequest{Query: "limitation periods for wage claims"})
	if apperr.AsAppError(err).Code != apperr.CodeServiceUnavailable {
		t.Errorf("upstream failure: code = %v, want SERVICE_UNAVAILABLE", err)
	}
}
