package classification

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

// In-memory repositories backing the reclassification tests.

type memEmailRepo struct {
	emails map[uuid.UUID]*domain.Email
	links  map[string]*domain.EmailCaseLink
}

func newMemEmailRepo(emails ...*domain.Email) *memEmailRepo {
	r := &memEmailRepo{
		emails: make(map[uuid.UUID]*domain.Email),
		links:  make(map[string]*domain.EmailCaseLink),
	}
	for _, e := range emails {
		r.emails[e.ID] = e
	}
	return r
}

func (r *memEmailRepo) Create(_ context.Context, e *domain.Email) error {
	r.emails[e.ID] = e
	return nil
}

func (r *memEmailRepo) GetByID(_ context.Context, firmID, emailID uuid.UUID) (*domain.Email, error) {
	e, ok := r.emails[emailID]
	if !ok || e.FirmID != firmID {
		return nil, apperr.NotFound("email")
	}
	return e, nil
}

func (r *memEmailRepo) List(_ context.Context, _ *domain.EmailFilter) ([]*domain.Email, int, error) {
	return nil, 0, nil
}

func (r *memEmailRepo) ApplyVerdict(_ context.Context, firmID, emailID uuid.UUID, v *domain.Verdict, classifiedBy string) error {
	e, ok := r.emails[emailID]
	if !ok || e.FirmID != firmID {
		return apperr.NotFound("email")
	}
	now := time.Now()
	e.State = v.State
	e.Confidence = v.Confidence
	e.CaseID = v.CaseID
	if v.ClientID != nil {
		e.ClientID = v.ClientID
	}
	if v.MatchType != "" {
		mt := v.MatchType
		e.MatchType = &mt
	} else {
		e.MatchType = nil
	}
	e.ClassifiedAt = &now
	e.ClassifiedBy = classifiedBy
	return nil
}

func (r *memEmailRepo) FindReclassifyCandidates(_ context.Context, firmID uuid.UUID, address string, clientID *uuid.UUID) ([]*domain.Email, error) {
	matches := func(e *domain.Email) bool {
		if d := strings.TrimPrefix(address, "@"); d != address {
			return e.SenderDomain() == d
		}
		return e.Involves(address)
	}

	var out []*domain.Email
	for _, e := range r.emails {
		if e.FirmID != firmID || e.CaseID != nil || !matches(e) {
			continue
		}
		switch e.State {
		case domain.StatePending, domain.StateUncertain:
			out = append(out, e)
		case domain.StateClientInbox:
			if clientID != nil && e.ClientID != nil && *e.ClientID == *clientID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (r *memEmailRepo) UpsertCaseLink(_ context.Context, _ uuid.UUID, link *domain.EmailCaseLink) error {
	r.links[link.EmailID.String()+"/"+link.CaseID.String()] = link
	return nil
}

func (r *memEmailRepo) ListCaseLinks(_ context.Context, _, emailID uuid.UUID) ([]*domain.EmailCaseLink, error) {
	var out []*domain.EmailCaseLink
	for _, l := range r.links {
		if l.EmailID == emailID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memCaseRepo struct {
	cases map[uuid.UUID]*domain.Case
}

func newMemCaseRepo(cases ...*domain.Case) *memCaseRepo {
	r := &memCaseRepo{cases: make(map[uuid.UUID]*domain.Case)}
	for _, c := range cases {
		r.cases[c.ID] = c
	}
	return r
}

func (r *memCaseRepo) Create(_ context.Context, c *domain.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *memCaseRepo) Update(_ context.Context, c *domain.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *memCaseRepo) GetByID(_ context.Context, firmID, caseID uuid.UUID) (*domain.Case, error) {
	c, ok := r.cases[caseID]
	if !ok || c.FirmID != firmID {
		return nil, apperr.NotFound("case")
	}
	return c, nil
}

func (r *memCaseRepo) List(_ context.Context, _ *domain.CaseFilter) ([]*domain.Case, int, error) {
	return nil, 0, nil
}

func (r *memCaseRepo) ListActiveByClient(_ context.Context, firmID, clientID uuid.UUID) ([]*domain.Case, error) {
	var out []*domain.Case
	for _, c := range r.cases {
		if c.FirmID == firmID && c.ClientID != nil && *c.ClientID == clientID && c.Status.Active() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCaseRepo) ListActiveByFirm(_ context.Context, firmID uuid.UUID) ([]*domain.Case, error) {
	var out []*domain.Case
	for _, c := range r.cases {
		if c.FirmID == firmID && c.Status.Active() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCaseRepo) AddThread(_ context.Context, firmID, caseID uuid.UUID, threadID string) error {
	c, ok := r.cases[caseID]
	if !ok || c.FirmID != firmID {
		return apperr.NotFound("case")
	}
	if !c.HasThread(threadID) {
		c.ThreadIDs = append(c.ThreadIDs, threadID)
	}
	return nil
}

func (r *memCaseRepo) SetAssignedUsers(_ context.Context, firmID, caseID uuid.UUID, userIDs []uuid.UUID) error {
	c, ok := r.cases[caseID]
	if !ok || c.FirmID != firmID {
		return apperr.NotFound("case")
	}
	c.AssignedUserIDs = userIDs
	return nil
}

type memClientRepo struct {
	clients map[uuid.UUID]*domain.Client
}

func newMemClientRepo(clients ...*domain.Client) *memClientRepo {
	r := &memClientRepo{clients: make(map[uuid.UUID]*domain.Client)}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *memClientRepo) Create(_ context.Context, c *domain.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *memClientRepo) Update(_ context.Context, c *domain.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *memClientRepo) Delete(_ context.Context, _, clientID uuid.UUID) error {
	delete(r.clients, clientID)
	return nil
}

func (r *memClientRepo) GetByID(_ context.Context, firmID, clientID uuid.UUID) (*domain.Client, error) {
	c, ok := r.clients[clientID]
	if !ok || c.FirmID != firmID {
		return nil, apperr.NotFound("client")
	}
	return c, nil
}

func (r *memClientRepo) List(_ context.Context, _ *domain.ClientFilter) ([]*domain.Client, int, error) {
	return nil, 0, nil
}

func (r *memClientRepo) GetByAddress(_ context.Context, firmID uuid.UUID, address string) (*domain.Client, error) {
	for _, c := range r.clients {
		if c.FirmID == firmID && c.HasAddress(address) {
			return c, nil
		}
	}
	return nil, apperr.NotFound("client")
}

func (r *memClientRepo) UpdateContacts(_ context.Context, firmID, clientID uuid.UUID, contacts []domain.ContactEntry) error {
	c, ok := r.clients[clientID]
	if !ok || c.FirmID != firmID {
		return apperr.NotFound("client")
	}
	c.Contacts = contacts
	return nil
}

type memSourceRepo struct {
	sources []*domain.GlobalEmailSource
}

func (r *memSourceRepo) Create(_ context.Context, s *domain.GlobalEmailSource) error {
	r.sources = append(r.sources, s)
	return nil
}

func (r *memSourceRepo) Update(_ context.Context, _ *domain.GlobalEmailSource) error { return nil }

func (r *memSourceRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *memSourceRepo) GetByID(_ context.Context, _, _ uuid.UUID) (*domain.GlobalEmailSource, error) {
	return nil, apperr.NotFound("source")
}

func (r *memSourceRepo) ListByFirm(_ context.Context, firmID uuid.UUID) ([]*domain.GlobalEmailSource, error) {
	var out []*domain.GlobalEmailSource
	for _, s := range r.sources {
		if s.FirmID == firmID {
			out = append(out, s)
		}
	}
	return out, nil
}

type reclassifyFixture struct {
	firmID  uuid.UUID
	client  *domain.Client
	emails  *memEmailRepo
	cases   *memCaseRepo
	clients *memClientRepo
	sources *memSourceRepo
	recl    *Reclassifier
}

func newReclassifyFixture(activeCases int, pendingEmails ...*domain.Email) *reclassifyFixture {
	firmID := uuid.New()
	client := &domain.Client{
		ID:           uuid.New(),
		FirmID:       firmID,
		Name:         "Acme GmbH",
		PrimaryEmail: "legal@acme.example",
	}
	clientID := client.ID

	cases := newMemCaseRepo()
	for i := 0; i < activeCases; i++ {
		c := &domain.Case{
			ID:            uuid.New(),
			FirmID:        firmID,
			ClientID:      &clientID,
			ReferenceCode: fmt.Sprintf("2024-COM-%04d", i+1),
			Status:        domain.CaseStatusOpen,
		}
		cases.cases[c.ID] = c
	}

	for _, e := range pendingEmails {
		e.FirmID = firmID
	}
	emails := newMemEmailRepo(pendingEmails...)
	clients := newMemClientRepo(client)
	sources := &memSourceRepo{}

	service := NewService(nil, emails, cases, clients, sources)
	return &reclassifyFixture{
		firmID:  firmID,
		client:  client,
		emails:  emails,
		cases:   cases,
		clients: clients,
		sources: sources,
		recl:    NewReclassifier(service, emails, cases, clients),
	}
}

func pendingEmail(from string) *domain.Email {
	return &domain.Email{
		ID:          uuid.New(),
		MessageID:   uuid.NewString(),
		Subject:     "question about our matter",
		FromAddress: from,
		State:       domain.StatePending,
	}
}

func TestReclassifySingleActiveCase(t *testing.T) {
	e1 := pendingEmail("legal@acme.example")
	e2 := pendingEmail("legal@acme.example")
	fx := newReclassifyFixture(1, e1, e2)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "legal@acme.example",
		ClientID:   &fx.client.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, e := range []*domain.Email{e1, e2} {
		if e.State != domain.StateClassified {
			t.Errorf("email %s state = %v, want classified", e.ID, e.State)
		}
		if e.Confidence != AutoAssignConfidence {
			t.Errorf("confidence = %v, want %v", e.Confidence, AutoAssignConfidence)
		}
		if e.MatchType == nil || *e.MatchType != domain.MatchActor {
			t.Errorf("matchType = %v, want actor", e.MatchType)
		}
		if e.ClassifiedBy != domain.ClassifiedByContactMatch {
			t.Errorf("classifiedBy = %q, want %q", e.ClassifiedBy, domain.ClassifiedByContactMatch)
		}
		links, _ := fx.emails.ListCaseLinks(context.Background(), fx.firmID, e.ID)
		if len(links) != 1 {
			t.Errorf("case links = %d, want 1", len(links))
		}
	}
}

func TestReclassifyMultipleActiveCases(t *testing.T) {
	e := pendingEmail("legal@acme.example")
	fx := newReclassifyFixture(3, e)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "legal@acme.example",
		ClientID:   &fx.client.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// With several candidate cases the scorer decides; the candidate must end
	// classified or in the client inbox, never back in pending.
	switch e.State {
	case domain.StateClassified, domain.StateClientInbox:
	default:
		t.Errorf("state = %v, want classified or client_inbox", e.State)
	}
	if e.State == domain.StatePending {
		t.Errorf("candidate left in pending after reclassification")
	}
	if e.State == domain.StateClientInbox && (e.ClientID == nil || *e.ClientID != fx.client.ID) {
		t.Errorf("client inbox verdict must carry the owning client")
	}
}

func TestReclassifyZeroActiveCases(t *testing.T) {
	e := pendingEmail("legal@acme.example")
	fx := newReclassifyFixture(0, e)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "legal@acme.example",
		ClientID:   &fx.client.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if e.State != domain.StatePending {
		t.Errorf("state = %v, want unchanged pending with no active cases", e.State)
	}
	if e.CaseID != nil {
		t.Errorf("no case must be assigned with zero active cases")
	}
}

func TestReclassifyUnknownAddress(t *testing.T) {
	e := pendingEmail("stranger@elsewhere.example")
	fx := newReclassifyFixture(1, e)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "stranger@elsewhere.example",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if e.State != domain.StatePending {
		t.Errorf("state = %v, want unchanged when address resolves to no client", e.State)
	}
}

func TestReclassifyIdempotent(t *testing.T) {
	e := pendingEmail("legal@acme.example")
	fx := newReclassifyFixture(1, e)
	job := &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "legal@acme.example",
		ClientID:   &fx.client.ID,
	}

	for i := 0; i < 3; i++ {
		if err := fx.recl.Run(context.Background(), job); err != nil {
			t.Fatalf("Run #%d: %v", i+1, err)
		}
	}

	if e.State != domain.StateClassified {
		t.Fatalf("state = %v, want classified", e.State)
	}
	links, _ := fx.emails.ListCaseLinks(context.Background(), fx.firmID, e.ID)
	if len(links) != 1 {
		t.Errorf("case links after repeated runs = %d, want 1", len(links))
	}
}

func TestReclassifyCaseDirected(t *testing.T) {
	e := pendingEmail("cfo@acme.example")
	fx := newReclassifyFixture(2, e)

	var target *domain.Case
	for _, c := range fx.cases.cases {
		target = c
		break
	}

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "cfo@acme.example",
		CaseID:     &target.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if e.State != domain.StateClassified {
		t.Fatalf("state = %v, want classified", e.State)
	}
	if e.CaseID == nil || *e.CaseID != target.ID {
		t.Errorf("case-directed trigger must assign the named case")
	}
}

func TestSourceSweepRoutesToCourtBucket(t *testing.T) {
	e := pendingEmail("zustellung@ag-berlin.example")
	fx := newReclassifyFixture(1, e)

	src := &domain.GlobalEmailSource{
		ID:       uuid.New(),
		FirmID:   fx.firmID,
		Name:     "AG Berlin",
		Category: domain.SourceCourt,
		Domains:  []string{"ag-berlin.example"},
	}
	fx.sources.Create(context.Background(), src)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "@ag-berlin.example",
		SourceID:   &src.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if e.State != domain.StateCourtUnassigned {
		t.Errorf("state = %v, want court_unassigned after source sweep", e.State)
	}
	if e.CaseID != nil {
		t.Errorf("source sweep must not assign a case")
	}
	if e.ClassifiedBy != domain.ClassifiedByAuto {
		t.Errorf("classifiedBy = %q, want %q", e.ClassifiedBy, domain.ClassifiedByAuto)
	}
}

func TestSourceSweepExactAddress(t *testing.T) {
	matched := pendingEmail("notar@kanzlei-nord.example")
	other := pendingEmail("info@kanzlei-nord.example")
	fx := newReclassifyFixture(0, matched, other)

	src := &domain.GlobalEmailSource{
		ID:        uuid.New(),
		FirmID:    fx.firmID,
		Name:      "Notariat Nord",
		Category:  domain.SourceNotary,
		Addresses: []string{"notar@kanzlei-nord.example"},
	}
	fx.sources.Create(context.Background(), src)

	err := fx.recl.Run(context.Background(), &ReclassifyJob{
		FirmID:     fx.firmID,
		NewAddress: "notar@kanzlei-nord.example",
		SourceID:   &src.ID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if matched.State != domain.StateCourtUnassigned {
		t.Errorf("matched sender state = %v, want court_unassigned", matched.State)
	}
	if other.State != domain.StatePending {
		t.Errorf("non-matching sender state = %v, want unchanged pending", other.State)
	}
}

func TestReclassifyRejectsEmptyJob(t *testing.T) {
	fx := newReclassifyFixture(1)
	err := fx.recl.Run(context.Background(), &ReclassifyJob{FirmID: fx.firmID})
	if !apperr.IsAppError(err) {
		t.Fatalf("expected app error for job without addresses, got %v", err)
	}
}
