package directory

import (
	"context"
	"testing"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

type memClientRepo struct {
	clients map[uuid.UUID]*domain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: make(map[uuid.UUID]*domain.Client)}
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

func (r *memClientRepo) GetByAddress(_ context.Context, _ uuid.UUID, _ string) (*domain.Client, error) {
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
	sources map[uuid.UUID]*domain.GlobalEmailSource
}

func newMemSourceRepo() *memSourceRepo {
	return &memSourceRepo{sources: make(map[uuid.UUID]*domain.GlobalEmailSource)}
}

func (r *memSourceRepo) Create(_ context.Context, src *domain.GlobalEmailSource) error {
	r.sources[src.ID] = src
	return nil
}

func (r *memSourceRepo) Update(_ context.Context, src *domain.GlobalEmailSource) error {
	r.sources[src.ID] = src
	return nil
}

func (r *memSourceRepo) Delete(_ context.Context, _, sourceID uuid.UUID) error {
	delete(r.sources, sourceID)
	return nil
}

func (r *memSourceRepo) GetByID(_ context.Context, firmID, sourceID uuid.UUID) (*domain.GlobalEmailSource, error) {
	src, ok := r.sources[sourceID]
	if !ok || src.FirmID != firmID {
		return nil, apperr.NotFound("source")
	}
	return src, nil
}

func (r *memSourceRepo) ListByFirm(_ context.Context, firmID uuid.UUID) ([]*domain.GlobalEmailSource, error) {
	var out []*domain.GlobalEmailSource
	for _, src := range r.sources {
		if src.FirmID == firmID {
			out = append(out, src)
		}
	}
	return out, nil
}

type reclassifyCall struct {
	oldAddress string
	newAddress string
	clientID   *uuid.UUID
	caseID     *uuid.UUID
}

type sweepCall struct {
	sourceID uuid.UUID
	pattern  string
}

type memProducer struct {
	reclassifies []reclassifyCall
	sweeps       []sweepCall
}

func (p *memProducer) PublishClassify(_ context.Context, _, _ uuid.UUID) error { return nil }

func (p *memProducer) PublishReclassify(_ context.Context, _ uuid.UUID, oldAddress, newAddress string, clientID, caseID *uuid.UUID) error {
	p.reclassifies = append(p.reclassifies, reclassifyCall{
		oldAddress: oldAddress,
		newAddress: newAddress,
		clientID:   clientID,
		caseID:     caseID,
	})
	return nil
}

func (p *memProducer) PublishSourceSweep(_ context.Context, _ uuid.UUID, sourceID uuid.UUID, pattern string) error {
	p.sweeps = append(p.sweeps, sweepCall{sourceID: sourceID, pattern: pattern})
	return nil
}

type fixture struct {
	firmID   uuid.UUID
	partner  *authz.Actor
	producer *memProducer
	svc      *Service
}

func newFixture() *fixture {
	firmID := uuid.New()
	producer := &memProducer{}
	return &fixture{
		firmID:   firmID,
		partner:  &authz.Actor{UserID: uuid.New(), FirmID: firmID, Role: domain.RolePartner},
		producer: producer,
		svc:      NewService(newMemClientRepo(), newMemSourceRepo(), producer),
	}
}

func strPtr(s string) *string { return &s }

func TestCreateClientEnqueuesReclassify(t *testing.T) {
	fx := newFixture()

	c, err := fx.svc.CreateClient(context.Background(), fx.partner, &in.CreateClientRequest{
		Name:         "Acme GmbH",
		PrimaryEmail: strPtr("Legal@Acme.example"),
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if c.PrimaryEmail != "legal@acme.example" {
		t.Errorf("primary email = %q, want lowercased", c.PrimaryEmail)
	}
	if len(fx.producer.reclassifies) != 1 {
		t.Fatalf("reclassify jobs = %d, want 1", len(fx.producer.reclassifies))
	}
	job := fx.producer.reclassifies[0]
	if job.newAddress != "legal@acme.example" || job.clientID == nil || *job.clientID != c.ID {
		t.Errorf("job = %+v, want new address bound to the client", job)
	}
}

func TestAddContactEnqueuesReclassify(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	c, err := fx.svc.CreateClient(ctx, fx.partner, &in.CreateClientRequest{Name: "Acme GmbH"})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	caseID := uuid.New()
	if _, err := fx.svc.AddContact(ctx, fx.partner, c.ID, &in.ContactEntryRequest{
		Name:   "Jordan Weiss",
		Email:  strPtr("jweiss@acme.example"),
		CaseID: &caseID,
	}); err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	if len(fx.producer.reclassifies) != 1 {
		t.Fatalf("reclassify jobs = %d, want 1", len(fx.producer.reclassifies))
	}
	job := fx.producer.reclassifies[0]
	if job.newAddress != "jweiss@acme.example" {
		t.Errorf("job address = %q", job.newAddress)
	}
	if job.caseID == nil || *job.caseID != caseID {
		t.Errorf("contact's case must be carried into the job")
	}
}

func TestCreateSourceSweepsRegisteredPatterns(t *testing.T) {
	fx := newFixture()

	src, err := fx.svc.CreateSource(context.Background(), fx.partner, &in.SourceRequest{
		Name:      "AG Berlin",
		Category:  domain.SourceCourt,
		Domains:   []string{"AG-Berlin.example"},
		Addresses: []string{"zustellung@ag-berlin.example"},
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}

	if len(fx.producer.sweeps) != 2 {
		t.Fatalf("sweep jobs = %d, want one per address and domain", len(fx.producer.sweeps))
	}
	patterns := map[string]bool{}
	for _, sweep := range fx.producer.sweeps {
		if sweep.sourceID != src.ID {
			t.Errorf("sweep source = %s, want %s", sweep.sourceID, src.ID)
		}
		patterns[sweep.pattern] = true
	}
	if !patterns["zustellung@ag-berlin.example"] || !patterns["@ag-berlin.example"] {
		t.Errorf("sweep patterns = %v, want the address and the @domain form", patterns)
	}
}

func TestUpdateSourceSweepsOnlyOnPatternChange(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	src, err := fx.svc.CreateSource(ctx, fx.partner, &in.SourceRequest{
		Name:    "AG Berlin",
		Domains: []string{"ag-berlin.example"},
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	fx.producer.sweeps = nil

	// A rename touches no pattern and triggers nothing.
	if _, err := fx.svc.UpdateSource(ctx, fx.partner, src.ID, &in.SourceRequest{Name: "Amtsgericht Berlin"}); err != nil {
		t.Fatalf("UpdateSource rename: %v", err)
	}
	if len(fx.producer.sweeps) != 0 {
		t.Errorf("rename enqueued %d sweeps, want 0", len(fx.producer.sweeps))
	}

	if _, err := fx.svc.UpdateSource(ctx, fx.partner, src.ID, &in.SourceRequest{
		Addresses: []string{"poststelle@ag-berlin.example"},
	}); err != nil {
		t.Fatalf("UpdateSource addresses: %v", err)
	}
	if len(fx.producer.sweeps) == 0 {
		t.Errorf("address change must enqueue a sweep")
	}
}

func TestCreateSourceValidates(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.CreateSource(ctx, fx.partner, &in.SourceRequest{Name: "AG Berlin"})
	if apperr.AsAppError(err).Code != apperr.CodeBadUserInput {
		t.Errorf("no patterns: code = %v, want BAD_USER_INPUT", err)
	}

	paralegal := &authz.Actor{UserID: uuid.New(), FirmID: fx.firmID, Role: domain.RoleParalegal}
	_, err = fx.svc.CreateSource(ctx, paralegal, &in.SourceRequest{
		Name:    "AG Berlin",
		Domains: []string{"ag-berlin.example"},
	})
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Errorf("paralegal: code = %v, want FORBIDDEN", err)
	}
	if len(fx.producer.sweeps) != 0 {
		t.Errorf("no sweep may be enqueued on validation failure")
	}
}

func TestGetClientOtherFirmNotFound(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	c, err := fx.svc.CreateClient(ctx, fx.partner, &in.CreateClientRequest{Name: "Acme GmbH"})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	outsider := &authz.Actor{UserID: uuid.New(), FirmID: uuid.New(), Role: domain.RolePartner}
	if _, err := fx.svc.GetClient(ctx, outsider, c.ID); !apperr.IsNotFound(err) {
		t.Errorf("foreign-firm read: err = %v, want NOT_FOUND", err)
	}
}
