// Package directory manages clients, their contact entries, and the
// institutional sender registry. Every contact-data mutation enqueues a
// background reclassification of matching emails; the request never waits
// for it.
package directory

import (
	"context"
	"strings"
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
	clients  out.ClientRepository
	sources  out.SourceRepository
	producer out.JobProducer
}

func NewService(clients out.ClientRepository, sources out.SourceRepository, producer out.JobProducer) *Service {
	return &Service{
		clients:  clients,
		sources:  sources,
		producer: producer,
	}
}

func (s *Service) CreateClient(ctx context.Context, actor *authz.Actor, req *in.CreateClientRequest) (*domain.Client, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("client management requires a full-access role")
	}
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}

	now := time.Now()
	c := &domain.Client{
		ID:              uuid.New(),
		FirmID:          actor.FirmID,
		Name:            req.Name,
		Contacts:        []domain.ContactEntry{},
		AssignedUserIDs: req.AssignedUsers,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PrimaryEmail != nil {
		c.PrimaryEmail = strings.ToLower(*req.PrimaryEmail)
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}

	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	if c.PrimaryEmail != "" {
		s.enqueueReclassify(ctx, actor.FirmID, "", c.PrimaryEmail, &c.ID, nil)
	}
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID, req *in.UpdateClientRequest) (*domain.Client, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("client management requires a full-access role")
	}
	c, err := s.clients.GetByID(ctx, actor.FirmID, clientID)
	if err != nil {
		return nil, err
	}

	oldEmail := c.PrimaryEmail
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.PrimaryEmail != nil {
		c.PrimaryEmail = strings.ToLower(*req.PrimaryEmail)
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.AssignedUsers != nil {
		c.AssignedUserIDs = req.AssignedUsers
	}
	c.UpdatedAt = time.Now()

	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	if c.PrimaryEmail != oldEmail {
		s.enqueueReclassify(ctx, actor.FirmID, oldEmail, c.PrimaryEmail, &c.ID, nil)
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID) error {
	if !actor.FullAccess() {
		return apperr.Forbidden("client management requires a full-access role")
	}
	if _, err := s.clients.GetByID(ctx, actor.FirmID, clientID); err != nil {
		return err
	}
	return s.clients.Delete(ctx, actor.FirmID, clientID)
}

func (s *Service) GetClient(ctx context.Context, actor *authz.Actor, clientID uuid.UUID) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, actor.FirmID, clientID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessClient(c) {
		return nil, apperr.Forbidden("not assigned to this client")
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context, actor *authz.Actor, filter *domain.ClientFilter) ([]*domain.Client, int, error) {
	filter.FirmID = actor.FirmID
	if !actor.FullAccess() {
		userID := actor.UserID
		filter.AssignedUserID = &userID
	}
	return s.clients.List(ctx, filter)
}

func (s *Service) AddContact(ctx context.Context, actor *authz.Actor, clientID uuid.UUID, req *in.ContactEntryRequest) (*domain.Client, error) {
	c, err := s.GetClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}

	entry := domain.ContactEntry{
		ID:   uuid.New(),
		Name: req.Name,
	}
	if req.Role != nil {
		entry.Role = *req.Role
	}
	if req.Email != nil {
		entry.Email = strings.ToLower(*req.Email)
	}
	if req.Phone != nil {
		entry.Phone = *req.Phone
	}

	contacts := append(c.Contacts, entry)
	if err := s.clients.UpdateContacts(ctx, actor.FirmID, clientID, contacts); err != nil {
		return nil, err
	}
	c.Contacts = contacts

	if entry.Email != "" {
		s.enqueueReclassify(ctx, actor.FirmID, "", entry.Email, &c.ID, req.CaseID)
	}
	return c, nil
}

func (s *Service) UpdateContact(ctx context.Context, actor *authz.Actor, clientID, contactID uuid.UUID, req *in.ContactEntryRequest) (*domain.Client, error) {
	c, err := s.GetClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, entry := range c.Contacts {
		if entry.ID == contactID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("contact")
	}

	oldEmail := c.Contacts[idx].Email
	if req.Name != "" {
		c.Contacts[idx].Name = req.Name
	}
	if req.Role != nil {
		c.Contacts[idx].Role = *req.Role
	}
	if req.Email != nil {
		c.Contacts[idx].Email = strings.ToLower(*req.Email)
	}
	if req.Phone != nil {
		c.Contacts[idx].Phone = *req.Phone
	}

	if err := s.clients.UpdateContacts(ctx, actor.FirmID, clientID, c.Contacts); err != nil {
		return nil, err
	}

	if c.Contacts[idx].Email != oldEmail {
		s.enqueueReclassify(ctx, actor.FirmID, oldEmail, c.Contacts[idx].Email, &c.ID, req.CaseID)
	}
	return c, nil
}

func (s *Service) RemoveContact(ctx context.Context, actor *authz.Actor, clientID, contactID uuid.UUID) (*domain.Client, error) {
	c, err := s.GetClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	removedEmail := ""
	contacts := make([]domain.ContactEntry, 0, len(c.Contacts))
	for _, entry := range c.Contacts {
		if entry.ID == contactID {
			removedEmail = entry.Email
			continue
		}
		contacts = append(contacts, entry)
	}
	if len(contacts) == len(c.Contacts) {
		return nil, apperr.NotFound("contact")
	}

	if err := s.clients.UpdateContacts(ctx, actor.FirmID, clientID, contacts); err != nil {
		return nil, err
	}
	c.Contacts = contacts

	// Mail previously matched by the removed address gets re-evaluated.
	if removedEmail != "" {
		s.enqueueReclassify(ctx, actor.FirmID, removedEmail, "", &c.ID, nil)
	}
	return c, nil
}

func (s *Service) CreateSource(ctx context.Context, actor *authz.Actor, req *in.SourceRequest) (*domain.GlobalEmailSource, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("source registry requires a full-access role")
	}
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if len(req.Domains) == 0 && len(req.Addresses) == 0 {
		return nil, apperr.BadUserInput("a source needs at least one domain or address")
	}

	now := time.Now()
	src := &domain.GlobalEmailSource{
		ID:        uuid.New(),
		FirmID:    actor.FirmID,
		Name:      req.Name,
		Category:  req.Category,
		Domains:   lowerAll(req.Domains),
		Addresses: lowerAll(req.Addresses),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if src.Category == "" {
		src.Category = domain.SourceOther
	}

	if err := s.sources.Create(ctx, src); err != nil {
		return nil, err
	}
	// Mail already waiting in pending/uncertain gets re-scored so the new
	// registry entry can claim it.
	s.enqueueSourceSweep(ctx, actor.FirmID, src)
	return src, nil
}

func (s *Service) UpdateSource(ctx context.Context, actor *authz.Actor, sourceID uuid.UUID, req *in.SourceRequest) (*domain.GlobalEmailSource, error) {
	if !actor.FullAccess() {
		return nil, apperr.Forbidden("source registry requires a full-access role")
	}
	src, err := s.sources.GetByID(ctx, actor.FirmID, sourceID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		src.Name = req.Name
	}
	if req.Category != "" {
		src.Category = req.Category
	}
	if req.Domains != nil {
		src.Domains = lowerAll(req.Domains)
	}
	if req.Addresses != nil {
		src.Addresses = lowerAll(req.Addresses)
	}
	src.UpdatedAt = time.Now()

	if err := s.sources.Update(ctx, src); err != nil {
		return nil, err
	}
	if req.Domains != nil || req.Addresses != nil {
		s.enqueueSourceSweep(ctx, actor.FirmID, src)
	}
	return src, nil
}

func (s *Service) DeleteSource(ctx context.Context, actor *authz.Actor, sourceID uuid.UUID) error {
	if !actor.FullAccess() {
		return apperr.Forbidden("source registry requires a full-access role")
	}
	if _, err := s.sources.GetByID(ctx, actor.FirmID, sourceID); err != nil {
		return err
	}
	return s.sources.Delete(ctx, actor.FirmID, sourceID)
}

func (s *Service) ListSources(ctx context.Context, actor *authz.Actor) ([]*domain.GlobalEmailSource, error) {
	return s.sources.ListByFirm(ctx, actor.FirmID)
}

// enqueueReclassify publishes the job and only logs failures. Contact updates
// must succeed even when the queue is down; the next update retriggers.
func (s *Service) enqueueReclassify(ctx context.Context, firmID uuid.UUID, oldAddress, newAddress string, clientID, caseID *uuid.UUID) {
	if err := s.producer.PublishReclassify(ctx, firmID, oldAddress, newAddress, clientID, caseID); err != nil {
		logger.WithError(err).
			WithField("firm_id", firmID.String()).
			WithField("address", newAddress).
			Error("failed to enqueue reclassification")
	}
}

// enqueueSourceSweep publishes one sweep job per registered pattern. Like
// contact reclassification, failures are logged only: the registry write
// already succeeded.
func (s *Service) enqueueSourceSweep(ctx context.Context, firmID uuid.UUID, src *domain.GlobalEmailSource) {
	patterns := make([]string, 0, len(src.Addresses)+len(src.Domains))
	patterns = append(patterns, src.Addresses...)
	for _, d := range src.Domains {
		patterns = append(patterns, "@"+d)
	}

	for _, pattern := range patterns {
		if err := s.producer.PublishSourceSweep(ctx, firmID, src.ID, pattern); err != nil {
			logger.WithError(err).
				WithField("firm_id", firmID.String()).
				WithField("pattern", pattern).
				Error("failed to enqueue source sweep")
		}
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, strings.ToLower(v))
	}
	return out
}
