// Package mailroom handles email intake and manual routing. Automatic
// classification runs in the background worker; intake only persists the
// email and enqueues the first pass.
package mailroom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/core/service/classification"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// listCacheTTL bounds staleness for list reads served from cache. Manual
// routing bumps the firm's epoch immediately; worker verdicts only age out.
const listCacheTTL = 30 * time.Second

type Service struct {
	emails     out.EmailRepository
	cases      out.CaseRepository
	clients    out.ClientRepository
	classifier *classification.Service
	producer   out.JobProducer

	// cache is optional; a nil cache sends every listing to the database.
	cache  out.Cache
	flight singleflight.Group
}

func NewService(
	emails out.EmailRepository,
	cases out.CaseRepository,
	clients out.ClientRepository,
	classifier *classification.Service,
	producer out.JobProducer,
	cache out.Cache,
) *Service {
	return &Service{
		emails:     emails,
		cases:      cases,
		clients:    clients,
		classifier: classifier,
		producer:   producer,
		cache:      cache,
	}
}

func (s *Service) IngestEmail(ctx context.Context, req *in.IngestEmailRequest) (*domain.Email, error) {
	if req.MessageID == "" {
		return nil, apperr.MissingField("message_id")
	}
	if req.FromAddress == "" {
		return nil, apperr.MissingField("from_address")
	}

	now := time.Now()
	receivedAt := now
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}
	direction := req.Direction
	if direction == "" {
		direction = domain.DirectionInbound
	}

	email := &domain.Email{
		ID:          uuid.New(),
		FirmID:      req.FirmID,
		MessageID:   req.MessageID,
		ThreadID:    req.ThreadID,
		Subject:     req.Subject,
		Snippet:     req.Snippet,
		FromAddress: req.FromAddress,
		ToAddresses: req.ToAddresses,
		CcAddresses: req.CcAddresses,
		Direction:   direction,
		ReceivedAt:  receivedAt,
		State:       domain.StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.emails.Create(ctx, email); err != nil {
		return nil, err
	}

	// Classification runs out of band; intake never waits for a verdict.
	if err := s.producer.PublishClassify(ctx, email.FirmID, email.ID); err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("failed to enqueue classification")
	}
	s.invalidateLists(ctx, email.FirmID)
	return email, nil
}

func (s *Service) GetEmail(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) (*domain.Email, error) {
	email, err := s.emails.GetByID(ctx, actor.FirmID, emailID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailAccess(ctx, actor, email); err != nil {
		return nil, err
	}
	return email, nil
}

// ListEmails applies visibility: full-access roles browse the whole mailroom,
// assignment-based roles only see mail attached to cases they can access.
func (s *Service) ListEmails(ctx context.Context, actor *authz.Actor, filter *domain.EmailFilter) ([]*domain.Email, int, error) {
	filter.FirmID = actor.FirmID

	if !actor.FullAccess() {
		if filter.CaseID == nil {
			return nil, 0, apperr.Forbidden("mailroom browsing requires a full-access role")
		}
		c, err := s.cases.GetByID(ctx, actor.FirmID, *filter.CaseID)
		if err != nil {
			return nil, 0, err
		}
		if !actor.CanAccessCase(c) {
			return nil, 0, apperr.Forbidden("not assigned to this case")
		}
	}
	if s.cache == nil {
		return s.emails.List(ctx, filter)
	}

	// Cached read behind singleflight so concurrent identical queries hit the
	// database once.
	key := s.listCacheKey(ctx, filter)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		var cached cachedEmailList
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}

		emails, total, err := s.emails.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		cached = cachedEmailList{Emails: emails, Total: total}
		if err := s.cache.SetJSON(ctx, key, &cached, listCacheTTL); err != nil {
			logger.WithError(err).Warn("failed to cache email listing")
		}
		return &cached, nil
	})
	if err != nil {
		return nil, 0, err
	}
	list := v.(*cachedEmailList)
	return list.Emails, list.Total, nil
}

type cachedEmailList struct {
	Emails []*domain.Email `json:"emails"`
	Total  int             `json:"total"`
}

// listCacheKey builds the cache key for a listing. The firm's epoch counter
// is part of the key, so bumping the epoch orphans every cached page at once.
func (s *Service) listCacheKey(ctx context.Context, filter *domain.EmailFilter) string {
	epoch, err := s.cache.Get(ctx, listEpochKey(filter.FirmID))
	if err != nil {
		epoch = "0"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mailroom:list:%s:e%s:%d:%d", filter.FirmID, epoch, filter.Limit, filter.Offset)
	if filter.State != nil {
		fmt.Fprintf(&b, ":st=%s", *filter.State)
	}
	if filter.CaseID != nil {
		fmt.Fprintf(&b, ":ca=%s", *filter.CaseID)
	}
	if filter.ClientID != nil {
		fmt.Fprintf(&b, ":cl=%s", *filter.ClientID)
	}
	if filter.ThreadID != nil {
		fmt.Fprintf(&b, ":th=%s", *filter.ThreadID)
	}
	if filter.Address != nil {
		fmt.Fprintf(&b, ":ad=%s", *filter.Address)
	}
	return b.String()
}

func listEpochKey(firmID uuid.UUID) string {
	return "mailroom:list:epoch:" + firmID.String()
}

// invalidateLists bumps the firm's list epoch after a mutation.
func (s *Service) invalidateLists(ctx context.Context, firmID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, listEpochKey(firmID)); err != nil {
		logger.WithError(err).Warn("failed to invalidate email listings")
	}
}

func (s *Service) GetCaseLinks(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) ([]*domain.EmailCaseLink, error) {
	if _, err := s.GetEmail(ctx, actor, emailID); err != nil {
		return nil, err
	}
	return s.emails.ListCaseLinks(ctx, actor.FirmID, emailID)
}

// AssignEmail attaches an email to a case by hand. Manual verdicts carry full
// confidence and overwrite whatever the scorer decided.
func (s *Service) AssignEmail(ctx context.Context, actor *authz.Actor, emailID, caseID uuid.UUID) (*domain.Email, error) {
	email, err := s.emails.GetByID(ctx, actor.FirmID, emailID)
	if err != nil {
		return nil, err
	}
	target, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessCase(target) {
		return nil, apperr.Forbidden("not assigned to this case")
	}

	verdict := &domain.Verdict{
		State:      domain.StateClassified,
		CaseID:     &target.ID,
		Confidence: 1.0,
		MatchType:  domain.MatchManual,
		Source:     "manual:" + actor.UserID.String(),
	}
	if target.ClientID != nil {
		clientID := *target.ClientID
		verdict.ClientID = &clientID
	}

	if err := s.classifier.Apply(ctx, email, verdict, domain.ClassifiedByManual); err != nil {
		return nil, err
	}
	s.invalidateLists(ctx, actor.FirmID)
	return s.emails.GetByID(ctx, actor.FirmID, emailID)
}

func (s *Service) RouteToClientInbox(ctx context.Context, actor *authz.Actor, emailID, clientID uuid.UUID) (*domain.Email, error) {
	email, err := s.emails.GetByID(ctx, actor.FirmID, emailID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, actor.FirmID, clientID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessClient(client) {
		return nil, apperr.Forbidden("not assigned to this client")
	}

	verdict := &domain.Verdict{
		State:      domain.StateClientInbox,
		ClientID:   &client.ID,
		Confidence: 1.0,
		MatchType:  domain.MatchManual,
		Source:     "manual:" + actor.UserID.String(),
	}
	if err := s.classifier.Apply(ctx, email, verdict, domain.ClassifiedByManual); err != nil {
		return nil, err
	}
	s.invalidateLists(ctx, actor.FirmID)
	return s.emails.GetByID(ctx, actor.FirmID, emailID)
}

// ReclassifyCase fires a case-directed reclassification sweep: every
// unassigned email matching the address is attached to the case by the
// background worker. Used when an address is registered on a case after its
// mail already arrived.
func (s *Service) ReclassifyCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, address string) error {
	if address == "" {
		return apperr.MissingField("address")
	}
	target, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return err
	}
	if !actor.CanAccessCase(target) {
		return apperr.Forbidden("not assigned to this case")
	}

	var clientID *uuid.UUID
	if target.ClientID != nil {
		id := *target.ClientID
		clientID = &id
	}
	return s.producer.PublishReclassify(ctx, actor.FirmID, "", address, clientID, &target.ID)
}

func (s *Service) checkEmailAccess(ctx context.Context, actor *authz.Actor, email *domain.Email) error {
	if actor.FullAccess() {
		return nil
	}
	if email.CaseID == nil {
		return apperr.Forbidden("unassigned mail requires a full-access role")
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, *email.CaseID)
	if err != nil {
		return err
	}
	if !actor.CanAccessCase(c) {
		return apperr.Forbidden("not assigned to this case")
	}
	return nil
}
