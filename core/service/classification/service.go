package classification

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/out"
	"lexflow_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service runs classification passes: it loads the firm data a scorer pass
// needs, scores, and persists the verdict.
type Service struct {
	scorer  *Scorer
	emails  out.EmailRepository
	cases   out.CaseRepository
	clients out.ClientRepository
	sources out.SourceRepository
}

// NewService creates a classification service.
func NewService(
	config *ScorerConfig,
	emails out.EmailRepository,
	cases out.CaseRepository,
	clients out.ClientRepository,
	sources out.SourceRepository,
) *Service {
	return &Service{
		scorer:  NewScorer(config),
		emails:  emails,
		cases:   cases,
		clients: clients,
		sources: sources,
	}
}

// ClassifyEmail scores one email against the firm's active cases and persists
// the verdict. On scoring failure the email is routed to the client inbox (if
// a client is known) or uncertain, never left pending and never partially
// assigned.
func (s *Service) ClassifyEmail(ctx context.Context, firmID, emailID uuid.UUID) (*domain.Verdict, error) {
	email, err := s.emails.GetByID(ctx, firmID, emailID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.ScoreAgainstFirm(ctx, email, nil)
	if err != nil {
		logger.WithError(err).
			WithField("email_id", emailID.String()).
			Error("classification pass failed, routing to fallback state")
		verdict = fallbackVerdict(email)
	}

	if err := s.Apply(ctx, email, verdict, domain.ClassifiedByAuto); err != nil {
		return nil, err
	}
	return verdict, nil
}

// ScoreAgainstFirm builds the scorer input for an email and scores it.
// restrictCases, when non-nil, limits candidates (used by reclassification
// when the owning client is already known).
func (s *Service) ScoreAgainstFirm(ctx context.Context, email *domain.Email, restrictCases []*domain.Case) (*domain.Verdict, error) {
	cases := restrictCases
	var sources []*domain.GlobalEmailSource

	g, gctx := errgroup.WithContext(ctx)
	if cases == nil {
		g.Go(func() error {
			var err error
			cases, err = s.cases.ListActiveByFirm(gctx, email.FirmID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		sources, err = s.sources.ListByFirm(gctx, email.FirmID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clients := make(map[uuid.UUID]*domain.Client)
	for _, c := range cases {
		if c.ClientID == nil {
			continue
		}
		if _, ok := clients[*c.ClientID]; ok {
			continue
		}
		client, err := s.clients.GetByID(ctx, email.FirmID, *c.ClientID)
		if err != nil {
			return nil, err
		}
		clients[client.ID] = client
	}

	return s.scorer.Score(ctx, &ScorerInput{
		Email:   email,
		Cases:   cases,
		Clients: clients,
		Sources: sources,
	}), nil
}

// Apply persists a verdict: overwrites the email's classification columns,
// and for assignments records the case link and thread. Overwrites are
// idempotent, so re-applying an identical verdict changes nothing.
func (s *Service) Apply(ctx context.Context, email *domain.Email, verdict *domain.Verdict, classifiedBy string) error {
	if err := s.emails.ApplyVerdict(ctx, email.FirmID, email.ID, verdict, classifiedBy); err != nil {
		return err
	}

	if !verdict.Assigned() {
		return nil
	}

	link := &domain.EmailCaseLink{
		EmailID:    email.ID,
		CaseID:     *verdict.CaseID,
		Confidence: verdict.Confidence,
		MatchType:  verdict.MatchType,
	}
	if err := s.emails.UpsertCaseLink(ctx, email.FirmID, link); err != nil {
		return err
	}

	if email.ThreadID != "" {
		if err := s.cases.AddThread(ctx, email.FirmID, *verdict.CaseID, email.ThreadID); err != nil {
			// Thread bookkeeping is an optimization for future passes; the
			// assignment itself already stands.
			logger.WithError(err).
				WithField("case_id", verdict.CaseID.String()).
				Warn("failed to record case thread")
		}
	}
	return nil
}

// fallbackVerdict routes a failed pass to a safe state.
func fallbackVerdict(email *domain.Email) *domain.Verdict {
	if email.ClientID != nil {
		clientID := *email.ClientID
		return &domain.Verdict{
			State:    domain.StateClientInbox,
			ClientID: &clientID,
			Source:   "fallback:error",
		}
	}
	return &domain.Verdict{
		State:  domain.StateUncertain,
		Source: "fallback:error",
	}
}
