package classification

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/out"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"

	"github.com/google/uuid"
)

// AutoAssignConfidence is the fixed confidence recorded when a contact change
// resolves to a client with exactly one active case.
const AutoAssignConfidence = 0.95

// ReclassifyJob describes one reclassification pass, triggered by a
// contact-data mutation: client email changed, contact entry added or
// updated, or an institutional source registered. A source-triggered job
// carries SourceID and an address pattern in NewAddress ("@domain" sweeps
// every sender at the domain).
type ReclassifyJob struct {
	FirmID     uuid.UUID  `json:"firm_id"`
	OldAddress string     `json:"old_address,omitempty"`
	NewAddress string     `json:"new_address"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	CaseID     *uuid.UUID `json:"case_id,omitempty"`
	SourceID   *uuid.UUID `json:"source_id,omitempty"`
}

// Reclassifier re-runs the scorer over previously pending, uncertain, or
// client-inbox emails matching a changed address. It runs in the background
// worker; all per-email errors are logged and swallowed so a single bad row
// never aborts a pass, and the pass itself is idempotent.
type Reclassifier struct {
	service *Service
	emails  out.EmailRepository
	cases   out.CaseRepository
	clients out.ClientRepository
}

// NewReclassifier creates a reclassification trigger.
func NewReclassifier(
	service *Service,
	emails out.EmailRepository,
	cases out.CaseRepository,
	clients out.ClientRepository,
) *Reclassifier {
	return &Reclassifier{
		service: service,
		emails:  emails,
		cases:   cases,
		clients: clients,
	}
}

// Run executes one reclassification pass. Both the old and the new address
// are swept so mail sent to a client's previous address is re-evaluated too.
func (r *Reclassifier) Run(ctx context.Context, job *ReclassifyJob) error {
	addresses := make([]string, 0, 2)
	if job.NewAddress != "" {
		addresses = append(addresses, job.NewAddress)
	}
	if job.OldAddress != "" && job.OldAddress != job.NewAddress {
		addresses = append(addresses, job.OldAddress)
	}
	if len(addresses) == 0 {
		return apperr.BadUserInput("reclassify job carries no address")
	}

	for _, address := range addresses {
		if err := r.runForAddress(ctx, job, address); err != nil {
			logger.WithError(err).
				WithField("firm_id", job.FirmID.String()).
				WithField("address", address).
				Error("reclassification pass failed")
		}
	}
	return nil
}

func (r *Reclassifier) runForAddress(ctx context.Context, job *ReclassifyJob, address string) error {
	candidates, err := r.emails.FindReclassifyCandidates(ctx, job.FirmID, address, job.ClientID)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	// Source-triggered sweep: there is no owning client, so the full scorer
	// runs again and the new registry entry can claim its waiting mail.
	if job.SourceID != nil {
		for _, email := range candidates {
			r.rescore(ctx, email)
		}
		return nil
	}

	// Case-directed trigger: a contact was registered on a specific case, so
	// every candidate goes straight to it.
	if job.CaseID != nil {
		target, err := r.cases.GetByID(ctx, job.FirmID, *job.CaseID)
		if err != nil {
			return err
		}
		for _, email := range candidates {
			r.assignDirect(ctx, email, target)
		}
		return nil
	}

	client, err := r.clients.GetByAddress(ctx, job.FirmID, address)
	if err != nil {
		if apperr.IsNotFound(err) {
			// Address no longer belongs to any client; leave candidates as
			// they are.
			return nil
		}
		return err
	}

	activeCases, err := r.cases.ListActiveByClient(ctx, job.FirmID, client.ID)
	if err != nil {
		return err
	}

	switch len(activeCases) {
	case 0:
		// Zero active cases: candidate states are left unchanged.
		return nil
	case 1:
		for _, email := range candidates {
			r.assignDirect(ctx, email, activeCases[0])
		}
	default:
		// Multiple active cases: run the full scorer per email, restricted
		// to the client's cases. A verdict below threshold routes to the
		// client inbox rather than back to pending.
		for _, email := range candidates {
			r.scoreAndApply(ctx, email, client, activeCases)
		}
	}
	return nil
}

// rescore runs a plain classification pass over one candidate.
func (r *Reclassifier) rescore(ctx context.Context, email *domain.Email) {
	verdict, err := r.service.ScoreAgainstFirm(ctx, email, nil)
	if err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("source sweep scoring failed")
		return
	}
	if err := r.service.Apply(ctx, email, verdict, domain.ClassifiedByAuto); err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("failed to apply source sweep verdict")
	}
}

// assignDirect attaches an email to the single matching case with the fixed
// contact-match confidence.
func (r *Reclassifier) assignDirect(ctx context.Context, email *domain.Email, target *domain.Case) {
	caseID := target.ID
	verdict := &domain.Verdict{
		State:      domain.StateClassified,
		CaseID:     &caseID,
		Confidence: AutoAssignConfidence,
		MatchType:  domain.MatchActor,
		Source:     "actor:contact-change",
		Signals:    []string{SignalContactSender},
	}
	if target.ClientID != nil {
		clientID := *target.ClientID
		verdict.ClientID = &clientID
	}

	if err := r.service.Apply(ctx, email, verdict, domain.ClassifiedByContactMatch); err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("failed to apply contact-match assignment")
	}
}

func (r *Reclassifier) scoreAndApply(ctx context.Context, email *domain.Email, client *domain.Client, activeCases []*domain.Case) {
	verdict, err := r.service.ScoreAgainstFirm(ctx, email, activeCases)
	if err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("reclassification scoring failed")
		return
	}

	// Never leave a reclassified candidate in pending: an unassigned verdict
	// lands in the owning client's inbox.
	if !verdict.Assigned() {
		clientID := client.ID
		verdict = &domain.Verdict{
			State:      domain.StateClientInbox,
			ClientID:   &clientID,
			Confidence: verdict.Confidence,
			MatchType:  domain.MatchActor,
			Source:     "actor:client-inbox",
			Signals:    verdict.Signals,
		}
	}

	if err := r.service.Apply(ctx, email, verdict, domain.ClassifiedByContactMatch); err != nil {
		logger.WithError(err).
			WithField("email_id", email.ID.String()).
			Error("failed to apply reclassification verdict")
	}
}
