// Package classification implements the email-to-case scoring pipeline and
// the contact-change reclassification trigger.
//
// Signals, strongest first, each producing a scored candidate (0.0-1.0):
//
//	Thread continuity  → email thread already linked to a case
//	Reference number   → case docket reference found in subject/snippet
//	Actor/contact      → sender or recipient matches a client contact
//	Domain             → sender domain matches a client contact domain
//
// The best score wins; thresholds decide between a confident case assignment,
// the client inbox, the court_unassigned bucket, and uncertain.
package classification

import (
	"context"
	"strings"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// Signal constants recorded on verdicts for debugging.
const (
	SignalThreadContinuity = "thread-continuity"
	SignalReferenceSubject = "reference-in-subject"
	SignalReferenceBody    = "reference-in-body"
	SignalContactSender    = "contact-sender"
	SignalContactRecipient = "contact-recipient"
	SignalClientDomain     = "client-domain"
	SignalInstitutional    = "institutional-source"
)

// ScorerConfig holds the signal scores and decision thresholds. The numbers
// are tunable configuration, not a contract.
type ScorerConfig struct {
	// ClassifyThreshold: minimum best score for a confident case assignment.
	ClassifyThreshold float64
	// InboxThreshold: minimum score to route to the client inbox instead of
	// uncertain when no case clears ClassifyThreshold.
	InboxThreshold float64

	ThreadScore    float64
	ReferenceScore float64
	ActorScore     float64
	DomainScore    float64
}

// DefaultScorerConfig returns the default scoring configuration.
func DefaultScorerConfig() *ScorerConfig {
	return &ScorerConfig{
		ClassifyThreshold: 0.75,
		InboxThreshold:    0.40,
		ThreadScore:       0.98,
		ReferenceScore:    0.92,
		ActorScore:        0.85,
		DomainScore:       0.60,
	}
}

// ScorerInput carries one email plus the firm data it is scored against.
type ScorerInput struct {
	Email *domain.Email
	// Cases are the firm's active cases considered for assignment.
	Cases []*domain.Case
	// Clients maps client id to client, for actor and domain matching.
	Clients map[uuid.UUID]*domain.Client
	// Sources is the firm's institutional sender registry.
	Sources []*domain.GlobalEmailSource
}

// caseCandidate is one scored case match.
type caseCandidate struct {
	c         *domain.Case
	score     float64
	matchType domain.MatchType
	source    string
	signals   []string
}

// Scorer computes a classification verdict for a single email.
type Scorer struct {
	config *ScorerConfig
}

// NewScorer creates a scorer with the given config (nil for defaults).
func NewScorer(config *ScorerConfig) *Scorer {
	if config == nil {
		config = DefaultScorerConfig()
	}
	return &Scorer{config: config}
}

// Score runs all signals over the input and returns a verdict. It never
// returns a partial assignment: either the verdict names a case with
// confidence above the classify threshold, or no case at all.
func (s *Scorer) Score(ctx context.Context, input *ScorerInput) *domain.Verdict {
	best := s.bestCandidate(input)

	if best != nil && best.score >= s.config.ClassifyThreshold {
		caseID := best.c.ID
		verdict := &domain.Verdict{
			State:      domain.StateClassified,
			CaseID:     &caseID,
			Confidence: best.score,
			MatchType:  best.matchType,
			Source:     best.source,
			Signals:    best.signals,
		}
		if best.c.ClientID != nil {
			clientID := *best.c.ClientID
			verdict.ClientID = &clientID
		}
		return verdict
	}

	// No confident case. A client-level match, either a known address or the
	// best candidate's owning client, routes to the client inbox.
	var clientID *uuid.UUID
	score := 0.0
	if client := s.matchClient(input); client != nil {
		id := client.ID
		clientID = &id
		score = s.config.DomainScore
	}
	if best != nil && best.c.ClientID != nil && best.score > score {
		id := *best.c.ClientID
		clientID = &id
		score = best.score
	}
	if clientID != nil && score >= s.config.InboxThreshold {
		return &domain.Verdict{
			State:      domain.StateClientInbox,
			ClientID:   clientID,
			Confidence: score,
			MatchType:  domain.MatchActor,
			Source:     "actor:client-inbox",
			Signals:    []string{SignalContactSender},
		}
	}

	// Institutional senders (courts, notaries, bailiffs) get their own bucket.
	for _, src := range input.Sources {
		if src.MatchesAddress(input.Email.FromAddress) {
			return &domain.Verdict{
				State:      domain.StateCourtUnassigned,
				Confidence: 0,
				MatchType:  domain.MatchActor,
				Source:     "source:" + string(src.Category),
				Signals:    []string{SignalInstitutional},
			}
		}
	}

	return &domain.Verdict{
		State:      domain.StateUncertain,
		Confidence: 0,
		Source:     "none",
	}
}

// bestCandidate evaluates all signals against all cases and keeps the top
// score. Signals are checked strongest-first with an early exit once a
// thread-continuity match is found, since nothing can outscore it.
func (s *Scorer) bestCandidate(input *ScorerInput) *caseCandidate {
	email := input.Email
	var best *caseCandidate

	keep := func(cand *caseCandidate) {
		if best == nil || cand.score > best.score {
			best = cand
		}
	}

	// Thread continuity
	if email.ThreadID != "" {
		for _, c := range input.Cases {
			if c.HasThread(email.ThreadID) {
				keep(&caseCandidate{
					c:         c,
					score:     s.config.ThreadScore,
					matchType: domain.MatchThreadContinuity,
					source:    "thread:continuity",
					signals:   []string{SignalThreadContinuity},
				})
				return best
			}
		}
	}

	// Reference number containment in subject, then snippet
	subject := strings.ToLower(email.Subject)
	snippet := strings.ToLower(email.Snippet)
	for _, c := range input.Cases {
		if c.ReferenceCode == "" {
			continue
		}
		ref := strings.ToLower(c.ReferenceCode)
		if strings.Contains(subject, ref) {
			keep(&caseCandidate{
				c:         c,
				score:     s.config.ReferenceScore,
				matchType: domain.MatchReferenceNumber,
				source:    "reference:subject",
				signals:   []string{SignalReferenceSubject},
			})
		} else if snippet != "" && strings.Contains(snippet, ref) {
			keep(&caseCandidate{
				c:         c,
				score:     s.config.ReferenceScore - 0.05,
				matchType: domain.MatchReferenceNumber,
				source:    "reference:body",
				signals:   []string{SignalReferenceBody},
			})
		}
	}

	// Actor/contact match: sender or recipient is a known client contact
	sender := strings.ToLower(email.FromAddress)
	for _, c := range input.Cases {
		if c.ClientID == nil {
			continue
		}
		client, ok := input.Clients[*c.ClientID]
		if !ok {
			continue
		}
		if client.HasAddress(sender) {
			keep(&caseCandidate{
				c:         c,
				score:     s.config.ActorScore,
				matchType: domain.MatchActor,
				source:    "actor:contact-email",
				signals:   []string{SignalContactSender},
			})
			continue
		}
		for _, p := range email.Participants() {
			if p != sender && client.HasAddress(p) {
				keep(&caseCandidate{
					c:         c,
					score:     s.config.ActorScore - 0.05,
					matchType: domain.MatchActor,
					source:    "actor:contact-recipient",
					signals:   []string{SignalContactRecipient},
				})
				break
			}
		}
	}

	// Domain-level match, weakest; stored as an actor match
	senderDomain := email.SenderDomain()
	if senderDomain != "" {
		for _, c := range input.Cases {
			if c.ClientID == nil {
				continue
			}
			client, ok := input.Clients[*c.ClientID]
			if !ok {
				continue
			}
			for _, d := range client.KnownDomains() {
				if d == senderDomain {
					keep(&caseCandidate{
						c:         c,
						score:     s.config.DomainScore,
						matchType: domain.MatchActor,
						source:    "actor:domain",
						signals:   []string{SignalClientDomain},
					})
					break
				}
			}
		}
	}

	return best
}

// matchClient finds a client whose known addresses include any participant.
func (s *Scorer) matchClient(input *ScorerInput) *domain.Client {
	for _, p := range input.Email.Participants() {
		for _, client := range input.Clients {
			if client.HasAddress(p) {
				return client
			}
		}
	}
	return nil
}
