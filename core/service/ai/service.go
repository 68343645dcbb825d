// Package ai provides assisted drafting and research: reply drafts, case
// summaries, classification suggestions, task parsing, document drafting,
// clause suggestions, version comparison, and research queries. Generation
// is quota-limited per user and never writes back to the mailroom.
package ai

import (
	"context"
	"fmt"
	"strings"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"
	"lexflow_server/pkg/ratelimit"

	"github.com/google/uuid"
)

const systemPrompt = "You are a drafting assistant for a law firm. " +
	"Be precise, formal, and concise. Never invent facts, case numbers, or deadlines."

type Service struct {
	llm     out.LLM
	limiter *ratelimit.FixedWindowLimiter
	emails  out.EmailRepository
	cases   out.CaseRepository
	notes   out.NoteRepository
	docs    out.DocumentRepository

	// bodies is nil when no document body store is configured; version
	// comparison is then unavailable while the other operations still work.
	bodies out.DocumentBodyRepository
}

func NewService(
	llm out.LLM,
	limiter *ratelimit.FixedWindowLimiter,
	emails out.EmailRepository,
	cases out.CaseRepository,
	notes out.NoteRepository,
	docs out.DocumentRepository,
	bodies out.DocumentBodyRepository,
) *Service {
	return &Service{
		llm:     llm,
		limiter: limiter,
		emails:  emails,
		cases:   cases,
		notes:   notes,
		docs:    docs,
		bodies:  bodies,
	}
}

func (s *Service) DraftReply(ctx context.Context, actor *authz.Actor, emailID uuid.UUID, opts *in.DraftOptions) (string, error) {
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}
	email, err := s.emails.GetByID(ctx, actor.FirmID, emailID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Draft a reply to the following email.\n\n")
	fmt.Fprintf(&b, "From: %s\nSubject: %s\n", email.FromAddress, email.Subject)
	if email.Snippet != "" {
		fmt.Fprintf(&b, "Body excerpt:\n%s\n", email.Snippet)
	}
	if email.CaseID != nil {
		if c, err := s.cases.GetByID(ctx, actor.FirmID, *email.CaseID); err == nil && actor.CanAccessCase(c) {
			fmt.Fprintf(&b, "\nRelated matter: %s (%s), status %s.\n", c.Title, c.ReferenceCode, c.Status)
		}
	}
	if opts != nil {
		if opts.Tone != "" {
			fmt.Fprintf(&b, "\nTone: %s.\n", opts.Tone)
		}
		if opts.Language != "" {
			fmt.Fprintf(&b, "Write the reply in %s.\n", opts.Language)
		}
		if opts.Instructions != "" {
			fmt.Fprintf(&b, "Additional instructions: %s\n", opts.Instructions)
		}
	}

	return s.complete(ctx, b.String())
}

func (s *Service) SummarizeCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) (string, error) {
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return "", err
	}
	if !actor.CanAccessCase(c) {
		return "", apperr.Forbidden("not assigned to this case")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the current state of matter %s (%s), status %s.\n",
		c.Title, c.ReferenceCode, c.Status)
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}

	if notes, err := s.notes.ListByCase(ctx, actor.FirmID, caseID); err == nil {
		count := 0
		for _, n := range notes {
			if !n.VisibleTo(actor.UserID) {
				continue
			}
			if count == 0 {
				b.WriteString("\nRecent notes:\n")
			}
			fmt.Fprintf(&b, "- %s\n", n.Body)
			count++
			if count >= 10 {
				break
			}
		}
	}

	if emails, _, err := s.emails.List(ctx, &domain.EmailFilter{
		FirmID: actor.FirmID,
		CaseID: &caseID,
		Limit:  10,
	}); err == nil && len(emails) > 0 {
		b.WriteString("\nRecent correspondence subjects:\n")
		for _, e := range emails {
			fmt.Fprintf(&b, "- %s (from %s)\n", e.Subject, e.FromAddress)
		}
	}

	return s.complete(ctx, b.String())
}

// SuggestClassification asks the model where an uncertain email likely
// belongs. The answer is advisory text for the reviewer, never a verdict.
func (s *Service) SuggestClassification(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) (string, error) {
	if !actor.FullAccess() {
		return "", apperr.Forbidden("mailroom review requires a full-access role")
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}
	email, err := s.emails.GetByID(ctx, actor.FirmID, emailID)
	if err != nil {
		return "", err
	}

	activeCases, err := s.cases.ListActiveByFirm(ctx, actor.FirmID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("An incoming email could not be routed automatically. " +
		"Suggest which matter it most likely belongs to, with a short rationale, " +
		"or say that none fits.\n\n")
	fmt.Fprintf(&b, "From: %s\nSubject: %s\n", email.FromAddress, email.Subject)
	if email.Snippet != "" {
		fmt.Fprintf(&b, "Body excerpt:\n%s\n", email.Snippet)
	}
	b.WriteString("\nOpen matters:\n")
	for i, c := range activeCases {
		if i >= 25 {
			b.WriteString("- ...\n")
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.ReferenceCode, c.Title)
	}

	return s.complete(ctx, b.String())
}

// ParseTasks extracts actionable tasks from free text. The output is a plain
// task list for the user to review, not persisted anywhere.
func (s *Service) ParseTasks(ctx context.Context, actor *authz.Actor, req *in.ParseTasksRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return "", apperr.MissingField("text")
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Extract the actionable tasks from the following text. " +
		"List each task on its own line with any deadline or responsible person " +
		"mentioned. If the text contains no tasks, say so.\n\n")
	b.WriteString(req.Text)

	return s.complete(ctx, b.String())
}

func (s *Service) DraftDocument(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *in.DraftDocumentRequest) (string, error) {
	if req == nil || req.Title == "" {
		return "", apperr.MissingField("title")
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, caseID)
	if err != nil {
		return "", err
	}
	if !actor.CanAccessCase(c) {
		return "", apperr.Forbidden("not assigned to this case")
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.DocumentOther
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft a %s titled %q for matter %s (%s), status %s.\n",
		kind, req.Title, c.Title, c.ReferenceCode, c.Status)
	if c.Description != "" {
		fmt.Fprintf(&b, "Matter description: %s\n", c.Description)
	}
	if req.Instructions != "" {
		fmt.Fprintf(&b, "\nInstructions: %s\n", req.Instructions)
	}
	b.WriteString("\nMark any fact you do not know with a [PLACEHOLDER].\n")

	return s.complete(ctx, b.String())
}

func (s *Service) SuggestClauses(ctx context.Context, actor *authz.Actor, req *in.ClauseRequest) (string, error) {
	if req == nil || req.Subject == "" {
		return "", apperr.MissingField("subject")
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.DocumentContract
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggest clauses for a %s concerning: %s.\n", kind, req.Subject)
	if req.Jurisdiction != "" {
		fmt.Fprintf(&b, "Jurisdiction: %s.\n", req.Jurisdiction)
	}
	b.WriteString("For each clause give a short heading, the proposed wording, " +
		"and one line on what it protects against.\n")

	return s.complete(ctx, b.String())
}

// CompareVersions fetches two stored versions of a document and asks the
// model what changed in substance between them.
func (s *Service) CompareVersions(ctx context.Context, actor *authz.Actor, docID uuid.UUID, fromVersion, toVersion int) (string, error) {
	if fromVersion < 1 || toVersion < 1 {
		return "", apperr.BadUserInput("versions must be positive")
	}
	if fromVersion == toVersion {
		return "", apperr.BadUserInput("versions must differ")
	}
	if s.bodies == nil {
		return "", apperr.ServiceUnavailable("document storage", nil)
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}

	doc, err := s.docs.GetByID(ctx, actor.FirmID, docID)
	if err != nil {
		return "", err
	}
	c, err := s.cases.GetByID(ctx, actor.FirmID, doc.CaseID)
	if err != nil {
		return "", err
	}
	if !actor.CanReadDocument(c, doc) {
		return "", apperr.NotFound("document")
	}

	from, err := s.bodies.Get(ctx, docID, fromVersion)
	if err != nil {
		return "", err
	}
	to, err := s.bodies.Get(ctx, docID, toVersion)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compare two versions of the document %q (%s). "+
		"Describe what changed in substance between version %d and version %d: "+
		"added, removed, or altered obligations, parties, amounts, and deadlines. "+
		"Ignore formatting changes.\n", doc.Title, doc.Kind, fromVersion, toVersion)
	fmt.Fprintf(&b, "\n--- Version %d ---\n%s\n", fromVersion, from.Content)
	fmt.Fprintf(&b, "\n--- Version %d ---\n%s\n", toVersion, to.Content)

	return s.complete(ctx, b.String())
}

func (s *Service) Research(ctx context.Context, actor *authz.Actor, req *in.ResearchRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return "", apperr.MissingField("query")
	}
	if err := s.checkQuota(ctx, actor); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Answer the following legal research question. " +
		"Cite the doctrines and authorities you rely on, flag where the law is " +
		"unsettled, and note that the answer needs verification against current sources.\n\n")
	b.WriteString(req.Query)
	if req.Jurisdiction != "" {
		fmt.Fprintf(&b, "\n\nJurisdiction: %s.", req.Jurisdiction)
	}

	return s.complete(ctx, b.String())
}

func (s *Service) checkQuota(ctx context.Context, actor *authz.Actor) error {
	allowed, retryAfter, err := s.limiter.Allow(ctx, actor.UserID)
	if err != nil {
		// A broken counter store must not take generation down with it.
		logger.WithError(err).Warn("quota check failed, allowing request")
		return nil
	}
	if !allowed {
		return apperr.RateLimited("generation quota exhausted", retryAfter)
	}
	return nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	result, err := s.llm.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return "", apperr.ServiceUnavailable("ai service", err)
	}
	return result, nil
}
