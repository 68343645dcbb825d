package in

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type AIService interface {
	// DraftReply generates a reply draft for an email, optionally grounded in
	// the linked case.
	DraftReply(ctx context.Context, actor *authz.Actor, emailID uuid.UUID, opts *DraftOptions) (string, error)

	// SummarizeCase produces a narrative summary of a case from its metadata,
	// recent notes, and classified emails.
	SummarizeCase(ctx context.Context, actor *authz.Actor, caseID uuid.UUID) (string, error)

	// SuggestClassification asks the model for an assignment suggestion for an
	// uncertain email. Advisory only; it never writes a verdict.
	SuggestClassification(ctx context.Context, actor *authz.Actor, emailID uuid.UUID) (string, error)

	// ParseTasks extracts actionable tasks from free text such as a meeting
	// note or a forwarded email body.
	ParseTasks(ctx context.Context, actor *authz.Actor, req *ParseTasksRequest) (string, error)

	// DraftDocument drafts a case document of the requested kind. The draft is
	// returned as text; saving it as a document is the caller's decision.
	DraftDocument(ctx context.Context, actor *authz.Actor, caseID uuid.UUID, req *DraftDocumentRequest) (string, error)

	// SuggestClauses proposes clauses for a document under drafting.
	SuggestClauses(ctx context.Context, actor *authz.Actor, req *ClauseRequest) (string, error)

	// CompareVersions produces a semantic comparison of two stored versions of
	// a document: what changed in meaning, not a textual diff.
	CompareVersions(ctx context.Context, actor *authz.Actor, docID uuid.UUID, fromVersion, toVersion int) (string, error)

	// Research answers a jurisprudence research query.
	Research(ctx context.Context, actor *authz.Actor, req *ResearchRequest) (string, error)
}

type DraftOptions struct {
	Tone         string `json:"tone,omitempty"` // formal, neutral, brief
	Language     string `json:"language,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type ParseTasksRequest struct {
	Text string `json:"text"`
}

type DraftDocumentRequest struct {
	Kind         domain.DocumentKind `json:"kind"`
	Title        string              `json:"title"`
	Instructions string              `json:"instructions,omitempty"`
}

type ClauseRequest struct {
	Kind         domain.DocumentKind `json:"kind"`
	Subject      string              `json:"subject"`
	Jurisdiction string              `json:"jurisdiction,omitempty"`
}

type CompareRequest struct {
	FromVersion int `json:"from_version"`
	ToVersion   int `json:"to_version"`
}

type ResearchRequest struct {
	Query        string `json:"query"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}
