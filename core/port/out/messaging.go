package out

import (
	"context"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

// JobProducer publishes fire-and-forget background jobs. Callers never wait
// for job completion; failures are logged by the worker, not surfaced.
type JobProducer interface {
	// PublishReclassify enqueues a reclassification pass for emails matching
	// the address within the firm. oldAddress may be empty (new contact);
	// caseID may be non-nil for case-directed reclassification.
	PublishReclassify(ctx context.Context, firmID uuid.UUID, oldAddress, newAddress string, clientID, caseID *uuid.UUID) error

	// PublishClassify enqueues a first-pass classification for one email.
	PublishClassify(ctx context.Context, firmID, emailID uuid.UUID) error

	// PublishSourceSweep enqueues a re-score of unassigned mail matching an
	// institutional source pattern: an exact address, or "@domain" to sweep
	// every sender at the domain.
	PublishSourceSweep(ctx context.Context, firmID, sourceID uuid.UUID, pattern string) error
}

// ChatBroker fans chat messages out to all connected firm members, across
// server instances.
type ChatBroker interface {
	Publish(ctx context.Context, msg *domain.ChatMessage) error
	Subscribe(ctx context.Context, firmID uuid.UUID, handler func(*domain.ChatMessage)) (func(), error)
	History(ctx context.Context, firmID uuid.UUID, channel string, limit int) ([]*domain.ChatMessage, error)
}

// LLM is the outbound port to the AI completion service.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
