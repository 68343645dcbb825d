package in

import (
	"context"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"

	"github.com/google/uuid"
)

type ChatService interface {
	Send(ctx context.Context, actor *authz.Actor, req *SendMessageRequest) (*domain.ChatMessage, error)
	History(ctx context.Context, actor *authz.Actor, channel string, limit int) ([]*domain.ChatMessage, error)

	// Subscribe delivers every message on the actor's firm channel to handler
	// until the returned cancel func is called.
	Subscribe(ctx context.Context, actor *authz.Actor, handler func(*domain.ChatMessage)) (func(), error)
}

type SendMessageRequest struct {
	Channel string     `json:"channel,omitempty"`
	Body    string     `json:"body"`
	CaseID  *uuid.UUID `json:"case_id,omitempty"`
}
