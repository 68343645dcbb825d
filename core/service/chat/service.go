// Package chat runs the firm team channel on top of the chat broker.
package chat

import (
	"context"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/core/port/out"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
)

const (
	// DefaultChannel is the firm-wide channel used when none is named.
	DefaultChannel = "general"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxBodyLength       = 4000
)

type Service struct {
	broker out.ChatBroker
	users  out.UserRepository
}

func NewService(broker out.ChatBroker, users out.UserRepository) *Service {
	return &Service{
		broker: broker,
		users:  users,
	}
}

func (s *Service) Send(ctx context.Context, actor *authz.Actor, req *in.SendMessageRequest) (*domain.ChatMessage, error) {
	if req.Body == "" {
		return nil, apperr.MissingField("body")
	}
	if len(req.Body) > maxBodyLength {
		return nil, apperr.BadUserInput("message too long")
	}

	channel := req.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	msg := &domain.ChatMessage{
		ID:       uuid.New(),
		FirmID:   actor.FirmID,
		Channel:  channel,
		SenderID: actor.UserID,
		Body:     req.Body,
		CaseID:   req.CaseID,
		SentAt:   time.Now(),
	}
	if sender, err := s.users.GetByID(ctx, actor.FirmID, actor.UserID); err == nil {
		msg.SenderName = sender.Name
	}

	if err := s.broker.Publish(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) History(ctx context.Context, actor *authz.Actor, channel string, limit int) ([]*domain.ChatMessage, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.broker.History(ctx, actor.FirmID, channel, limit)
}

func (s *Service) Subscribe(ctx context.Context, actor *authz.Actor, handler func(*domain.ChatMessage)) (func(), error) {
	return s.broker.Subscribe(ctx, actor.FirmID, handler)
}
