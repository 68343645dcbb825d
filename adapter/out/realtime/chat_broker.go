// Package realtime implements the chat broker on Redis: pub/sub for fan-out
// across server instances, a capped list per channel for history.
package realtime

import (
	"context"
	"fmt"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const historyCap = 500

// ChatBroker implements out.ChatBroker.
type ChatBroker struct {
	client *redis.Client
}

func NewChatBroker(client *redis.Client) *ChatBroker {
	return &ChatBroker{client: client}
}

func pubsubChannel(firmID uuid.UUID) string {
	return fmt.Sprintf("chat:firm:%s", firmID)
}

func historyKey(firmID uuid.UUID, channel string) string {
	return fmt.Sprintf("chat:history:%s:%s", firmID, channel)
}

// Publish appends the message to channel history and fans it out.
func (b *ChatBroker) Publish(ctx context.Context, msg *domain.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := historyKey(msg.FirmID, msg.Channel)
	pipe := b.client.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, historyCap-1)
	pipe.Publish(ctx, pubsubChannel(msg.FirmID), payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe delivers every message on the firm channel to handler until the
// returned cancel func is called. Messages that fail to decode are dropped.
func (b *ChatBroker) Subscribe(ctx context.Context, firmID uuid.UUID, handler func(*domain.ChatMessage)) (func(), error) {
	sub := b.client.Subscribe(ctx, pubsubChannel(firmID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	go func() {
		for redisMsg := range sub.Channel() {
			var msg domain.ChatMessage
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				logger.WithError(err).Warn("dropping undecodable chat message")
				continue
			}
			handler(&msg)
		}
	}()

	return func() { sub.Close() }, nil
}

// History returns the most recent messages on a channel, newest first.
func (b *ChatBroker) History(ctx context.Context, firmID uuid.UUID, channel string, limit int) ([]*domain.ChatMessage, error) {
	raw, err := b.client.LRange(ctx, historyKey(firmID, channel), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]*domain.ChatMessage, 0, len(raw))
	for _, payload := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			continue
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
