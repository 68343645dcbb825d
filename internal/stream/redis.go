// Package stream wraps Redis Streams for background job delivery.
package stream

import (
	"context"
	"strings"
	"time"

	"lexflow_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	StreamClassify = "mailroom:classify"
	StreamSweep    = "mailroom:sweep"
)

type RedisStream struct {
	client *redis.Client
	group  string
	count  int64
	block  time.Duration
}

func NewRedisStream(client *redis.Client, group string) *RedisStream {
	return &RedisStream{
		client: client,
		group:  group,
		count:  10,
		block:  5 * time.Second,
	}
}

// WithReadOptions overrides the per-read batch size and block duration.
func (s *RedisStream) WithReadOptions(count int64, block time.Duration) *RedisStream {
	if count > 0 {
		s.count = count
	}
	if block > 0 {
		s.block = block
	}
	return s
}

func (s *RedisStream) CreateGroup(ctx context.Context, stream string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *RedisStream) Publish(ctx context.Context, stream string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"data": payload},
	}).Result()
}

// Consume reads and acknowledges messages until ctx is cancelled. Handler
// errors are logged and the message is acknowledged anyway: jobs here are
// idempotent sweeps, so a redelivery loop would only repeat the failure.
func (s *RedisStream) Consume(ctx context.Context, stream, consumer string, handler func(id string, data []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    s.count,
			Block:    s.block,
		}).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				logger.WithError(err).Error("stream read failed")
			}
			continue
		}

		for _, res := range results {
			for _, msg := range res.Messages {
				if data, ok := msg.Values["data"].(string); ok {
					if err := handler(msg.ID, []byte(data)); err != nil {
						logger.WithError(err).
							WithField("message_id", msg.ID).
							Error("job handler failed")
					}
				}
				s.client.XAck(ctx, res.Stream, s.group, msg.ID)
			}
		}
	}
}

func (s *RedisStream) Pending(ctx context.Context, stream string) (int64, error) {
	info, err := s.client.XPending(ctx, stream, s.group).Result()
	if err != nil {
		return 0, err
	}
	return info.Count, nil
}
