package stream

import (
	"context"
	"sync"
)

// Consumer runs one handler loop per stream and blocks until ctx ends.
type Consumer struct {
	stream *RedisStream
	name   string
}

func NewConsumer(stream *RedisStream, name string) *Consumer {
	return &Consumer{
		stream: stream,
		name:   name,
	}
}

func (c *Consumer) Run(ctx context.Context, streams []string, handler func(id string, data []byte) error) error {
	for _, s := range streams {
		if err := c.stream.CreateGroup(ctx, s); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	for _, s := range streams {
		wg.Add(1)
		go func(streamName string) {
			defer wg.Done()
			c.stream.Consume(ctx, streamName, c.name, handler)
		}(s)
	}
	wg.Wait()
	return nil
}
