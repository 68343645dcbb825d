package stream

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Producer implements out.JobProducer on Redis Streams.
type Producer struct {
	stream *RedisStream
}

func NewProducer(stream *RedisStream) *Producer {
	return &Producer{stream: stream}
}

type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (p *Producer) PublishClassify(ctx context.Context, firmID, emailID uuid.UUID) error {
	job := &Job{
		ID:   uuid.New().String(),
		Type: "mailroom.classify",
		Payload: map[string]any{
			"firm_id":  firmID.String(),
			"email_id": emailID.String(),
		},
		CreatedAt: time.Now(),
	}
	_, err := p.stream.Publish(ctx, StreamClassify, job)
	return err
}

func (p *Producer) PublishReclassify(ctx context.Context, firmID uuid.UUID, oldAddress, newAddress string, clientID, caseID *uuid.UUID) error {
	payload := map[string]any{
		"firm_id":     firmID.String(),
		"old_address": oldAddress,
		"new_address": newAddress,
	}
	if clientID != nil {
		payload["client_id"] = clientID.String()
	}
	if caseID != nil {
		payload["case_id"] = caseID.String()
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      "mailroom.reclassify",
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	_, err := p.stream.Publish(ctx, StreamSweep, job)
	return err
}

func (p *Producer) PublishSourceSweep(ctx context.Context, firmID, sourceID uuid.UUID, pattern string) error {
	job := &Job{
		ID:   uuid.New().String(),
		Type: "mailroom.reclassify",
		Payload: map[string]any{
			"firm_id":     firmID.String(),
			"new_address": pattern,
			"source_id":   sourceID.String(),
		},
		CreatedAt: time.Now(),
	}
	_, err := p.stream.Publish(ctx, StreamSweep, job)
	return err
}
