// Package worker consumes background jobs from Redis Streams: first-pass
// classification of ingested mail and reclassification sweeps after
// contact-data changes.
package worker

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Job types carried on the streams.
const (
	JobClassify   = "mailroom.classify"
	JobReclassify = "mailroom.reclassify"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewMessage(jobType string, payload map[string]any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// ParsePayload decodes a message payload into a typed struct.
func ParsePayload[T any](msg *Message) (*T, error) {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
