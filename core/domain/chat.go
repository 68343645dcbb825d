package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a message on a firm's team channel. Fan-out to connected
// members goes through Redis pub/sub so multiple server instances see it.
type ChatMessage struct {
	ID      uuid.UUID `json:"id"`
	FirmID  uuid.UUID `json:"firm_id"`
	Channel string    `json:"channel"`

	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Body       string    `json:"body"`

	// CaseID links a message to a case discussion channel, if any.
	CaseID *uuid.UUID `json:"case_id,omitempty"`

	SentAt time.Time `json:"sent_at"`
}
