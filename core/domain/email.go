package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction of an email relative to the firm.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Email is a single ingested message, firm-scoped.
type Email struct {
	ID        uuid.UUID `json:"id"`
	FirmID    uuid.UUID `json:"firm_id"`
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Snippet   string    `json:"snippet,omitempty"`

	FromAddress string   `json:"from_address"`
	ToAddresses []string `json:"to_addresses"`
	CcAddresses []string `json:"cc_addresses,omitempty"`

	Direction  Direction `json:"direction"`
	ReceivedAt time.Time `json:"received_at"`

	State      EmailState `json:"state"`
	Confidence float64    `json:"confidence"`
	MatchType  *MatchType `json:"match_type,omitempty"`

	CaseID   *uuid.UUID `json:"case_id,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`

	ClassifiedAt *time.Time `json:"classified_at,omitempty"`
	ClassifiedBy string     `json:"classified_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participants returns the sender plus all recipients, lowercased.
func (e *Email) Participants() []string {
	out := make([]string, 0, 1+len(e.ToAddresses)+len(e.CcAddresses))
	if e.FromAddress != "" {
		out = append(out, strings.ToLower(e.FromAddress))
	}
	for _, addr := range e.ToAddresses {
		out = append(out, strings.ToLower(addr))
	}
	for _, addr := range e.CcAddresses {
		out = append(out, strings.ToLower(addr))
	}
	return out
}

// Involves reports whether the given address is the sender or a recipient.
func (e *Email) Involves(address string) bool {
	address = strings.ToLower(address)
	for _, p := range e.Participants() {
		if p == address {
			return true
		}
	}
	return false
}

// SenderDomain returns the part after '@' of the sender address.
func (e *Email) SenderDomain() string {
	return AddressDomain(e.FromAddress)
}

// AddressDomain extracts the lowercased domain of an email address.
func AddressDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

// EmailFilter narrows email listing queries. All queries are firm-scoped.
type EmailFilter struct {
	FirmID   uuid.UUID
	State    *EmailState
	CaseID   *uuid.UUID
	ClientID *uuid.UUID
	ThreadID *string
	Address  *string // matches sender or any recipient
	Limit    int
	Offset   int
}
