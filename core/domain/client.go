package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactEntry is a person attached to a client record: an administrator,
// in-house counsel, accountant, etc. Stored as a jsonb array on the client.
type ContactEntry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  string    `json:"role,omitempty"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// Client is a firm's client. A client has zero or more cases.
type Client struct {
	ID     uuid.UUID `json:"id"`
	FirmID uuid.UUID `json:"firm_id"`

	Name         string `json:"name"`
	PrimaryEmail string `json:"primary_email,omitempty"`
	Phone        string `json:"phone,omitempty"`

	Contacts []ContactEntry `json:"contacts"`

	// AssignedUserIDs controls visibility for assignment-based roles.
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnownAddresses returns the primary email plus every contact email, lowercased.
func (c *Client) KnownAddresses() []string {
	out := make([]string, 0, 1+len(c.Contacts))
	if c.PrimaryEmail != "" {
		out = append(out, strings.ToLower(c.PrimaryEmail))
	}
	for _, entry := range c.Contacts {
		if entry.Email != "" {
			out = append(out, strings.ToLower(entry.Email))
		}
	}
	return out
}

// KnownDomains returns the distinct domains of all known addresses.
func (c *Client) KnownDomains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, addr := range c.KnownAddresses() {
		if d := AddressDomain(addr); d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// HasAddress reports whether the address belongs to the client or one of its
// contact entries.
func (c *Client) HasAddress(address string) bool {
	address = strings.ToLower(address)
	for _, known := range c.KnownAddresses() {
		if known == address {
			return true
		}
	}
	return false
}

// IsAssigned reports whether the user is explicitly assigned to the client.
func (c *Client) IsAssigned(userID uuid.UUID) bool {
	for _, id := range c.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ClientFilter narrows client listing queries.
type ClientFilter struct {
	FirmID         uuid.UUID
	Search         *string
	AssignedUserID *uuid.UUID
	Limit          int
	Offset         int
}
