package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceCategory classifies an institutional email source.
type SourceCategory string

const (
	SourceCourt   SourceCategory = "court"
	SourceNotary  SourceCategory = "notary"
	SourceBailiff SourceCategory = "bailiff"
	SourceOther   SourceCategory = "other"
)

// GlobalEmailSource is a firm-level registry entry for institutional senders
// (courts, notaries, bailiffs). Mail from a registered source that cannot be
// attached to a case is routed to the court_unassigned bucket instead of the
// generic uncertain state.
type GlobalEmailSource struct {
	ID       uuid.UUID      `json:"id"`
	FirmID   uuid.UUID      `json:"firm_id"`
	Name     string         `json:"name"`
	Category SourceCategory `json:"category"`

	// Domains match any sender at the domain; Addresses match exactly.
	Domains   []string `json:"domains"`
	Addresses []string `json:"addresses"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchesAddress reports whether the sender address belongs to this source.
func (s *GlobalEmailSource) MatchesAddress(address string) bool {
	address = strings.ToLower(address)
	for _, a := range s.Addresses {
		if strings.ToLower(a) == address {
			return true
		}
	}
	domain := AddressDomain(address)
	if domain == "" {
		return false
	}
	for _, d := range s.Domains {
		if strings.ToLower(d) == domain {
			return true
		}
	}
	return false
}
