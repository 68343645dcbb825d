package domain

import (
	"github.com/google/uuid"
)

// EmailState is the routing status of an email within a firm's mailroom.
type EmailState string

const (
	// StatePending: ingested, never classified.
	StatePending EmailState = "pending"
	// StateUncertain: classified, but no single case cleared the threshold.
	StateUncertain EmailState = "uncertain"
	// StateClassified: attached to a case with sufficient confidence.
	StateClassified EmailState = "classified"
	// StateClientInbox: matched a client but not a specific case.
	StateClientInbox EmailState = "client_inbox"
	// StateCourtUnassigned: sender matched an institutional source (court,
	// notary, bailiff) but no case could be determined.
	StateCourtUnassigned EmailState = "court_unassigned"
)

// Reclassifiable reports whether an email in this state may be re-scored.
// Classification is a stateless re-derivation: any non-final state can be
// re-evaluated at any time and the result overwrites the previous one.
func (s EmailState) Reclassifiable() bool {
	switch s {
	case StatePending, StateUncertain, StateClientInbox:
		return true
	}
	return false
}

// MatchType is the signal category that justified an email-to-case assignment.
type MatchType string

const (
	MatchThreadContinuity MatchType = "thread_continuity"
	MatchReferenceNumber  MatchType = "reference_number"
	// MatchActor covers sender/recipient contact matches. Domain-level matches
	// are folded into this type for storage.
	MatchActor  MatchType = "actor"
	MatchManual MatchType = "manual"
)

// Classification actors recorded in classified_by.
const (
	ClassifiedByAuto         = "auto"
	ClassifiedByContactMatch = "client_contact_match"
	ClassifiedByManual       = "manual"
)

// Verdict is the outcome of a classification pass over a single email.
type Verdict struct {
	State      EmailState
	CaseID     *uuid.UUID
	ClientID   *uuid.UUID
	Confidence float64
	MatchType  MatchType
	// Source is the winning signal in "signal:detail" form, e.g.
	// "thread:continuity" or "actor:contact-email".
	Source  string
	Signals []string
}

// Assigned reports whether the verdict attaches the email to a case.
func (v *Verdict) Assigned() bool {
	return v.State == StateClassified && v.CaseID != nil
}

// EmailCaseLink records confidence and match-type provenance when an email is
// attached to a case. Multiple candidate cases per email are allowed; the
// email's own case_id points at the winning one.
type EmailCaseLink struct {
	EmailID    uuid.UUID `json:"email_id" db:"email_id"`
	CaseID     uuid.UUID `json:"case_id" db:"case_id"`
	Confidence float64   `json:"confidence" db:"confidence"`
	MatchType  MatchType `json:"match_type" db:"match_type"`
}
