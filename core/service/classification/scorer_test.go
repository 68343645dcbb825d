package classification

import (
	"context"
	"testing"

	"lexflow_server/core/domain"

	"github.com/google/uuid"
)

func newCase(firmID uuid.UUID, clientID *uuid.UUID, ref string) *domain.Case {
	return &domain.Case{
		ID:            uuid.New(),
		FirmID:        firmID,
		ClientID:      clientID,
		ReferenceCode: ref,
		Status:        domain.CaseStatusOpen,
	}
}

func TestScorerThreadContinuity(t *testing.T) {
	firmID := uuid.New()
	c := newCase(firmID, nil, "2024-CIV-0187")
	c.ThreadIDs = []string{"thread-42"}
	other := newCase(firmID, nil, "2024-COM-0031")

	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			ThreadID:    "thread-42",
			Subject:     "Re: hearing",
			FromAddress: "someone@example.com",
		},
		Cases: []*domain.Case{other, c},
	})

	if verdict.State != domain.StateClassified {
		t.Fatalf("state = %v, want classified", verdict.State)
	}
	if verdict.CaseID == nil || *verdict.CaseID != c.ID {
		t.Errorf("wrong case assigned")
	}
	if verdict.MatchType != domain.MatchThreadContinuity {
		t.Errorf("matchType = %v, want thread_continuity", verdict.MatchType)
	}
	if verdict.Confidence < 0.95 {
		t.Errorf("confidence = %v, want >= 0.95", verdict.Confidence)
	}
}

func TestScorerReferenceNumber(t *testing.T) {
	firmID := uuid.New()
	c := newCase(firmID, nil, "2024-CIV-0187")

	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			Subject:     "Urgent: filing in 2024-CIV-0187 due Friday",
			FromAddress: "clerk@court.example",
		},
		Cases: []*domain.Case{c},
	})

	if verdict.State != domain.StateClassified {
		t.Fatalf("state = %v, want classified", verdict.State)
	}
	if verdict.MatchType != domain.MatchReferenceNumber {
		t.Errorf("matchType = %v, want reference_number", verdict.MatchType)
	}
}

func TestScorerActorMatch(t *testing.T) {
	firmID := uuid.New()
	client := &domain.Client{
		ID:           uuid.New(),
		FirmID:       firmID,
		PrimaryEmail: "ceo@acme.example",
		Contacts: []domain.ContactEntry{
			{ID: uuid.New(), Name: "Finance", Email: "finance@acme.example"},
		},
	}
	clientID := client.ID
	c := newCase(firmID, &clientID, "2024-COM-0031")

	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			Subject:     "invoice question",
			FromAddress: "Finance@Acme.example",
		},
		Cases:   []*domain.Case{c},
		Clients: map[uuid.UUID]*domain.Client{client.ID: client},
	})

	if verdict.State != domain.StateClassified {
		t.Fatalf("state = %v, want classified", verdict.State)
	}
	if verdict.MatchType != domain.MatchActor {
		t.Errorf("matchType = %v, want actor", verdict.MatchType)
	}
	if verdict.ClientID == nil || *verdict.ClientID != client.ID {
		t.Errorf("client id not carried on verdict")
	}
}

func TestScorerDomainMatchFoldedIntoActor(t *testing.T) {
	firmID := uuid.New()
	client := &domain.Client{
		ID:           uuid.New(),
		FirmID:       firmID,
		PrimaryEmail: "ceo@acme.example",
	}
	clientID := client.ID
	c := newCase(firmID, &clientID, "2024-COM-0031")

	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			Subject:     "new matter",
			FromAddress: "unknown-person@acme.example",
		},
		Cases:   []*domain.Case{c},
		Clients: map[uuid.UUID]*domain.Client{client.ID: client},
	})

	// Domain alone does not clear the classify threshold; it routes to the
	// client inbox and is stored as an actor match.
	if verdict.State != domain.StateClientInbox {
		t.Fatalf("state = %v, want client_inbox", verdict.State)
	}
	if verdict.MatchType != domain.MatchActor {
		t.Errorf("matchType = %v, want actor (domain folds into actor)", verdict.MatchType)
	}
}

func TestScorerInstitutionalSource(t *testing.T) {
	firmID := uuid.New()
	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			Subject:     "summons",
			FromAddress: "registry@district-court.example",
		},
		Sources: []*domain.GlobalEmailSource{
			{
				ID:       uuid.New(),
				FirmID:   firmID,
				Category: domain.SourceCourt,
				Domains:  []string{"district-court.example"},
			},
		},
	})

	if verdict.State != domain.StateCourtUnassigned {
		t.Errorf("state = %v, want court_unassigned", verdict.State)
	}
}

func TestScorerNoSignals(t *testing.T) {
	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      uuid.New(),
			Subject:     "lunch?",
			FromAddress: "friend@gmail.example",
		},
	})

	if verdict.State != domain.StateUncertain {
		t.Errorf("state = %v, want uncertain", verdict.State)
	}
	if verdict.CaseID != nil {
		t.Errorf("no case must be assigned without signals")
	}
}

func TestScorerThreadBeatsReference(t *testing.T) {
	firmID := uuid.New()
	byThread := newCase(firmID, nil, "2024-CIV-0187")
	byThread.ThreadIDs = []string{"t-1"}
	byRef := newCase(firmID, nil, "2024-COM-0031")

	scorer := NewScorer(nil)
	verdict := scorer.Score(context.Background(), &ScorerInput{
		Email: &domain.Email{
			FirmID:      firmID,
			ThreadID:    "t-1",
			Subject:     "about 2024-COM-0031",
			FromAddress: "x@example.com",
		},
		Cases: []*domain.Case{byRef, byThread},
	})

	if verdict.CaseID == nil || *verdict.CaseID != byThread.ID {
		t.Errorf("thread continuity must outrank a reference match")
	}
}
