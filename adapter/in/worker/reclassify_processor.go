package worker

import (
	"context"

	"lexflow_server/core/service/classification"

	"github.com/google/uuid"
)

// ReclassifyProcessor runs the sweep triggered by contact-data changes.
type ReclassifyProcessor struct {
	reclassifier *classification.Reclassifier
}

func NewReclassifyProcessor(reclassifier *classification.Reclassifier) *ReclassifyProcessor {
	return &ReclassifyProcessor{reclassifier: reclassifier}
}

type reclassifyPayload struct {
	FirmID     string `json:"firm_id"`
	OldAddress string `json:"old_address"`
	NewAddress string `json:"new_address"`
	ClientID   string `json:"client_id"`
	CaseID     string `json:"case_id"`
	SourceID   string `json:"source_id"`
}

func (p *ReclassifyProcessor) Process(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[reclassifyPayload](msg)
	if err != nil {
		return err
	}
	firmID, err := uuid.Parse(payload.FirmID)
	if err != nil {
		return err
	}

	job := &classification.ReclassifyJob{
		FirmID:     firmID,
		OldAddress: payload.OldAddress,
		NewAddress: payload.NewAddress,
	}
	if payload.ClientID != "" {
		id, err := uuid.Parse(payload.ClientID)
		if err != nil {
			return err
		}
		job.ClientID = &id
	}
	if payload.CaseID != "" {
		id, err := uuid.Parse(payload.CaseID)
		if err != nil {
			return err
		}
		job.CaseID = &id
	}
	if payload.SourceID != "" {
		id, err := uuid.Parse(payload.SourceID)
		if err != nil {
			return err
		}
		job.SourceID = &id
	}

	return p.reclassifier.Run(ctx, job)
}
