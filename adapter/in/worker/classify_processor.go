package worker

import (
	"context"

	"lexflow_server/core/service/classification"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"

	"github.com/google/uuid"
)

// ClassifyProcessor runs first-pass classification for newly ingested mail.
type ClassifyProcessor struct {
	classifier *classification.Service
}

func NewClassifyProcessor(classifier *classification.Service) *ClassifyProcessor {
	return &ClassifyProcessor{classifier: classifier}
}

type classifyPayload struct {
	FirmID  string `json:"firm_id"`
	EmailID string `json:"email_id"`
}

func (p *ClassifyProcessor) Process(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[classifyPayload](msg)
	if err != nil {
		return err
	}
	firmID, err := uuid.Parse(payload.FirmID)
	if err != nil {
		return err
	}
	emailID, err := uuid.Parse(payload.EmailID)
	if err != nil {
		return err
	}

	verdict, err := p.classifier.ClassifyEmail(ctx, firmID, emailID)
	if err != nil {
		// The email may have been deleted between enqueue and processing.
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	logger.WithFields(map[string]any{
		"email_id":   emailID.String(),
		"state":      string(verdict.State),
		"confidence": verdict.Confidence,
		"source":     verdict.Source,
	}).Info("email classified")
	return nil
}
