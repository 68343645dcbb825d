package worker

import (
	"context"

	"lexflow_server/pkg/logger"

	"github.com/goccy/go-json"
)

type Handler struct {
	classifyProcessor   *ClassifyProcessor
	reclassifyProcessor *ReclassifyProcessor
}

func NewHandler(classifyProcessor *ClassifyProcessor, reclassifyProcessor *ReclassifyProcessor) *Handler {
	return &Handler{
		classifyProcessor:   classifyProcessor,
		reclassifyProcessor: reclassifyProcessor,
	}
}

// Handle decodes a raw stream entry and routes it to its processor.
func (h *Handler) Handle(ctx context.Context, id string, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.WithError(err).
			WithField("message_id", id).
			Error("dropping undecodable job")
		return nil
	}

	switch msg.Type {
	case JobClassify:
		return h.classifyProcessor.Process(ctx, &msg)
	case JobReclassify:
		return h.reclassifyProcessor.Process(ctx, &msg)
	default:
		logger.WithField("type", msg.Type).Warn("unknown job type")
		return nil
	}
}
