package http

import (
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type AIHandler struct {
	ai in.AIService
}

func NewAIHandler(ai in.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

func (h *AIHandler) RegisterRoutes(router fiber.Router) {
	ai := router.Group("/ai")
	ai.Post("/emails/:id/draft-reply", h.DraftReply)
	ai.Post("/cases/:id/summary", h.SummarizeCase)
	ai.Post("/emails/:id/suggest-classification", h.SuggestClassification)
	ai.Post("/parse-tasks", h.ParseTasks)
	ai.Post("/cases/:id/draft-document", h.DraftDocument)
	ai.Post("/clauses", h.SuggestClauses)
	ai.Post("/documents/:id/compare", h.CompareVersions)
	ai.Post("/research", h.Research)
}

func (h *AIHandler) DraftReply(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var opts in.DraftOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return apperr.BadUserInput("invalid request body")
		}
	}

	draft, err := h.ai.DraftReply(c.Context(), actor, emailID, &opts)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"draft": draft})
}

func (h *AIHandler) SummarizeCase(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	summary, err := h.ai.SummarizeCase(c.Context(), actor, caseID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"summary": summary})
}

func (h *AIHandler) SuggestClassification(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	suggestion, err := h.ai.SuggestClassification(c.Context(), actor, emailID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"suggestion": suggestion})
}

func (h *AIHandler) ParseTasks(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.ParseTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	tasks, err := h.ai.ParseTasks(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"tasks": tasks})
}

func (h *AIHandler) DraftDocument(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.DraftDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	draft, err := h.ai.DraftDocument(c.Context(), actor, caseID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"draft": draft})
}

func (h *AIHandler) SuggestClauses(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.ClauseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	clauses, err := h.ai.SuggestClauses(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"clauses": clauses})
}

func (h *AIHandler) CompareVersions(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	docID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	comparison, err := h.ai.CompareVersions(c.Context(), actor, docID, req.FromVersion, req.ToVersion)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"comparison": comparison})
}

func (h *AIHandler) Research(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.ResearchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	answer, err := h.ai.Research(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"answer": answer})
}
