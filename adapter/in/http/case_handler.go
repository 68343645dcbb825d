package http

import (
	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CaseHandler struct {
	matters in.MatterService
}

func NewCaseHandler(matters in.MatterService) *CaseHandler {
	return &CaseHandler{matters: matters}
}

func (h *CaseHandler) RegisterRoutes(router fiber.Router) {
	cases := router.Group("/cases")
	cases.Post("/", h.Create)
	cases.Get("/", h.List)
	cases.Get("/:id", h.Get)
	cases.Patch("/:id", h.Update)
	cases.Put("/:id/assignees", h.AssignUsers)

	cases.Post("/:id/notes", h.CreateNote)
	cases.Get("/:id/notes", h.ListNotes)

	notes := router.Group("/notes")
	notes.Get("/:id", h.GetNote)
	notes.Patch("/:id", h.UpdateNote)
	notes.Delete("/:id", h.DeleteNote)
}

func (h *CaseHandler) Create(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	kase, err := h.matters.CreateCase(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, kase)
}

func (h *CaseHandler) List(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	filter := &domain.CaseFilter{}
	if filter.ClientID, err = ParseUUIDQuery(c, "client_id"); err != nil {
		return err
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.CaseStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("search"); raw != "" {
		filter.Search = &raw
	}

	page := response.GetPagination(c, 50, 200)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	cases, total, err := h.matters.ListCases(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, cases, &response.Meta{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+len(cases) < total,
	})
}

func (h *CaseHandler) Get(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	kase, err := h.matters.GetCase(c.Context(), actor, caseID)
	if err != nil {
		return err
	}
	return response.OK(c, kase)
}

func (h *CaseHandler) Update(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	kase, err := h.matters.UpdateCase(c.Context(), actor, caseID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, kase)
}

func (h *CaseHandler) AssignUsers(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		UserIDs []uuid.UUID `json:"user_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	if err := h.matters.AssignUsers(c.Context(), actor, caseID, req.UserIDs); err != nil {
		return err
	}
	return response.NoContent(c)
}

func (h *CaseHandler) CreateNote(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	note, err := h.matters.CreateNote(c.Context(), actor, caseID, &req)
	if err != nil {
		return err
	}
	return response.Created(c, note)
}

func (h *CaseHandler) ListNotes(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	notes, err := h.matters.ListNotes(c.Context(), actor, caseID)
	if err != nil {
		return err
	}
	return response.OK(c, notes)
}

func (h *CaseHandler) GetNote(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	noteID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	note, err := h.matters.GetNote(c.Context(), actor, noteID)
	if err != nil {
		return err
	}
	return response.OK(c, note)
}

func (h *CaseHandler) UpdateNote(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	noteID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	note, err := h.matters.UpdateNote(c.Context(), actor, noteID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, note)
}

func (h *CaseHandler) DeleteNote(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	noteID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.matters.DeleteNote(c.Context(), actor, noteID); err != nil {
		return err
	}
	return response.NoContent(c)
}
