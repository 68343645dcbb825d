package http

import (
	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EmailHandler struct {
	mailroom in.MailroomService
}

func NewEmailHandler(mailroom in.MailroomService) *EmailHandler {
	return &EmailHandler{mailroom: mailroom}
}

func (h *EmailHandler) RegisterRoutes(router fiber.Router) {
	emails := router.Group("/emails")
	emails.Post("/ingest", h.Ingest)
	emails.Get("/", h.List)
	emails.Get("/:id", h.Get)
	emails.Get("/:id/links", h.GetLinks)
	emails.Post("/:id/assign", h.Assign)
	emails.Post("/:id/route-to-client", h.RouteToClient)
	router.Post("/cases/:id/reclassify", h.ReclassifyCase)
}

// Ingest accepts a new email from the mail gateway. The firm comes from the
// authenticated principal, not the payload.
func (h *EmailHandler) Ingest(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.IngestEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}
	req.FirmID = actor.FirmID

	email, err := h.mailroom.IngestEmail(c.Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, email)
}

func (h *EmailHandler) List(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	filter := &domain.EmailFilter{}
	if raw := c.Query("state"); raw != "" {
		state := domain.EmailState(raw)
		filter.State = &state
	}
	if filter.CaseID, err = ParseUUIDQuery(c, "case_id"); err != nil {
		return err
	}
	if filter.ClientID, err = ParseUUIDQuery(c, "client_id"); err != nil {
		return err
	}
	if raw := c.Query("thread_id"); raw != "" {
		filter.ThreadID = &raw
	}
	if raw := c.Query("address"); raw != "" {
		filter.Address = &raw
	}

	page := response.GetPagination(c, 50, 200)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	emails, total, err := h.mailroom.ListEmails(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, emails, &response.Meta{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+len(emails) < total,
	})
}

func (h *EmailHandler) Get(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	email, err := h.mailroom.GetEmail(c.Context(), actor, emailID)
	if err != nil {
		return err
	}
	return response.OK(c, email)
}

func (h *EmailHandler) GetLinks(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	links, err := h.mailroom.GetCaseLinks(c.Context(), actor, emailID)
	if err != nil {
		return err
	}
	return response.OK(c, links)
}

func (h *EmailHandler) Assign(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		CaseID uuid.UUID `json:"case_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}
	if req.CaseID == uuid.Nil {
		return apperr.MissingField("case_id")
	}

	email, err := h.mailroom.AssignEmail(c.Context(), actor, emailID, req.CaseID)
	if err != nil {
		return err
	}
	return response.OK(c, email)
}

func (h *EmailHandler) RouteToClient(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	emailID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		ClientID uuid.UUID `json:"client_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}
	if req.ClientID == uuid.Nil {
		return apperr.MissingField("client_id")
	}

	email, err := h.mailroom.RouteToClientInbox(c.Context(), actor, emailID, req.ClientID)
	if err != nil {
		return err
	}
	return response.OK(c, email)
}

// ReclassifyCase enqueues a sweep attaching unassigned mail from an address
// to the case. Returns 202: the worker does the attaching.
func (h *EmailHandler) ReclassifyCase(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	if err := h.mailroom.ReclassifyCase(c.Context(), actor, caseID, req.Address); err != nil {
		return err
	}
	return response.Accepted(c)
}
