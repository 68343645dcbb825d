package http

import (
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SourceHandler manages the institutional sender registry (courts, bailiffs,
// prosecutors and similar).
type SourceHandler struct {
	directory in.DirectoryService
}

func NewSourceHandler(directory in.DirectoryService) *SourceHandler {
	return &SourceHandler{directory: directory}
}

func (h *SourceHandler) RegisterRoutes(router fiber.Router) {
	sources := router.Group("/sources")
	sources.Post("/", h.Create)
	sources.Get("/", h.List)
	sources.Patch("/:id", h.Update)
	sources.Delete("/:id", h.Delete)
}

func (h *SourceHandler) Create(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.SourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	source, err := h.directory.CreateSource(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, source)
}

func (h *SourceHandler) List(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	sources, err := h.directory.ListSources(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, sources)
}

func (h *SourceHandler) Update(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	sourceID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.SourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	source, err := h.directory.UpdateSource(c.Context(), actor, sourceID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, source)
}

func (h *SourceHandler) Delete(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	sourceID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.directory.DeleteSource(c.Context(), actor, sourceID); err != nil {
		return err
	}
	return response.NoContent(c)
}
