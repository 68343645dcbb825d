package http

import (
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	documents in.DocumentService
}

func NewDocumentHandler(documents in.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) RegisterRoutes(router fiber.Router) {
	docs := router.Group("/documents")
	docs.Post("/", h.Create)
	docs.Get("/:id", h.Get)
	docs.Put("/:id/content", h.UpdateContent)
	docs.Delete("/:id", h.Delete)

	router.Get("/cases/:id/documents", h.ListByCase)
}

func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.CreateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	doc, err := h.documents.CreateDocument(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, doc)
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	docID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	doc, body, err := h.documents.GetDocument(c.Context(), actor, docID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"document": doc,
		"body":     body,
	})
}

func (h *DocumentHandler) UpdateContent(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	docID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	doc, err := h.documents.UpdateContent(c.Context(), actor, docID, req.Content)
	if err != nil {
		return err
	}
	return response.OK(c, doc)
}

func (h *DocumentHandler) ListByCase(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	docs, err := h.documents.ListDocuments(c.Context(), actor, caseID)
	if err != nil {
		return err
	}
	return response.OK(c, docs)
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	docID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.documents.DeleteDocument(c.Context(), actor, docID); err != nil {
		return err
	}
	return response.NoContent(c)
}
