package http

import (
	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ClientHandler struct {
	directory in.DirectoryService
}

func NewClientHandler(directory in.DirectoryService) *ClientHandler {
	return &ClientHandler{directory: directory}
}

func (h *ClientHandler) RegisterRoutes(router fiber.Router) {
	clients := router.Group("/clients")
	clients.Post("/", h.Create)
	clients.Get("/", h.List)
	clients.Get("/:id", h.Get)
	clients.Patch("/:id", h.Update)
	clients.Delete("/:id", h.Delete)

	clients.Post("/:id/contacts", h.AddContact)
	clients.Patch("/:id/contacts/:contactId", h.UpdateContact)
	clients.Delete("/:id/contacts/:contactId", h.RemoveContact)
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	client, err := h.directory.CreateClient(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, client)
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	filter := &domain.ClientFilter{}
	if raw := c.Query("search"); raw != "" {
		filter.Search = &raw
	}

	page := response.GetPagination(c, 50, 200)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	clients, total, err := h.directory.ListClients(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, clients, &response.Meta{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+len(clients) < total,
	})
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	client, err := h.directory.GetClient(c.Context(), actor, clientID)
	if err != nil {
		return err
	}
	return response.OK(c, client)
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	client, err := h.directory.UpdateClient(c.Context(), actor, clientID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, client)
}

func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.directory.DeleteClient(c.Context(), actor, clientID); err != nil {
		return err
	}
	return response.NoContent(c)
}

func (h *ClientHandler) AddContact(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req in.ContactEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	client, err := h.directory.AddContact(c.Context(), actor, clientID, &req)
	if err != nil {
		return err
	}
	return response.Created(c, client)
}

func (h *ClientHandler) UpdateContact(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	contactID, err := ParseUUIDParam(c, "contactId")
	if err != nil {
		return err
	}

	var req in.ContactEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	client, err := h.directory.UpdateContact(c.Context(), actor, clientID, contactID, &req)
	if err != nil {
		return err
	}
	return response.OK(c, client)
}

func (h *ClientHandler) RemoveContact(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	clientID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	contactID, err := ParseUUIDParam(c, "contactId")
	if err != nil {
		return err
	}

	client, err := h.directory.RemoveContact(c.Context(), actor, clientID, contactID)
	if err != nil {
		return err
	}
	return response.OK(c, client)
}
