package http

import (
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	billing in.BillingService
}

func NewBillingHandler(billing in.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/time-entries", h.RecordTime)
	router.Get("/cases/:id/time-entries", h.ListTimeEntries)

	invoices := router.Group("/invoices")
	invoices.Post("/", h.CreateInvoice)
	invoices.Get("/", h.ListInvoices)
	invoices.Get("/:id", h.GetInvoice)
	invoices.Post("/:id/issue", h.IssueInvoice)
	invoices.Put("/:id/status", h.SetStatus)
}

func (h *BillingHandler) RecordTime(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.RecordTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	entry, err := h.billing.RecordTime(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, entry)
}

func (h *BillingHandler) ListTimeEntries(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	caseID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.billing.ListTimeEntries(c.Context(), actor, caseID)
	if err != nil {
		return err
	}
	return response.OK(c, entries)
}

func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	invoice, err := h.billing.CreateInvoice(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, invoice)
}

func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	clientID, err := ParseUUIDQuery(c, "client_id")
	if err != nil {
		return err
	}

	invoices, err := h.billing.ListInvoices(c.Context(), actor, clientID)
	if err != nil {
		return err
	}
	return response.OK(c, invoices)
}

func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	invoiceID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.billing.GetInvoice(c.Context(), actor, invoiceID)
	if err != nil {
		return err
	}
	return response.OK(c, invoice)
}

func (h *BillingHandler) IssueInvoice(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	invoiceID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		DueAt *time.Time `json:"due_at,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	invoice, err := h.billing.IssueInvoice(c.Context(), actor, invoiceID, req.DueAt)
	if err != nil {
		return err
	}
	return response.OK(c, invoice)
}

func (h *BillingHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}
	invoiceID, err := ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status domain.InvoiceStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}
	if req.Status == "" {
		return apperr.MissingField("status")
	}

	invoice, err := h.billing.SetInvoiceStatus(c.Context(), actor, invoiceID, req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, invoice)
}
