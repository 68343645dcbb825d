// Package response provides standard API response helpers.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the standard API response envelope.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total    int  `json:"total,omitempty"`
	Limit    int  `json:"limit,omitempty"`
	Offset   int  `json:"offset,omitempty"`
	HasMore  bool `json:"has_more,omitempty"`
}

// OK returns a successful response.
func OK(c *fiber.Ctx, data any) error {
	return c.JSON(Response{Success: true, Data: data})
}

// OKWithMeta returns a successful response with pagination metadata.
func OKWithMeta(c *fiber.Ctx, data any, meta *Meta) error {
	return c.JSON(Response{Success: true, Data: data, Meta: meta})
}

// Created returns a 201 created response.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Data: data})
}

// Accepted returns a 202 accepted response for fire-and-forget operations.
func Accepted(c *fiber.Ctx) error {
	return c.Status(fiber.StatusAccepted).JSON(Response{Success: true})
}

// NoContent returns a 204 no content response.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// PaginationParams extracts limit/offset from the request.
type PaginationParams struct {
	Limit  int
	Offset int
}

// GetPagination extracts pagination params, clamped to maxLimit.
func GetPagination(c *fiber.Ctx, defaultLimit, maxLimit int) *PaginationParams {
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return &PaginationParams{Limit: limit, Offset: offset}
}
