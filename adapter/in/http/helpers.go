// Package http contains the Fiber handlers for the REST API.
package http

import (
	"fmt"

	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetActor extracts the authenticated principal set by the auth middleware.
func GetActor(c *fiber.Ctx) (*authz.Actor, error) {
	actor, ok := c.Locals("actor").(*authz.Actor)
	if !ok || actor == nil {
		return nil, apperr.Unauthenticated("")
	}
	return actor, nil
}

// ParseUUIDParam parses a path parameter as a UUID.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.BadUserInput(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// ParseUUIDQuery parses an optional query parameter as a UUID.
func ParseUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.BadUserInput(fmt.Sprintf("invalid %s", name))
	}
	return &id, nil
}
