package http

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"lexflow_server/core/domain"
	"lexflow_server/core/port/in"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"
	"lexflow_server/pkg/response"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type ChatHandler struct {
	chat in.ChatService
}

func NewChatHandler(chat in.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Post("/messages", h.Send)
	chat.Get("/messages", h.History)
	chat.Get("/stream", h.Stream)
}

func (h *ChatHandler) Send(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	var req in.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadUserInput("invalid request body")
	}

	msg, err := h.chat.Send(c.Context(), actor, &req)
	if err != nil {
		return err
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return apperr.BadUserInput("invalid limit")
		}
	}

	messages, err := h.chat.History(c.Context(), actor, c.Query("channel"), limit)
	if err != nil {
		return err
	}
	return response.OK(c, messages)
}

// Stream pushes live firm chat over server-sent events. The subscription ends
// when the client disconnects and the write fails.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	actor, err := GetActor(c)
	if err != nil {
		return err
	}

	messages := make(chan *domain.ChatMessage, 64)
	cancel, err := h.chat.Subscribe(context.Background(), actor, func(msg *domain.ChatMessage) {
		select {
		case messages <- msg:
		default:
			// Slow consumer, drop rather than block the broker.
		}
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for msg := range messages {
			data, err := json.Marshal(msg)
			if err != nil {
				logger.WithError(err).Error("failed to encode chat message")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
