package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/botgatehq/botgate/internal/auth"
	"github.com/botgatehq/botgate/internal/conversations"
	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
)

// Sender delivers outbound messages. Satisfied by the dispatcher.
type Sender interface {
	Send(ctx context.Context, userID string, p platform.Type, chatID, text string) (messages.Message, error)
}

// ConversationGetter checks conversation ownership. Satisfied by the
// conversations resolver.
type ConversationGetter interface {
	Get(ctx context.Context, userID, conversationID string) (conversations.Conversation, error)
}

// MessageHandler exposes outbound sending, status updates and history
// listing.
type MessageHandler struct {
	sender        Sender
	service       *messages.Service
	conversations ConversationGetter
}

func NewMessageHandler(sender Sender, service *messages.Service, conversations ConversationGetter) *MessageHandler {
	return &MessageHandler{
		sender:        sender,
		service:       service,
		conversations: conversations,
	}
}

func (h *MessageHandler) Register(e *echo.Echo) {
	e.POST("/messages/send", h.Send)
	e.PUT("/messages/:id/status", h.UpdateStatus)
	e.GET("/conversations/:id/messages", h.ListConversationMessages)
}

type sendMessageRequest struct {
	Platform string `json:"platform"`
	ChatID   string `json:"chat_id"`
	Text     string `json:"text"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	platformType, err := platform.ParseType(req.Platform)
	if err != nil {
		return httpError(err)
	}
	stored, err := h.sender.Send(c.Request().Context(), userID, platformType, req.ChatID, req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, stored)
}

type updateMessageStatusRequest struct {
	Status string `json:"status"`
}

func (h *MessageHandler) UpdateStatus(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req updateMessageStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status, err := messages.ParseStatus(req.Status)
	if err != nil {
		return httpError(err)
	}
	updated, err := h.service.UpdateStatus(c.Request().Context(), userID, c.Param("id"), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *MessageHandler) ListConversationMessages(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	conv, err := h.conversations.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	list, err := h.service.List(c.Request().Context(), conv.ID)
	if err != nil {
		return httpError(err)
	}
	if list == nil {
		list = []messages.Message{}
	}
	return c.JSON(http.StatusOK, list)
}
