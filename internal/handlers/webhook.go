package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
)

// MessageIngestor persists canonical inbound messages. Satisfied by
// the messages ingestor.
type MessageIngestor interface {
	Ingest(ctx context.Context, req messages.IngestRequest) (messages.Message, error)
}

// WebhookHandler receives platform push deliveries. The bot token in
// the path authenticates the caller and attributes the traffic.
type WebhookHandler struct {
	logger   *slog.Logger
	registry *platform.Registry
	ingestor MessageIngestor
}

func NewWebhookHandler(log *slog.Logger, registry *platform.Registry, ingestor MessageIngestor) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:   log.With(slog.String("handler", "webhook")),
		registry: registry,
		ingestor: ingestor,
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/:platform/:token", h.Receive)
}

func (h *WebhookHandler) Receive(c echo.Context) error {
	platformType, err := platform.ParseType(c.Param("platform"))
	if err != nil {
		return httpError(err)
	}
	adapter, ok := h.registry.Get(platformType)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported platform")
	}
	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body failed")
	}

	inbound, err := adapter.ParseInbound(body)
	if err != nil {
		if errors.Is(err, platform.ErrIgnorablePayload) {
			// Ack so the platform stops redelivering.
			return c.JSON(http.StatusOK, map[string]bool{"ignored": true})
		}
		return httpError(err)
	}

	stored, err := h.ingestor.Ingest(c.Request().Context(), messages.IngestRequest{
		ChannelToken: token,
		Message:      inbound,
	})
	if err != nil {
		h.logger.Warn("webhook ingest failed",
			slog.String("platform", string(platformType)),
			slog.Any("error", err),
		)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}
