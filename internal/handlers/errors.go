package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/botgatehq/botgate/internal/channels"
	"github.com/botgatehq/botgate/internal/conversations"
	"github.com/botgatehq/botgate/internal/dispatch"
	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// httpError maps domain failures onto HTTP status codes. Upstream
// platform errors come back as 502 with a generic body so bot tokens
// and platform internals never leak to clients.
func httpError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validation *platform.ValidationError
	if errors.As(err, &validation) {
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	}

	switch {
	case errors.Is(err, channels.ErrTokenInUse),
		errors.Is(err, dispatch.ErrNoChannelConfigured):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, channels.ErrChannelNotFound),
		errors.Is(err, conversations.ErrConversationNotFound),
		errors.Is(err, messages.ErrMessageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, conversations.ErrOwnerUnresolved):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	var rejected *platform.RejectedError
	if errors.As(err, &rejected) {
		return echo.NewHTTPError(http.StatusBadGateway, "platform rejected the message")
	}
	var delivery *platform.DeliveryError
	if errors.As(err, &delivery) {
		return echo.NewHTTPError(http.StatusBadGateway, "message delivery failed")
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
