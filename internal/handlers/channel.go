package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/botgatehq/botgate/internal/auth"
	"github.com/botgatehq/botgate/internal/channels"
)

// ChannelHandler exposes channel registration and lifecycle routes.
type ChannelHandler struct {
	service *channels.Service
}

func NewChannelHandler(service *channels.Service) *ChannelHandler {
	return &ChannelHandler{service: service}
}

func (h *ChannelHandler) Register(e *echo.Echo) {
	group := e.Group("/channels")
	group.POST("", h.RegisterChannel)
	group.GET("", h.ListChannels)
	group.GET("/:id", h.GetChannel)
	group.PUT("/:id/status", h.UpdateStatus)
	group.DELETE("/:id", h.DeleteChannel)
}

func (h *ChannelHandler) RegisterChannel(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req channels.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ch, err := h.service.Register(c.Request().Context(), userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *ChannelHandler) ListChannels(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if list == nil {
		list = []channels.Channel{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ChannelHandler) GetChannel(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	ch, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ch)
}

type updateChannelStatusRequest struct {
	Status channels.Status `json:"status"`
}

func (h *ChannelHandler) UpdateStatus(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req updateChannelStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ch, err := h.service.UpdateStatus(c.Request().Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
