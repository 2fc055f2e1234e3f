package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/service"
)

type NotificationHandler struct {
	notifyService service.NotifyService
}

func NewNotificationHandler(notifyService service.NotifyService) *NotificationHandler {
	return &NotificationHandler{
		notifyService: notifyService,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	notifications, err := h.notifyService.ListForUser(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": len(notifications),
		"data":    notifications,
	})
}

func (h *NotificationHandler) MarkSeen(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}

	if err := h.notifyService.MarkSeen(ctx, notificationID, userID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllSeen(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.notifyService.MarkAllSeen(ctx, userID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
