package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"go.uber.org/zap"
)

func userIDFromContext(c echo.Context) (int64, error) {
	userID, ok := c.Get("user_id").(int64)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "user must be logged in to access this route")
	}
	return userID, nil
}

// respondError maps a settlement failure onto a stable error kind and
// message. Internal errors are logged in full but surfaced generically.
func respondError(c echo.Context, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		zap.S().Errorw("unhandled error", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, &dto.ErrorResponse{
			Kind:    string(apperr.KindInternal),
			Message: "something went wrong",
		})
	}

	if appErr.Kind == apperr.KindPersistence || appErr.Kind == apperr.KindInternal {
		zap.S().Errorw("settlement error", "path", c.Path(), "error", err)
	}

	return c.JSON(apperr.HTTPStatus(appErr), &dto.ErrorResponse{
		Kind:    string(appErr.Kind),
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
