package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Auth resolves the authenticated user from the X-User-Id header set
// by the upstream auth layer (a black-box collaborator of this
// service) and makes it available to handlers. Handlers pass the id
// explicitly into services; nothing below this layer reads it
// ambiently.
func Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-User-Id")
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing X-User-Id header")
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid X-User-Id header")
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}
