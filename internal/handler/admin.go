package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/service"
)

// AdminHandler exposes the operator surface: the reconciliation queue
// and a manual sweep trigger.
type AdminHandler struct {
	sweeper *service.Sweeper
}

func NewAdminHandler(sweeper *service.Sweeper) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
	}
}

func (h *AdminHandler) ListReconciliations(c echo.Context) error {
	records, err := h.sweeper.Reconciliations(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": len(records),
		"data":    records,
	})
}

func (h *AdminHandler) ResolveReconciliation(c echo.Context) error {
	if err := h.sweeper.ResolveReconciliation(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Sweep(c echo.Context) error {
	if err := h.sweeper.Sweep(c.Request().Context()); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusAccepted)
}
