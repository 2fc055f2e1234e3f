package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/service"
)

type PayoutHandler struct {
	payoutService service.PayoutService
}

func NewPayoutHandler(payoutService service.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

func (h *PayoutHandler) Request(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	resp, err := h.payoutService.RequestPayout(ctx, sellerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *PayoutHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	payouts, err := h.payoutService.ListPayouts(ctx, sellerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": len(payouts),
		"data":    payouts,
	})
}

func (h *PayoutHandler) Balance(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	balance, err := h.payoutService.Balance(ctx, sellerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
}
