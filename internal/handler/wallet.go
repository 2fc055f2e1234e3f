package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type WalletHandler struct {
	settlementService service.SettlementService
}

func NewWalletHandler(settlementService service.SettlementService) *WalletHandler {
	return &WalletHandler{
		settlementService: settlementService,
	}
}

// Webhook receives the wallet gateway's out-of-band capture
// confirmations. The gateway retries on non-2xx, so processing errors
// are surfaced as 500 to trigger redelivery.
func (h *WalletHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable webhook body")
	}

	if err := h.settlementService.HandleWalletWebhook(ctx, c.Request().Header, body); err != nil {
		zap.S().Errorw("wallet webhook processing failed", "error", err)
		return respondError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// Success is where the gateway redirects the buyer after approval. The
// order stays pending until the capture webhook confirms settlement.
func (h *WalletHandler) Success(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Payment approved. Your order will complete once the payment is captured.",
	})
}
