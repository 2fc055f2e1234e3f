package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/service"
)

type OrderHandler struct {
	settlementService service.SettlementService
}

func NewOrderHandler(settlementService service.SettlementService) *OrderHandler {
	return &OrderHandler{
		settlementService: settlementService,
	}
}

func (h *OrderHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	buyerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.SubmitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	resp, err := h.settlementService.SubmitOrder(ctx, buyerID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	buyerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	resp, err := h.settlementService.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Purchased(c echo.Context) error {
	ctx := c.Request().Context()

	buyerID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	purchased, err := h.settlementService.HasPurchased(ctx, buyerID, productID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"purchased": purchased})
}
