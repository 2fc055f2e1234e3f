package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/programerkawsar/marketplace-api/internal/handler"
	"github.com/programerkawsar/marketplace-api/internal/middleware"
	"github.com/programerkawsar/marketplace-api/internal/service"
)

type Server struct {
	echo                *echo.Echo
	orderHandler        *handler.OrderHandler
	walletHandler       *handler.WalletHandler
	notificationHandler *handler.NotificationHandler
	payoutHandler       *handler.PayoutHandler
	adminHandler        *handler.AdminHandler
}

func NewServer(
	settlementService service.SettlementService,
	notifyService service.NotifyService,
	payoutService service.PayoutService,
	sweeper *service.Sweeper,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:                e,
		orderHandler:        handler.NewOrderHandler(settlementService),
		walletHandler:       handler.NewWalletHandler(settlementService),
		notificationHandler: handler.NewNotificationHandler(notifyService),
		payoutHandler:       handler.NewPayoutHandler(payoutService),
		adminHandler:        handler.NewAdminHandler(sweeper),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- settlement --------
	orders := api.Group("/orders", middleware.Auth())
	orders.POST("", s.orderHandler.Submit)
	orders.GET("/:id", s.orderHandler.Get)

	purchases := api.Group("/purchases", middleware.Auth())
	purchases.GET("/:productId", s.orderHandler.Purchased)

	// -------- wallet gateway callbacks --------
	wallet := api.Group("/wallet")
	wallet.POST("/webhook", s.walletHandler.Webhook)
	wallet.GET("/success", s.walletHandler.Success)

	// -------- notifications --------
	notifications := api.Group("/notifications", middleware.Auth())
	notifications.GET("", s.notificationHandler.List)
	notifications.PATCH("/seen", s.notificationHandler.MarkAllSeen)
	notifications.PATCH("/:id/seen", s.notificationHandler.MarkSeen)

	// -------- payouts --------
	payouts := api.Group("/payouts", middleware.Auth())
	payouts.POST("", s.payoutHandler.Request)
	payouts.GET("", s.payoutHandler.List)
	payouts.GET("/balance", s.payoutHandler.Balance)

	// -------- operator surface --------
	admin := api.Group("/admin", middleware.Auth())
	admin.GET("/reconciliations", s.adminHandler.ListReconciliations)
	admin.PATCH("/reconciliations/:id/resolve", s.adminHandler.ResolveReconciliation)
	admin.POST("/sweep", s.adminHandler.Sweep)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
