package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/programerkawsar/marketplace-api/internal/client"
	"github.com/programerkawsar/marketplace-api/internal/config"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/logger"
	"github.com/programerkawsar/marketplace-api/internal/mailer"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/programerkawsar/marketplace-api/internal/server"
	"github.com/programerkawsar/marketplace-api/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(&cfg.Log)
	ids.Init(cfg.Settlement.SnowflakeNode)

	db := client.InitDBClient(&cfg.Database)
	cardClient := client.NewCardClient(&cfg.Braintree)
	walletClient := client.NewWalletClient(&cfg.Paypal)

	productRepo := repository.NewProductRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	bus := EventBus.New()
	mail := mailer.NewMailer(&cfg.SMTP)

	pricingService := service.NewPricingService(productRepo, feeRepo)
	ledgerService := service.NewLedgerService(db, accountRepo)
	dispatcher := service.NewPaymentDispatcher(
		cardClient, walletClient, ledgerService,
		cfg.BaseURL, cfg.Settlement.Currency,
	)
	settlementService := service.NewSettlementService(
		db, pricingService, dispatcher, ledgerService, walletClient,
		orderRepo, productRepo, purchaseRepo,
		idempotencyRepo, webhookEventRepo, reconciliationRepo,
		bus,
	)
	notifyService := service.NewNotifyService(notificationRepo, accountRepo, productRepo, mail)
	payoutService := service.NewPayoutService(
		ledgerService, accountRepo, payoutRepo, bus,
		cfg.Settlement.PayoutMinimum,
	)

	if err := notifyService.Register(bus); err != nil {
		zap.S().Fatal("failed to register notification subscribers: ", err)
	}

	sched := cron.New()
	sweeper := service.NewSweeper(
		db, orderRepo, idempotencyRepo, reconciliationRepo,
		time.Duration(cfg.Settlement.PendingOrderTTLHours)*time.Hour,
	)
	if err := sweeper.Schedule(sched, cfg.Settlement.SweepSchedule); err != nil {
		zap.S().Fatal("failed to schedule sweeper: ", err)
	}
	sched.Start()

	srv := server.NewServer(settlementService, notifyService, payoutService, sweeper)
	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	zap.S().Infow("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			zap.S().Fatal("HTTP server error: ", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	zap.S().Info("signal received, starting graceful shutdown...")

	sched.Stop()
	if err := srv.Shutdown(); err != nil {
		zap.S().Fatal("HTTP server shutdown error: ", err)
	}
}
