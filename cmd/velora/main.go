package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/veloramed/velora/internal/app"
	"github.com/veloramed/velora/internal/commission"
	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/platform/cache"
	"github.com/veloramed/velora/internal/platform/db"
	"github.com/veloramed/velora/internal/referrals"
	"github.com/veloramed/velora/internal/woo"
	"github.com/veloramed/velora/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	wooClient := woo.NewClient(cfg.WooBaseURL, cfg.WooConsumerKey, cfg.WooConsumerSecret, woo.DefaultRetryPolicy())

	ordersRepo := orders.NewRepository(pool)
	snapshots := orders.NewSnapshotStore(redisClient, cfg.OrdersSnapshotTTL)
	ordersService := orders.NewService(logger, ordersRepo, wooClient, snapshots)
	ordersHandler := orders.NewHandler(logger, ordersService, ordersRepo)

	referralsRepo := referrals.NewRepository(pool)
	referralsService := referrals.NewService(logger, referralsRepo, ordersService, decimal.NewFromFloat(cfg.ReferralCreditAmount))
	referralsHandler := referrals.NewHandler(logger, referralsService)

	wholesaleRate, retailRate, bonusRate, bonusCap := cfg.CommissionRates()
	commissionCfg := commission.Config{
		WholesaleRate:    wholesaleRate,
		RetailRate:       retailRate,
		BonusRate:        bonusRate,
		BonusMonthlyCap:  bonusCap,
		BonusRecipientID: cfg.BonusRecipientID,
	}
	commissionRepo := commission.NewRepository(pool)
	commissionHandler := commission.NewHandler(logger, ordersService, commissionRepo, commissionCfg)

	// Warm the snapshot so the first request never waits on both
	// backends; failures here are soft, the engine falls back to
	// refresh-on-read.
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init jobs client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		if _, err := jobsClient.EnqueueOrdersRefresh(ctx, jobs.OrdersRefreshPayload{Reason: "startup"}); err != nil {
			logger.Warn("enqueue startup refresh", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		OrdersHandler:     ordersHandler,
		ReferralsHandler:  referralsHandler,
		CommissionHandler: commissionHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
