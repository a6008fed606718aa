package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/veloramed/velora/internal/app"
	jobmetrics "github.com/veloramed/velora/internal/jobs"
	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/platform/cache"
	"github.com/veloramed/velora/internal/platform/db"
	"github.com/veloramed/velora/internal/woo"
	"github.com/veloramed/velora/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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

	refreshJob := jobs.NewOrdersRefreshJob(ordersService, logger, jobmetrics.NewMetrics(nil))

	refreshTask, err := jobs.NewOrdersRefreshTask(jobs.OrdersRefreshPayload{Reason: "cron"})
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	interval := int(cfg.OrdersRefreshInterval.Minutes())
	if interval < 1 {
		interval = 1
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrdersRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: fmt.Sprintf("@every %dm", interval), Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
