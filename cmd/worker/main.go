package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gerai-erp/gerai-erp/internal/app"
	"github.com/gerai-erp/gerai-erp/internal/exports"
	jobmetrics "github.com/gerai-erp/gerai-erp/internal/jobs"
	"github.com/gerai-erp/gerai-erp/internal/notify"
	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/platform/cache"
	"github.com/gerai-erp/gerai-erp/internal/platform/db"
	"github.com/gerai-erp/gerai-erp/internal/production"
	"github.com/gerai-erp/gerai-erp/internal/shared"
	"github.com/gerai-erp/gerai-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGConnLife,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, notifications will not be pushed", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	notifyRepo := notify.NewRepository(pool)
	notifyService := notify.NewService(notifyRepo, redisClient, logger)

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(productionRepo, notifyService, logger)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo)

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logger.Error("create export dir", slog.Any("error", err))
		os.Exit(1)
	}
	exportsRepo := exports.NewRepository(pool)
	exportsService := exports.NewService(exportsRepo, ordersService, cfg.ExportDir, logger)

	metrics := jobmetrics.NewMetrics(nil)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	deployJob := jobs.NewProductionDeployJob(productionService, idempotencyStore, logger, metrics)
	exportJob := jobs.NewExportGenerateJob(exportsService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskProductionDeploy, Handler: deployJob.Handle},
			{Type: jobs.TaskExportGenerate, Handler: exportJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := idempotencyStore.Cleanup(ctx, 24*time.Hour); err != nil {
					logger.Warn("idempotency cleanup", slog.Any("error", err))
				}
			}
		}
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
