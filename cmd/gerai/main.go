package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/gerai-erp/gerai-erp/internal/app"
	"github.com/gerai-erp/gerai-erp/internal/exports"
	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/notify"
	"github.com/gerai-erp/gerai-erp/internal/observability"
	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/pettycash"
	"github.com/gerai-erp/gerai-erp/internal/platform/cache"
	"github.com/gerai-erp/gerai-erp/internal/platform/db"
	"github.com/gerai-erp/gerai-erp/internal/production"
	"github.com/gerai-erp/gerai-erp/internal/products"
	"github.com/gerai-erp/gerai-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	notifyRepo := notify.NewRepository(pool)
	notifyService := notify.NewService(notifyRepo, redisClient, logger)
	notifyHandler := notify.NewHandler(notifyService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, metrics)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo)
	ordersHandler := orders.NewHandler(logger, ordersService, metrics)

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(productionRepo, notifyService, logger)
	productionHandler := production.NewHandler(logger, productionService, queueClient)

	pettyCashRepo := pettycash.NewRepository(pool)
	pettyCashService := pettycash.NewService(pettyCashRepo)
	pettyCashHandler := pettycash.NewHandler(pettyCashService)

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logger.Error("create export dir", slog.Any("error", err))
		os.Exit(1)
	}
	exportsRepo := exports.NewRepository(pool)
	exportsService := exports.NewService(exportsRepo, ordersService, cfg.ExportDir, logger)
	exportsHandler := exports.NewHandler(logger, exportsService, queueClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		InventoryHandler:  inventoryHandler,
		ProductsHandler:   productsHandler,
		OrdersHandler:     ordersHandler,
		ProductionHandler: productionHandler,
		PettyCashHandler:  pettyCashHandler,
		NotifyHandler:     notifyHandler,
		ExportsHandler:    exportsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	appServer := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:        cfg.MetricsAddr,
		Handler:     metricsMux,
		ReadTimeout: cfg.AppReadTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := appServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.Info("starting metrics server", slog.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", slog.Any("error", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown", slog.Any("error", err))
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
