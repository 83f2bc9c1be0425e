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
	"github.com/redis/go-redis/v9"

	"github.com/ramirolandajo/comercio-insights/internal/app"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/export"
	dashhttp "github.com/ramirolandajo/comercio-insights/internal/dashboard/http"
	"github.com/ramirolandajo/comercio-insights/internal/observability"
	"github.com/ramirolandajo/comercio-insights/internal/period"
	"github.com/ramirolandajo/comercio-insights/internal/settings"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
	"github.com/ramirolandajo/comercio-insights/jobs"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	api := upstream.NewClient(cfg.APIBaseURL).WithObserver(metrics.ObserveUpstream)
	cache := dashboard.NewCache(redisClient, cfg.CacheTTL).WithObserver(metrics.ObserveCache)
	service := dashboard.NewService(api, cache)

	go func() {
		if err := cache.ListenForInvalidation(ctx, ""); err != nil && ctx.Err() == nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}()

	prefs := settings.NewStore(redisClient, cfg.DefaultTheme)
	periods := period.NewStore()
	if start, end, ok, err := prefs.LoadPeriod(ctx); err != nil {
		logger.Warn("load persisted period", slog.Any("error", err))
	} else if ok {
		if err := periods.Restore(start, end); err != nil {
			logger.Warn("restore persisted period", slog.Any("error", err))
		}
	}

	// Warm the cache right away instead of waiting for the first cron tick.
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("jobs client", slog.Any("error", err))
	} else {
		if _, err := jobsClient.EnqueueDashboardWarmup(ctx, jobs.DashboardWarmupPayload{}); err != nil {
			logger.Warn("enqueue warmup", slog.Any("error", err))
		}
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
	}

	pdfExporter := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	dashboardHandler := dashhttp.NewHandler(logger, service, periods, prefs, pdfExporter)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		Dashboard: dashboardHandler,
		Metrics:   metrics,
		JobHealth: jobHandler.Health,
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
