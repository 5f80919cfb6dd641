package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-ops/meridian-ops/internal/app"
	jobmetrics "github.com/meridian-ops/meridian-ops/internal/jobs"
	"github.com/meridian-ops/meridian-ops/internal/orders"
	"github.com/meridian-ops/meridian-ops/internal/platform/cache"
	"github.com/meridian-ops/meridian-ops/internal/platform/db"
	"github.com/meridian-ops/meridian-ops/internal/report"
	"github.com/meridian-ops/meridian-ops/jobs"
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
		logger.Warn("redis unavailable, cache invalidation disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	classifier, err := report.LoadConfigFile(cfg.ClassifierConfigPath)
	if err != nil {
		logger.Error("load classifier config", slog.Any("error", err))
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(pool, orders.RepositoryConfig{
		PageSize:    cfg.OrdersPageSize,
		FetchWindow: cfg.OrdersFetchWindow,
	}, logger)

	// The worker shares the cache layout with the API process so warmed
	// quarters land where the HTTP builder would look, but the processes do
	// not share memory. Warmup here keeps the worker's own copy hot and
	// exercises the full fetch path; its real value is surfacing slow or
	// failing upstreams before the dashboard does.
	reportCache := report.NewCache(cfg.ReportCacheTTL, cfg.ReportCacheEntries)
	if redisClient != nil {
		reportCache.ListenForInvalidation(ctx, redisClient, cfg.SyncBumpChannel, logger)
	}
	builder := report.NewBuilder(ordersRepo, classifier, reportCache, logger, nil)

	warmupJob := jobs.NewQuarterWarmupJob(builder, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewQuarterWarmupTask(jobs.QuarterWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportQuarterWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
