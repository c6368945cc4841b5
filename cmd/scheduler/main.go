package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"farewatch/internal/config"
	"farewatch/internal/logging"
	"farewatch/internal/notify"
	"farewatch/internal/pricing"
	"farewatch/internal/repo"
	"farewatch/internal/repo/memory"
	"farewatch/internal/repo/postgres"
	"farewatch/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "scheduler.log")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		alerts  repo.AlertStore
		history repo.HistoryStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect_error", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("migrate_error", zap.Error(err))
		}
		alerts, history = pg, pg
		logger.Info("store_postgres")
	} else {
		mem := memory.New()
		alerts, history = mem, mem
		logger.Warn("store_memory", zap.String("hint", "set DATABASE_URL for durable alerts"))
	}

	// FetchTimeout bounds each attempt; the worker's overall deadline is
	// sized from the retry budget so later attempts actually get to run.
	retry := pricing.NewRetrySource(
		pricing.NewTequilaClient(cfg.PriceAPIBase, cfg.PriceAPIKey, cfg.FetchTimeout),
		cfg.RetryAttempts, cfg.FetchTimeout, cfg.RetryBaseBackoff, cfg.RetryMaxBackoff,
	)
	var source pricing.Source = retry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_unavailable_cache_disabled", zap.Error(err))
		} else {
			source = pricing.NewCachedSource(source, rdb, cfg.QuoteCacheTTL, logger)
			logger.Info("quote_cache_enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var channels notify.Multi
	if tg := notify.NewTelegram(cfg.TelegramToken); tg != nil {
		channels = append(channels, tg)
	}
	if sl := notify.NewSlack(cfg.SlackWebhook); sl != nil {
		channels = append(channels, sl)
	}
	if len(channels) == 0 {
		logger.Warn("no_notification_channels_configured")
	}

	worker := scheduler.NewWorker(logger, alerts, history, source, retry.Budget()+5*time.Second)
	gate := scheduler.NewNotificationGate(logger, alerts, channels)
	sched := scheduler.New(logger, alerts, worker, gate, cfg.TickInterval, cfg.MaxConcurrentChecks)

	logger.Info("scheduler_start",
		zap.Duration("tick_interval", cfg.TickInterval),
		zap.Int("max_concurrency", cfg.MaxConcurrentChecks),
		zap.Int("retry_attempts", cfg.RetryAttempts),
	)
	sched.Run(ctx)
}
