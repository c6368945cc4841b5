package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"farewatch/internal/config"
	"farewatch/internal/httpapi"
	"farewatch/internal/httpapi/middleware"
	"farewatch/internal/logging"
	"farewatch/internal/repo"
	"farewatch/internal/repo/memory"
	"farewatch/internal/repo/postgres"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "api.log")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

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
	} else {
		mem := memory.New()
		alerts, history = mem, mem
		logger.Warn("store_memory", zap.String("hint", "set DATABASE_URL for durable alerts"))
	}

	api := httpapi.NewServer(logger, alerts, history)
	api.Auth = middleware.NewKeyAuth(logger, cfg.PublicAPIKeys, cfg.AdminAPIKeys)
	api.PublicRPM = cfg.PublicRPM
	api.PublicBurst = cfg.PublicBurst
	api.DefaultCheckInterval = cfg.DefaultCheckInterval
	api.MinCheckInterval = cfg.MinCheckInterval

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
