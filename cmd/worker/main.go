package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"promptlens/internal/gallery"
	"promptlens/internal/infra"
	"promptlens/internal/infra/credentials"
	"promptlens/internal/providers/notion"
)

const refreshTimeout = 2 * time.Minute

// The worker keeps the shared gallery cache warm so API requests rarely pay
// for a document-store round trip.
func main() {
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("REDIS_ADDR is required for the cache worker")
	}
	cache, closeRedis, err := gallery.NewRedisCache(ctx, gallery.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer func() { _ = closeRedis() }()

	var tokens notion.TokenSource
	if cfg.NotionToken == "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		tokens = credentials.NewStore(infra.NewSQLRunner(dbpool, logger))
	}

	source, err := notion.NewClient(notion.Options{
		BaseURL:    cfg.NotionBaseURL,
		DatabaseID: cfg.NotionDatabaseID,
		Token:      cfg.NotionToken,
		Version:    cfg.NotionVersion,
		PageSize:   cfg.NotionPageSize,
		MaxPages:   cfg.NotionMaxPages,
		Tokens:     tokens,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure notion client")
	}
	service := gallery.NewService(source, cache, gallery.Options{TTL: cfg.CacheTTL, Logger: &logger})

	logger.Info().Dur("interval", cfg.RefreshInterval).Msg("gallery worker started")
	refresh(ctx, service, logger)

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("gallery worker stopped")
			return
		case <-ticker.C:
			refresh(ctx, service, logger)
		}
	}
}

func refresh(ctx context.Context, service *gallery.Service, logger infra.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	if _, err := service.Refresh(runCtx); err != nil {
		logger.Error().Err(err).Msg("gallery refresh failed")
	}
}
