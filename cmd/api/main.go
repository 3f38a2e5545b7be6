package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"promptlens/internal/adapter/repo"
	"promptlens/internal/assistant"
	"promptlens/internal/gallery"
	"promptlens/internal/http/handlers"
	httpapi "promptlens/internal/http/httpapi"
	"promptlens/internal/infra"
	"promptlens/internal/infra/credentials"
	"promptlens/internal/providers/notion"
	"promptlens/internal/providers/vision"
	"promptlens/internal/storage"
)

func main() {
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	tokens := credentials.NewStore(runner)

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

	var cache gallery.Cache = gallery.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisCache, closeRedis, err := gallery.NewRedisCache(ctx, gallery.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory gallery cache")
		} else {
			defer func() { _ = closeRedis() }()
			cache = redisCache
		}
	}
	galleryService := gallery.NewService(source, cache, gallery.Options{TTL: cfg.CacheTTL, Logger: &logger})

	var files *storage.FileStore
	if cfg.StoragePath != "" {
		files, err = storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare storage")
		}
	}
	visionClient := vision.NewGeminiClient(vision.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiVisionModel,
		Tokens:  tokens,
		Logger:  &logger,
	})
	assistantService := assistant.NewService(visionClient, assistant.Options{
		Repository: repo.NewAnalysisRepository(runner),
		Files:      files,
		MaxBytes:   cfg.MaxUploadBytes,
		Logger:     &logger,
	})

	app := handlers.NewApp(galleryService, assistantService, logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		AdminToken:         cfg.AdminToken,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("vision_model", visionClient.Model()).Msg("api listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
