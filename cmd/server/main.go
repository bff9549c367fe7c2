// Command server runs the review scraping API.
//
// Boot order: environment (.env), config, logging, SQLite (+ migrations),
// Redis cache, scrape queue, HTTP router. Shutdown drains in the reverse
// order so in-flight jobs land their terminal state before the process exits.
//
// @title           Review Scraper API
// @version         1.0
// @description     Asynchronous product-review scraping: submit jobs, poll their status, and read stored reviews and rating statistics.
// @BasePath        /api/v1
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/tbourn/go-review-scraper/docs"
	"github.com/tbourn/go-review-scraper/internal/cache"
	"github.com/tbourn/go-review-scraper/internal/config"
	httpapi "github.com/tbourn/go-review-scraper/internal/http"
	"github.com/tbourn/go-review-scraper/internal/observability"
	"github.com/tbourn/go-review-scraper/internal/repo"
	"github.com/tbourn/go-review-scraper/internal/scrape"
	"github.com/tbourn/go-review-scraper/internal/source"
	"github.com/tbourn/go-review-scraper/internal/sysutil"
)

const version = "1.0.0"

// shutdownGrace bounds how long draining jobs and the HTTP server get on exit.
const shutdownGrace = 30 * time.Second

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", cfg.OTEL.ServiceName).Logger()

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			logger.Fatal().Err(err).Msg("gorm tracing plugin failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	redisCache := cache.New(cfg.Cache, logger)
	if redisCache.Enabled() {
		if err := redisCache.Ping(ctx); err != nil {
			// The service degrades to uncached operation rather than refusing to boot.
			logger.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unreachable, caching disabled")
			redisCache = cache.New(config.CacheConfig{}, logger)
		}
	}

	fetcher := source.NewFetcher(cfg.Scrape, logger)
	orchestrator := scrape.NewOrchestrator(db, cfg, fetcher, logger)
	queue := scrape.NewQueue(orchestrator, cfg.Queue, logger)
	queue.Start()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, db, queue, redisCache, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("mode", cfg.GinMode).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	// Stop accepting requests first, then drain queued scrape jobs.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("queue drain incomplete")
	}
	if err := redisCache.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
