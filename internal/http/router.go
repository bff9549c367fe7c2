// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/cache"
	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/http/handlers"
	"github.com/tbourn/go-review-scraper/internal/http/middleware"
	"github.com/tbourn/go-review-scraper/internal/repo"
	"github.com/tbourn/go-review-scraper/internal/services"
)

// jobRepoShim adapts the repository free functions to the services.JobRepo
// interface expected by the ScrapeService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type jobRepoShim struct{}

// CreateJob proxies repo.CreateJob.
func (jobRepoShim) CreateJob(ctx context.Context, db *gorm.DB, jobID, asin, marketplace string, source domain.SourceKind) (*domain.ScrapeJob, error) {
	return repo.CreateJob(ctx, db, jobID, asin, marketplace, source)
}

// GetJob proxies repo.GetJob.
func (jobRepoShim) GetJob(ctx context.Context, db *gorm.DB, jobID string) (*domain.ScrapeJob, error) {
	return repo.GetJob(ctx, db, jobID)
}

// FailJob proxies repo.FailJob.
func (jobRepoShim) FailJob(ctx context.Context, db *gorm.DB, jobID, errMsg string, reviewsFetched, pagesProcessed int, completedAt time.Time) error {
	return repo.FailJob(ctx, db, jobID, errMsg, reviewsFetched, pagesProcessed, completedAt)
}

// reviewRepoShim adapts the repository free functions to services.ReviewRepo.
type reviewRepoShim struct{}

// ListReviewsAfter proxies repo.ListReviewsAfter.
func (reviewRepoShim) ListReviewsAfter(ctx context.Context, db *gorm.DB, asin, marketplace, cursor string, limit int) ([]domain.Review, error) {
	return repo.ListReviewsAfter(ctx, db, asin, marketplace, cursor, limit)
}

// CountReviews proxies repo.CountReviews.
func (reviewRepoShim) CountReviews(ctx context.Context, db *gorm.DB, asin, marketplace string) (int64, error) {
	return repo.CountReviews(ctx, db, asin, marketplace)
}

// statsRepoShim adapts the repository free functions to services.StatsRepo.
type statsRepoShim struct{}

// GetStats proxies repo.GetStats.
func (statsRepoShim) GetStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error) {
	return repo.GetStats(ctx, db, asin, marketplace)
}

// ComputeStats proxies repo.ComputeStats.
func (statsRepoShim) ComputeStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error) {
	return repo.ComputeStats(ctx, db, asin, marketplace)
}

// UpsertStats proxies repo.UpsertStats.
func (statsRepoShim) UpsertStats(ctx context.Context, db *gorm.DB, s *domain.ReviewStats) error {
	return repo.UpsertStats(ctx, db, s)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression for JSON payloads
//  8. Rate limiter (per user/IP; internal endpoints bypass)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, q services.JobQueue, rc *cache.Cache, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress listing payloads
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP; probes are never throttled
	r.Use(func(c *gin.Context) {
		if p := c.Request.URL.Path; p == "/health" || p == "/metrics" {
			middleware.MarkRateBypass(c)
		}
		c.Next()
	})
	rl := middleware.NewRateLimiter(cfg.APIRateRPS, cfg.APIRateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Next-Cursor", "X-Cache", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Next-Cursor", "X-Cache", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS stays off; the service runs behind a proxy)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/queue/cache
	scrapeSvc := services.NewScrapeService(db, jobRepoShim{}, q, rc, cfg.Provider)
	reviewSvc := services.NewReviewService(db, reviewRepoShim{})
	statsSvc := services.NewStatsService(db, statsRepoShim{})
	h := handlers.New(scrapeSvc, reviewSvc, statsSvc, rc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Scrape jobs
		api.POST("/scrape", h.CreateScrape)
		api.GET("/jobs/:id", h.GetJob)

		// Stored reviews and statistics
		api.GET("/reviews", h.ListReviews)
		api.GET("/stats", h.GetStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
