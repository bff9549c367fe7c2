// Scrape HTTP handlers.
//
// This file exposes REST endpoints for the scraping pipeline:
//   - POST /scrape      (submit a scrape job)
//   - GET  /jobs/{id}   (job status)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/services"
)

//
// Service contracts (context-aware)
//

// ScrapeService defines the submission side of the pipeline consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ScrapeService interface {
	// Submit validates and enqueues a scrape job. cached=true means the
	// product pair is on cooldown and no job was created.
	Submit(ctx context.Context, asin, marketplace string, kind domain.SourceKind, maxPages int) (job *domain.ScrapeJob, cached bool, err error)
	// Status returns the job record for the given identifier.
	Status(ctx context.Context, jobID string) (*domain.ScrapeJob, error)
}

// ReviewService defines the stored-review read path.
type ReviewService interface {
	// List returns one page of reviews and the cursor for the next page
	// (empty when the listing is exhausted).
	List(ctx context.Context, asin, marketplace, cursor string, limit int) ([]domain.Review, string, error)
	// Count returns the total stored reviews for the pair.
	Count(ctx context.Context, asin, marketplace string) (int64, error)
}

// StatsService defines the statistics read path.
type StatsService interface {
	// Get returns the statistics snapshot for the pair, computing or
	// zero-filling as needed. It does not error on unknown pairs.
	Get(ctx context.Context, asin, marketplace string) (*domain.ReviewStats, error)
}

// ResponseCache is the read-path response cache contract. A nil-safe
// disabled implementation always misses.
type ResponseCache interface {
	GetResponse(ctx context.Context, key string) ([]byte, bool)
	SetResponse(ctx context.Context, key string, body []byte)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for scrape submission, job status, stored
// reviews, and statistics. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	scrapeSvc ScrapeService
	reviewSvc ReviewService
	statsSvc  StatsService
	cache     ResponseCache
}

// New constructs and returns a Handlers instance bound to the given
// services. cache may be nil to disable response caching.
func New(scrapeSvc ScrapeService, reviewSvc ReviewService, statsSvc StatsService, cache ResponseCache) *Handlers {
	return &Handlers{scrapeSvc: scrapeSvc, reviewSvc: reviewSvc, statsSvc: statsSvc, cache: cache}
}

//
// DTOs
//

// ScrapeRequest is the JSON payload for submitting a scrape job.
type ScrapeRequest struct {
	// ASIN is the marketplace product identifier.
	ASIN string `json:"asin" binding:"required" example:"B08N5WRWNW"`
	// Marketplace is the storefront code; defaults to "com".
	Marketplace string `json:"marketplace" example:"co.uk"`
	// Source selects the fetch strategy: "direct" or "provider".
	Source string `json:"source" example:"direct"`
	// MaxPages optionally caps pages fetched; 0 means the source ceiling.
	MaxPages int `json:"max_pages" example:"2"`
}

// ScrapeResponse acknowledges a scrape submission.
type ScrapeResponse struct {
	// JobID identifies the created job; empty for cooldown hits.
	JobID string `json:"job_id,omitempty" example:"2c9b17ba-41a8-40e1-9fc0-68a17d1f1347"`
	// Status is "queued" for accepted submissions, "cached" for cooldown hits.
	Status string `json:"status" example:"queued"`
	// Message is a human-readable note.
	Message string `json:"message" example:"scrape job queued"`
}

//
// Handlers
//

// CreateScrape godoc
// @ID          createScrape
// @Summary     Submit a scrape job
// @Description Queues asynchronous review scraping for a product. Recently scraped products answer "cached" without queueing.
// @Tags        Scrape
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ScrapeRequest  true  "Scrape request payload"
//
// @Success     202  {object}  handlers.ScrapeResponse
// @Success     200  {object}  handlers.ScrapeResponse  "Cooldown hit"
// @Failure     400  {object}  handlers.ErrorResponse   "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse   "Queue busy"
// @Failure     500  {object}  handlers.ErrorResponse   "Internal error"
// @Router      /scrape [post]
func (h *Handlers) CreateScrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	kind := domain.SourceKind(strings.ToLower(strings.TrimSpace(req.Source)))
	if kind == "" {
		kind = domain.SourceDirect
	}

	job, cached, err := h.scrapeSvc.Submit(c.Request.Context(), req.ASIN, req.Marketplace, kind, req.MaxPages)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidASIN),
			errors.Is(err, services.ErrInvalidMarketplace),
			errors.Is(err, services.ErrInvalidSource):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrSourceMisconfigured):
			fail(c, http.StatusBadRequest, ErrCodeSourceNotConfig, err.Error())
		case errors.Is(err, services.ErrQueueBusy):
			fail(c, http.StatusServiceUnavailable, ErrCodeQueueBusy, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}

	if cached {
		ok(c, http.StatusOK, ScrapeResponse{
			Status:  "cached",
			Message: "product was scraped recently; stored reviews are fresh",
		})
		return
	}
	ok(c, http.StatusAccepted, ScrapeResponse{
		JobID:   job.JobID,
		Status:  string(job.Status),
		Message: "scrape job queued",
	})
}

// GetJob godoc
// @ID          getJob
// @Summary     Get scrape job status
// @Description Returns the current state and progress counters of a scrape job.
// @Tags        Scrape
// @Produce     json
//
// @Param       id  path  string  true  "Job ID"
//
// @Success     200  {object}  domain.ScrapeJob
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown job"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /jobs/{id} [get]
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.scrapeSvc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrJobNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, job)
}
