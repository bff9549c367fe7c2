// Package services – ScrapeService
//
// This file implements the ScrapeService, the submission side of the
// scraping pipeline. It validates scrape requests, applies the per-product
// cooldown, creates the job record, and hands the job to the queue. Status
// lookups read the job record back for handlers.
//
// Service-level errors (e.g., ErrInvalidASIN, ErrQueueBusy) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/repo"
	"github.com/tbourn/go-review-scraper/internal/scrape"
)

// asinRE matches the storefront product identifier shape: ten uppercase
// alphanumerics.
var asinRE = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// JobRepo defines the repository contract required by ScrapeService.
type JobRepo interface {
	// CreateJob inserts a new job row in the queued state.
	CreateJob(ctx context.Context, db *gorm.DB, jobID, asin, marketplace string, source domain.SourceKind) (*domain.ScrapeJob, error)

	// GetJob fetches a job by its identifier.
	GetJob(ctx context.Context, db *gorm.DB, jobID string) (*domain.ScrapeJob, error)

	// FailJob lands a job in the failed state with an error message.
	FailJob(ctx context.Context, db *gorm.DB, jobID, errMsg string, reviewsFetched, pagesProcessed int, completedAt time.Time) error
}

// JobQueue is the submission contract of the scrape queue.
type JobQueue interface {
	Submit(job scrape.Job) error
}

// Cooldown is the contract of the per-product scrape cooldown.
type Cooldown interface {
	OnCooldown(ctx context.Context, asin, marketplace string) bool
	MarkScraped(ctx context.Context, asin, marketplace string)
}

// ScrapeService validates and submits scrape jobs and answers job status
// lookups.
type ScrapeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the job repository used by this service.
	Repo JobRepo
	// Queue accepts jobs for asynchronous execution.
	Queue JobQueue
	// Cooldown suppresses resubmission of recently scraped products.
	Cooldown Cooldown
	// Provider is consulted to reject provider submissions without
	// credentials before a job record is ever created.
	Provider config.ProviderConfig

	// NewID generates job identifiers; defaults to random UUIDs.
	NewID func() string
}

// NewScrapeService constructs a ScrapeService with UUID job identifiers.
func NewScrapeService(db *gorm.DB, r JobRepo, q JobQueue, cd Cooldown, provider config.ProviderConfig) *ScrapeService {
	return &ScrapeService{
		DB:       db,
		Repo:     r,
		Queue:    q,
		Cooldown: cd,
		Provider: provider,
		NewID:    uuid.NewString,
	}
}

// Submit validates the request and enqueues a scrape job. The returned
// boolean reports the cooldown short-circuit: when true, the product pair
// was scraped recently, no job was created, and the job pointer is nil.
//
// maxPages <= 0 means "as many as the source allows"; the source adapter
// applies its own ceiling either way.
func (s *ScrapeService) Submit(ctx context.Context, asin, marketplace string, kind domain.SourceKind, maxPages int) (*domain.ScrapeJob, bool, error) {
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if !asinRE.MatchString(asin) {
		return nil, false, ErrInvalidASIN
	}
	marketplace = strings.ToLower(strings.TrimSpace(marketplace))
	if marketplace == "" {
		marketplace = "com"
	}
	if !config.ValidMarketplace(marketplace) {
		return nil, false, ErrInvalidMarketplace
	}
	if !kind.Valid() {
		return nil, false, ErrInvalidSource
	}
	if kind == domain.SourceProvider && !s.Provider.HasCredentials() {
		return nil, false, ErrSourceMisconfigured
	}

	if s.Cooldown != nil && s.Cooldown.OnCooldown(ctx, asin, marketplace) {
		return nil, true, nil
	}

	job, err := s.Repo.CreateJob(ctx, s.DB, s.NewID(), asin, marketplace, kind)
	if err != nil {
		return nil, false, err
	}

	if err := s.Queue.Submit(scrape.Job{
		ID:          job.JobID,
		ASIN:        asin,
		Marketplace: marketplace,
		Source:      kind,
		MaxPages:    maxPages,
	}); err != nil {
		// The row exists but nothing will ever run it; land it failed so
		// status lookups do not show a forever-queued job.
		_ = s.Repo.FailJob(ctx, s.DB, job.JobID, "queue rejected submission: "+err.Error(), 0, 0, time.Now().UTC())
		if errors.Is(err, scrape.ErrQueueFull) || errors.Is(err, scrape.ErrQueueClosed) {
			return nil, false, ErrQueueBusy
		}
		return nil, false, err
	}

	if s.Cooldown != nil {
		s.Cooldown.MarkScraped(ctx, asin, marketplace)
	}
	return job, false, nil
}

// Status returns the job record for the given identifier.
func (s *ScrapeService) Status(ctx context.Context, jobID string) (*domain.ScrapeJob, error) {
	job, err := s.Repo.GetJob(ctx, s.DB, jobID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}
