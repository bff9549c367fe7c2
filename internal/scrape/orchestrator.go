package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/repo"
	"github.com/tbourn/go-review-scraper/internal/source"
)

// Job is one unit of scrape work: fetch reviews for a product from one
// source kind and persist the novel ones under the given job identifier.
type Job struct {
	ID          string
	ASIN        string
	Marketplace string
	Source      domain.SourceKind
	MaxPages    int
}

// Orchestrator executes jobs end to end: it stamps the job running, streams
// reviews from the source, deduplicates against stored records, persists
// novel ones with periodic progress flushes, and lands the job in a terminal
// state. Jobs are never retried at this level; retries live inside the
// fetch layer.
type Orchestrator struct {
	db         *gorm.DB
	flushEvery int
	log        zerolog.Logger

	// newSource builds the source for a job's kind; a test seam defaulting
	// to the source factory over the shared fetcher.
	newSource func(kind domain.SourceKind) (source.Source, error)

	// now is a test seam for timestamping.
	now func() time.Time
}

// NewOrchestrator wires an Orchestrator over the given database and the
// shared rate-limited fetcher.
func NewOrchestrator(db *gorm.DB, cfg config.Config, f *source.Fetcher, log zerolog.Logger) *Orchestrator {
	flushEvery := cfg.Scrape.BatchFlushSize
	if flushEvery <= 0 {
		flushEvery = 1
	}
	o := &Orchestrator{
		db:         db,
		flushEvery: flushEvery,
		log:        log.With().Str("component", "scrape.orchestrator").Logger(),
	}
	o.newSource = func(kind domain.SourceKind) (source.Source, error) {
		return source.New(kind, cfg, f, log)
	}
	o.now = func() time.Time { return time.Now().UTC() }
	return o
}

// Run executes one job to a terminal state. The returned error reports why
// a job failed; the job row itself has already been marked failed by then.
// A panic inside the pipeline is recovered and lands the job as failed.
//
// Progress counters are flushed to the job row every flushEvery inserts, so
// an interrupted job still shows how far it got. Terminal status writes use
// a detached context: a job killed by its deadline must still be able to
// record that fact.
func (o *Orchestrator) Run(ctx context.Context, job Job) (err error) {
	log := o.log.With().
		Str("job_id", job.ID).
		Str("asin", job.ASIN).
		Str("marketplace", job.Marketplace).
		Str("source", string(job.Source)).
		Logger()

	started := o.now()
	fetched, pages := 0, 0

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error().Interface("panic", r).Msg("scrape job panicked")
			o.fail(ctx, job, err, fetched, pages, started)
		}
	}()

	if err := repo.MarkJobRunning(detach(ctx), o.db, job.ID, started); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	log.Info().Msg("scrape job started")

	src, err := o.newSource(job.Source)
	if err != nil {
		o.fail(ctx, job, err, fetched, pages, started)
		return err
	}

	existing, err := repo.ExistingReviewIDs(ctx, o.db, job.ASIN, job.Marketplace)
	if err != nil {
		o.fail(ctx, job, err, fetched, pages, started)
		return fmt.Errorf("load existing review ids: %w", err)
	}
	dedup := NewDeduplicator(existing)

	stream := src.FetchReviews(ctx, job.ASIN, job.Marketplace, job.MaxPages, 1)
	sinceFlush := 0
	for {
		r, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pages = stream.Page()
			o.fail(ctx, job, err, fetched, pages, started)
			return err
		}
		pages = stream.Page()

		if !dedup.Keep(r.ID) {
			reviewsSkipped.Inc()
			continue
		}
		if err := repo.InsertReview(ctx, o.db, r); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// Another job stored it between our preload and now.
				reviewsSkipped.Inc()
				continue
			}
			o.fail(ctx, job, err, fetched, pages, started)
			return fmt.Errorf("insert review %s: %w", r.ID, err)
		}
		reviewsStored.Inc()
		fetched++
		sinceFlush++
		if sinceFlush >= o.flushEvery {
			if err := repo.UpdateJobProgress(ctx, o.db, job.ID, fetched, pages); err != nil {
				log.Warn().Err(err).Msg("progress flush failed")
			}
			sinceFlush = 0
		}
	}

	// Stats are derived data; a recompute failure is logged but does not
	// undo a successful scrape.
	if err := repo.RecomputeStats(ctx, o.db, job.ASIN, job.Marketplace); err != nil {
		log.Warn().Err(err).Msg("stats recompute failed")
	}

	done := o.now()
	if err := repo.CompleteJob(detach(ctx), o.db, job.ID, fetched, pages, done); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	jobsTotal.WithLabelValues(string(domain.JobCompleted), string(job.Source)).Inc()
	jobDuration.WithLabelValues(string(domain.JobCompleted)).Observe(done.Sub(started).Seconds())
	log.Info().Int("reviews_fetched", fetched).Int("pages_processed", pages).Msg("scrape job completed")
	return nil
}

// fail lands the job in the failed state, keeping whatever partial progress
// was made. Best effort: if even the status write fails there is nothing
// left to do but log.
func (o *Orchestrator) fail(ctx context.Context, job Job, cause error, fetched, pages int, started time.Time) {
	done := o.now()
	if err := repo.FailJob(detach(ctx), o.db, job.ID, cause.Error(), fetched, pages, done); err != nil {
		o.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to record job failure")
		return
	}
	jobsTotal.WithLabelValues(string(domain.JobFailed), string(job.Source)).Inc()
	jobDuration.WithLabelValues(string(domain.JobFailed)).Observe(done.Sub(started).Seconds())
	o.log.Warn().Err(cause).Str("job_id", job.ID).Int("reviews_fetched", fetched).Msg("scrape job failed")
}

// detach strips cancellation so terminal status writes outlive the job's
// deadline.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
