// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ScrapeJob
// model.
//
// Job rows are single-writer: only the orchestrator instance that owns a job
// mutates it after creation, so these updates are plain by-primary-key
// writes without optimistic locking.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

// CreateJob inserts a new scrape job in the queued state. The caller
// supplies the job ID so it can be handed back before the queue picks the
// job up.
func CreateJob(ctx context.Context, db *gorm.DB, jobID, asin, marketplace string, source domain.SourceKind) (*domain.ScrapeJob, error) {
	j := &domain.ScrapeJob{
		JobID:       jobID,
		ASIN:        asin,
		Marketplace: marketplace,
		Source:      source,
		Status:      domain.JobQueued,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, err
	}
	return j, nil
}

// GetJob fetches a job by its ID, or ErrNotFound if missing.
func GetJob(ctx context.Context, db *gorm.DB, jobID string) (*domain.ScrapeJob, error) {
	var j domain.ScrapeJob
	if err := db.WithContext(ctx).Where("job_id = ?", jobID).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkJobRunning transitions a job to running and stamps its start time.
// Returns ErrNotFound if the job row does not exist.
func MarkJobRunning(ctx context.Context, db *gorm.DB, jobID string, startedAt time.Time) error {
	return updateJob(ctx, db, jobID, map[string]any{
		"status":     domain.JobRunning,
		"started_at": startedAt,
	})
}

// UpdateJobProgress pushes the current counters onto the job row so external
// pollers observe progress without waiting for completion.
func UpdateJobProgress(ctx context.Context, db *gorm.DB, jobID string, reviewsFetched, pagesProcessed int) error {
	return updateJob(ctx, db, jobID, map[string]any{
		"reviews_fetched": reviewsFetched,
		"pages_processed": pagesProcessed,
	})
}

// CompleteJob transitions a job to its completed terminal state with final
// counters and completion time.
func CompleteJob(ctx context.Context, db *gorm.DB, jobID string, reviewsFetched, pagesProcessed int, completedAt time.Time) error {
	return updateJob(ctx, db, jobID, map[string]any{
		"status":          domain.JobCompleted,
		"reviews_fetched": reviewsFetched,
		"pages_processed": pagesProcessed,
		"completed_at":    completedAt,
	})
}

// FailJob transitions a job to its failed terminal state, recording the
// error text and whatever progress was committed before the failure.
func FailJob(ctx context.Context, db *gorm.DB, jobID, errMsg string, reviewsFetched, pagesProcessed int, completedAt time.Time) error {
	return updateJob(ctx, db, jobID, map[string]any{
		"status":          domain.JobFailed,
		"error":           errMsg,
		"reviews_fetched": reviewsFetched,
		"pages_processed": pagesProcessed,
		"completed_at":    completedAt,
	})
}

func updateJob(ctx context.Context, db *gorm.DB, jobID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.ScrapeJob{}).
		Where("job_id = ?", jobID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is the missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
