// Package services – StatsService
//
// This file implements the StatsService, the read path over aggregated
// rating statistics. Snapshots are normally maintained by completed scrape
// jobs; when none exists yet the service computes one from storage on the
// fly, and falls back to a zero-valued snapshot when there are no reviews
// at all. The read path never errors just because nothing was scraped yet.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/repo"
)

// StatsRepo defines the repository contract required by StatsService.
type StatsRepo interface {
	// GetStats fetches the stored snapshot for the product pair.
	GetStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error)

	// ComputeStats aggregates stored reviews into a fresh snapshot. It
	// returns (nil, nil) when the pair has no reviews.
	ComputeStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error)

	// UpsertStats stores a snapshot, replacing any previous one.
	UpsertStats(ctx context.Context, db *gorm.DB, s *domain.ReviewStats) error
}

// StatsService serves rating statistics snapshots.
type StatsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the stats repository used by this service.
	Repo StatsRepo
}

// NewStatsService constructs a StatsService.
func NewStatsService(db *gorm.DB, r StatsRepo) *StatsService {
	return &StatsService{DB: db, Repo: r}
}

// Get returns the statistics snapshot for the product pair.
//
// Resolution order: the stored snapshot; else a fresh aggregate over
// stored reviews, which is persisted for subsequent reads; else a
// zero-valued snapshot for a pair with no reviews.
func (s *StatsService) Get(ctx context.Context, asin, marketplace string) (*domain.ReviewStats, error) {
	snap, err := s.Repo.GetStats(ctx, s.DB, asin, marketplace)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	snap, err = s.Repo.ComputeStats(ctx, s.DB, asin, marketplace)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return &domain.ReviewStats{ASIN: asin, Marketplace: marketplace}, nil
	}
	if err := s.Repo.UpsertStats(ctx, s.DB, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
