// Package services – ReviewService
//
// This file implements the ReviewService, the read path over stored
// reviews. Listing is cursor-paginated: records are ordered by identifier
// ascending and the cursor is the last identifier of the previous page, so
// pages stay stable while new reviews keep arriving.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

const (
	// DefaultPageLimit is applied when the caller passes no limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps a single page regardless of what was requested.
	MaxPageLimit = 100
)

// ReviewRepo defines the repository contract required by ReviewService.
type ReviewRepo interface {
	// ListReviewsAfter returns up to limit reviews for the product pair
	// with identifiers strictly greater than cursor, ordered ascending.
	ListReviewsAfter(ctx context.Context, db *gorm.DB, asin, marketplace, cursor string, limit int) ([]domain.Review, error)

	// CountReviews returns the number of stored reviews for the pair.
	CountReviews(ctx context.Context, db *gorm.DB, asin, marketplace string) (int64, error)
}

// ReviewService serves stored reviews to the HTTP layer.
type ReviewService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the review repository used by this service.
	Repo ReviewRepo
}

// NewReviewService constructs a ReviewService.
func NewReviewService(db *gorm.DB, r ReviewRepo) *ReviewService {
	return &ReviewService{DB: db, Repo: r}
}

// List returns one page of reviews plus the cursor for the next page.
//
// An empty cursor starts from the beginning. The next cursor is empty when
// this page was short, i.e. the listing is exhausted; a full page returns
// its last identifier so the caller can continue. Limits outside [1,
// MaxPageLimit] are clamped.
func (s *ReviewService) List(ctx context.Context, asin, marketplace, cursor string, limit int) ([]domain.Review, string, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	items, err := s.Repo.ListReviewsAfter(ctx, s.DB, asin, marketplace, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) == limit {
		next = items[len(items)-1].ID
	}
	return items, next, nil
}

// Count returns the total number of stored reviews for the pair.
func (s *ReviewService) Count(ctx context.Context, asin, marketplace string) (int64, error) {
	return s.Repo.CountReviews(ctx, s.DB, asin, marketplace)
}
