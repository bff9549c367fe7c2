// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file computes and persists the per-product review
// statistics snapshot.
//
// The snapshot is recomputed with a full scan of the reviews for the pair on
// every aggregation, not merged incrementally, so it always reflects the
// review table at the instant of computation. That scan is O(total reviews)
// per completed job and is the known scalability ceiling of this design.
package repo

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

// ComputeStats reads every stored review for (asin, marketplace) and builds
// a fresh snapshot. It returns (nil, nil) when no reviews are stored; in
// that case any prior snapshot must be left untouched by the caller.
//
// Histogram rule: each rating is truncated to its integer floor and bucketed
// into 1–5. Ratings whose truncation falls outside that range are excluded
// from the histogram but still counted in the total and the mean.
func ComputeStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error) {
	var reviews []domain.Review
	err := db.WithContext(ctx).
		Where("asin = ? AND marketplace = ?", asin, marketplace).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, nil
	}

	var (
		sum       float64
		breakdown = map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
		latest    = reviews[0]
	)
	for _, r := range reviews {
		sum += r.Rating
		if star := int(r.Rating); star >= 1 && star <= 5 {
			breakdown[star]++
		}
		if r.FetchedAt.After(latest.FetchedAt) {
			latest = r
		}
	}

	count := int64(len(reviews))
	mean := math.Round(sum/float64(count)*10) / 10

	lastText := latest.TimestampText
	s := &domain.ReviewStats{
		ASIN:               asin,
		Marketplace:        marketplace,
		ReviewCount:        count,
		AverageRating:      mean,
		LastReviewedAtText: &lastText,
		LastFetchedAt:      time.Now().UTC(),
	}
	s.SetBreakdown(breakdown)
	return s, nil
}

// UpsertStats writes the snapshot keyed by (asin, marketplace): exactly one
// row per pair, fields overwritten in place on conflict.
func UpsertStats(ctx context.Context, db *gorm.DB, s *domain.ReviewStats) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asin"}, {Name: "marketplace"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"review_count", "average_rating",
			"rating_1_count", "rating_2_count", "rating_3_count",
			"rating_4_count", "rating_5_count",
			"last_reviewed_at_text", "last_fetched_at", "updated_at",
		}),
	}).Create(s).Error
}

// GetStats fetches the cached snapshot for (asin, marketplace), or
// ErrNotFound when none has been computed yet.
func GetStats(ctx context.Context, db *gorm.DB, asin, marketplace string) (*domain.ReviewStats, error) {
	var s domain.ReviewStats
	err := db.WithContext(ctx).
		Where("asin = ? AND marketplace = ?", asin, marketplace).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecomputeStats runs ComputeStats and, when reviews exist, upserts the
// resulting snapshot. With zero stored reviews it writes nothing, so a prior
// snapshot is never silently zeroed out.
func RecomputeStats(ctx context.Context, db *gorm.DB, asin, marketplace string) error {
	s, err := ComputeStats(ctx, db, asin, marketplace)
	if err != nil || s == nil {
		return err
	}
	return UpsertStats(ctx, db, s)
}
