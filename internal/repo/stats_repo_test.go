package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

func TestComputeStats_EmptyPairReturnsNil(t *testing.T) {
	db := newTestDB(t, &domain.Review{}, &domain.ReviewStats{})
	s, err := ComputeStats(context.Background(), db, "A1", "com")
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil snapshot for empty pair, got %+v", s)
	}
}

func TestComputeStats_CountMeanHistogram(t *testing.T) {
	db := newTestDB(t, &domain.Review{}, &domain.ReviewStats{})
	ctx := context.Background()

	ratings := []float64{5, 5, 4, 3, 1}
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, rating := range ratings {
		r := seedReview(fmt.Sprintf("R%d", i), "A1", "com", rating)
		r.FetchedAt = base.Add(time.Duration(i) * time.Minute)
		r.TimestampText = fmt.Sprintf("Reviewed on day %d", i)
		if err := InsertReview(ctx, db, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s, err := ComputeStats(ctx, db, "A1", "com")
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if s.ReviewCount != 5 {
		t.Errorf("count = %d, want 5", s.ReviewCount)
	}
	if s.AverageRating != 3.6 {
		t.Errorf("mean = %v, want 3.6", s.AverageRating)
	}
	want := map[int]int64{1: 1, 2: 0, 3: 1, 4: 1, 5: 2}
	got := s.Breakdown()
	for star, n := range want {
		if got[star] != n {
			t.Errorf("breakdown[%d] = %d, want %d", star, got[star], n)
		}
	}
	// Last reviewed text follows the record with the latest fetch time.
	if s.LastReviewedAtText == nil || *s.LastReviewedAtText != "Reviewed on day 4" {
		t.Errorf("last reviewed text = %v", s.LastReviewedAtText)
	}
}

func TestComputeStats_FractionalAndOutOfRangeRatings(t *testing.T) {
	db := newTestDB(t, &domain.Review{}, &domain.ReviewStats{})
	ctx := context.Background()

	// 4.5 truncates into the 4-star bucket; 0.5 truncates to 0 and is kept
	// out of the histogram but still counted in the mean and the total.
	for i, rating := range []float64{4.5, 0.5} {
		if err := InsertReview(ctx, db, seedReview(fmt.Sprintf("R%d", i), "A1", "com", rating)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s, err := ComputeStats(ctx, db, "A1", "com")
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if s.ReviewCount != 2 {
		t.Errorf("count = %d, want 2", s.ReviewCount)
	}
	if s.AverageRating != 2.5 {
		t.Errorf("mean = %v, want 2.5", s.AverageRating)
	}
	var histTotal int64
	for _, n := range s.Breakdown() {
		histTotal += n
	}
	if histTotal != 1 || s.Rating4 != 1 {
		t.Errorf("histogram = %v, want single 4-star entry", s.Breakdown())
	}
}

func TestRecomputeStats_UpsertsSingleRowPerPair(t *testing.T) {
	db := newTestDB(t, &domain.Review{}, &domain.ReviewStats{})
	ctx := context.Background()

	if err := InsertReview(ctx, db, seedReview("R1", "A1", "com", 5)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := RecomputeStats(ctx, db, "A1", "com"); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	if err := InsertReview(ctx, db, seedReview("R2", "A1", "com", 3)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := RecomputeStats(ctx, db, "A1", "com"); err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	var rows int64
	if err := db.Model(&domain.ReviewStats{}).Where("asin = ? AND marketplace = ?", "A1", "com").Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("snapshot rows = %d, want 1", rows)
	}

	s, err := GetStats(ctx, db, "A1", "com")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.ReviewCount != 2 || s.AverageRating != 4.0 {
		t.Fatalf("snapshot not refreshed in place: %+v", s)
	}
}

func TestRecomputeStats_ZeroReviewsLeavesPriorSnapshot(t *testing.T) {
	db := newTestDB(t, &domain.Review{}, &domain.ReviewStats{})
	ctx := context.Background()

	if err := InsertReview(ctx, db, seedReview("R1", "A1", "com", 4)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := RecomputeStats(ctx, db, "A1", "com"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	// Recomputation for a pair with no reviews must not zero the existing
	// snapshot of another pair, nor write a new one.
	if err := RecomputeStats(ctx, db, "A2", "de"); err != nil {
		t.Fatalf("empty recompute: %v", err)
	}
	if _, err := GetStats(ctx, db, "A2", "de"); !IsNotFound(err) {
		t.Fatalf("expected no snapshot for empty pair, got %v", err)
	}

	s, err := GetStats(ctx, db, "A1", "com")
	if err != nil || s.ReviewCount != 1 {
		t.Fatalf("prior snapshot disturbed: %+v, %v", s, err)
	}
}

func TestGetStats_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.ReviewStats{})
	if _, err := GetStats(context.Background(), db, "A1", "com"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
