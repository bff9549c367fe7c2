// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - InsertReview returns ErrDuplicate when the (id, asin, marketplace)
//     identity already exists; callers treat that as a skipped duplicate,
//     never as a failure.
//   - On other DB errors (connectivity, missing table, etc.) the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned by InsertReview when the review identity is
// already stored. The stored row is left untouched.
var ErrDuplicate = errors.New("review already stored")

// InsertReview persists a single review row. The composite primary key on
// (id, asin, marketplace) is the storage-level dedup backstop: a conflicting
// insert is reported as ErrDuplicate and the existing row is never
// overwritten.
func InsertReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	err := db.WithContext(ctx).Create(r).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// ExistingReviewIDs returns the set of review identifiers already stored for
// the given (asin, marketplace) pair. The orchestrator pre-loads this set
// once per job run to filter incoming records.
func ExistingReviewIDs(ctx context.Context, db *gorm.DB, asin, marketplace string) (map[string]struct{}, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("asin = ? AND marketplace = ?", asin, marketplace).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ListReviewsAfter returns up to limit reviews for (asin, marketplace),
// ordered by identifier ascending. When cursor is non-empty only rows with
// an identifier strictly greater than the cursor are returned, which makes
// repeated calls with the previous page's last identifier a gap-free,
// overlap-free forward scan.
func ListReviewsAfter(ctx context.Context, db *gorm.DB, asin, marketplace, cursor string, limit int) ([]domain.Review, error) {
	q := db.WithContext(ctx).
		Where("asin = ? AND marketplace = ?", asin, marketplace)
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}
	var out []domain.Review
	err := q.Order("id ASC").Limit(limit).Find(&out).Error
	return out, err
}

// CountReviews returns the number of stored reviews for (asin, marketplace).
func CountReviews(ctx context.Context, db *gorm.DB, asin, marketplace string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("asin = ? AND marketplace = ?", asin, marketplace).
		Count(&total).Error
	return total, err
}

// isUniqueViolation matches the SQLite unique-constraint error text for
// drivers that do not translate it to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed") && strings.Contains(msg, "unique")
}
