// Package domain defines the persistence models for reviews, scrape jobs,
// and aggregated review statistics. These types are mapped with GORM and
// form the core data layer of the review scraper service.
package domain

import "time"

// SourceKind selects the fetch strategy used by a scrape job.
type SourceKind string

// Available source kinds.
const (
	// SourceDirect scrapes marketplace review pages directly, best effort,
	// bound by a small page ceiling.
	SourceDirect SourceKind = "direct"
	// SourceProvider fetches parsed reviews through the paid provider API,
	// bound by a larger page ceiling.
	SourceProvider SourceKind = "provider"
)

// Valid reports whether k names a known source kind.
func (k SourceKind) Valid() bool {
	return k == SourceDirect || k == SourceProvider
}

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

// Job lifecycle states. Transitions are queued → running → {completed, failed};
// completed and failed are terminal.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether s is a terminal job state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Review is one product review as fetched from a marketplace.
//
// A review is identified by (ID, ASIN, Marketplace); the composite primary
// key doubles as the uniqueness constraint that backs deduplication. A row
// with an already-stored identity is skipped at insert time, never
// overwritten.
//
// Fields:
//   - ID: review identifier from the source (unique per product+marketplace).
//   - ASIN: opaque catalog identifier of the reviewed product.
//   - Marketplace: regional storefront code (e.g. "com", "de").
//   - Rating: numeric rating in [1.0, 5.0].
//   - ProductAttributes: optional variant attributes ("Color: Black, Size: L").
//   - TimestampText: raw timestamp text as shown by the source.
//   - FetchedAt: when this service fetched the review.
type Review struct {
	ID                string    `json:"id"                  gorm:"type:varchar(50);primaryKey"`
	ASIN              string    `json:"asin"                gorm:"type:varchar(20);primaryKey;index:idx_reviews_asin_marketplace,priority:1"`
	Marketplace       string    `json:"marketplace"         gorm:"type:varchar(10);primaryKey;index:idx_reviews_asin_marketplace,priority:2"`
	Author            string    `json:"author"              gorm:"type:varchar(200);not null"`
	Title             string    `json:"title"               gorm:"type:text;not null"`
	Content           string    `json:"content"             gorm:"type:text;not null"`
	Rating            float64   `json:"rating"              gorm:"not null"`
	IsVerified        bool      `json:"is_verified"         gorm:"not null;default:false"`
	ProductAttributes *string   `json:"product_attributes,omitempty" gorm:"type:text"`
	TimestampText     string    `json:"timestamp_text"      gorm:"type:varchar(200);not null"`
	FetchedAt         time.Time `json:"fetched_at"          gorm:"index:idx_reviews_fetched_at"`
	CreatedAt         time.Time `json:"-"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// ScrapeJob tracks one scrape request from submission to its terminal state.
//
// A job row is created at submission time and mutated only by the
// orchestrator that owns it (single-writer invariant). Jobs are never
// deleted by the service; retention is an external concern.
//
// Fields:
//   - JobID: opaque, caller-visible UUID primary key.
//   - Status: see JobStatus; terminal once completed or failed.
//   - ReviewsFetched: newly inserted reviews only, duplicates excluded.
//   - PagesProcessed: highest source page number observed, not a running sum.
//   - Error: human-readable failure reason, set only on failed jobs.
type ScrapeJob struct {
	JobID          string     `json:"job_id"          gorm:"type:char(36);primaryKey"`
	ASIN           string     `json:"asin"            gorm:"type:varchar(20);not null;index:idx_jobs_asin_marketplace,priority:1"`
	Marketplace    string     `json:"marketplace"     gorm:"type:varchar(10);not null;index:idx_jobs_asin_marketplace,priority:2"`
	Source         SourceKind `json:"source"          gorm:"type:varchar(20);not null"`
	Status         JobStatus  `json:"status"          gorm:"type:varchar(20);not null;index:idx_jobs_status"`
	ReviewsFetched int        `json:"reviews_fetched" gorm:"not null;default:0"`
	PagesProcessed int        `json:"pages_processed" gorm:"not null;default:0"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          *string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

// TableName returns the database table name for ScrapeJob.
func (ScrapeJob) TableName() string { return "scrape_jobs" }

// ReviewStats is the cached statistics snapshot for one (ASIN, marketplace)
// pair. It is rebuilt wholesale from the reviews table on each aggregation,
// so it is always consistent with the reviews that existed at the instant of
// computation. Exactly one row exists per pair (upsert semantics).
type ReviewStats struct {
	ID                 uint      `json:"-"                   gorm:"primaryKey;autoIncrement"`
	ASIN               string    `json:"asin"                gorm:"type:varchar(20);not null;uniqueIndex:ux_stats_asin_marketplace,priority:1"`
	Marketplace        string    `json:"marketplace"         gorm:"type:varchar(10);not null;uniqueIndex:ux_stats_asin_marketplace,priority:2"`
	ReviewCount        int64     `json:"review_count"        gorm:"not null;default:0"`
	AverageRating      float64   `json:"average_rating"      gorm:"not null;default:0"`
	Rating1            int64     `json:"-"                   gorm:"column:rating_1_count;not null;default:0"`
	Rating2            int64     `json:"-"                   gorm:"column:rating_2_count;not null;default:0"`
	Rating3            int64     `json:"-"                   gorm:"column:rating_3_count;not null;default:0"`
	Rating4            int64     `json:"-"                   gorm:"column:rating_4_count;not null;default:0"`
	Rating5            int64     `json:"-"                   gorm:"column:rating_5_count;not null;default:0"`
	LastReviewedAtText *string   `json:"last_reviewed_at_text,omitempty" gorm:"type:varchar(200)"`
	LastFetchedAt      time.Time `json:"last_fetched_at"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// TableName returns the database table name for ReviewStats.
func (ReviewStats) TableName() string { return "review_stats" }

// Breakdown returns the per-star histogram as a map keyed by star value 1–5.
func (s *ReviewStats) Breakdown() map[int]int64 {
	return map[int]int64{
		1: s.Rating1,
		2: s.Rating2,
		3: s.Rating3,
		4: s.Rating4,
		5: s.Rating5,
	}
}

// SetBreakdown stores a per-star histogram into the flat count columns.
// Keys outside 1–5 are ignored.
func (s *ReviewStats) SetBreakdown(b map[int]int64) {
	s.Rating1 = b[1]
	s.Rating2 = b[2]
	s.Rating3 = b[3]
	s.Rating4 = b[4]
	s.Rating5 = b[5]
}
