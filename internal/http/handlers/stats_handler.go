// Statistics HTTP handlers.
//
// This file exposes the aggregated rating statistics read path:
//   - GET /stats
//
// The endpoint never 404s for unknown products: a pair with no reviews
// answers a zero-valued snapshot, matching how dashboards consume it.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

// StatsResponse is the JSON shape of one statistics snapshot.
type StatsResponse struct {
	ASIN          string  `json:"asin" example:"B08N5WRWNW"`
	Marketplace   string  `json:"marketplace" example:"com"`
	ReviewCount   int64   `json:"review_count" example:"128"`
	AverageRating float64 `json:"average_rating" example:"4.3"`
	// RatingBreakdown maps star value ("1".."5") to review count.
	RatingBreakdown    map[int]int64 `json:"rating_breakdown"`
	LastReviewedAtText *string       `json:"last_reviewed_at_text,omitempty"`
	LastFetchedAt      time.Time     `json:"last_fetched_at"`
}

// newStatsResponse flattens a snapshot into the wire shape, unpacking the
// histogram columns into the rating_breakdown map.
func newStatsResponse(s *domain.ReviewStats) StatsResponse {
	return StatsResponse{
		ASIN:               s.ASIN,
		Marketplace:        s.Marketplace,
		ReviewCount:        s.ReviewCount,
		AverageRating:      s.AverageRating,
		RatingBreakdown:    s.Breakdown(),
		LastReviewedAtText: s.LastReviewedAtText,
		LastFetchedAt:      s.LastFetchedAt,
	}
}

// statsCacheKey builds the response cache key for one stats request.
func statsCacheKey(asin, marketplace string) string {
	return fmt.Sprintf("stats:%s:%s", asin, marketplace)
}

// GetStats godoc
// @ID          getStats
// @Summary     Get rating statistics
// @Description Returns the aggregated rating snapshot for a product: review count, average rating, and the 1–5 star histogram.
// @Tags        Stats
// @Produce     json
//
// @Param       asin         query  string  true   "Product identifier"  example(B08N5WRWNW)
// @Param       marketplace  query  string  false  "Storefront code"     default(com)
//
// @Success     200  {object}  handlers.StatsResponse
// @Header      200  {string}  X-Cache  "HIT or MISS"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	asin := c.Query("asin")
	if asin == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asin query parameter is required")
		return
	}
	marketplace := c.DefaultQuery("marketplace", "com")

	ctx := c.Request.Context()
	key := statsCacheKey(asin, marketplace)
	if h.cache != nil {
		if body, hit := h.cache.GetResponse(ctx, key); hit {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	snap, err := h.statsSvc.Get(ctx, asin, marketplace)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	h.writeCachingBody(c, key, newStatsResponse(snap))
}
