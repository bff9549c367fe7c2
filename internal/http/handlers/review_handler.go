// Stored-review HTTP handlers.
//
// This file exposes the read path over persisted reviews:
//   - GET /reviews  (cursor-paginated listing)
//
// Listing supports the Redis response cache: cache hits are replayed
// verbatim with `X-Cache: HIT`, misses are computed, stored, and marked
// `X-Cache: MISS`. Pagination headers ride alongside the JSON body so
// cached and fresh responses look identical to clients.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-scraper/internal/domain"
	"github.com/tbourn/go-review-scraper/internal/utils"
)

// ListReviewsResponse wraps a page of reviews with its paging cursor.
type ListReviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
	// Total is the number of stored reviews for the pair, not the page size.
	Total int64 `json:"total"`
	// NextCursor continues the listing; absent on the last page.
	NextCursor string `json:"next_cursor,omitempty"`
}

// reviewsCacheKey builds the response cache key for one listing request.
func reviewsCacheKey(asin, marketplace, cursor string, limit int) string {
	return fmt.Sprintf("reviews:%s:%s:%s:%d", asin, marketplace, cursor, limit)
}

// ListReviews godoc
// @ID          listReviews
// @Summary     List stored reviews (cursor-paginated)
// @Description Returns stored reviews for a product ordered by review ID ascending. Pass the next_cursor value back to continue.
// @Tags        Reviews
// @Produce     json
//
// @Param       asin         query  string  true   "Product identifier"            example(B08N5WRWNW)
// @Param       marketplace  query  string  false  "Storefront code"               default(com)
// @Param       limit        query  int     false  "Page size"                     minimum(1) maximum(100) default(20)
// @Param       cursor       query  string  false  "Last review ID of the previous page"
//
// @Success     200  {object}  handlers.ListReviewsResponse
// @Header      200  {string}  X-Next-Cursor  "Cursor for the next page (when more pages exist)"
// @Header      200  {string}  X-Cache        "HIT or MISS"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reviews [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	asin := c.Query("asin")
	if asin == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asin query parameter is required")
		return
	}
	marketplace := c.DefaultQuery("marketplace", "com")
	cursor := c.Query("cursor")
	limit := utils.AtoiDefault(c.Query("limit"), 0)

	ctx := c.Request.Context()
	key := reviewsCacheKey(asin, marketplace, cursor, limit)
	if h.cache != nil {
		if body, hit := h.cache.GetResponse(ctx, key); hit {
			replayCached(c, body)
			return
		}
	}

	items, next, err := h.reviewSvc.List(ctx, asin, marketplace, cursor, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	total, err := h.reviewSvc.Count(ctx, asin, marketplace)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Review{}
	}

	resp := ListReviewsResponse{Reviews: items, Total: total, NextCursor: next}
	if next != "" {
		c.Header("X-Next-Cursor", next)
	}
	h.writeCachingBody(c, key, resp)
}

// replayCached writes a previously cached JSON body, restoring the paging
// header from the envelope so cached responses stay self-consistent.
func replayCached(c *gin.Context, body []byte) {
	var envelope struct {
		NextCursor string `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.NextCursor != "" {
		c.Header("X-Next-Cursor", envelope.NextCursor)
	}
	c.Header("X-Cache", "HIT")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// writeCachingBody marshals resp once, stores it in the response cache,
// and writes it with `X-Cache: MISS`.
func (h *Handlers) writeCachingBody(c *gin.Context, key string, resp any) {
	body, err := json.Marshal(resp)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if h.cache != nil {
		h.cache.SetResponse(c.Request.Context(), key, body)
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
