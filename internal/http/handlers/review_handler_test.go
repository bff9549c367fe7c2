package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

// --- fake review service ---
type fakeReviewSvc struct {
	items []domain.Review
	next  string
	total int64
	err   error

	gotCursor string
	gotLimit  int
	calls     int
}

func (f *fakeReviewSvc) List(_ context.Context, _, _, cursor string, limit int) ([]domain.Review, string, error) {
	f.calls++
	f.gotCursor, f.gotLimit = cursor, limit
	return f.items, f.next, f.err
}

func (f *fakeReviewSvc) Count(context.Context, string, string) (int64, error) {
	return f.total, f.err
}

// --- in-memory response cache ---
type fakeRespCache struct {
	entries map[string][]byte
	sets    int
}

func newFakeRespCache() *fakeRespCache {
	return &fakeRespCache{entries: map[string][]byte{}}
}

func (f *fakeRespCache) GetResponse(_ context.Context, key string) ([]byte, bool) {
	body, hit := f.entries[key]
	return body, hit
}

func (f *fakeRespCache) SetResponse(_ context.Context, key string, body []byte) {
	f.sets++
	f.entries[key] = body
}

func newReviewRouter(svc ReviewService, cache ResponseCache) *gin.Engine {
	r := gin.New()
	h := New(nil, svc, nil, cache)
	r.GET("/reviews", h.ListReviews)
	return r
}

func getPath(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListReviews_RequiresASIN(t *testing.T) {
	r := newReviewRouter(&fakeReviewSvc{}, nil)
	w := getPath(r, "/reviews")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestListReviews_PageWithCursorHeader(t *testing.T) {
	svc := &fakeReviewSvc{
		items: []domain.Review{
			{ID: "R001", ASIN: "B08N5WRWNW", Marketplace: "com", Rating: 5},
			{ID: "R002", ASIN: "B08N5WRWNW", Marketplace: "com", Rating: 4},
		},
		next:  "R002",
		total: 7,
	}
	r := newReviewRouter(svc, nil)

	w := getPath(r, "/reviews?asin=B08N5WRWNW&limit=2&cursor=R000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Next-Cursor"); got != "R002" {
		t.Fatalf("X-Next-Cursor = %q", got)
	}
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("X-Cache = %q", got)
	}
	if svc.gotCursor != "R000" || svc.gotLimit != 2 {
		t.Fatalf("service saw cursor=%q limit=%d", svc.gotCursor, svc.gotLimit)
	}

	var resp ListReviewsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Reviews) != 2 || resp.Total != 7 || resp.NextCursor != "R002" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestListReviews_EmptyListingMarshalsArray(t *testing.T) {
	r := newReviewRouter(&fakeReviewSvc{items: nil, total: 0}, nil)

	w := getPath(r, "/reviews?asin=B08N5WRWNW")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Next-Cursor") != "" {
		t.Fatal("last page must not advertise a cursor")
	}
	// nil slice must serialize as [] rather than null
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["reviews"]) != "[]" {
		t.Fatalf("reviews = %s", raw["reviews"])
	}
}

func TestListReviews_CacheMissThenHit(t *testing.T) {
	svc := &fakeReviewSvc{
		items: []domain.Review{{ID: "R001", ASIN: "B08N5WRWNW", Marketplace: "com"}},
		next:  "R001",
		total: 3,
	}
	cache := newFakeRespCache()
	r := newReviewRouter(svc, cache)

	w := getPath(r, "/reviews?asin=B08N5WRWNW&limit=1")
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("first request X-Cache = %q", got)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d", cache.sets)
	}
	firstBody := w.Body.String()

	// second request replays the cached body without touching the service
	w = getPath(r, "/reviews?asin=B08N5WRWNW&limit=1")
	if got := w.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("second request X-Cache = %q", got)
	}
	if w.Body.String() != firstBody {
		t.Fatalf("cached body differs:\n%s\n%s", firstBody, w.Body.String())
	}
	// the paging header is restored from the cached envelope
	if got := w.Header().Get("X-Next-Cursor"); got != "R001" {
		t.Fatalf("replayed X-Next-Cursor = %q", got)
	}
	if svc.calls != 1 {
		t.Fatalf("service calls = %d", svc.calls)
	}
}

func TestListReviews_ServiceError(t *testing.T) {
	r := newReviewRouter(&fakeReviewSvc{err: errors.New("db gone")}, nil)

	w := getPath(r, "/reviews?asin=B08N5WRWNW")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != ErrCodeListFailed {
		t.Fatalf("code = %q", resp.Code)
	}
}
