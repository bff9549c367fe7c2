package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/domain"
)

const reviewPageOne = `<html><body>
<div data-hook="cr-filter-info-review-rating-count">
  1,523 global customer reviews
</div>
<div id="R1AAAAAAA" data-hook="review">
  <span class="a-profile-name">Alice</span>
  <a data-hook="review-title">Great product!</a>
  <i data-hook="review-star-rating" class="a-icon a-icon-star a-star-5"><span>5.0 out of 5 stars</span></i>
  <span data-hook="review-date">Reviewed in the United States on January 1, 2024</span>
  <span data-hook="avp-badge">Verified Purchase</span>
  <a data-hook="format-strip">Color: Black, Size: Large</a>
  <span data-hook="review-body">Exceeded my expectations.</span>
</div>
<div id="R2BBBBBBB" data-hook="review">
  <span class="a-profile-name">Bob</span>
  <a data-hook="review-title">Decent</a>
  <i data-hook="review-star-rating"><span>3.0 out of 5 stars</span></i>
  <span data-hook="review-date">Reviewed on January 2, 2024</span>
  <span data-hook="review-body">It works.</span>
</div>
<div id="R3CCCCCCC" data-hook="review">
  <span class="a-profile-name">Mallory</span>
  <a data-hook="review-title">No stars shown</a>
  <span data-hook="review-body">Broken markup, no rating element.</span>
</div>
<ul><li class="a-last"><a href="#">Next</a></li></ul>
</body></html>`

const reviewPageTwo = `<html><body>
<div id="R4DDDDDDD" data-hook="review">
  <span class="a-profile-name">Carol</span>
  <a data-hook="review-title">Fine</a>
  <i data-hook="review-star-rating" class="a-star-4"></i>
  <span data-hook="review-date">Reviewed on January 3, 2024</span>
  <span data-hook="review-body">Pretty good.</span>
</div>
<ul><li class="a-last a-disabled">Next</li></ul>
</body></html>`

// newDirectTestSource serves the given pages from an httptest server and
// returns a DirectSource pointed at it.
func newDirectTestSource(t *testing.T, maxPages int, pages map[int]string) *DirectSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		body, ok := pages[atoi(page)]
		if !ok {
			w.Write([]byte("<html><body></body></html>"))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	d := NewDirectSource(NewFetcher(testScrapeConfig(), zerolog.Nop()), maxPages, zerolog.Nop())
	d.urls = func(asin, marketplace string, page int) string {
		return fmt.Sprintf("%s/product-reviews/%s?page=%d", srv.URL, asin, page)
	}
	return d
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func TestDirectSource_ParsesPagesAndDropsMalformed(t *testing.T) {
	d := newDirectTestSource(t, 5, map[int]string{1: reviewPageOne, 2: reviewPageTwo})

	stream := d.FetchReviews(context.Background(), "B08N5WRWNW", "com", 0, 1)
	got, err := drain(t, stream)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("terminal error = %v", err)
	}

	// The malformed third element of page one is dropped.
	if len(got) != 3 {
		t.Fatalf("parsed %d reviews, want 3", len(got))
	}
	first := got[0]
	if first.ID != "R1AAAAAAA" || first.Author != "Alice" || first.Rating != 5 {
		t.Fatalf("first review: %+v", first)
	}
	if !first.IsVerified {
		t.Error("first review should be verified")
	}
	if first.ProductAttributes == nil || *first.ProductAttributes != "Color: Black, Size: Large" {
		t.Errorf("attributes = %v", first.ProductAttributes)
	}
	if first.ASIN != "B08N5WRWNW" || first.Marketplace != "com" {
		t.Errorf("identity fields: %+v", first)
	}

	// Rating fallback via "3.0 out of 5" text.
	if got[1].Rating != 3 || got[1].IsVerified {
		t.Fatalf("second review: %+v", got[1])
	}

	// Page two was reached because page one advertised a next page;
	// the disabled next button on page two ended the sequence.
	if got[2].ID != "R4DDDDDDD" || got[2].Rating != 4 {
		t.Fatalf("third review: %+v", got[2])
	}
	if stream.Page() != 2 {
		t.Fatalf("Page() = %d, want 2", stream.Page())
	}
}

func TestDirectSource_EmptyFirstPageEndsCleanly(t *testing.T) {
	d := newDirectTestSource(t, 5, nil)

	stream := d.FetchReviews(context.Background(), "A1", "com", 0, 1)
	got, err := drain(t, stream)
	if !errors.Is(err, io.EOF) || len(got) != 0 {
		t.Fatalf("got %d reviews, err %v, want clean empty EOF", len(got), err)
	}
}

func TestDirectSource_PageCeilingClampsRequest(t *testing.T) {
	pages := map[int]string{}
	for p := 1; p <= 4; p++ {
		pages[p] = reviewPageOne // every page claims a next page
	}
	d := newDirectTestSource(t, 2, pages)

	// Caller asks for more pages than the direct ceiling allows.
	stream := d.FetchReviews(context.Background(), "A1", "com", 99, 1)
	got, err := drain(t, stream)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("terminal error = %v", err)
	}
	if stream.Page() != 2 {
		t.Fatalf("Page() = %d, want ceiling of 2", stream.Page())
	}
	if len(got) != 4 { // two parseable reviews per page
		t.Fatalf("reviews = %d, want 4", len(got))
	}
}

func TestDirectSource_FetchFailureAbortsSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testScrapeConfig()
	f := NewFetcher(cfg, zerolog.Nop())
	f.sleep = (&fakeSleep{}).sleep
	d := NewDirectSource(f, 5, zerolog.Nop())
	d.urls = func(asin, marketplace string, page int) string { return srv.URL }

	stream := d.FetchReviews(context.Background(), "A1", "com", 0, 1)
	got, err := drain(t, stream)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("terminal error = %v, want ErrFetchFailed", err)
	}
	if len(got) != 0 {
		t.Fatalf("yielded %d reviews from failing source", len(got))
	}
}

func TestDirectSource_ReviewCount(t *testing.T) {
	d := newDirectTestSource(t, 5, map[int]string{1: reviewPageOne})

	n, ok, err := d.ReviewCount(context.Background(), "A1", "com")
	if err != nil || !ok {
		t.Fatalf("ReviewCount: ok=%v err=%v", ok, err)
	}
	if n != 1523 {
		t.Fatalf("count = %d, want 1523", n)
	}

	// A page without the count markers reports not-available.
	d2 := newDirectTestSource(t, 5, nil)
	if _, ok, err := d2.ReviewCount(context.Background(), "A1", "com"); ok || err != nil {
		t.Fatalf("expected no count, got ok=%v err=%v", ok, err)
	}
}

func TestDirectSource_MissingIDGetsDeterministicFallback(t *testing.T) {
	page := `<html><body>
<div data-hook="review">
  <span class="a-profile-name">Dana</span>
  <a data-hook="review-title">Solid</a>
  <i data-hook="review-star-rating" class="a-star-4"></i>
  <span data-hook="review-body">Good.</span>
</div>
<ul><li class="a-last a-disabled"></li></ul>
</body></html>`

	run := func() []*domain.Review {
		d := newDirectTestSource(t, 2, map[int]string{1: page})
		got, err := drain(t, d.FetchReviews(context.Background(), "A1", "com", 0, 1))
		if !errors.Is(err, io.EOF) || len(got) != 1 {
			t.Fatalf("got %d, err %v", len(got), err)
		}
		return got
	}

	a, b := run(), run()
	if a[0].ID == "" || a[0].ID[0] != 'R' {
		t.Fatalf("fallback id = %q", a[0].ID)
	}
	if a[0].ID != b[0].ID {
		t.Fatalf("fallback id not deterministic: %q vs %q", a[0].ID, b[0].ID)
	}
}
