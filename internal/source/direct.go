// Direct source adapter: best-effort scraping of marketplace review pages.
//
// Parsing is defensive. Selectors have one or two fallbacks because page
// markup differs per marketplace and changes over time; a record that still
// cannot be parsed into a valid review is logged and dropped without
// aborting the page, while a fetch-layer failure aborts the whole sequence.
package source

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
)

var (
	starClassRE   = regexp.MustCompile(`a-star-(\d)`)
	outOfRE       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*out of`)
	reviewCountRE = regexp.MustCompile(`(?i)([\d,]+)\s*(?:global\s*)?(?:customer\s*)?reviews?`)
)

// DirectSource scrapes review pages over plain HTTP with the shared
// rate-limited fetcher. It is bound by the small direct page ceiling.
type DirectSource struct {
	fetcher  *Fetcher
	maxPages int
	log      zerolog.Logger

	// urls builds the page URL; a test seam defaulting to config.ReviewsURL.
	urls func(asin, marketplace string, page int) string
}

// NewDirectSource builds the direct adapter.
func NewDirectSource(f *Fetcher, maxPages int, log zerolog.Logger) *DirectSource {
	return &DirectSource{
		fetcher:  f,
		maxPages: maxPages,
		log:      log.With().Str("component", "source.direct").Logger(),
		urls:     config.ReviewsURL,
	}
}

// FetchReviews implements Source.
func (d *DirectSource) FetchReviews(ctx context.Context, asin, marketplace string, maxPages, startPage int) *Stream {
	if maxPages <= 0 || maxPages > d.maxPages {
		maxPages = d.maxPages
	}
	return newStream(func(ctx context.Context, page int) ([]*domain.Review, bool, error) {
		return d.fetchPage(ctx, asin, marketplace, page)
	}, startPage, maxPages)
}

func (d *DirectSource) fetchPage(ctx context.Context, asin, marketplace string, page int) ([]*domain.Review, bool, error) {
	url := d.urls(asin, marketplace, page)
	d.log.Info().Str("asin", asin).Str("marketplace", marketplace).Int("page", page).Msg("fetching review page")

	body, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, false, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		// The page body itself is unusable; treat like a fetch failure so
		// the job surfaces it instead of silently ending the sequence.
		return nil, false, fmt.Errorf("%w: parse page %d: %v", ErrFetchFailed, page, err)
	}

	elements := doc.Find(`div[data-hook="review"]`)
	if elements.Length() == 0 {
		elements = doc.Find("div.review")
	}

	var out []*domain.Review
	elements.Each(func(_ int, sel *goquery.Selection) {
		r := d.parseReview(sel, asin, marketplace)
		if r == nil {
			d.log.Warn().Str("asin", asin).Int("page", page).Msg("dropping unparseable review")
			return
		}
		out = append(out, r)
	})

	hasNext := false
	if next := doc.Find("li.a-last"); next.Length() > 0 {
		cls, _ := next.Attr("class")
		hasNext = !strings.Contains(cls, "a-disabled")
	}
	return out, hasNext, nil
}

// parseReview extracts one review from its container element. It returns
// nil when the element cannot produce a valid record (rating outside
// [1, 5] in particular).
func (d *DirectSource) parseReview(sel *goquery.Selection, asin, marketplace string) *domain.Review {
	id, _ := sel.Attr("id")
	if id == "" {
		// Deterministic fallback identifier from the element markup.
		html, err := goquery.OuterHtml(sel)
		if err != nil || html == "" {
			return nil
		}
		id = fmt.Sprintf("R%X", md5.Sum([]byte(html)))[:11]
	}

	author := strings.TrimSpace(sel.Find(".a-profile-name").First().Text())
	if author == "" {
		author = "Anonymous"
	}

	title := strings.TrimSpace(sel.Find(`a[data-hook="review-title"]`).First().Text())
	if title == "" {
		title = strings.TrimSpace(sel.Find(".review-title-content span").First().Text())
	}

	content := strings.TrimSpace(sel.Find(`span[data-hook="review-body"]`).First().Text())
	if content == "" {
		content = strings.TrimSpace(sel.Find(".review-text-content span").First().Text())
	}

	rating := parseRating(sel)
	if rating < 1 || rating > 5 {
		return nil
	}

	verified := strings.Contains(sel.Find(`span[data-hook="avp-badge"]`).First().Text(), "Verified Purchase")

	var attrs *string
	if a := strings.TrimSpace(sel.Find(`a[data-hook="format-strip"]`).First().Text()); a != "" {
		attrs = &a
	}

	return &domain.Review{
		ID:                id,
		ASIN:              asin,
		Marketplace:       marketplace,
		Author:            author,
		Title:             title,
		Content:           content,
		Rating:            rating,
		IsVerified:        verified,
		ProductAttributes: attrs,
		TimestampText:     strings.TrimSpace(sel.Find(`span[data-hook="review-date"]`).First().Text()),
		FetchedAt:         time.Now().UTC(),
	}
}

// parseRating reads the star rating either from the a-star-N class or from
// the "X out of 5" text.
func parseRating(sel *goquery.Selection) float64 {
	star := sel.Find(`i[data-hook="review-star-rating"]`).First()
	if star.Length() == 0 {
		star = sel.Find(".review-rating").First()
	}
	if star.Length() == 0 {
		return 0
	}
	if cls, ok := star.Attr("class"); ok {
		if m := starClassRE.FindStringSubmatch(cls); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	if m := outOfRE.FindStringSubmatch(strings.TrimSpace(star.Text())); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	return 0
}

// ReviewCount implements Source by scraping the count header of page one.
func (d *DirectSource) ReviewCount(ctx context.Context, asin, marketplace string) (int, bool, error) {
	body, err := d.fetcher.Fetch(ctx, d.urls(asin, marketplace, 1))
	if err != nil {
		return 0, false, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false, nil
	}

	if text := doc.Find(`div[data-hook="cr-filter-info-review-rating-count"]`).First().Text(); text != "" {
		if m := reviewCountRE.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				return n, true, nil
			}
		}
	}
	if text := strings.TrimSpace(doc.Find(`span[data-hook="total-review-count"]`).First().Text()); text != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(text, ",", "")); err == nil {
			return n, true, nil
		}
	}
	return 0, false, nil
}
