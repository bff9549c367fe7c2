// Paid provider source adapter.
//
// The provider exposes an authenticated JSON API that returns already
// parsed review data, so this adapter is mostly response-shape handling.
// Responses are tolerant-decoded: different provider plans nest the review
// list under different keys.
package source

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
)

// ProviderSource fetches parsed reviews through the provider's realtime
// query endpoint. It shares the rate-limited Fetcher with the direct
// variant, so provider traffic is paced and retried the same way.
type ProviderSource struct {
	fetcher  *Fetcher
	cfg      config.ProviderConfig
	maxPages int
	log      zerolog.Logger
}

// NewProviderSource builds the provider adapter. Credential presence is
// checked by the source factory before this is called.
func NewProviderSource(f *Fetcher, cfg config.ProviderConfig, maxPages int, log zerolog.Logger) *ProviderSource {
	return &ProviderSource{
		fetcher:  f,
		cfg:      cfg,
		maxPages: maxPages,
		log:      log.With().Str("component", "source.provider").Logger(),
	}
}

// FetchReviews implements Source.
func (p *ProviderSource) FetchReviews(ctx context.Context, asin, marketplace string, maxPages, startPage int) *Stream {
	if maxPages <= 0 || maxPages > p.maxPages {
		maxPages = p.maxPages
	}
	return newStream(func(ctx context.Context, page int) ([]*domain.Review, bool, error) {
		return p.fetchPage(ctx, asin, marketplace, page)
	}, startPage, maxPages)
}

type providerQuery struct {
	Source  string            `json:"source"`
	URL     string            `json:"url"`
	Parse   bool              `json:"parse"`
	Context []providerQueryKV `json:"context,omitempty"`
}

type providerQueryKV struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type providerResponse struct {
	Results []struct {
		Content providerContent `json:"content"`
	} `json:"results"`
}

type providerContent struct {
	Reviews         []providerReview `json:"reviews"`
	CustomerReviews []providerReview `json:"customer_reviews"`
	Pagination      struct {
		HasNext bool `json:"has_next"`
	} `json:"pagination"`
	TotalReviews *int `json:"total_reviews"`
	ReviewCount  *int `json:"review_count"`
	Summary      struct {
		TotalReviews *int `json:"total_reviews"`
	} `json:"summary"`
}

type providerReview struct {
	ID               string  `json:"id"`
	Author           string  `json:"author"`
	Title            string  `json:"title"`
	Content          string  `json:"content"`
	Rating           float64 `json:"rating"`
	VerifiedPurchase bool    `json:"verified_purchase"`
	ProductVariant   *string `json:"product_variant"`
	Date             string  `json:"date"`
}

func (p *ProviderSource) fetchPage(ctx context.Context, asin, marketplace string, page int) ([]*domain.Review, bool, error) {
	p.log.Info().Str("asin", asin).Str("marketplace", marketplace).Int("page", page).Msg("querying provider")

	content, err := p.query(ctx, asin, marketplace, page)
	if err != nil {
		return nil, false, err
	}
	if content == nil {
		return nil, false, nil
	}

	raw := content.Reviews
	if len(raw) == 0 {
		raw = content.CustomerReviews
	}

	var out []*domain.Review
	for _, pr := range raw {
		r := p.convert(pr, asin, marketplace)
		if r == nil {
			p.log.Warn().Str("asin", asin).Int("page", page).Msg("dropping unparseable provider review")
			continue
		}
		out = append(out, r)
	}
	return out, content.Pagination.HasNext, nil
}

// query posts one page request and decodes the first result's content.
// A response with no results reads as an empty page.
func (p *ProviderSource) query(ctx context.Context, asin, marketplace string, page int) (*providerContent, error) {
	payload, err := json.Marshal(providerQuery{
		Source: "amazon",
		URL:    config.ReviewsURL(asin, marketplace, page),
		Parse:  true,
		Context: []providerQueryKV{
			{Key: "autoparse", Value: true},
		},
	})
	if err != nil {
		return nil, err
	}

	body, err := p.fetcher.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp providerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode provider response: %v", ErrFetchFailed, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0].Content, nil
}

// convert maps one provider record to the domain model, dropping records
// with out-of-range ratings. A missing identifier gets a deterministic
// fallback derived from the author and title.
func (p *ProviderSource) convert(pr providerReview, asin, marketplace string) *domain.Review {
	if pr.Rating < 1 || pr.Rating > 5 {
		return nil
	}
	id := pr.ID
	if id == "" {
		id = fmt.Sprintf("R%X", md5.Sum([]byte(pr.Author+pr.Title)))[:11]
	}
	author := pr.Author
	if author == "" {
		author = "Anonymous"
	}
	return &domain.Review{
		ID:                id,
		ASIN:              asin,
		Marketplace:       marketplace,
		Author:            author,
		Title:             pr.Title,
		Content:           pr.Content,
		Rating:            pr.Rating,
		IsVerified:        pr.VerifiedPurchase,
		ProductAttributes: pr.ProductVariant,
		TimestampText:     pr.Date,
		FetchedAt:         time.Now().UTC(),
	}
}

// ReviewCount implements Source via the count fields of a page-one query.
func (p *ProviderSource) ReviewCount(ctx context.Context, asin, marketplace string) (int, bool, error) {
	content, err := p.query(ctx, asin, marketplace, 1)
	if err != nil {
		return 0, false, err
	}
	if content == nil {
		return 0, false, nil
	}
	switch {
	case content.TotalReviews != nil:
		return *content.TotalReviews, true, nil
	case content.ReviewCount != nil:
		return *content.ReviewCount, true, nil
	case content.Summary.TotalReviews != nil:
		return *content.Summary.TotalReviews, true, nil
	}
	return 0, false, nil
}
