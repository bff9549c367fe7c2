// Package source implements the review source adapters: a rate-limited HTTP
// fetcher shared by both variants, a direct best-effort scraper over
// marketplace review pages, and a paid provider API client. Both variants
// expose the same contract and are selected by the source kind on the job
// request; the orchestrator never sees which one it is driving.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
	"github.com/tbourn/go-review-scraper/internal/domain"
)

// Sentinel errors of the fetch layer.
var (
	// ErrFetchFailed wraps a network or HTTP failure that survived the
	// retry budget. A job hitting it fails.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMisconfigured is returned before any fetch when a source cannot
	// run at all, e.g. the provider kind without credentials.
	ErrMisconfigured = errors.New("source misconfigured")
)

// Source is the polymorphic review-source capability. Implementations must
// be safe for concurrent use; the shared Fetcher serializes outbound calls
// regardless of caller concurrency.
type Source interface {
	// FetchReviews returns a lazy, finite stream of reviews for the
	// product, starting at startPage and bounded by maxPages (<=0 applies
	// the variant's own ceiling). The stream terminates when a page yields
	// zero parseable records, pagination reports no next page, or the page
	// ceiling is reached, whichever comes first.
	FetchReviews(ctx context.Context, asin, marketplace string, maxPages, startPage int) *Stream

	// ReviewCount reports the total review count advertised by the source,
	// with ok=false when the source does not expose one.
	ReviewCount(ctx context.Context, asin, marketplace string) (int, bool, error)
}

// pageFunc fetches and parses one page. It returns the parsed records, a
// flag indicating whether pagination advertises a further page, and a
// fetch-layer error. Individual malformed records are dropped inside the
// implementation and never surface here.
type pageFunc func(ctx context.Context, page int) ([]*domain.Review, bool, error)

// Stream is a pull-based, finite sequence of reviews. It is not restartable
// mid-sequence; obtain a fresh stream from FetchReviews instead.
//
// Next returns io.EOF on clean exhaustion. A fetch-layer failure ends the
// stream early with that error; records already yielded remain with the
// caller.
type Stream struct {
	fetch     pageFunc
	nextPage  int
	lastPage  int // inclusive ceiling
	buf       []*domain.Review
	pagesSeen int
	noMore    bool
	done      bool
	err       error
}

func newStream(fetch pageFunc, startPage, maxPages int) *Stream {
	if startPage < 1 {
		startPage = 1
	}
	return &Stream{
		fetch:    fetch,
		nextPage: startPage,
		lastPage: startPage + maxPages - 1,
	}
}

// Next yields the next review in page order, then in-page order. It returns
// io.EOF once the sequence is cleanly exhausted, or the fetch-layer error
// that aborted it.
func (s *Stream) Next(ctx context.Context) (*domain.Review, error) {
	for {
		if len(s.buf) > 0 {
			r := s.buf[0]
			s.buf = s.buf[1:]
			return r, nil
		}
		if s.done {
			if s.err != nil {
				return nil, s.err
			}
			return nil, io.EOF
		}
		if s.noMore || s.nextPage > s.lastPage {
			s.done = true
			continue
		}

		records, hasNext, err := s.fetch(ctx, s.nextPage)
		if err != nil {
			s.done = true
			s.err = err
			continue
		}
		s.pagesSeen = s.nextPage
		s.nextPage++
		if len(records) == 0 {
			s.done = true
			continue
		}
		s.buf = records
		if !hasNext {
			s.noMore = true
		}
	}
}

// Page returns the highest page number consumed so far. The orchestrator
// records it as the job's pages-processed counter.
func (s *Stream) Page() int { return s.pagesSeen }

// New constructs the source for the requested kind. The provider kind fails
// fast with ErrMisconfigured when credentials are absent, before any fetch
// is attempted.
func New(kind domain.SourceKind, cfg config.Config, f *Fetcher, log zerolog.Logger) (Source, error) {
	switch kind {
	case domain.SourceDirect:
		return NewDirectSource(f, cfg.Scrape.MaxPagesDirect, log), nil
	case domain.SourceProvider:
		if !cfg.Provider.HasCredentials() {
			return nil, fmt.Errorf("%w: provider credentials not configured", ErrMisconfigured)
		}
		return NewProviderSource(f, cfg.Provider, cfg.Scrape.MaxPagesProvider, log), nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", ErrMisconfigured, kind)
	}
}
