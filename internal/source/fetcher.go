// Rate-limited HTTP fetcher shared by all source adapters.
//
// The fetcher serializes every outbound call through a single-slot gate, so
// at most one request is in flight per instance no matter how many
// goroutines call it. Between requests it enforces a minimum wall-clock gap
// derived from the configured requests-per-second ceiling, measured from the
// end of the previous request, plus a randomized extra delay so request
// timing stays non-periodic. Transient failures are retried with
// exponentially growing backoff up to a fixed attempt ceiling; exhaustion
// surfaces ErrFetchFailed carrying the last cause. Retries cover the fetch
// step only, never parsing.
package source

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
)

// userAgents is rotated per request to vary the browser fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Fetcher issues serialized, paced, retried HTTP requests.
type Fetcher struct {
	client      *http.Client
	minInterval time.Duration
	jitterMin   time.Duration
	jitterMax   time.Duration
	maxRetries  int
	backoff     time.Duration
	backoffMax  time.Duration
	log         zerolog.Logger

	mu       sync.Mutex // single-slot gate; held across the whole request
	lastDone time.Time  // end time of the previous request

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	rnd   func() float64
}

// NewFetcher builds a Fetcher from the scrape configuration.
func NewFetcher(cfg config.ScrapeConfig, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		minInterval: time.Duration(float64(time.Second) / cfg.RateRPS),
		jitterMin:   cfg.JitterMin,
		jitterMax:   cfg.JitterMax,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.RetryBackoff,
		backoffMax:  cfg.RetryBackoffMax,
		log:         log.With().Str("component", "fetcher").Logger(),
		sleep:       sleepCtx,
		rnd:         rand.Float64,
	}
}

// Fetch GETs url with randomized browser headers and returns the response
// body. It blocks until the rate-limit slot is available.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		setBrowserHeaders(req)
		return req, nil
	})
}

// Do runs one rate-limited, retried request. newReq is invoked once per
// attempt so request bodies can be re-created between retries.
func (f *Fetcher) Do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoff << (attempt - 1)
			if delay > f.backoffMax {
				delay = f.backoffMax
			}
			if err := f.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
			}
		}
		if err := f.pace(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}

		body, err := f.once(ctx, newReq)
		f.lastDone = time.Now()
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.log.Warn().Err(err).Int("attempt", attempt+1).Msg("fetch attempt failed")
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrFetchFailed, f.maxRetries, lastErr)
}

// pace waits out the minimum gap since the previous request finished, plus
// a randomized extra delay within the configured jitter range.
func (f *Fetcher) pace(ctx context.Context) error {
	if !f.lastDone.IsZero() {
		if wait := f.minInterval - time.Since(f.lastDone); wait > 0 {
			if err := f.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	if span := f.jitterMax - f.jitterMin; span >= 0 && f.jitterMax > 0 {
		jitter := f.jitterMin + time.Duration(f.rnd()*float64(span))
		if err := f.sleep(ctx, jitter); err != nil {
			return err
		}
	}
	return nil
}

// once performs a single HTTP attempt.
func (f *Fetcher) once(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	req, err := newReq()
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, req.URL)
	}
	return io.ReadAll(resp.Body)
}

// setBrowserHeaders applies a rotating user agent and ordinary browser
// headers to a scrape request.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// sleepCtx sleeps for d or returns early with the context error.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
