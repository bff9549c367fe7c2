// Package cache provides the Redis-backed scrape cooldown and the
// read-path response cache.
//
// Both concerns degrade gracefully: with no Redis address configured the
// Cache is a no-op (every cooldown check says "not on cooldown", every read
// misses), and a Redis outage at runtime is logged and treated the same
// way. Scraping must keep working when the cache does not.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
)

// Cache wraps a Redis client for the two caching concerns of the service:
// the per-product scrape cooldown and cached read responses. A Cache built
// without a Redis address is valid and disabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New builds a Cache from configuration. An empty RedisAddr yields a
// disabled Cache; no connection is attempted until first use.
func New(cfg config.CacheConfig, log zerolog.Logger) *Cache {
	c := &Cache{
		ttl: cfg.TTL,
		log: log.With().Str("component", "cache").Logger(),
	}
	if cfg.RedisAddr != "" {
		c.client = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	}
	return c
}

// Enabled reports whether a Redis backend is configured.
func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// Ping verifies connectivity. Disabled caches ping successfully.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

func cooldownKey(asin, marketplace string) string {
	return fmt.Sprintf("scrape_cooldown:%s:%s", asin, marketplace)
}

// OnCooldown reports whether the product pair was scraped within the
// cooldown window. Errors read as "not on cooldown" so a cache outage
// never blocks scraping.
func (c *Cache) OnCooldown(ctx context.Context, asin, marketplace string) bool {
	if !c.Enabled() {
		return false
	}
	n, err := c.client.Exists(ctx, cooldownKey(asin, marketplace)).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("cooldown check failed")
		return false
	}
	return n > 0
}

// MarkScraped starts the cooldown window for the product pair.
func (c *Cache) MarkScraped(ctx context.Context, asin, marketplace string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, cooldownKey(asin, marketplace), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cooldown mark failed")
	}
}

// GetResponse returns a cached response body for key, with a hit flag.
func (c *Cache) GetResponse(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("response cache read failed")
		}
		return nil, false
	}
	return body, true
}

// SetResponse stores a response body under key for the configured TTL.
func (c *Cache) SetResponse(ctx context.Context, key string, body []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("response cache write failed")
	}
}
