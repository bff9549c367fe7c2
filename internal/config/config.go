// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, scrape tunables, the paid
// provider credentials, job queue limits, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-review-scraper")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ScrapeConfig groups the tunables of the fetch/parse/persist pipeline.
type ScrapeConfig struct {
	// RateRPS caps outbound requests per second for the direct source.
	// 1.0 means at least one second between consecutive requests.
	RateRPS float64
	// JitterMin/JitterMax bound the randomized extra delay added to each
	// outbound request so request timing stays non-periodic.
	JitterMin time.Duration
	JitterMax time.Duration
	// MaxRetries is the per-fetch attempt ceiling (first try included).
	MaxRetries int
	// RetryBackoff is the base backoff delay, doubled per attempt up to
	// RetryBackoffMax.
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	// FetchTimeout bounds a single outbound HTTP request.
	FetchTimeout time.Duration
	// MaxPagesDirect / MaxPagesProvider are the per-source page ceilings.
	MaxPagesDirect   int
	MaxPagesProvider int
	// BatchFlushSize is the number of newly inserted reviews between
	// progress pushes onto the job record.
	BatchFlushSize int
}

// ProviderConfig holds the paid provider API settings. Credentials are
// optional at startup; a provider-sourced job fails fast when they are
// missing.
type ProviderConfig struct {
	BaseURL  string // PROVIDER_BASE_URL
	Username string // PROVIDER_AUTH_USER
	Password string // PROVIDER_AUTH_PASS
}

// HasCredentials reports whether both provider credentials are set.
func (p ProviderConfig) HasCredentials() bool {
	return p.Username != "" && p.Password != ""
}

// QueueConfig bounds the in-process job queue.
type QueueConfig struct {
	Workers  int           // QUEUE_WORKERS: concurrent scrape jobs
	Capacity int           // QUEUE_CAPACITY: pending submissions before Submit rejects
	// TimeLimit is the hard wall-clock cap per job; SoftTimeLimit is the
	// slightly smaller cap after which wind-down is logged.
	TimeLimit     time.Duration
	SoftTimeLimit time.Duration
}

// CacheConfig configures the Redis-backed scrape cooldown and read-path
// response cache. An empty RedisAddr disables caching entirely.
type CacheConfig struct {
	RedisAddr string        // REDIS_ADDR, e.g. "localhost:6379"
	RedisDB   int           // REDIS_DB
	TTL       time.Duration // CACHE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path

	Scrape   ScrapeConfig
	Provider ProviderConfig
	Queue    QueueConfig
	Cache    CacheConfig

	// API rate limiting (inbound, token bucket per client)
	APIRateRPS   float64
	APIRateBurst int

	CORS CORSConfig
	OTEL OTELConfig
}

// marketplaceHosts maps storefront codes to marketplace base URLs.
var marketplaceHosts = map[string]string{
	"com":    "https://www.amazon.com",
	"co.uk":  "https://www.amazon.co.uk",
	"de":     "https://www.amazon.de",
	"fr":     "https://www.amazon.fr",
	"es":     "https://www.amazon.es",
	"it":     "https://www.amazon.it",
	"nl":     "https://www.amazon.nl",
	"ca":     "https://www.amazon.ca",
	"com.au": "https://www.amazon.com.au",
	"co.jp":  "https://www.amazon.co.jp",
	"in":     "https://www.amazon.in",
	"com.br": "https://www.amazon.com.br",
	"com.mx": "https://www.amazon.com.mx",
}

// ValidMarketplace reports whether code names a supported storefront.
func ValidMarketplace(code string) bool {
	_, ok := marketplaceHosts[code]
	return ok
}

// ReviewsURL returns the review listing URL for an ASIN on a marketplace
// page. Unknown marketplace codes fall back to "com".
func ReviewsURL(asin, marketplace string, page int) string {
	base, ok := marketplaceHosts[marketplace]
	if !ok {
		base = marketplaceHosts["com"]
	}
	return fmt.Sprintf("%s/product-reviews/%s?pageNumber=%d", base, asin, page)
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "reviews.db"),

		Scrape: ScrapeConfig{
			RateRPS:          getfloat("RATE_RPS", 1.0),
			JitterMin:        getdur("SCRAPE_JITTER_MIN", 500*time.Millisecond),
			JitterMax:        getdur("SCRAPE_JITTER_MAX", 2*time.Second),
			MaxRetries:       getint("MAX_RETRIES", 3),
			RetryBackoff:     getdur("RETRY_BACKOFF", 5*time.Second),
			RetryBackoffMax:  getdur("RETRY_BACKOFF_MAX", 30*time.Second),
			FetchTimeout:     getdur("FETCH_TIMEOUT", 30*time.Second),
			MaxPagesDirect:   getint("MAX_PAGES_DIRECT", 2),
			MaxPagesProvider: getint("MAX_PAGES_PROVIDER", 10),
			BatchFlushSize:   getint("BATCH_FLUSH_SIZE", 10),
		},

		Provider: ProviderConfig{
			BaseURL:  getenv("PROVIDER_BASE_URL", "https://realtime.oxylabs.io/v1/queries"),
			Username: getenv("PROVIDER_AUTH_USER", ""),
			Password: getenv("PROVIDER_AUTH_PASS", ""),
		},

		Queue: QueueConfig{
			Workers:       getint("QUEUE_WORKERS", 4),
			Capacity:      getint("QUEUE_CAPACITY", 64),
			TimeLimit:     getdur("JOB_TIME_LIMIT", 5*time.Minute),
			SoftTimeLimit: getdur("JOB_SOFT_TIME_LIMIT", 270*time.Second),
		},

		Cache: CacheConfig{
			RedisAddr: getenv("REDIS_ADDR", ""),
			RedisDB:   getint("REDIS_DB", 0),
			TTL:       getdur("CACHE_TTL", 15*time.Minute),
		},

		// Inbound rate limiting
		APIRateRPS:   getfloat("API_RATE_RPS", 5.0),
		APIRateBurst: getint("API_RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-review-scraper"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Scrape.JitterMax < cfg.Scrape.JitterMin {
		cfg.Scrape.JitterMax = cfg.Scrape.JitterMin
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Scrape.RateRPS <= 0 {
		return cfg, errors.New("RATE_RPS must be > 0")
	}
	if cfg.Scrape.MaxRetries < 1 {
		return cfg, errors.New("MAX_RETRIES must be >= 1")
	}
	if cfg.Scrape.RetryBackoff <= 0 || cfg.Scrape.RetryBackoffMax < cfg.Scrape.RetryBackoff {
		return cfg, errors.New("RETRY_BACKOFF must be > 0 and <= RETRY_BACKOFF_MAX")
	}
	if cfg.Scrape.FetchTimeout <= 0 {
		return cfg, errors.New("FETCH_TIMEOUT must be > 0")
	}
	if cfg.Scrape.MaxPagesDirect < 1 || cfg.Scrape.MaxPagesProvider < 1 {
		return cfg, errors.New("page ceilings must be >= 1")
	}
	if cfg.Scrape.BatchFlushSize < 1 {
		return cfg, errors.New("BATCH_FLUSH_SIZE must be >= 1")
	}
	if cfg.Queue.Workers < 1 {
		return cfg, errors.New("QUEUE_WORKERS must be >= 1")
	}
	if cfg.Queue.Capacity < 1 {
		return cfg, errors.New("QUEUE_CAPACITY must be >= 1")
	}
	if cfg.Queue.TimeLimit <= 0 || cfg.Queue.SoftTimeLimit <= 0 || cfg.Queue.SoftTimeLimit > cfg.Queue.TimeLimit {
		return cfg, errors.New("JOB_SOFT_TIME_LIMIT must be > 0 and <= JOB_TIME_LIMIT")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.APIRateRPS < 0 {
		return cfg, errors.New("API_RATE_RPS must be >= 0")
	}
	if cfg.APIRateBurst < 1 {
		return cfg, errors.New("API_RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
