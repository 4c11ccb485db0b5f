// Package config loads the proxy configuration from environment variables.
//
// An optional .env file in the working directory is read first; variables
// already present in the environment take precedence over it.
//
// Environment variables:
//
//	PORT                   HTTP listen port (default: 5000)
//	LOG_LEVEL              debug, info, warn or error (default: info)
//	LOG_PRETTY             human readable console logs (default: false)
//	CACHE_TYPE             local, memory, remote or redis (default: local)
//	REDIS_URL              redis:// URL or host:port (default: redis://localhost:6379)
//	CACHE_KEY_PREFIX       namespace for remote keys (default: nasa:cache:)
//	CACHE_SWEEP_INTERVAL   local expiry sweep period (default: 60s)
//	CACHE_STALE_RETENTION  how long expired entries remain usable as fallback (default: 24h)
//	CACHE_TTL              freshness window in seconds (default: 300)
//	FETCH_MAX_ATTEMPTS     origin attempts per request (default: 3)
//	FETCH_TIMEOUT_MS       per attempt timeout (default: 5000)
//	FETCH_BACKOFF_MS       linear backoff base (default: 500)
//	FETCH_COALESCE         share one origin call between concurrent misses (default: false)
//	NASA_API_KEY           api.nasa.gov key (default: DEMO_KEY)
//	NASA_APOD_URL          APOD endpoint override
//	NASA_MARS_URL          Mars rover photos endpoint override
//	NASA_NEOWS_URL         NeoWs feed endpoint override
//	USER_AGENT             User-Agent sent upstream (default: nasa-api-proxy/0.1.0)
//	WARMUP_ON_START        refresh the fixed keys at startup (default: true)
//	WARMUP_SCHEDULE        cron spec for periodic refresh, empty disables
//	WARMUP_CONCURRENCY     parallel warm-up tasks (default: 2)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sternrassler/nasa-api-proxy/pkg/cache"
	"github.com/Sternrassler/nasa-api-proxy/pkg/fetch"
	"github.com/Sternrassler/nasa-api-proxy/pkg/logging"
	"github.com/Sternrassler/nasa-api-proxy/pkg/nasa"
	"github.com/Sternrassler/nasa-api-proxy/pkg/warmup"
)

// DefaultUserAgent is sent upstream when USER_AGENT is unset.
const DefaultUserAgent = "nasa-api-proxy/0.1.0"

// Config holds all runtime settings. Numeric and duration fields are kept as
// read; Validate reports values that could not be parsed.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	// Cache
	CacheType           string
	RedisURL            string
	CacheKeyPrefix      string
	CacheSweepInterval  string
	CacheStaleRetention string
	CacheTTLSeconds     string

	// Fetch policy
	FetchMaxAttempts string
	FetchTimeoutMS   string
	FetchBackoffMS   string
	FetchCoalesce    bool

	// Origin
	NASAAPIKey   string
	NASAAPODURL  string
	NASAMarsURL  string
	NASANeoWsURL string
	UserAgent    string

	// Warm-up
	WarmupOnStart     bool
	WarmupSchedule    string
	WarmupConcurrency string
}

// Load reads the .env file if present and builds a Config from the
// environment. It does not validate; call Validate before use.
func Load() *Config {
	// A missing .env file is the normal case in containers.
	_ = godotenv.Load()

	defaults := nasa.DefaultEndpoints()

	return &Config{
		Port:      getEnv("PORT", "5000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBoolEnv("LOG_PRETTY", false),

		CacheType:           getEnv("CACHE_TYPE", "local"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheKeyPrefix:      getEnv("CACHE_KEY_PREFIX", cache.DefaultKeyPrefix),
		CacheSweepInterval:  getEnv("CACHE_SWEEP_INTERVAL", "60s"),
		CacheStaleRetention: getEnv("CACHE_STALE_RETENTION", "24h"),
		CacheTTLSeconds:     getEnv("CACHE_TTL", "300"),

		FetchMaxAttempts: getEnv("FETCH_MAX_ATTEMPTS", "3"),
		FetchTimeoutMS:   getEnv("FETCH_TIMEOUT_MS", "5000"),
		FetchBackoffMS:   getEnv("FETCH_BACKOFF_MS", "500"),
		FetchCoalesce:    getBoolEnv("FETCH_COALESCE", false),

		NASAAPIKey:   getEnv("NASA_API_KEY", "DEMO_KEY"),
		NASAAPODURL:  getEnv("NASA_APOD_URL", defaults.APOD),
		NASAMarsURL:  getEnv("NASA_MARS_URL", defaults.Mars),
		NASANeoWsURL: getEnv("NASA_NEOWS_URL", defaults.NeoWs),
		UserAgent:    getEnv("USER_AGENT", DefaultUserAgent),

		WarmupOnStart:     getBoolEnv("WARMUP_ON_START", true),
		WarmupSchedule:    getEnv("WARMUP_SCHEDULE", ""),
		WarmupConcurrency: getEnv("WARMUP_CONCURRENCY", "2"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv falls back to defaultValue when the variable is unset or not a
// valid boolean.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port number between 1 and 65535"))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if _, err := c.CacheConfig(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.FetchPolicy(); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(c.NASAAPIKey) == "" {
		errs = append(errs, fmt.Errorf("NASA_API_KEY must not be empty"))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, fmt.Errorf("USER_AGENT must not be empty"))
	}

	if _, err := c.WarmupConfig(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.LogPretty
	return cfg
}

// CacheConfig returns the backend selection.
func (c *Config) CacheConfig() (cache.Config, error) {
	cfg := cache.DefaultConfig()

	kind, err := cache.ParseKind(c.CacheType)
	if err != nil {
		return cfg, fmt.Errorf("CACHE_TYPE: %w", err)
	}
	cfg.Kind = kind
	cfg.Address = c.RedisURL
	cfg.KeyPrefix = c.CacheKeyPrefix

	if cfg.SweepInterval, err = positiveDuration("CACHE_SWEEP_INTERVAL", c.CacheSweepInterval); err != nil {
		return cfg, err
	}
	if cfg.StaleRetention, err = positiveDuration("CACHE_STALE_RETENTION", c.CacheStaleRetention); err != nil {
		return cfg, err
	}

	if kind == cache.KindRemote && strings.TrimSpace(c.RedisURL) == "" {
		return cfg, fmt.Errorf("REDIS_URL is required when CACHE_TYPE is %s", c.CacheType)
	}

	return cfg, nil
}

// FetchPolicy returns the validated default policy.
func (c *Config) FetchPolicy() (fetch.Policy, error) {
	var p fetch.Policy

	ttl, err := positiveInt("CACHE_TTL", c.CacheTTLSeconds)
	if err != nil {
		return p, err
	}
	attempts, err := positiveInt("FETCH_MAX_ATTEMPTS", c.FetchMaxAttempts)
	if err != nil {
		return p, err
	}
	timeout, err := positiveInt("FETCH_TIMEOUT_MS", c.FetchTimeoutMS)
	if err != nil {
		return p, err
	}
	backoff, err := strconv.Atoi(c.FetchBackoffMS)
	if err != nil || backoff < 0 {
		return p, fmt.Errorf("FETCH_BACKOFF_MS must be a non-negative number of milliseconds")
	}

	p = fetch.Policy{
		TTL:            time.Duration(ttl) * time.Second,
		MaxAttempts:    attempts,
		AttemptTimeout: time.Duration(timeout) * time.Millisecond,
		BackoffBase:    time.Duration(backoff) * time.Millisecond,
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Endpoints returns the origin URLs.
func (c *Config) Endpoints() nasa.Endpoints {
	return nasa.Endpoints{
		APOD:  c.NASAAPODURL,
		Mars:  c.NASAMarsURL,
		NeoWs: c.NASANeoWsURL,
	}
}

// WarmupConfig returns the warm-up pool and schedule settings.
func (c *Config) WarmupConfig() (warmup.Config, error) {
	cfg := warmup.DefaultConfig()

	n, err := positiveInt("WARMUP_CONCURRENCY", c.WarmupConcurrency)
	if err != nil {
		return cfg, err
	}
	cfg.MaxConcurrency = n
	cfg.Schedule = strings.TrimSpace(c.WarmupSchedule)

	if cfg.Schedule != "" {
		if err := warmup.ValidateSchedule(cfg.Schedule); err != nil {
			return cfg, fmt.Errorf("WARMUP_SCHEDULE: %w", err)
		}
	}
	return cfg, nil
}

func positiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, value)
	}
	return n, nil
}

func positiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. '60s', '24h'), got %q", name, value)
	}
	return d, nil
}
