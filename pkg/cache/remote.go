package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// DefaultKeyPrefix namespaces every key written by the remote backend.
	DefaultKeyPrefix = "nasa:cache:"

	remoteLabel = "remote"
)

// RemoteBackend stores entries in Redis as JSON envelopes.
//
// Redis expiry is set to ttl plus the stale retention window, so an entry
// keeps answering GetStale after Get has started to report it as expired.
type RemoteBackend struct {
	redis          *redis.Client
	keyPrefix      string
	staleRetention time.Duration
	logger         zerolog.Logger
}

// RemoteOptions configures a RemoteBackend.
type RemoteOptions struct {
	// KeyPrefix prepended to every key (default "nasa:cache:")
	KeyPrefix string

	// StaleRetention extends the redis expiry beyond the logical ttl
	StaleRetention time.Duration

	// Logger for backend errors
	Logger zerolog.Logger
}

// NewRemoteBackend creates a new cache backend on top of a Redis client.
func NewRemoteBackend(redisClient *redis.Client, opts RemoteOptions) *RemoteBackend {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.StaleRetention < 0 {
		opts.StaleRetention = 0
	}
	return &RemoteBackend{
		redis:          redisClient,
		keyPrefix:      opts.KeyPrefix,
		staleRetention: opts.StaleRetention,
		logger:         opts.Logger,
	}
}

// Get retrieves a fresh entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (b *RemoteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.load(ctx, key, "get")
	if err != nil {
		return nil, err
	}

	// Expired but retained for the stale path
	if entry.IsExpired() {
		CacheMisses.WithLabelValues(remoteLabel).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(remoteLabel).Inc()
	return entry.Data, nil
}

// GetStale retrieves the last stored entry regardless of its logical expiry.
func (b *RemoteBackend) GetStale(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.load(ctx, key, "get_stale")
	if err != nil {
		return nil, err
	}

	CacheStaleReads.WithLabelValues(remoteLabel).Inc()
	return entry.Data, nil
}

// Set stores value under key. The previous entry is overwritten.
func (b *RemoteBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidTTL, ttl)
	}
	if err := validValue(value); err != nil {
		CacheErrors.WithLabelValues(remoteLabel, "set").Inc()
		return err
	}

	entry := newEntry(value, ttl, time.Now())

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues(remoteLabel, "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Store in Redis with ttl + stale retention
	if err := b.redis.Set(ctx, b.keyPrefix+key, data, ttl+b.staleRetention).Err(); err != nil {
		CacheErrors.WithLabelValues(remoteLabel, "set").Inc()
		return unavailable("redis set", err)
	}

	return nil
}

// Remove deletes a cache entry.
func (b *RemoteBackend) Remove(ctx context.Context, key string) error {
	if err := b.redis.Del(ctx, b.keyPrefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues(remoteLabel, "remove").Inc()
		return unavailable("redis del", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (b *RemoteBackend) Ping(ctx context.Context) error {
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return unavailable("redis ping", err)
	}
	return nil
}

// Client returns the underlying Redis client so other components can share
// the connection pool. It is closed by Close.
func (b *RemoteBackend) Client() *redis.Client {
	return b.redis
}

// Close closes the Redis connection pool.
func (b *RemoteBackend) Close() error {
	err := b.redis.Close()
	if err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// load fetches and decodes the envelope stored for key.
func (b *RemoteBackend) load(ctx context.Context, key, op string) (*CacheEntry, error) {
	data, err := b.redis.Get(ctx, b.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(remoteLabel).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(remoteLabel, op).Inc()
		return nil, unavailable("redis get", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(remoteLabel, op).Inc()
		b.logger.Warn().Err(err).Str("key", key).Msg("Undecodable cache envelope")
		return nil, decodeError(err)
	}

	return &entry, nil
}
