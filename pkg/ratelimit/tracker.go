package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nasa_quota_remaining",
		Help: "Requests remaining in the current NASA API quota window",
	})

	quotaLimit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nasa_quota_limit",
		Help: "NASA API request limit per quota window",
	})

	quotaLowTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_quota_low_total",
		Help: "Total number of responses observed with a low or critical quota",
	}, []string{"level"})
)

// Tracker records the NASA API quota from response headers.
//
// State is kept in process. A tracker built with NewSharedTracker also
// mirrors it to redis so replicas sharing the same API key report the same
// quota.
type Tracker struct {
	mu     sync.RWMutex
	state  QuotaState
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates an in-process quota tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		state:  UnknownState(),
		logger: logger,
	}
}

// NewSharedTracker creates a tracker that mirrors its state to redis.
func NewSharedTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	t := NewTracker(logger)
	t.redis = redisClient
	return t
}

// Snapshot returns the in-process state.
func (t *Tracker) Snapshot() QuotaState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// GetState returns the current quota. Shared trackers read redis first and
// fall back to the in-process state when redis holds nothing or fails.
func (t *Tracker) GetState(ctx context.Context) (QuotaState, error) {
	local := t.Snapshot()
	if t.redis == nil {
		return local, nil
	}

	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		return local, nil
	}
	if err != nil {
		return local, fmt.Errorf("get quota remaining: %w", err)
	}

	limit, err := t.redis.Get(ctx, RedisKeyLimit).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return local, fmt.Errorf("get quota limit: %w", err)
	}

	lastUnix, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return local, fmt.Errorf("get quota last update: %w", err)
	}

	state := QuotaState{
		Limit:      limit,
		Remaining:  remaining,
		LastUpdate: time.Unix(lastUnix, 0),
		Known:      true,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the quota headers of an origin response.
// Responses without X-RateLimit-Remaining are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	t.mu.RLock()
	limit := t.state.Limit
	t.mu.RUnlock()

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	state := QuotaState{
		Limit:      limit,
		Remaining:  remain,
		LastUpdate: time.Now(),
		Known:      true,
	}
	state.UpdateHealth()

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	quotaRemaining.Set(float64(remain))
	if limit > 0 {
		quotaLimit.Set(float64(limit))
	}

	switch {
	case state.IsCritical():
		quotaLowTotal.WithLabelValues("critical").Inc()
		t.logger.Error().
			Int("remaining", remain).
			Int("limit", limit).
			Msg("NASA API quota critical")
	case state.IsLow():
		quotaLowTotal.WithLabelValues("warning").Inc()
		t.logger.Warn().
			Int("remaining", remain).
			Int("limit", limit).
			Msg("NASA API quota low")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", limit).
			Msg("NASA API quota updated")
	}

	if t.redis == nil {
		return nil
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, remain, QuotaWindow)
	pipe.Set(ctx, RedisKeyLimit, limit, QuotaWindow)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.Unix(), QuotaWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}

	return nil
}
