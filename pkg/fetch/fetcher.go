// Package fetch implements cache-aside access to a slow or unreliable origin.
//
// A fetch reads a fresh cache entry first. On a miss it calls the origin up
// to Policy.MaxAttempts times, each call bounded by Policy.AttemptTimeout and
// separated by a linear backoff. When every attempt fails it falls back to
// the most recent expired entry, if any.
//
//	f := fetch.New(backend)
//	out := fetch.Fetch(ctx, f, "apod_data", loadAPOD, fetch.DefaultPolicy())
//	switch out.Status {
//	case fetch.StatusFresh, fetch.StatusDegraded:
//		render(out.Value)
//	case fetch.StatusFailed:
//		return out.Err
//	}
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/nasa-api-proxy/pkg/cache"
)

// OriginFunc produces a fresh value. It should honor ctx; the fetcher stops
// waiting at the attempt deadline either way.
type OriginFunc[T any] func(ctx context.Context) (T, error)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher holds the shared state of fetch calls: the cache backend and
// optional request coalescing.
type Fetcher struct {
	backend cache.Backend
	logger  zerolog.Logger
	sleep   Sleeper
	group   *singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for retry and fallback events.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithSleeper replaces the backoff wait. Tests use it to record waits.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithCoalescing lets concurrent fetches of the same key share one
// origin sequence.
func WithCoalescing(enabled bool) Option {
	return func(f *Fetcher) {
		if enabled {
			f.group = &singleflight.Group{}
		} else {
			f.group = nil
		}
	}
}

// New creates a Fetcher over backend.
func New(backend cache.Backend, opts ...Option) *Fetcher {
	if backend == nil {
		panic("fetch: backend cannot be nil")
	}

	f := &Fetcher{
		backend: backend,
		logger:  log.Logger.With().Str("component", "fetch").Logger(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Backend returns the cache backend the fetcher reads and writes.
func (f *Fetcher) Backend() cache.Backend {
	return f.backend
}

// Coalescing reports whether concurrent fetches of one key are merged.
func (f *Fetcher) Coalescing() bool {
	return f.group != nil
}

// Fetch returns the value for key from cache or origin.
//
// The outcome is Fresh when a fresh entry exists or the origin succeeded,
// Degraded when all attempts failed and an expired entry was served, and
// Failed otherwise. A Failed outcome after exhausted retries matches both
// ErrRetriesExhausted and the last origin error with errors.Is.
func Fetch[T any](ctx context.Context, f *Fetcher, key string, origin OriginFunc[T], policy Policy) Outcome[T] {
	return run(ctx, f, key, origin, policy, false)
}

// Refresh calls the origin for key even when a fresh entry exists and
// stores the result with a new TTL. Retries and the stale fallback behave
// as in Fetch, so a failed refresh still serves the previous entry.
func Refresh[T any](ctx context.Context, f *Fetcher, key string, origin OriginFunc[T], policy Policy) Outcome[T] {
	return run(ctx, f, key, origin, policy, true)
}

func run[T any](ctx context.Context, f *Fetcher, key string, origin OriginFunc[T], policy Policy, refresh bool) Outcome[T] {
	if err := policy.Validate(); err != nil {
		out := Failed[T](fmt.Errorf("%w: %v", ErrInvalidPolicy, err))
		fetchOutcomesTotal.WithLabelValues(out.Status.String()).Inc()
		return out
	}

	if f.group == nil {
		return record(fetchOnce(ctx, f, key, origin, policy, refresh))
	}

	// Refreshes never join a plain fetch that may end on a cache hit.
	groupKey := key
	if refresh {
		groupKey = "refresh:" + key
	}

	v, _, shared := f.group.Do(groupKey, func() (any, error) {
		return fetchOnce(ctx, f, key, origin, policy, refresh), nil
	})
	out, ok := v.(Outcome[T])
	if !ok {
		// Same key requested with a different value type
		return record(fetchOnce(ctx, f, key, origin, policy, refresh))
	}
	if shared {
		f.logger.Debug().Str("key", key).Msg("Fetch coalesced")
		// The leader was cancelled; a live caller runs its own sequence.
		if errors.Is(out.Err, ErrCancelled) && ctx.Err() == nil {
			f.logger.Debug().Str("key", key).Msg("Coalesced leader cancelled, fetching again")
			return record(fetchOnce(ctx, f, key, origin, policy, refresh))
		}
	}
	return record(out)
}

func record[T any](out Outcome[T]) Outcome[T] {
	fetchOutcomesTotal.WithLabelValues(out.Status.String()).Inc()
	return out
}

func fetchOnce[T any](ctx context.Context, f *Fetcher, key string, origin OriginFunc[T], policy Policy, refresh bool) Outcome[T] {
	if err := ctx.Err(); err != nil {
		return cancelled[T](err, 0)
	}

	// 1. Fresh cache entry
	if !refresh {
		cached, err := cache.GetValue[T](ctx, f.backend, key)
		switch {
		case err == nil:
			f.logger.Debug().Str("key", key).Msg("Cache hit")
			out := Fresh(cached)
			out.FromCache = true
			return out
		case errors.Is(err, cache.ErrCacheMiss):
			f.logger.Debug().Str("key", key).Msg("Cache miss")
		default:
			f.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		}
	}

	// 2. Origin with retries
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return cancelled[T](err, attempt-1)
		}

		value, err := callOrigin(ctx, origin, policy.AttemptTimeout)
		if err == nil {
			originAttemptsTotal.WithLabelValues("success").Inc()
			if attempt > 1 {
				f.logger.Info().
					Str("key", key).
					Int("attempt", attempt).
					Msg("Origin succeeded after retry")
			}
			if err := cache.SetValue(ctx, f.backend, key, value, policy.TTL); err != nil {
				f.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
			out := Fresh(value)
			out.Attempts = attempt
			return out
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return cancelled[T](ctxErr, attempt)
		}

		lastErr = err
		if errors.Is(err, ErrOriginTimeout) {
			originAttemptsTotal.WithLabelValues("timeout").Inc()
		} else {
			originAttemptsTotal.WithLabelValues("error").Inc()
		}

		f.logger.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Int("max_attempts", policy.MaxAttempts).
			Msg("Origin attempt failed")

		if attempt >= policy.MaxAttempts {
			break
		}

		wait := policy.Backoff(attempt)
		retryBackoffSeconds.Observe(wait.Seconds())
		f.logger.Debug().
			Str("key", key).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying origin after backoff")

		if err := f.sleep(ctx, wait); err != nil {
			return cancelled[T](err, attempt)
		}
	}

	// 3. Stale fallback
	retryExhaustedTotal.Inc()

	stale, err := cache.GetStaleValue[T](ctx, f.backend, key)
	if err == nil {
		fetchDegradedTotal.Inc()
		f.logger.Warn().
			Err(lastErr).
			Str("key", key).
			Int("attempts", policy.MaxAttempts).
			Msg("Serving stale data after origin failure")
		out := Degraded(stale)
		out.Attempts = policy.MaxAttempts
		out.FromCache = true
		return out
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		f.logger.Warn().Err(err).Str("key", key).Msg("Stale cache read failed")
	}

	f.logger.Error().
		Err(lastErr).
		Str("key", key).
		Int("attempts", policy.MaxAttempts).
		Msg("Retry attempts exhausted, no cached data")

	out := Failed[T](fmt.Errorf("%w after %d attempts for %s: %w", ErrRetriesExhausted, policy.MaxAttempts, key, lastErr))
	out.Attempts = policy.MaxAttempts
	return out
}

func cancelled[T any](cause error, attempts int) Outcome[T] {
	out := Failed[T](fmt.Errorf("%w: %w", ErrCancelled, cause))
	out.Attempts = attempts
	return out
}

type originResult[T any] struct {
	value T
	err   error
}

// callOrigin runs one attempt and returns no later than its deadline.
func callOrigin[T any](ctx context.Context, origin OriginFunc[T], timeout time.Duration) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan originResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- originResult[T]{err: fmt.Errorf("origin panic: %v", r)}
			}
		}()
		v, err := origin(attemptCtx)
		done <- originResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return res.value, fmt.Errorf("%w after %v: %w", ErrOriginTimeout, timeout, res.err)
		}
		return res.value, res.err
	case <-attemptCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %v", ErrOriginTimeout, timeout)
	}
}

// sleepContext waits for d, returning early with ctx.Err() if ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
