package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultSweepInterval is how often the local backend evicts expired entries.
	DefaultSweepInterval = 60 * time.Second

	localLabel = "local"
)

// LocalBackend is a process local cache with lazy and periodic expiry.
//
// Get checks expiry on every read, so correctness never depends on sweep
// timing. The sweep only bounds memory: it evicts entries once their expiry
// plus the stale retention window has passed.
type LocalBackend struct {
	mu             sync.RWMutex
	items          map[string]*CacheEntry
	staleRetention time.Duration
	now            func() time.Time
	logger         zerolog.Logger

	closed    bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// LocalOptions configures a LocalBackend.
type LocalOptions struct {
	// SweepInterval between housekeeping passes (default 60s)
	SweepInterval time.Duration

	// StaleRetention keeps expired entries reachable by GetStale for this long
	StaleRetention time.Duration

	// Logger for housekeeping events
	Logger zerolog.Logger

	// Clock overrides time.Now (tests)
	Clock func() time.Time
}

// NewLocalBackend creates a local backend and starts its sweep goroutine.
func NewLocalBackend(opts LocalOptions) *LocalBackend {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.StaleRetention < 0 {
		opts.StaleRetention = 0
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	b := &LocalBackend{
		items:          make(map[string]*CacheEntry),
		staleRetention: opts.StaleRetention,
		now:            opts.Clock,
		logger:         opts.Logger,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}

	go b.sweepLoop(opts.SweepInterval)

	return b
}

// Get retrieves a fresh entry. Returns ErrCacheMiss if absent or expired.
func (b *LocalBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		CacheErrors.WithLabelValues(localLabel, "get").Inc()
		return nil, unavailable("get", errClosed)
	}

	entry, ok := b.items[key]
	if !ok || entry.IsExpiredAt(b.now()) {
		CacheMisses.WithLabelValues(localLabel).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(localLabel).Inc()
	return entry.payload(), nil
}

// GetStale retrieves the last stored entry regardless of expiry.
func (b *LocalBackend) GetStale(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		CacheErrors.WithLabelValues(localLabel, "get_stale").Inc()
		return nil, unavailable("get_stale", errClosed)
	}

	entry, ok := b.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	CacheStaleReads.WithLabelValues(localLabel).Inc()
	return entry.payload(), nil
}

// Set stores value under key, replacing any previous entry.
func (b *LocalBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidTTL, ttl)
	}
	if err := validValue(value); err != nil {
		CacheErrors.WithLabelValues(localLabel, "set").Inc()
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		CacheErrors.WithLabelValues(localLabel, "set").Inc()
		return unavailable("set", errClosed)
	}

	b.items[key] = newEntry(value, ttl, b.now())
	CacheEntries.WithLabelValues(localLabel).Set(float64(len(b.items)))

	return nil
}

// Remove deletes key. No-op if absent.
func (b *LocalBackend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		CacheErrors.WithLabelValues(localLabel, "remove").Inc()
		return unavailable("remove", errClosed)
	}

	delete(b.items, key)
	CacheEntries.WithLabelValues(localLabel).Set(float64(len(b.items)))

	return nil
}

// Ping fails only after Close.
func (b *LocalBackend) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return unavailable("ping", errClosed)
	}
	return nil
}

// Len returns the number of entries currently held, stale ones included.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Close stops the sweep and drops all entries. Safe to call more than once.
func (b *LocalBackend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh

		b.mu.Lock()
		b.closed = true
		b.items = make(map[string]*CacheEntry)
		b.mu.Unlock()

		CacheEntries.WithLabelValues(localLabel).Set(0)
	})
	return nil
}

func (b *LocalBackend) sweepLoop(interval time.Duration) {
	defer close(b.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.sweep()
		case <-b.stopCh:
			return
		}
	}
}

// sweep removes entries whose expiry plus stale retention has passed.
func (b *LocalBackend) sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.staleRetention)
	removed := 0

	for key, entry := range b.items {
		if entry.IsExpiredAt(cutoff) {
			delete(b.items, key)
			removed++
		}
	}

	if removed > 0 {
		CacheEvictions.WithLabelValues(localLabel).Add(float64(removed))
		b.logger.Debug().
			Int("removed", removed).
			Int("remaining", len(b.items)).
			Msg("Swept expired cache entries")
	}
	CacheEntries.WithLabelValues(localLabel).Set(float64(len(b.items)))

	return removed
}
