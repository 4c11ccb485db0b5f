package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Kind selects a backend implementation.
type Kind int

const (
	// KindLocal is the in-process backend.
	KindLocal Kind = iota + 1

	// KindRemote is the Redis backed backend.
	KindRemote
)

// String returns the canonical configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configuration value into a Kind.
// "memory" and "redis" are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local", "memory":
		return KindLocal, nil
	case "remote", "redis":
		return KindRemote, nil
	default:
		return 0, fmt.Errorf("unknown cache backend kind %q", s)
	}
}

// Config holds backend selection and tuning.
type Config struct {
	// Kind of backend to build
	Kind Kind

	// Address of the remote server, either a redis:// URL or host:port
	Address string

	// KeyPrefix for remote keys
	KeyPrefix string

	// SweepInterval for the local backend
	SweepInterval time.Duration

	// StaleRetention is how long expired entries stay readable by GetStale
	StaleRetention time.Duration

	// DialTimeout bounds the startup ping of the remote backend
	DialTimeout time.Duration
}

// DefaultConfig returns a local backend configuration.
func DefaultConfig() Config {
	return Config{
		Kind:           KindLocal,
		Address:        "redis://localhost:6379",
		KeyPrefix:      DefaultKeyPrefix,
		SweepInterval:  DefaultSweepInterval,
		StaleRetention: 24 * time.Hour,
		DialTimeout:    5 * time.Second,
	}
}

// Constructor builds a backend of one kind.
type Constructor func(ctx context.Context, cfg Config, logger zerolog.Logger) (Backend, error)

// constructors maps each kind to its implementation.
var constructors = map[Kind]Constructor{
	KindLocal:  newLocalFromConfig,
	KindRemote: newRemoteFromConfig,
}

// NewBackend builds the backend selected by cfg.Kind.
func NewBackend(ctx context.Context, cfg Config, logger zerolog.Logger) (Backend, error) {
	ctor, ok := constructors[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("no cache backend registered for %s", cfg.Kind)
	}
	return ctor(ctx, cfg, logger)
}

func newLocalFromConfig(_ context.Context, cfg Config, logger zerolog.Logger) (Backend, error) {
	return NewLocalBackend(LocalOptions{
		SweepInterval:  cfg.SweepInterval,
		StaleRetention: cfg.StaleRetention,
		Logger:         logger,
	}), nil
}

func newRemoteFromConfig(ctx context.Context, cfg Config, logger zerolog.Logger) (Backend, error) {
	opts, err := redisOptions(cfg.Address)
	if err != nil {
		return nil, err
	}

	backend := NewRemoteBackend(redis.NewClient(opts), RemoteOptions{
		KeyPrefix:      cfg.KeyPrefix,
		StaleRetention: cfg.StaleRetention,
		Logger:         logger,
	})

	// Unreachable at startup is not fatal: every operation degrades to a miss.
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := backend.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis not reachable, cache will run degraded")
	} else {
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	}

	return backend, nil
}

// redisOptions accepts both redis:// URLs and bare host:port addresses.
func redisOptions(address string) (*redis.Options, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("remote cache address is required")
	}

	if strings.Contains(address, "://") {
		opts, err := redis.ParseURL(address)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}

	return &redis.Options{Addr: address}, nil
}

// Provider resolves a Config into one backend for the process lifetime.
// The first call to Backend builds it; later calls return the same instance.
// Swapping backends at runtime is not supported.
type Provider struct {
	cfg    Config
	logger zerolog.Logger

	once    sync.Once
	backend Backend
	err     error
}

// NewProvider creates a provider. Nothing is built until Backend is called.
func NewProvider(cfg Config, logger zerolog.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

// Backend returns the shared backend, building it on first use.
func (p *Provider) Backend(ctx context.Context) (Backend, error) {
	p.once.Do(func() {
		p.backend, p.err = NewBackend(ctx, p.cfg, p.logger)
		if p.err == nil {
			p.logger.Info().Str("kind", p.cfg.Kind.String()).Msg("Cache backend initialized")
		}
	})
	return p.backend, p.err
}

// Close closes the backend if it was built.
func (p *Provider) Close() error {
	if p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
