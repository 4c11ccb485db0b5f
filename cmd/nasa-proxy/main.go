// Command nasa-proxy serves APOD, Mars rover photos and NeoWs data through a
// cache-aside layer that falls back to expired entries while NASA is down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/nasa-api-proxy/internal/config"
	"github.com/Sternrassler/nasa-api-proxy/pkg/cache"
	"github.com/Sternrassler/nasa-api-proxy/pkg/client"
	"github.com/Sternrassler/nasa-api-proxy/pkg/fetch"
	"github.com/Sternrassler/nasa-api-proxy/pkg/logging"
	"github.com/Sternrassler/nasa-api-proxy/pkg/nasa"
	"github.com/Sternrassler/nasa-api-proxy/pkg/ratelimit"
	"github.com/Sternrassler/nasa-api-proxy/pkg/warmup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load()); err != nil {
		log.Fatal().Err(err).Msg("nasa-proxy stopped")
	}
}

// componentConfigs derives the cache, fetch and warm-up settings from cfg.
func componentConfigs(cfg *config.Config) (cache.Config, fetch.Policy, warmup.Config, error) {
	cacheCfg, err := cfg.CacheConfig()
	if err != nil {
		return cache.Config{}, fetch.Policy{}, warmup.Config{}, fmt.Errorf("cache configuration: %w", err)
	}
	policy, err := cfg.FetchPolicy()
	if err != nil {
		return cache.Config{}, fetch.Policy{}, warmup.Config{}, fmt.Errorf("fetch policy: %w", err)
	}
	warmCfg, err := cfg.WarmupConfig()
	if err != nil {
		return cache.Config{}, fetch.Policy{}, warmup.Config{}, fmt.Errorf("warm-up configuration: %w", err)
	}
	return cacheCfg, policy, warmCfg, nil
}

// run wires all components and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.Setup(cfg.Logging())

	cacheCfg, policy, warmCfg, err := componentConfigs(cfg)
	if err != nil {
		return err
	}

	provider := cache.NewProvider(cacheCfg, logging.NewLogger("cache"))
	defer provider.Close()

	backend, err := provider.Backend(ctx)
	if err != nil {
		return fmt.Errorf("create cache backend: %w", err)
	}

	// Replicas sharing a redis cache also share the quota view.
	tracker := ratelimit.NewTracker(logging.NewLogger("quota"))
	if remote, ok := backend.(*cache.RemoteBackend); ok {
		tracker = ratelimit.NewSharedTracker(remote.Client(), logging.NewLogger("quota"))
	}

	clientCfg := client.DefaultConfig(cfg.NASAAPIKey, cfg.UserAgent)
	clientCfg.Tracker = tracker
	origin, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create NASA client: %w", err)
	}
	defer origin.Close()

	fetcher := fetch.New(backend,
		fetch.WithLogger(logging.NewLogger("fetch")),
		fetch.WithCoalescing(cfg.FetchCoalesce),
	)
	service := nasa.NewService(origin, fetcher, nasa.Config{
		Endpoints: cfg.Endpoints(),
		Policy:    policy,
	})

	warmer := warmup.New(warmCfg, logging.NewLogger("warmup"))
	warmer.Register(service.WarmupTasks()...)
	if err := warmer.Start(ctx); err != nil {
		return fmt.Errorf("start warm-up schedule: %w", err)
	}
	defer warmer.Stop(context.Background())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(service, backend, tracker, logging.NewLogger("http")).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", srv.Addr).
			Str("cache", cacheCfg.Kind.String()).
			Dur("ttl", policy.TTL).
			Int("max_attempts", policy.MaxAttempts).
			Bool("coalescing", fetcher.Coalescing()).
			Msg("Starting NASA proxy")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		warmer.Stop(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if cfg.WarmupOnStart {
		g.Go(func() error {
			// Warm-up failures are logged by the warmer and never stop the server.
			_, _ = warmer.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Server exited")
	return nil
}
