// Package cache provides the pluggable cache backends behind the fetcher.
//
// Two backends implement the Backend contract:
//
// - LocalBackend: process local map with lazy expiry and a periodic sweep
// - RemoteBackend: Redis, values wrapped in a JSON envelope
//
// Both keep expired entries around for a stale retention window so that the
// fetcher can fall back to the last known value when the origin is down.
//
// # Basic Usage
//
//	// Resolve the backend once at process start
//	provider := cache.NewProvider(cache.Config{
//		Kind:    cache.KindRemote,
//		Address: "redis://localhost:6379",
//	}, logger)
//
//	backend, err := provider.Backend(ctx)
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	// Typed access
//	key := cache.NewKey("mars", "1000", "all").String()
//	if err := cache.SetValue(ctx, backend, key, photos, 5*time.Minute); err != nil {
//		// caching is best effort
//	}
//
//	photos, err := cache.GetValue[[]Photo](ctx, backend, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from origin
//	}
//
// # Errors
//
//   - ErrCacheMiss: absent or expired, a normal outcome
//   - ErrBackendUnavailable: medium unreachable, closed, or payload undecodable
//   - ErrDecode: payload could not be parsed (also matches ErrBackendUnavailable)
//
// # Metrics
//
// The backends export Prometheus metrics:
//
//   - nasa_cache_hits_total{backend} - Fresh cache hits
//   - nasa_cache_misses_total{backend} - Cache misses
//   - nasa_cache_stale_reads_total{backend} - Stale reads that found a value
//   - nasa_cache_entries{backend} - Entries held in process
//   - nasa_cache_evictions_total{backend} - Entries removed by the sweep
//   - nasa_cache_errors_total{backend,operation} - Cache operation errors
package cache
