// Package metrics provides the Prometheus registry and scrape handler for the
// NASA API proxy. All metrics are defined in their respective packages
// (cache, fetch, client, ratelimit, warmup) and registered via promauto.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the proxy.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry the scrape handler reads from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - nasa_cache_hits_total{backend} (Counter): Fresh reads served by the backend
//   - nasa_cache_misses_total{backend} (Counter): Reads that found no fresh entry
//   - nasa_cache_stale_reads_total{backend} (Counter): Expired entries returned by GetStale
//   - nasa_cache_entries{backend} (Gauge): Entries held by the local backend
//   - nasa_cache_evictions_total{backend} (Counter): Entries removed by the sweep
//   - nasa_cache_errors_total{backend, operation} (Counter): Backend operation errors
//
// Fetch Metrics (pkg/fetch):
//   - nasa_fetch_outcomes_total{status} (Counter): Outcomes (fresh, degraded, failed)
//   - nasa_origin_attempts_total{result} (Counter): Origin calls (success, error, timeout)
//   - nasa_retry_backoff_seconds (Histogram): Backoff waited between attempts
//   - nasa_fetch_degraded_total (Counter): Stale values served after origin failure
//   - nasa_retry_exhausted_total (Counter): Fetches that used every attempt
//
// Request Metrics (pkg/client):
//   - nasa_requests_total{endpoint, status} (Counter): Origin requests by path and HTTP status
//   - nasa_request_duration_seconds{endpoint} (Histogram): Origin request duration
//   - nasa_errors_total{class} (Counter): Origin errors by class (client, server, rate_limit, network, decode)
//
// Quota Metrics (pkg/ratelimit):
//   - nasa_quota_remaining (Gauge): Requests left in the hourly window
//   - nasa_quota_limit (Gauge): Requests allowed per window
//   - nasa_quota_low_total{level} (Counter): Responses seen with a low or critical quota
//
// Warm-up Metrics (pkg/warmup):
//   - nasa_warmup_tasks_total{task, result} (Counter): Warm-up task results
//   - nasa_warmup_run_duration_seconds (Histogram): Duration of warm-up runs
//
// HTTP Metrics (cmd/nasa-proxy):
//   - nasa_http_requests_total{route, code} (Counter): Proxy responses by route and status
//   - nasa_http_request_duration_seconds{route} (Histogram): Proxy handler latency
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(nasa_cache_hits_total[5m])) /
//   (sum(rate(nasa_cache_hits_total[5m])) + sum(rate(nasa_cache_misses_total[5m])))
//
//   # Share of degraded responses
//   rate(nasa_fetch_outcomes_total{status="degraded"}[5m]) / sum(rate(nasa_fetch_outcomes_total[5m]))
//
//   # Quota running low
//   nasa_quota_remaining < 0.1 * nasa_quota_limit
//
//   # P95 Origin Latency
//   histogram_quantile(0.95, rate(nasa_request_duration_seconds_bucket[5m]))
