package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by backend
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasa_cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
		[]string{"backend"}, // "local", "remote"
	)

	// CacheMisses tracks cache misses by backend (absent or expired)
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasa_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// CacheStaleReads tracks stale lookups that found a value
	CacheStaleReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasa_cache_stale_reads_total",
			Help: "Total number of stale reads that returned a value",
		},
		[]string{"backend"},
	)

	// CacheEntries tracks the number of entries held by the local backend
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nasa_cache_entries",
			Help: "Current number of entries held in process",
		},
		[]string{"backend"},
	)

	// CacheEvictions tracks entries removed by the sweep
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasa_cache_evictions_total",
			Help: "Total number of entries removed by housekeeping",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasa_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "get", "get_stale", "set", "remove"
	)
)
