package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch operations.
var (
	fetchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_fetch_outcomes_total",
		Help: "Total number of fetch outcomes by status",
	}, []string{"status"})

	originAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_origin_attempts_total",
		Help: "Total number of origin calls by result (success, error, timeout)",
	}, []string{"result"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nasa_retry_backoff_seconds",
		Help:    "Backoff duration waited between origin attempts",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	fetchDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nasa_fetch_degraded_total",
		Help: "Total number of stale values served after origin failure",
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nasa_retry_exhausted_total",
		Help: "Total number of fetches that exhausted all origin attempts",
	})
)
