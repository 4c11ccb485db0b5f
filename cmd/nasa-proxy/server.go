package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/nasa-api-proxy/pkg/cache"
	"github.com/Sternrassler/nasa-api-proxy/pkg/fetch"
	"github.com/Sternrassler/nasa-api-proxy/pkg/metrics"
	"github.com/Sternrassler/nasa-api-proxy/pkg/nasa"
	"github.com/Sternrassler/nasa-api-proxy/pkg/ratelimit"
)

// HeaderDataStatus tells clients whether a 200 response is fresh or served
// from an expired cache entry.
const HeaderDataStatus = "X-Data-Status"

const readyTimeout = 2 * time.Second

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_http_requests_total",
		Help: "HTTP requests served by route and status code",
	}, []string{"route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nasa_http_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15},
	}, []string{"route"})
)

// server holds the handler dependencies.
type server struct {
	service *nasa.Service
	backend cache.Backend
	tracker *ratelimit.Tracker
	logger  zerolog.Logger
	now     func() time.Time
}

func newServer(service *nasa.Service, backend cache.Backend, tracker *ratelimit.Tracker, logger zerolog.Logger) *server {
	return &server{
		service: service,
		backend: backend,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// routes builds the router.
func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	// Full paths on one router so a method mismatch answers 405.
	r.HandleFunc("/api/apod", s.handleAPOD).Methods(http.MethodGet)
	r.HandleFunc("/api/mars", s.handleMars).Methods(http.MethodGet)
	r.HandleFunc("/api/neows", s.handleNeoWs).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

func (s *server) handleAPOD(w http.ResponseWriter, r *http.Request) {
	writeOutcome(s, w, s.service.APOD(r.Context()), "Failed to fetch APOD data")
}

func (s *server) handleMars(w http.ResponseWriter, r *http.Request) {
	q, err := nasa.ParseMarsQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOutcome(s, w, s.service.MarsPhotos(r.Context(), q), "Failed to fetch Mars Rover photos")
}

func (s *server) handleNeoWs(w http.ResponseWriter, r *http.Request) {
	q, err := nasa.ParseNeoWsQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOutcome(s, w, s.service.NeoWs(r.Context(), q), "Failed to fetch Near-Earth Objects data")
}

// writeOutcome maps an outcome to a response. Failures other than invalid
// input answer 502 with a fixed message; details go to the log only.
func writeOutcome[T any](s *server, w http.ResponseWriter, out fetch.Outcome[T], failure string) {
	if out.Status == fetch.StatusFailed {
		if errors.Is(out.Err, nasa.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, out.Err.Error())
			return
		}
		if errors.Is(out.Err, fetch.ErrCancelled) {
			s.logger.Debug().Err(out.Err).Msg("Client went away before the fetch completed")
		} else {
			s.logger.Error().Err(out.Err).Int("attempts", out.Attempts).Msg(failure)
		}
		writeError(w, http.StatusBadGateway, failure)
		return
	}

	w.Header().Set(HeaderDataStatus, out.Status.String())
	writeJSON(w, http.StatusOK, out.Value)
}

type healthResponse struct {
	Status    string               `json:"status"`
	Timestamp string               `json:"timestamp"`
	Quota     ratelimit.QuotaState `json:"quota"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	quota, err := s.tracker.GetState(r.Context())
	if err != nil {
		s.logger.Debug().Err(err).Msg("Shared quota state unavailable, reporting local state")
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Quota:     quota,
	})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "cache backend unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
