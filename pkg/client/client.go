// Package client provides the NASA open data HTTP client with error
// classification and quota observation.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/nasa-api-proxy/pkg/ratelimit"
)

// Prometheus metrics for NASA client operations.
var (
	nasaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_requests_total",
		Help: "Total NASA API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	nasaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nasa_request_duration_seconds",
		Help:    "NASA API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	nasaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_errors_total",
		Help: "Total NASA API errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of an error response is kept as message.
const maxErrorBody = 512

// Client calls the NASA open data API.
type Client struct {
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as the api_key query parameter
	APIKey string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout of the underlying HTTP client. Per-attempt deadlines come from the caller's context.
	Timeout time.Duration

	// Tracker observes quota headers (optional)
	Tracker *ratelimit.Tracker
}

// DefaultConfig returns a default configuration.
func DefaultConfig(apiKey, userAgent string) Config {
	return Config{
		APIKey:    apiKey,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new NASA client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracker: cfg.Tracker,
		config:  cfg,
		logger:  log.With().Str("component", "nasa-client").Logger(),
	}, nil
}

// GetJSON performs a GET request against endpoint with params and decodes
// the JSON response into dst. Failures are returned as *OriginError.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, dst any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	if query.Get("api_key") == "" {
		query.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		nasaErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Warn().
			Err(err).
			Str("endpoint", u.Path).
			Msg("NASA API response decode failed")
		return &OriginError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "invalid JSON body",
			Err:        err,
		}
	}

	return nil
}

// Do executes a request, records quota headers and turns non-2xx
// responses into *OriginError. On success the caller closes the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		nasaRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing NASA API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		nasaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		nasaRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(redactKey(err, c.config.APIKey)).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &OriginError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        redactKey(err, c.config.APIKey),
		}
	}

	if c.tracker != nil {
		if err := c.tracker.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
		}
	}

	nasaRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		errClass := classifyStatus(resp.StatusCode)
		nasaErrorsTotal.WithLabelValues(string(errClass)).Inc()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = resp.Status
		}

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("NASA API request error")

		return nil, &OriginError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    message,
		}
	}

	return resp, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// redactKey strips the API key from transport errors, which quote the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
