package client

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/nasa-api-proxy/internal/testutil"
	"github.com/Sternrassler/nasa-api-proxy/pkg/ratelimit"
)

const testUserAgent = "nasa-api-proxy-test/1.0"

type apodResponse struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	MediaType string `json:"media_type"`
}

func newTestClient(t *testing.T, tracker *ratelimit.Tracker) *Client {
	t.Helper()

	cfg := DefaultConfig("TEST_KEY", testUserAgent)
	cfg.Tracker = tracker
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("DEMO_KEY", testUserAgent),
		},
		{
			name:        "missing api key",
			config:      DefaultConfig("", testUserAgent),
			expectError: true,
			errorMsg:    "api key is required",
		},
		{
			name:        "missing user agent",
			config:      DefaultConfig("DEMO_KEY", ""),
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:   "zero timeout gets default",
			config: Config{APIKey: "DEMO_KEY", UserAgent: testUserAgent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("New() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("New() error = %q, want containing %q", err, tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error = %v", err)
			}
			if c.httpClient.Timeout <= 0 {
				t.Errorf("http timeout = %v, want positive", c.httpClient.Timeout)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("DEMO_KEY", testUserAgent)

	if cfg.APIKey != "DEMO_KEY" {
		t.Errorf("APIKey = %q, want DEMO_KEY", cfg.APIKey)
	}
	if cfg.UserAgent != testUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, testUserAgent)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestGetJSON_Success(t *testing.T) {
	mock := testutil.NewMockNASA()
	defer mock.Close()
	mock.SetResponse(testutil.APODPath, testutil.NewHealthyResponse(testutil.APODFixture))

	c := newTestClient(t, nil)

	var got apodResponse
	err := c.GetJSON(context.Background(), mock.Endpoint(testutil.APODPath), url.Values{"thumbs": {"true"}}, &got)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if got.Title != "Pillars of Creation" || got.Date != "2025-01-01" || got.MediaType != "image" {
		t.Errorf("GetJSON() decoded %+v", got)
	}

	query := mock.LastQuery()
	if query.Get("api_key") != "TEST_KEY" {
		t.Errorf("api_key = %q, want TEST_KEY", query.Get("api_key"))
	}
	if query.Get("thumbs") != "true" {
		t.Errorf("thumbs = %q, want true", query.Get("thumbs"))
	}
	if ua := mock.LastHeader().Get("User-Agent"); ua != testUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, testUserAgent)
	}
	if accept := mock.LastHeader().Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
}

func TestGetJSON_ExplicitKeyWins(t *testing.T) {
	mock := testutil.NewMockNASA()
	defer mock.Close()
	mock.SetResponse(testutil.APODPath, testutil.NewHealthyResponse(testutil.APODFixture))

	c := newTestClient(t, nil)

	var got apodResponse
	if err := c.GetJSON(context.Background(), mock.Endpoint(testutil.APODPath), url.Values{"api_key": {"OTHER"}}, &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if keys := mock.LastQuery()["api_key"]; len(keys) != 1 || keys[0] != "OTHER" {
		t.Errorf("api_key = %v, want [OTHER]", keys)
	}
}

func TestGetJSON_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		response   testutil.MockResponse
		wantClass  ErrorClass
		wantStatus int
	}{
		{
			name:       "bad request",
			response:   testutil.NewBadRequestResponse("sol must be a number"),
			wantClass:  ErrorClassClient,
			wantStatus: 400,
		},
		{
			name:       "rate limited",
			response:   testutil.NewRateLimitResponse(),
			wantClass:  ErrorClassRateLimit,
			wantStatus: 429,
		},
		{
			name:       "server error",
			response:   testutil.NewServerErrorResponse(),
			wantClass:  ErrorClassServer,
			wantStatus: 500,
		},
		{
			name:       "undecodable body",
			response:   testutil.NewHealthyResponse("<html>maintenance</html>"),
			wantClass:  ErrorClassDecode,
			wantStatus: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockNASA()
			defer mock.Close()
			mock.SetResponse(testutil.APODPath, tt.response)

			c := newTestClient(t, nil)

			var got apodResponse
			err := c.GetJSON(context.Background(), mock.Endpoint(testutil.APODPath), nil, &got)
			if err == nil {
				t.Fatal("GetJSON() expected error, got nil")
			}

			var originErr *OriginError
			if !errors.As(err, &originErr) {
				t.Fatalf("GetJSON() error = %T, want *OriginError", err)
			}
			if originErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", originErr.ErrorClass, tt.wantClass)
			}
			if originErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", originErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGetJSON_ErrorBodyBecomesMessage(t *testing.T) {
	mock := testutil.NewMockNASA()
	defer mock.Close()
	mock.SetResponse(testutil.MarsPath, testutil.NewBadRequestResponse("invalid camera"))

	c := newTestClient(t, nil)

	var got map[string]any
	err := c.GetJSON(context.Background(), mock.Endpoint(testutil.MarsPath), nil, &got)

	var originErr *OriginError
	if !errors.As(err, &originErr) {
		t.Fatalf("GetJSON() error = %v, want *OriginError", err)
	}
	if !strings.Contains(originErr.Message, "invalid camera") {
		t.Errorf("Message = %q, want body text", originErr.Message)
	}
}

func TestGetJSON_NetworkError(t *testing.T) {
	mock := testutil.NewMockNASA()
	endpoint := mock.Endpoint(testutil.APODPath)
	mock.Close()

	c := newTestClient(t, nil)

	var got apodResponse
	err := c.GetJSON(context.Background(), endpoint, nil, &got)
	if ClassOf(err) != ErrorClassNetwork {
		t.Fatalf("ClassOf(err) = %q, want network (err = %v)", ClassOf(err), err)
	}
	if strings.Contains(err.Error(), "TEST_KEY") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestGetJSON_ContextDeadline(t *testing.T) {
	mock := testutil.NewMockNASA()
	defer mock.Close()
	mock.SetResponse(testutil.APODPath, testutil.NewSlowResponse(testutil.APODFixture, time.Second))

	c := newTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var got apodResponse
	err := c.GetJSON(ctx, mock.Endpoint(testutil.APODPath), nil, &got)
	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("ClassOf(err) = %q, want network", ClassOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetJSON() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestGetJSON_FeedsTracker(t *testing.T) {
	mock := testutil.NewMockNASA()
	defer mock.Close()
	mock.SetSequence(testutil.APODPath,
		testutil.NewHealthyResponse(testutil.APODFixture),
		testutil.NewRateLimitResponse(),
	)

	tracker := ratelimit.NewTracker(zerolog.New(os.Stderr).Level(zerolog.Disabled))
	c := newTestClient(t, tracker)
	ctx := context.Background()

	var got apodResponse
	if err := c.GetJSON(ctx, mock.Endpoint(testutil.APODPath), nil, &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if state := tracker.Snapshot(); state.Remaining != 999 || state.Limit != 1000 {
		t.Errorf("quota after success = %+v, want 999 of 1000", state)
	}

	// Quota headers on error responses count too
	_ = c.GetJSON(ctx, mock.Endpoint(testutil.APODPath), nil, &got)
	if state := tracker.Snapshot(); state.Remaining != 0 || !state.IsCritical() {
		t.Errorf("quota after 429 = %+v, want 0 remaining and critical", state)
	}
}

func TestGetJSON_BadEndpoint(t *testing.T) {
	c := newTestClient(t, nil)

	var got apodResponse
	if err := c.GetJSON(context.Background(), "://missing-scheme", nil, &got); err == nil {
		t.Error("GetJSON() with malformed endpoint should fail")
	}
}
