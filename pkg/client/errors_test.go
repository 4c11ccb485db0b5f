package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{name: "bad request", status: 400, expected: ErrorClassClient},
		{name: "forbidden (bad api key)", status: 403, expected: ErrorClassClient},
		{name: "too many requests", status: 429, expected: ErrorClassRateLimit},
		{name: "internal server error", status: 500, expected: ErrorClassServer},
		{name: "gateway timeout", status: 504, expected: ErrorClassServer},
		{name: "ok is not an error", status: 200, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestOriginError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OriginError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &OriginError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "NASA API network error (status 0): request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &OriginError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "not found",
			},
			expected: "NASA API client error (status 404): not found",
		},
		{
			name: "rate limit error",
			err: &OriginError{
				StatusCode: 429,
				ErrorClass: ErrorClassRateLimit,
				Message:    "over rate limit",
			},
			expected: "NASA API rate_limit error (status 429): over rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOriginError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	originErr := &OriginError{
		StatusCode: 500,
		ErrorClass: ErrorClassServer,
		Message:    "server error",
		Err:        wrappedErr,
	}

	if originErr.Unwrap() != wrappedErr {
		t.Errorf("Unwrap() = %v, want %v", originErr.Unwrap(), wrappedErr)
	}
	if !errors.Is(originErr, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}

	empty := &OriginError{StatusCode: 404, ErrorClass: ErrorClassClient}
	if empty.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", empty.Unwrap())
	}
}

func TestClassOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch apod: %w", &OriginError{StatusCode: 503, ErrorClass: ErrorClassServer})

	if got := ClassOf(wrapped); got != ErrorClassServer {
		t.Errorf("ClassOf(wrapped) = %q, want %q", got, ErrorClassServer)
	}
	if got := ClassOf(errors.New("plain")); got != "" {
		t.Errorf("ClassOf(plain) = %q, want empty", got)
	}
}

func TestRedactKey(t *testing.T) {
	base := errors.New(`Get "https://api.nasa.gov/planetary/apod?api_key=SECRET": dial tcp: refused`)

	redacted := redactKey(base, "SECRET")
	if got := redacted.Error(); got != `Get "https://api.nasa.gov/planetary/apod?api_key=REDACTED": dial tcp: refused` {
		t.Errorf("redactKey() = %q", got)
	}
	if !errors.Is(redacted, base) {
		t.Error("redacted error should unwrap to the original")
	}

	other := errors.New("no key here")
	if redactKey(other, "SECRET") != other {
		t.Error("errors without the key should be returned unchanged")
	}
}
