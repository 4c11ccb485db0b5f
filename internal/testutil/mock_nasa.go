// Package testutil provides testing utilities for the NASA API proxy.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// Origin paths served by the mock, matching the api.nasa.gov layout.
const (
	APODPath  = "/planetary/apod"
	MarsPath  = "/mars-photos/api/v1/rovers/curiosity/photos"
	NeoWsPath = "/neo/rest/v1/feed"
)

// MockResponse defines the behavior for a mock NASA endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockNASA is a configurable mock NASA API server for testing.
//
// Each path can carry a scripted sequence of responses. Requests consume the
// sequence in order and the last response repeats once it is reached.
type MockNASA struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	scripts  map[string][]MockResponse

	requestCount int
	pathCounts   map[string]int
	lastQuery    url.Values
	lastHeader   http.Header
}

// NewMockNASA creates and starts a mock NASA server.
func NewMockNASA() *MockNASA {
	mock := &MockNASA{
		handlers:   make(map[string]http.HandlerFunc),
		scripts:    make(map[string][]MockResponse),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastQuery = r.URL.Query()
		mock.lastHeader = r.Header.Clone()

		handler, hasHandler := mock.handlers[r.URL.Path]
		resp, hasScript := mock.nextScripted(r.URL.Path)
		mock.mu.Unlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasScript:
			writeResponse(w, r, resp)
		default:
			writeResponse(w, r, MockResponse{
				StatusCode: http.StatusNotFound,
				Body:       `{"error":{"code":"NOT_FOUND","message":"no such endpoint"}}`,
				Headers:    map[string]string{"Content-Type": "application/json"},
			})
		}
	}))

	return mock
}

// nextScripted pops the next scripted response. Caller holds mu.
func (m *MockNASA) nextScripted(path string) (MockResponse, bool) {
	script := m.scripts[path]
	if len(script) == 0 {
		return MockResponse{}, false
	}
	resp := script[0]
	if len(script) > 1 {
		m.scripts[path] = script[1:]
	}
	return resp, true
}

// URL returns the mock server base URL.
func (m *MockNASA) URL() string {
	return m.server.URL
}

// Endpoint returns the absolute URL for path on the mock server.
func (m *MockNASA) Endpoint(path string) string {
	return m.server.URL + path
}

// Close shuts down the mock server.
func (m *MockNASA) Close() {
	m.server.Close()
}

// Reset clears counters and all configured responses.
func (m *MockNASA) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.scripts = make(map[string][]MockResponse)
	m.handlers = make(map[string]http.HandlerFunc)
	m.lastQuery = nil
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockNASA) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a single response served for every request to path.
func (m *MockNASA) SetResponse(path string, resp MockResponse) {
	m.SetSequence(path, resp)
}

// SetSequence configures responses served in order; the last one repeats.
func (m *MockNASA) SetSequence(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
	m.scripts[path] = append([]MockResponse(nil), resps...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockNASA) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to path.
func (m *MockNASA) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastQuery returns the query of the most recent request.
func (m *MockNASA) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the most recent request.
func (m *MockNASA) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp MockResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewHealthyResponse creates a standard 200 OK response with quota headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "1000",
			"X-RateLimit-Remaining": "999",
			"Content-Type":          "application/json",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":{"code":"OVER_RATE_LIMIT","message":"You have exceeded your rate limit."}}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "30",
			"X-RateLimit-Remaining": "0",
			"Content-Type":          "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewBadRequestResponse creates a 400 response with the given message.
func NewBadRequestResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"code":400,"msg":"` + message + `"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewSlowResponse delays a healthy response by delay.
func NewSlowResponse(data string, delay time.Duration) MockResponse {
	resp := NewHealthyResponse(data)
	resp.Delay = delay
	return resp
}
