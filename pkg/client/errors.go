package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of origin failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 quota errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport errors and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a response body that is not the expected JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// OriginError represents a failed NASA API call with additional context.
type OriginError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *OriginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("NASA API %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("NASA API %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *OriginError) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of an origin error, or "" for other errors.
func ClassOf(err error) ErrorClass {
	var originErr *OriginError
	if errors.As(err, &originErr) {
		return originErr.ErrorClass
	}
	return ""
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
