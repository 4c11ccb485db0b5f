package fetch

import (
	"errors"
)

// Common errors returned by the fetcher.
var (
	// ErrRetriesExhausted is returned when all attempts failed and no stale value exists.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")

	// ErrOriginTimeout marks an attempt that ran past its per-attempt timeout.
	ErrOriginTimeout = errors.New("origin call timed out")

	// ErrCancelled is returned when the caller's context ends during a fetch.
	ErrCancelled = errors.New("fetch cancelled")

	// ErrInvalidPolicy is returned when the policy fails validation.
	ErrInvalidPolicy = errors.New("invalid fetch policy")
)

// Status tags an Outcome.
type Status int

const (
	// StatusFresh means the value came from a fresh cache entry or the origin.
	StatusFresh Status = iota + 1

	// StatusDegraded means the value came from an expired cache entry
	// after every origin attempt failed.
	StatusDegraded

	// StatusFailed means no value is available by any path.
	StatusFailed
)

// String returns the lower case status name.
func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a fetch.
type Outcome[T any] struct {
	Status Status

	// Value is set for Fresh and Degraded outcomes.
	Value T

	// Err is set for Failed outcomes.
	Err error

	// Attempts is the number of origin calls made (0 on a cache hit).
	Attempts int

	// FromCache is true when the value was served without an origin call.
	FromCache bool
}

// Fresh builds a fresh outcome.
func Fresh[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusFresh, Value: v}
}

// Degraded builds a degraded outcome.
func Degraded[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusDegraded, Value: v}
}

// Failed builds a failed outcome.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusFailed, Err: err}
}

// OK reports whether the outcome carries a value.
func (o Outcome[T]) OK() bool {
	return o.Status == StatusFresh || o.Status == StatusDegraded
}
