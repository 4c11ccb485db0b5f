package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache or has expired.
	// It is a normal outcome of a lookup, not a failure.
	ErrCacheMiss = errors.New("cache miss")

	// ErrBackendUnavailable indicates the storage medium could not be reached
	// or returned something unusable. Callers treat it as a miss on read and
	// ignore it on write.
	ErrBackendUnavailable = errors.New("cache backend unavailable")

	// ErrDecode indicates a stored payload could not be parsed.
	// It is always reported together with ErrBackendUnavailable.
	ErrDecode = errors.New("cache payload decode failed")

	// ErrInvalidTTL is returned by Set when ttl is not positive.
	ErrInvalidTTL = errors.New("cache ttl must be positive")

	// ErrInvalidValue is returned by Set when value is not a JSON document.
	ErrInvalidValue = errors.New("cache value must be a JSON document")

	errClosed = errors.New("backend closed")
)

// Backend is the storage contract shared by the local and remote caches.
//
// All operations are atomic from the caller's perspective; concurrent Set
// calls for the same key resolve as last completed write wins.
type Backend interface {
	// Get returns the stored payload, or ErrCacheMiss when the key is absent
	// or its expiry has passed.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetStale returns the last payload stored for key regardless of expiry.
	// It only misses once the backend's housekeeping has evicted the entry.
	GetStale(ctx context.Context, key string) ([]byte, error)

	// Set overwrites any entry for key and resets its expiry to now + ttl.
	// value must be a JSON document; anything else fails with ErrInvalidValue.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// Ping reports whether the storage medium is reachable.
	Ping(ctx context.Context) error

	// Close releases background workers and connections.
	Close() error
}

// GetValue reads key from b and decodes it into a T.
func GetValue[T any](ctx context.Context, b Backend, key string) (T, error) {
	data, err := b.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeValue[T](data)
}

// GetStaleValue reads key from b ignoring expiry and decodes it into a T.
func GetStaleValue[T any](ctx context.Context, b Backend, key string) (T, error) {
	data, err := b.GetStale(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeValue[T](data)
}

// SetValue encodes value as JSON and stores it under key for ttl.
func SetValue[T any](ctx context.Context, b Backend, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return b.Set(ctx, key, data, ttl)
}

func decodeValue[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, decodeError(err)
	}
	return v, nil
}

// validValue rejects payloads that cannot be embedded in a cache entry.
func validValue(value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w (got %d bytes)", ErrInvalidValue, len(value))
	}
	return nil
}

// decodeError marks err as both a decode failure and an unavailable backend.
func decodeError(err error) error {
	return fmt.Errorf("%w: %w: %v", ErrBackendUnavailable, ErrDecode, err)
}

// unavailable wraps a transport level failure from op.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, op, err)
}
