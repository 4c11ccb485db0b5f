package fetch

import (
	"fmt"
	"time"
)

// Policy bounds one fetch: how long a result is cached and how hard the
// origin is retried. It is a value type, fixed per call site.
type Policy struct {
	// TTL is how long a successful origin result stays fresh in cache.
	TTL time.Duration

	// MaxAttempts is the maximum number of origin calls (including the first).
	MaxAttempts int

	// AttemptTimeout bounds each single origin call.
	AttemptTimeout time.Duration

	// BackoffBase is multiplied by the attempt number to get the wait
	// after that attempt fails (linear backoff).
	BackoffBase time.Duration
}

// DefaultPolicy returns the default fetch policy.
func DefaultPolicy() Policy {
	return Policy{
		TTL:            300 * time.Second,
		MaxAttempts:    3,
		AttemptTimeout: 5000 * time.Millisecond,
		BackoffBase:    500 * time.Millisecond,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.TTL <= 0 {
		return fmt.Errorf("ttl must be positive (got %v)", p.TTL)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", p.MaxAttempts)
	}
	if p.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt_timeout must be positive (got %v)", p.AttemptTimeout)
	}
	if p.BackoffBase < 0 {
		return fmt.Errorf("backoff_base must not be negative (got %v)", p.BackoffBase)
	}
	return nil
}

// Backoff returns the wait after failed attempt number attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BackoffBase * time.Duration(attempt)
}
