// Package ratelimit observes the NASA API hourly request quota.
// It reads the X-RateLimit-Limit and X-RateLimit-Remaining headers of every
// origin response and publishes them as metrics and log events. The quota is
// observed only; requests are never delayed or blocked.
package ratelimit

import (
	"time"
)

// Response headers carrying the quota.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
)

// Redis keys for shared quota state.
const (
	RedisKeyLimit      = "nasa:quota:limit"
	RedisKeyRemaining  = "nasa:quota:remaining"
	RedisKeyLastUpdate = "nasa:quota:last_update"
)

// QuotaWindow is the length of the NASA quota window.
const QuotaWindow = time.Hour

// Thresholds for quota log levels.
const (
	// QuotaThresholdCritical logs errors when fewer requests remain.
	QuotaThresholdCritical = 5

	// QuotaThresholdWarningRatio logs warnings when less than this share of
	// the limit remains.
	QuotaThresholdWarningRatio = 0.1
)

// QuotaState is the last observed quota.
type QuotaState struct {
	// Limit is the request limit per window (X-RateLimit-Limit). Zero when unknown.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// LastUpdate is when the headers were last observed.
	LastUpdate time.Time `json:"last_update"`

	// Known is false until the first quota header arrives.
	Known bool `json:"known"`

	// IsHealthy is false once the quota is low or critical.
	IsHealthy bool `json:"is_healthy"`
}

// UnknownState is reported before any origin response was seen.
func UnknownState() QuotaState {
	return QuotaState{IsHealthy: true}
}

// IsStale returns true if the state is older than maxAge.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsCritical returns true when almost no requests remain.
func (s *QuotaState) IsCritical() bool {
	return s.Known && s.Remaining < QuotaThresholdCritical
}

// IsLow returns true when the remaining share drops below the warning ratio.
func (s *QuotaState) IsLow() bool {
	if !s.Known || s.IsCritical() || s.Limit <= 0 {
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*QuotaThresholdWarningRatio
}

// UpdateHealth recomputes IsHealthy.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = !s.IsCritical() && !s.IsLow()
}
