package cache

import (
	"encoding/json"
	"time"
)

// CacheEntry is the unit stored by every backend.
// The remote backend transmits it verbatim as its JSON envelope.
type CacheEntry struct {
	// Data is the JSON encoded value
	Data json.RawMessage `json:"data"`

	// Expires is when the entry stops being served by Get
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was written
	CachedAt time.Time `json:"cached_at"`
}

// newEntry builds an entry expiring ttl after now. data is copied.
func newEntry(data []byte, ttl time.Duration, now time.Time) *CacheEntry {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &CacheEntry{
		Data:     buf,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return e.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the entry is expired at now.
func (e *CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// payload returns a copy of the stored data.
func (e *CacheEntry) payload() []byte {
	buf := make([]byte, len(e.Data))
	copy(buf, e.Data)
	return buf
}
