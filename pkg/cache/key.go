package cache

import (
	"strings"
)

// CacheKey identifies a cacheable result by resource and query discriminators.
type CacheKey struct {
	// Resource is the data set name (e.g., "apod", "mars", "neows")
	Resource string

	// Parts are the discriminators in a fixed, adapter defined order.
	// Adapters substitute placeholders ("latest", "all") for unset values
	// before building the key.
	Parts []string
}

// NewKey builds a CacheKey from a resource and its discriminators.
func NewKey(resource string, parts ...string) CacheKey {
	return CacheKey{Resource: resource, Parts: parts}
}

// String generates a deterministic cache key string.
// Format: resource_part1_part2
//
// Example:
//
//	mars_1000_all
func (k CacheKey) String() string {
	parts := make([]string, 0, len(k.Parts)+1)
	parts = append(parts, strings.TrimSpace(k.Resource))

	for _, p := range k.Parts {
		parts = append(parts, strings.TrimSpace(p))
	}

	return strings.Join(parts, "_")
}
