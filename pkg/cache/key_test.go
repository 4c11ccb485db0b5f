package cache

import (
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "single part",
			key:  NewKey("apod", "data"),
			want: "apod_data",
		},
		{
			name: "sol with camera placeholder",
			key:  NewKey("mars", "1000", "all"),
			want: "mars_1000_all",
		},
		{
			name: "date range",
			key:  NewKey("neows", "2025-01-01", "2025-01-02"),
			want: "neows_2025-01-01_2025-01-02",
		},
		{
			name: "resource only",
			key:  CacheKey{Resource: "apod"},
			want: "apod",
		},
		{
			name: "whitespace trimmed",
			key:  NewKey(" mars ", " 7 ", "FHAZ "),
			want: "mars_7_FHAZ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCacheKey_Determinism ensures same input always produces same key
func TestCacheKey_Determinism(t *testing.T) {
	key := NewKey("neows", "2025-01-01", "2025-01-02")

	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		results[i] = key.String()
	}

	first := results[0]
	for i, result := range results {
		if result != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, result, first)
		}
	}
}

// TestCacheKey_Distinct ensures any differing discriminator yields a different key
func TestCacheKey_Distinct(t *testing.T) {
	keys := []CacheKey{
		NewKey("mars", "1000", "all"),
		NewKey("mars", "1001", "all"),
		NewKey("mars", "1000", "FHAZ"),
		NewKey("mars", "latest", "all"),
		NewKey("neows", "1000", "all"),
	}

	seen := make(map[string]int)
	for i, k := range keys {
		s := k.String()
		if j, ok := seen[s]; ok {
			t.Errorf("keys[%d] and keys[%d] both produce %q", j, i, s)
		}
		seen[s] = i
	}
}
