package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCacheEntry_IsExpiredAt(t *testing.T) {
	written := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := newEntry([]byte(`{"title":"Pillars of Creation"}`), 300*time.Second, written)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "right after write", at: written, want: false},
		{name: "one second before ttl", at: written.Add(299 * time.Second), want: false},
		{name: "exactly at expiry", at: written.Add(300 * time.Second), want: false},
		{name: "one nanosecond past expiry", at: written.Add(300*time.Second + time.Nanosecond), want: true},
		{name: "a day later", at: written.Add(24 * time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.IsExpiredAt(tt.at); got != tt.want {
				t.Errorf("IsExpiredAt(%v) = %v, want %v", tt.at.Sub(written), got, tt.want)
			}
		})
	}
}

func TestCacheEntry_IsExpiredUsesWallClock(t *testing.T) {
	past := newEntry([]byte(`1`), time.Minute, time.Now().Add(-2*time.Minute))
	if !past.IsExpired() {
		t.Error("entry written two minutes ago with a one minute ttl should be expired")
	}

	current := newEntry([]byte(`1`), time.Minute, time.Now())
	if current.IsExpired() {
		t.Error("entry written now with a one minute ttl should be valid")
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	fresh := newEntry([]byte(`[]`), 300*time.Second, time.Now())
	if got := fresh.TTL(); got <= 299*time.Second || got > 300*time.Second {
		t.Errorf("TTL() = %v, want just under 300s", got)
	}

	expired := newEntry([]byte(`[]`), time.Second, time.Now().Add(-time.Hour))
	if got := expired.TTL(); got != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", got)
	}
}

func TestNewEntry_CopiesData(t *testing.T) {
	now := time.Now()
	data := []byte(`{"a":1}`)

	entry := newEntry(data, 5*time.Minute, now)
	data[2] = 'b'

	if string(entry.Data) != `{"a":1}` {
		t.Errorf("entry data changed with caller buffer: %s", entry.Data)
	}
	if !entry.Expires.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("Expires = %v, want %v", entry.Expires, now.Add(5*time.Minute))
	}
	if !entry.CachedAt.Equal(now) {
		t.Errorf("CachedAt = %v, want %v", entry.CachedAt, now)
	}
}

func TestCacheEntry_PayloadIsCopy(t *testing.T) {
	entry := newEntry([]byte(`[1,2]`), time.Minute, time.Now())

	out := entry.payload()
	out[1] = '9'

	if string(entry.Data) != `[1,2]` {
		t.Errorf("stored data changed through payload copy: %s", entry.Data)
	}
}

func TestCacheEntry_EnvelopeEmbedsData(t *testing.T) {
	written := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := newEntry([]byte(`{"id":102693}`), time.Minute, written)

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded struct {
		Data    map[string]int `json:"data"`
		Expires time.Time      `json:"expires"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Data["id"] != 102693 {
		t.Errorf("envelope data = %v, want embedded object", decoded.Data)
	}
	if !decoded.Expires.Equal(written.Add(time.Minute)) {
		t.Errorf("envelope expires = %v", decoded.Expires)
	}
}
