package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type apodRecord struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
}

func TestTypedValue_RoundTrip(t *testing.T) {
	b := newTestLocal(t, newFakeClock(), 0)
	ctx := context.Background()

	want := apodRecord{
		Date:      "2025-01-01",
		Title:     "Pillars of Creation",
		URL:       "https://apod.nasa.gov/image.jpg",
		MediaType: "image",
	}

	if err := SetValue(ctx, b, "apod_data", want, 5*time.Minute); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	got, err := GetValue[apodRecord](ctx, b, "apod_data")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != want {
		t.Errorf("GetValue() = %+v, want %+v", got, want)
	}

	stale, err := GetStaleValue[apodRecord](ctx, b, "apod_data")
	if err != nil {
		t.Fatalf("GetStaleValue() error = %v", err)
	}
	if stale != want {
		t.Errorf("GetStaleValue() = %+v, want %+v", stale, want)
	}
}

func TestTypedValue_Miss(t *testing.T) {
	b := newTestLocal(t, newFakeClock(), 0)

	_, err := GetValue[apodRecord](context.Background(), b, "absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetValue() error = %v, want ErrCacheMiss", err)
	}
}

func TestTypedValue_DecodeMismatch(t *testing.T) {
	b := newTestLocal(t, newFakeClock(), 0)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte(`"a string"`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := GetValue[[]apodRecord](ctx, b, "k")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("GetValue() error = %v, want ErrDecode", err)
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("GetValue() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestSetValue_MarshalError(t *testing.T) {
	b := newTestLocal(t, newFakeClock(), 0)

	err := SetValue(context.Background(), b, "k", make(chan int), time.Minute)
	if err == nil {
		t.Fatal("SetValue() with unmarshalable value should fail")
	}
	if b.Len() != 0 {
		t.Error("nothing should be stored when marshal fails")
	}
}

func TestBackends_SetRejectsNonJSON(t *testing.T) {
	remote, _ := setupTestRedis(t, time.Hour)
	backends := map[string]Backend{
		"local":  newTestLocal(t, newFakeClock(), time.Hour),
		"remote": remote,
	}

	invalid := map[string][]byte{
		"plain text":     []byte("Pillars of Creation"),
		"truncated json": []byte(`{"title":`),
		"empty":          nil,
	}

	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for desc, value := range invalid {
				err := b.Set(ctx, "apod_data", value, time.Minute)
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("Set(%s) error = %v, want ErrInvalidValue", desc, err)
				}
				if errors.Is(err, ErrBackendUnavailable) {
					t.Errorf("Set(%s) reported an unavailable backend: %v", desc, err)
				}
			}
			if _, err := b.GetStale(ctx, "apod_data"); !errors.Is(err, ErrCacheMiss) {
				t.Errorf("GetStale() after rejected writes error = %v, want ErrCacheMiss", err)
			}

			valid := []byte(`{"title":"Pillars of Creation"}`)
			if err := b.Set(ctx, "apod_data", valid, time.Minute); err != nil {
				t.Fatalf("Set(valid) error = %v", err)
			}
			got, err := b.Get(ctx, "apod_data")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != string(valid) {
				t.Errorf("Get() = %s, want %s", got, valid)
			}
		})
	}
}
