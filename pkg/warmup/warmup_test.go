package warmup

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Schedule)
}

func TestNew_AppliesDefaults(t *testing.T) {
	w := New(Config{}, testLogger())
	assert.Equal(t, 2, w.config.MaxConcurrency)
	assert.Equal(t, 30*time.Second, w.config.Timeout)
}

func TestRun_NoTasks(t *testing.T) {
	w := New(DefaultConfig(), testLogger())

	results, err := w.Run(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_AllTasksInOrder(t *testing.T) {
	w := New(DefaultConfig(), testLogger())

	var ran sync.Map
	for _, name := range []string{"apod", "neows", "mars"} {
		name := name
		w.Register(Task{Name: name, Run: func(context.Context) error {
			ran.Store(name, true)
			return nil
		}})
	}
	require.Equal(t, 3, w.Tasks())

	results, err := w.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, name := range []string{"apod", "neows", "mars"} {
		assert.Equal(t, name, results[i].Task)
		assert.NoError(t, results[i].Err)
		_, ok := ran.Load(name)
		assert.True(t, ok, "task %s did not run", name)
	}
}

func TestRun_JoinsFailures(t *testing.T) {
	w := New(DefaultConfig(), testLogger())

	errAPOD := errors.New("apod down")
	w.Register(
		Task{Name: "apod", Run: func(context.Context) error { return errAPOD }},
		Task{Name: "neows", Run: func(context.Context) error { return nil }},
	)

	results, err := w.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errAPOD)
	assert.Contains(t, err.Error(), "apod")
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	w := New(Config{MaxConcurrency: 2, Timeout: time.Second}, testLogger())

	var active, peak atomic.Int32
	for i := 0; i < 8; i++ {
		w.Register(Task{Name: "task", Run: func(context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		}})
	}

	_, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_TaskTimeout(t *testing.T) {
	w := New(Config{MaxConcurrency: 1, Timeout: 20 * time.Millisecond}, testLogger())

	w.Register(Task{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	results, err := w.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestRun_CancelledContext(t *testing.T) {
	w := New(DefaultConfig(), testLogger())

	var calls atomic.Int32
	w.Register(Task{Name: "apod", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := w.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestStart_NoSchedule(t *testing.T) {
	w := New(DefaultConfig(), testLogger())
	require.NoError(t, w.Start(context.Background()))
	w.Stop(context.Background())
}

func TestStart_InvalidSchedule(t *testing.T) {
	w := New(Config{Schedule: "every now and then"}, testLogger())
	assert.Error(t, w.Start(context.Background()))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	w := New(Config{Schedule: "@every 1s"}, testLogger())

	done := make(chan struct{}, 1)
	w.Register(Task{Name: "apod", Run: func(context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled warm-up did not run")
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: ""},
		{spec: "@every 30m"},
		{spec: "0 */4 * * *"},
		{spec: "@hourly"},
		{spec: "* * *", wantErr: true},
		{spec: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
