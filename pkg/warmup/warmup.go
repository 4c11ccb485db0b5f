// Package warmup pre-populates the cache by running registered fetch tasks
// through a bounded worker pool, once at startup and optionally on a cron
// schedule.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Prometheus metrics for warm-up runs.
var (
	warmupTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nasa_warmup_tasks_total",
		Help: "Total number of warm-up tasks by result",
	}, []string{"task", "result"})

	warmupRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nasa_warmup_run_duration_seconds",
		Help:    "Duration of complete warm-up runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})
)

// Config holds warm-up configuration.
type Config struct {
	// MaxConcurrency is the number of tasks run in parallel
	MaxConcurrency int

	// Timeout per task
	Timeout time.Duration

	// Schedule is a cron spec ("@every 30m", "0 */4 * * *"); empty disables scheduling
	Schedule string
}

// DefaultConfig returns the default warm-up configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 2,
		Timeout:        30 * time.Second,
	}
}

// Task fetches one cacheable resource.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result is the outcome of one task.
type Result struct {
	Task     string
	Err      error
	Duration time.Duration
}

// Warmer runs warm-up tasks.
type Warmer struct {
	mu     sync.Mutex
	tasks  []Task
	config Config
	cron   *cron.Cron
	logger zerolog.Logger
}

// New creates a Warmer.
func New(config Config, logger zerolog.Logger) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Warmer{
		config: config,
		logger: logger,
	}
}

// Register adds tasks to every subsequent run.
func (w *Warmer) Register(tasks ...Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks = append(w.tasks, tasks...)
}

// Tasks returns the number of registered tasks.
func (w *Warmer) Tasks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tasks)
}

// Run executes all registered tasks and waits for them. Results are in
// registration order. The error joins every task failure.
func (w *Warmer) Run(ctx context.Context) ([]Result, error) {
	start := time.Now()

	w.mu.Lock()
	tasks := append([]Task(nil), w.tasks...)
	w.mu.Unlock()

	if len(tasks) == 0 {
		return nil, nil
	}

	w.logger.Info().
		Int("tasks", len(tasks)).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting cache warm-up")

	queue := make(chan int, len(tasks))
	for i := range tasks {
		queue <- i
	}
	close(queue)

	results := make([]Result, len(tasks))

	workers := w.config.MaxConcurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.worker(ctx, tasks, queue, results, &wg, i)
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Task, r.Err))
		}
	}

	elapsed := time.Since(start)
	warmupRunDuration.Observe(elapsed.Seconds())

	if len(errs) > 0 {
		w.logger.Warn().
			Int("failed", len(errs)).
			Int("total", len(tasks)).
			Dur("duration", elapsed).
			Msg("Cache warm-up finished with failures")
		return results, errors.Join(errs...)
	}

	w.logger.Info().
		Int("tasks", len(tasks)).
		Dur("duration", elapsed).
		Msg("Cache warm-up complete")

	return results, nil
}

// worker processes task indexes from the queue.
func (w *Warmer) worker(ctx context.Context, tasks []Task, queue <-chan int, results []Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for idx := range queue {
		task := tasks[idx]

		if err := ctx.Err(); err != nil {
			results[idx] = Result{Task: task.Name, Err: err}
			warmupTasksTotal.WithLabelValues(task.Name, "cancelled").Inc()
			continue
		}

		taskCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		start := time.Now()
		err := task.Run(taskCtx)
		cancel()

		results[idx] = Result{Task: task.Name, Err: err, Duration: time.Since(start)}

		if err != nil {
			warmupTasksTotal.WithLabelValues(task.Name, "error").Inc()
			w.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("task", task.Name).
				Msg("Warm-up task failed")
			continue
		}

		warmupTasksTotal.WithLabelValues(task.Name, "ok").Inc()
		w.logger.Debug().
			Int("worker_id", workerID).
			Str("task", task.Name).
			Dur("duration", results[idx].Duration).
			Msg("Warm-up task done")
	}
}

// Start schedules periodic runs when a schedule is configured. Runs that
// would overlap a still running one are skipped. ctx is passed to every run.
func (w *Warmer) Start(ctx context.Context) error {
	if w.config.Schedule == "" {
		return nil
	}

	logger := cronLogger{logger: w.logger}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))

	if _, err := c.AddFunc(w.config.Schedule, func() {
		_, _ = w.Run(ctx)
	}); err != nil {
		return fmt.Errorf("parse warm-up schedule %q: %w", w.config.Schedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	w.logger.Info().Str("schedule", w.config.Schedule).Msg("Scheduled cache warm-up")
	return nil
}

// Stop halts scheduling and waits for a running warm-up, bounded by ctx.
func (w *Warmer) Stop(ctx context.Context) {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// ValidateSchedule reports whether spec is a valid cron schedule.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
