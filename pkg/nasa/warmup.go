package nasa

import (
	"context"
	"errors"

	"github.com/Sternrassler/nasa-api-proxy/pkg/fetch"
	"github.com/Sternrassler/nasa-api-proxy/pkg/warmup"
)

// ErrServedStale is returned by warm-up tasks whose origin call failed
// while an older cache entry still exists.
var ErrServedStale = errors.New("origin unavailable, stale entry kept")

// WarmupTasks returns tasks that refresh the parameterless resources (APOD
// and the default NeoWs window) plus any extra Mars queries. Each run calls
// the origin even while the cached entry is still fresh.
func (s *Service) WarmupTasks(mars ...MarsQuery) []warmup.Task {
	tasks := []warmup.Task{
		{
			Name: "apod",
			Run: func(ctx context.Context) error {
				return outcomeError(s.apod(ctx, true))
			},
		},
		{
			Name: "neows",
			Run: func(ctx context.Context) error {
				return outcomeError(s.neoWs(ctx, NeoWsQuery{}, true))
			},
		},
	}

	for _, q := range mars {
		q := q
		tasks = append(tasks, warmup.Task{
			Name: q.Key(),
			Run: func(ctx context.Context) error {
				return outcomeError(s.marsPhotos(ctx, q, true))
			},
		})
	}

	return tasks
}

func outcomeError[T any](out fetch.Outcome[T]) error {
	switch out.Status {
	case fetch.StatusFresh:
		return nil
	case fetch.StatusDegraded:
		return ErrServedStale
	default:
		return out.Err
	}
}
