package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/calindra/moviegraph/internal/metrics"
	"github.com/calindra/moviegraph/internal/repository"
)

const DefaultJanitorInterval = 10 * time.Minute

// JanitorWorker removes expired rows from the persistent cache.
type JanitorWorker struct {
	Repository *repository.ResponseRepository
	Interval   time.Duration
}

// String implements supervisor.Worker.
func (j JanitorWorker) String() string {
	return "cache_janitor"
}

func (j JanitorWorker) Start(ctx context.Context, ready chan<- struct{}) error {
	interval := j.Interval
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ready <- struct{}{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j JanitorWorker) purge(ctx context.Context) {
	deleted, err := j.Repository.DeleteExpired(ctx, time.Now())
	if err != nil {
		slog.Error("cache: failed to delete expired responses", "error", err)
		return
	}
	metrics.CacheEvictions.Add(float64(deleted))
	if deleted > 0 {
		slog.Info("cache: expired responses deleted", "count", deleted)
	}
}
