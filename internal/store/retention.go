package store

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes transcript entries older than a cutoff.
type Pruner interface {
	PruneTranscripts(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartRetentionWorker runs a background goroutine that periodically deletes
// transcript entries older than retention. It stops when ctx is cancelled.
func StartRetentionWorker(ctx context.Context, repo Pruner, retention, interval time.Duration) {
	if retention <= 0 {
		slog.Info("Transcript retention disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				pruneOnce(ctx, repo, retention)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func pruneOnce(ctx context.Context, repo Pruner, retention time.Duration) int64 {
	cutoff := time.Now().Add(-retention)

	var deleted int64
	err := withBusyRetry(ctx, 3, 100*time.Millisecond, func() error {
		n, err := repo.PruneTranscripts(ctx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		slog.Error("Retention worker failed to prune transcripts", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("Retention worker pruned transcripts", "count", deleted, "cutoff", cutoff)
	}
	return deleted
}
