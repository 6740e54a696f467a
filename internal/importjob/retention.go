package importjob

// retention.go prunes old job history in the background.
//
// The scheduler runs once at start and then every Interval until its
// context is cancelled. A failed pass is logged and retried on the next
// tick; it never stops the server.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls job history pruning.
type RetentionConfig struct {
	MaxAge   time.Duration // Jobs started longer ago are deleted; 0 disables pruning
	Interval time.Duration // How often to run (default: 24h)
}

// StartRetention prunes job history until ctx is cancelled. It blocks, so
// callers run it in its own goroutine.
func (s *Service) StartRetention(ctx context.Context, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		slog.Info("job retention disabled")
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	slog.Info("job retention started", "max_age", cfg.MaxAge, "interval", cfg.Interval)

	s.PruneJobs(ctx, cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("job retention stopped")
			return
		case <-ticker.C:
			s.PruneJobs(ctx, cfg.MaxAge)
		}
	}
}

// PruneJobs deletes jobs started more than maxAge ago and returns how many
// were removed. Errors are logged, not returned.
func (s *Service) PruneJobs(ctx context.Context, maxAge time.Duration) int64 {
	start := time.Now()
	n, err := s.repo.PruneJobs(ctx, s.now().Add(-maxAge))
	if err != nil {
		slog.Error("job prune failed", "error", err)
		return 0
	}
	slog.Info("pruned import jobs",
		"jobs_pruned", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n
}
