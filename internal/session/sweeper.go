package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper running every interval and expiring sessions
// idle for longer than timeout.
func NewSweeper(manager *Manager, interval, timeout time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{manager: manager, interval: interval, timeout: timeout, logger: logger.With("component", "session_sweeper")}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "session sweeper started", "interval", s.interval.String(), "timeout", s.timeout.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.manager.SweepExpired(ctx, s.manager.now(), s.timeout)
	if err != nil {
		s.logger.WarnContext(ctx, "session sweep incomplete", "error", err, "removed", removed)
		return
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired idle sessions", "removed", removed)
	}
}
