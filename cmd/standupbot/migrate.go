package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/standup-bot/internal/persistence/sqlite"
)

// runMigrate brings the database named by dsn up to date and reports the
// resulting schema version on out.
func runMigrate(ctx context.Context, dsn string, out io.Writer, logger *slog.Logger) error {
	pool, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	status, err := pool.SchemaStatus(ctx, logger)
	if err != nil {
		return fmt.Errorf("read schema status: %w", err)
	}
	_, err = fmt.Fprintf(out, "schema version %s (%d applied, %d pending)\n", status.CurrentVersion, len(status.Applied), len(status.Pending))
	return err
}
