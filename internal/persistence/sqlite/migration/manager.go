package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager orders available migrations against the ledger and applies the pending ones.
type Manager struct {
	fsys     fs.FS
	dir      string
	executor *Executor
	logger   *slog.Logger
}

// NewManager builds a manager reading migration files from dir inside fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		fsys:     fsys,
		dir:      dir,
		executor: NewExecutor(db, time.Now),
		logger:   logger.With("component", "migration"),
	}
}

// Run applies every pending migration in version order and stops at the first failure.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "from_version", status.CurrentVersion, "pending", len(status.Pending))
	for _, migration := range status.Pending {
		if err := m.executor.Apply(ctx, migration); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "file", migration.FilePath, "error", err)
			return err
		}
		m.logger.InfoContext(ctx, "migration applied", "version", migration.Version, "description", migration.Description)
	}
	return nil
}

// Status compares the files with the ledger. It fails when the sequence has
// gaps, when an applied version has no file, or when an applied file changed.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	if err := checkSequence(available); err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		byVersion[versionNumber(migration.Version)] = migration
	}

	status := Status{Applied: applied}
	appliedSet := make(map[int]bool, len(applied))
	for _, row := range applied {
		number := versionNumber(row.Version)
		file, ok := byVersion[number]
		if !ok {
			return Status{}, newMigrationError(row.Version, "", "verify ledger",
				fmt.Errorf("%w: applied version has no migration file", ErrVersionConflict))
		}
		if row.Checksum != "" && row.Checksum != file.Checksum {
			return Status{}, newMigrationError(row.Version, file.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		appliedSet[number] = true
		status.CurrentVersion = row.Version
	}

	for _, migration := range available {
		if !appliedSet[versionNumber(migration.Version)] {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

func checkSequence(available []Migration) error {
	for i := 1; i < len(available); i++ {
		prev, cur := versionNumber(available[i-1].Version), versionNumber(available[i].Version)
		if cur != prev+1 {
			return newMigrationError(available[i].Version, available[i].FilePath, "validate sequence",
				fmt.Errorf("%w: missing migration version %03d", ErrVersionConflict, prev+1))
		}
	}
	return nil
}
