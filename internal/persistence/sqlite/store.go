package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/standup-bot/internal/persistence"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements persistence.Store on top of a ConnectionPool.
type Store struct {
	repositories
	pool  *ConnectionPool
	retry *RetryHelper
}

var _ persistence.Store = (*Store)(nil)

// NewStore binds the directory repositories to pool.
func NewStore(pool *ConnectionPool) *Store {
	return &Store{
		repositories: repositories{q: pool.DB(), mapper: NewErrorMapper()},
		pool:         pool,
		retry:        NewRetryHelper(DefaultRetryConfig()),
	}
}

// WithinTx runs fn against repositories bound to a single transaction.
// The whole unit is retried when SQLite reports a locked database, so fn
// must not have side effects outside the transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(persistence.Repositories) error) error {
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(repositories{q: tx, mapper: s.mapper})
		})
	})
}

type repositories struct {
	q      querier
	mapper *ErrorMapper
}

func (r repositories) Organizations() persistence.OrganizationRepository {
	return organizationRepository{q: r.q, mapper: r.mapper}
}

func (r repositories) Teams() persistence.TeamRepository {
	return teamRepository{q: r.q, mapper: r.mapper}
}

func (r repositories) Users() persistence.UserRepository {
	return userRepository{q: r.q, mapper: r.mapper}
}

func (r repositories) Standups() persistence.StandupRepository {
	return standupRepository{q: r.q, mapper: r.mapper}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func requireRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
