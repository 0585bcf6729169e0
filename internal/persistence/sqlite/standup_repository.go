package sqlite

import (
	"context"
	"fmt"

	"github.com/example/standup-bot/internal/persistence"
)

type standupRepository struct {
	q      querier
	mapper *ErrorMapper
}

const standupColumns = `id, user_identity, team_id, standup_date, yesterday, today, blockers, status, summary, created_at, updated_at`

func (r standupRepository) CreateStandup(ctx context.Context, s persistence.Standup) error {
	if s.ID == "" || s.UserIdentity == "" || s.Date == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO standups (`+standupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserIdentity, s.TeamID, s.Date, s.Yesterday, s.Today, s.Blockers,
		string(s.Status), s.Summary, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateStandup rewrites the answers, status and summary. The status change
// must be a forward transition from the stored status; only an in-progress
// standup may be rewritten without changing status.
func (r standupRepository) UpdateStandup(ctx context.Context, s persistence.Standup) error {
	var current string
	if err := r.q.QueryRowContext(ctx, `SELECT status FROM standups WHERE id = ?`, s.ID).Scan(&current); err != nil {
		return r.mapper.MapError(err)
	}
	from := persistence.StandupStatus(current)
	unchanged := from == s.Status && from == persistence.StandupInProgress
	if !unchanged && !from.CanTransition(s.Status) {
		return fmt.Errorf("%w: standup %s cannot move from %s to %s", persistence.ErrConstraintViolation, s.ID, from, s.Status)
	}

	result, err := r.q.ExecContext(ctx, `
		UPDATE standups
		SET yesterday = ?, today = ?, blockers = ?, status = ?, summary = ?, updated_at = ?
		WHERE id = ?`,
		s.Yesterday, s.Today, s.Blockers, string(s.Status), s.Summary, formatTime(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r standupRepository) GetStandupForDate(ctx context.Context, identity, date string) (persistence.Standup, error) {
	return scanStandup(r.q.QueryRowContext(ctx,
		`SELECT `+standupColumns+` FROM standups WHERE user_identity = ? AND standup_date = ?`, identity, date), r.mapper)
}

func (r standupRepository) ListTeamStandups(ctx context.Context, teamID, date string) ([]persistence.Standup, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+standupColumns+` FROM standups WHERE team_id = ? AND standup_date = ? ORDER BY created_at`, teamID, date)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var standups []persistence.Standup
	for rows.Next() {
		s, err := scanStandup(rows, r.mapper)
		if err != nil {
			return nil, err
		}
		standups = append(standups, s)
	}
	return standups, r.mapper.MapError(rows.Err())
}

func scanStandup(row rowScanner, mapper *ErrorMapper) (persistence.Standup, error) {
	var (
		s                persistence.Standup
		status           string
		created, updated string
	)
	err := row.Scan(&s.ID, &s.UserIdentity, &s.TeamID, &s.Date, &s.Yesterday, &s.Today, &s.Blockers,
		&status, &s.Summary, &created, &updated)
	if err != nil {
		return persistence.Standup{}, mapper.MapError(err)
	}
	s.Status = persistence.StandupStatus(status)
	if s.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Standup{}, err
	}
	if s.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Standup{}, err
	}
	return s, nil
}
