package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/standup-bot/internal/persistence"
)

type teamRepository struct {
	q      querier
	mapper *ErrorMapper
}

const teamColumns = `id, organization_id, name, lead_identity, github_org, jira_url, channel_ref, created_at`

func (r teamRepository) CreateTeam(ctx context.Context, team persistence.Team) error {
	if team.ID == "" || team.OrganizationID == "" || strings.TrimSpace(team.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		team.ID, team.OrganizationID, team.Name, team.LeadIdentity,
		team.GitHubOrg, team.JiraURL, team.ChannelRef, formatTime(team.CreatedAt),
	)
	return r.mapper.MapError(err)
}

func (r teamRepository) GetTeam(ctx context.Context, id string) (persistence.Team, error) {
	if id == "" {
		return persistence.Team{}, persistence.ErrNotFound
	}
	return scanTeam(r.q.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ?`, id), r.mapper)
}

func (r teamRepository) GetTeamByName(ctx context.Context, organizationID, name string) (persistence.Team, error) {
	name = strings.TrimSpace(name)
	if organizationID == "" || name == "" {
		return persistence.Team{}, persistence.ErrNotFound
	}
	return scanTeam(r.q.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE organization_id = ? AND name = ?`, organizationID, name), r.mapper)
}

func (r teamRepository) ListTeams(ctx context.Context, organizationID string) ([]persistence.Team, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE organization_id = ? ORDER BY name`, organizationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var teams []persistence.Team
	for rows.Next() {
		team, err := scanTeam(rows, r.mapper)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, r.mapper.MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ rowScanner = (*sql.Row)(nil)

func scanTeam(row rowScanner, mapper *ErrorMapper) (persistence.Team, error) {
	var (
		team    persistence.Team
		created string
	)
	err := row.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.LeadIdentity,
		&team.GitHubOrg, &team.JiraURL, &team.ChannelRef, &created)
	if err != nil {
		return persistence.Team{}, mapper.MapError(err)
	}
	if team.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Team{}, err
	}
	return team, nil
}
