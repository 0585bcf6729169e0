package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/standup-bot/internal/persistence"
)

type userRepository struct {
	q      querier
	mapper *ErrorMapper
}

const userColumns = `identity, name, email, role, organization_id, team_id,
	github_username, github_token, jira_email, jira_account_id, jira_token, created_at, updated_at`

func (r userRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.Identity == "" || user.OrganizationID == "" || user.Role == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Identity, user.Name, normalizeEmail(user.Email), string(user.Role), user.OrganizationID, nullable(user.TeamID),
		user.GitHubUsername, user.GitHubToken, user.JiraEmail, user.JiraAccountID, user.JiraToken,
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

func (r userRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.Identity == "" || user.Role == "" {
		return persistence.ErrConstraintViolation
	}
	result, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, role = ?, team_id = ?,
			github_username = ?, github_token = ?, jira_email = ?, jira_account_id = ?, jira_token = ?,
			updated_at = ?
		WHERE identity = ?`,
		user.Name, normalizeEmail(user.Email), string(user.Role), nullable(user.TeamID),
		user.GitHubUsername, user.GitHubToken, user.JiraEmail, user.JiraAccountID, user.JiraToken,
		formatTime(user.UpdatedAt), user.Identity,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r userRepository) GetUser(ctx context.Context, identity string) (persistence.User, error) {
	if identity == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE identity = ?`, identity), r.mapper)
}

func (r userRepository) ListTeamMembers(ctx context.Context, teamID string) ([]persistence.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE team_id = ? ORDER BY name, identity`, teamID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows, r.mapper)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, r.mapper.MapError(rows.Err())
}

func scanUser(row rowScanner, mapper *ErrorMapper) (persistence.User, error) {
	var (
		user             persistence.User
		role             string
		teamID           sql.NullString
		created, updated string
	)
	err := row.Scan(&user.Identity, &user.Name, &user.Email, &role, &user.OrganizationID, &teamID,
		&user.GitHubUsername, &user.GitHubToken, &user.JiraEmail, &user.JiraAccountID, &user.JiraToken,
		&created, &updated)
	if err != nil {
		return persistence.User{}, mapper.MapError(err)
	}
	user.Role = persistence.Role(role)
	user.TeamID = teamID.String
	if user.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
