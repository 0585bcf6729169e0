package application

import "github.com/example/standup-bot/internal/persistence"

// RegisterOrganizationParams carries the answers of the organization flow.
type RegisterOrganizationParams struct {
	Name            string
	Domain          string
	CreatorIdentity string
	CreatorName     string
	CreatorEmail    string
}

// Registration is the outcome of registering an organization.
type Registration struct {
	Organization persistence.Organization
	Admin        persistence.User
}

// CreateTeamParams carries the answers of the team flow.
type CreateTeamParams struct {
	CreatorIdentity string
	Name            string
	GitHubOrg       string
	JiraURL         string
	ChannelRef      string
}

// GitHubCredentials are a user's GitHub login and personal access token.
type GitHubCredentials struct {
	Username string
	Token    string
}

// JiraCredentials are a user's Jira login, account id and API token.
type JiraCredentials struct {
	Email     string
	AccountID string
	Token     string
}

// RegisterUserParams carries the answers of the add-user flow. An empty
// Identity registers a placeholder identity to be claimed later.
type RegisterUserParams struct {
	AdderIdentity string
	TeamID        string
	Identity      string
	Name          string
	Email         string
	GitHub        GitHubCredentials
	Jira          JiraCredentials
}

// Profile is a user together with the organization and team they belong to.
type Profile struct {
	User         persistence.User
	Organization persistence.Organization
	Team         *persistence.Team
}

// SubmitStandupParams carries the answers of the standup flow.
type SubmitStandupParams struct {
	Identity  string
	Date      string
	Yesterday string
	Today     string
	Blockers  string
	Commits   []string
	Issues    []string
}

// StandupResult is a stored standup plus the summary to show. Generated is
// false when the summary is the deterministic fallback, which is not stored.
type StandupResult struct {
	Standup   persistence.Standup
	Summary   string
	Generated bool
}

// MemberStatus reports whether one member submitted on a date.
type MemberStatus struct {
	User      persistence.User
	Submitted bool
}

// TeamStatus lists a team's members and their submissions for one date.
type TeamStatus struct {
	Team    persistence.Team
	Date    string
	Members []MemberStatus
}

// TeamProgress counts submissions for one team.
type TeamProgress struct {
	Team      persistence.Team
	Members   int
	Submitted int
}

// OrganizationStatus lists every team's progress for one date.
type OrganizationStatus struct {
	Organization persistence.Organization
	Date         string
	Teams        []TeamProgress
}
