package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/standup-bot/internal/persistence"
)

var (
	organizationCounter uint64
	teamCounter         uint64
	userCounter         uint64
	standupCounter      uint64
)

// NewOrganization returns a deterministic organization record with a unique name.
func NewOrganization(opts ...func(*persistence.Organization)) persistence.Organization {
	idx := atomic.AddUint64(&organizationCounter, 1)
	org := persistence.Organization{
		ID:              fmt.Sprintf("org-%03d", idx),
		Name:            fmt.Sprintf("Organization %03d", idx),
		Domain:          fmt.Sprintf("org%03d.example.com", idx),
		CreatorIdentity: "admin",
		CreatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&org)
	}
	return org
}

// TeamOption configures a generated team.
type TeamOption func(*persistence.Team)

// WithTeamName overrides the team name.
func WithTeamName(name string) TeamOption {
	return func(t *persistence.Team) { t.Name = name }
}

// WithTeamLead records identity as the team lead.
func WithTeamLead(identity string) TeamOption {
	return func(t *persistence.Team) { t.LeadIdentity = identity }
}

// WithIntegrations sets the GitHub organization and Jira site of the team.
func WithIntegrations(githubOrg, jiraURL string) TeamOption {
	return func(t *persistence.Team) {
		t.GitHubOrg = githubOrg
		t.JiraURL = jiraURL
	}
}

// NewTeam returns a deterministic team owned by organizationID.
func NewTeam(organizationID string, opts ...TeamOption) persistence.Team {
	idx := atomic.AddUint64(&teamCounter, 1)
	team := persistence.Team{
		ID:             fmt.Sprintf("team-%03d", idx),
		OrganizationID: organizationID,
		Name:           fmt.Sprintf("Team %03d", idx),
		CreatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&team)
	}
	return team
}

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// WithIdentity overrides the chat identity and derives name and email from it.
func WithIdentity(identity string) UserOption {
	return func(u *persistence.User) {
		u.Identity = identity
		u.Name = "User " + identity
		u.Email = strings.ToLower(identity) + "@example.com"
	}
}

// WithRole overrides the stored role.
func WithRole(role persistence.Role) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// InOrganization binds the user to an organization without a team.
func InOrganization(organizationID string) UserOption {
	return func(u *persistence.User) { u.OrganizationID = organizationID }
}

// InTeam binds the user to team and its organization.
func InTeam(team persistence.Team) UserOption {
	return func(u *persistence.User) {
		u.OrganizationID = team.OrganizationID
		u.TeamID = team.ID
	}
}

// WithGitHub sets GitHub credentials.
func WithGitHub(username, token string) UserOption {
	return func(u *persistence.User) {
		u.GitHubUsername = username
		u.GitHubToken = token
	}
}

// WithJira sets Jira credentials.
func WithJira(email, accountID, token string) UserOption {
	return func(u *persistence.User) {
		u.JiraEmail = email
		u.JiraAccountID = accountID
		u.JiraToken = token
	}
}

// NewUser returns a deterministic member-tier user with a unique identity.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{Role: persistence.RoleMember, CreatedAt: created, UpdatedAt: created}
	WithIdentity(fmt.Sprintf("user-%03d", idx))(&user)
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// NewStandup returns a completed standup for user on date.
func NewStandup(user persistence.User, date string, opts ...func(*persistence.Standup)) persistence.Standup {
	idx := atomic.AddUint64(&standupCounter, 1)
	standup := persistence.Standup{
		ID:           fmt.Sprintf("standup-%03d", idx),
		UserIdentity: user.Identity,
		TeamID:       user.TeamID,
		Date:         date,
		Yesterday:    "Reviewed pull requests",
		Today:        "Ship the release",
		Status:       persistence.StandupCompleted,
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&standup)
	}
	return standup
}
