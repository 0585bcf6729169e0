package persistence

import "time"

// Role is the stored tier of a directory user.
type Role string

const (
	RoleOrgAdmin Role = "ORG_ADMIN"
	RoleTeamLead Role = "TEAM_LEAD"
	RoleMember   Role = "MEMBER"
)

// StandupStatus tracks the lifecycle of a daily standup entry.
type StandupStatus string

const (
	StandupInProgress StandupStatus = "IN_PROGRESS"
	StandupCompleted  StandupStatus = "COMPLETED"
	StandupCancelled  StandupStatus = "CANCELLED"
)

// CanTransition reports whether a standup may move from one status to another.
// Statuses only move forward; completed and cancelled entries are final.
func (s StandupStatus) CanTransition(to StandupStatus) bool {
	if s != StandupInProgress {
		return false
	}
	return to == StandupCompleted || to == StandupCancelled
}

// StandupDateLayout is the storage format of Standup.Date.
const StandupDateLayout = "2006-01-02"

// Organization is the top of the directory hierarchy.
type Organization struct {
	ID              string
	Name            string
	Domain          string
	CreatorIdentity string
	CreatedAt       time.Time
}

// Team belongs to exactly one organization.
type Team struct {
	ID             string
	OrganizationID string
	Name           string
	LeadIdentity   string
	GitHubOrg      string
	JiraURL        string
	ChannelRef     string
	CreatedAt      time.Time
}

// User is a directory member keyed by the external chat identity.
type User struct {
	Identity       string
	Name           string
	Email          string
	Role           Role
	OrganizationID string
	TeamID         string
	GitHubUsername string
	GitHubToken    string
	JiraEmail      string
	JiraAccountID  string
	JiraToken      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasTeam reports whether the user is assigned to a team.
func (u User) HasTeam() bool {
	return u.TeamID != ""
}

// Standup is one user's daily report. At most one exists per (UserIdentity, Date).
type Standup struct {
	ID           string
	UserIdentity string
	TeamID       string
	Date         string
	Yesterday    string
	Today        string
	Blockers     string
	Status       StandupStatus
	Summary      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Conversation is the stored form of a chat session used by shared session backends.
type Conversation struct {
	Identity     string
	State        string
	Step         int
	Data         []byte
	LastActivity time.Time
}
