package persistence

import (
	"context"
	"time"
)

// OrganizationRepository stores organizations.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, id string) (Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (Organization, error)
}

// TeamRepository stores teams. Names are unique within an organization.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team Team) error
	GetTeam(ctx context.Context, id string) (Team, error)
	GetTeamByName(ctx context.Context, organizationID, name string) (Team, error)
	ListTeams(ctx context.Context, organizationID string) ([]Team, error)
}

// UserRepository stores directory users keyed by identity.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, identity string) (User, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]User, error)
}

// StandupRepository stores daily standups.
type StandupRepository interface {
	CreateStandup(ctx context.Context, standup Standup) error
	UpdateStandup(ctx context.Context, standup Standup) error
	GetStandupForDate(ctx context.Context, identity, date string) (Standup, error)
	ListTeamStandups(ctx context.Context, teamID, date string) ([]Standup, error)
}

// Repositories groups the directory repositories bound to one connection or transaction.
type Repositories interface {
	Organizations() OrganizationRepository
	Teams() TeamRepository
	Users() UserRepository
	Standups() StandupRepository
}

// Store exposes the repositories together with an atomic unit of work.
// Writes issued through the Repositories handed to fn commit together or not at all.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// ConversationRepository persists chat sessions for deployments sharing one database.
type ConversationRepository interface {
	GetConversation(ctx context.Context, identity string) (Conversation, error)
	SaveConversation(ctx context.Context, conversation Conversation) error
	DeleteConversation(ctx context.Context, identity string) error
	ListIdleConversations(ctx context.Context, cutoff time.Time) ([]string, error)
}
