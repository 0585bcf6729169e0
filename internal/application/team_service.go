package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/standup-bot/internal/permission"
	"github.com/example/standup-bot/internal/persistence"
)

// TeamService creates teams inside an organization.
type TeamService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTeamService constructs a team service with the default logger.
func NewTeamService(store persistence.Store, idGenerator func() string, now func() time.Time) *TeamService {
	return NewTeamServiceWithLogger(store, idGenerator, now, nil)
}

// NewTeamServiceWithLogger constructs a team service with a specified logger.
func NewTeamServiceWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TeamService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &TeamService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TeamService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TeamService", operation, attrs...)
}

// CreateTeam creates a team in the creator's organization, records the
// creator as its lead and moves them onto it.
func (s *TeamService) CreateTeam(ctx context.Context, params CreateTeamParams) (team persistence.Team, err error) {
	if s == nil {
		return persistence.Team{}, fmt.Errorf("TeamService is nil")
	}
	logger := s.loggerWith(ctx, "CreateTeam", "identity", params.CreatorIdentity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create team", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("team_id", team.ID, "organization_id", team.OrganizationID).InfoContext(ctx, "team created")
	}()

	vErr := &ValidationError{}
	name := validateName(vErr, "name", "Team name", params.Name)
	jiraURL := strings.TrimSpace(params.JiraURL)
	if jiraURL != "" {
		normalized, ok := NormalizeSiteURL(jiraURL)
		if !ok {
			vErr.add("jira_url", "Please provide a valid Jira URL, for example https://company.atlassian.net")
		}
		jiraURL = normalized
	}
	if err := vErr.orNil(); err != nil {
		return persistence.Team{}, err
	}

	err = s.store.WithinTx(ctx, func(repos persistence.Repositories) error {
		creator, err := repos.Users().GetUser(ctx, params.CreatorIdentity)
		if errors.Is(err, persistence.ErrNotFound) {
			return domainError(ErrNotRegistered, "User not registered. Please register organization first with /register-org")
		}
		if err != nil {
			return err
		}
		if !permission.CanCreateTeam(permission.ActorFromUser(creator), creator.OrganizationID) {
			return domainError(ErrUnauthorized, "Only organization admins can create teams")
		}
		if _, err := repos.Teams().GetTeamByName(ctx, creator.OrganizationID, name); err == nil {
			return domainError(ErrAlreadyExists, "Team '%s' already exists in your organization", name)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		team = persistence.Team{
			ID:             s.idGenerator(),
			OrganizationID: creator.OrganizationID,
			Name:           name,
			LeadIdentity:   creator.Identity,
			GitHubOrg:      strings.TrimSpace(params.GitHubOrg),
			JiraURL:        jiraURL,
			ChannelRef:     params.ChannelRef,
			CreatedAt:      now,
		}
		if err := repos.Teams().CreateTeam(ctx, team); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return domainError(ErrAlreadyExists, "Team '%s' already exists in your organization", name)
			}
			return err
		}

		creator.Role = persistence.RoleTeamLead
		creator.TeamID = team.ID
		creator.UpdatedAt = now
		return repos.Users().UpdateUser(ctx, creator)
	})
	if err != nil {
		return persistence.Team{}, err
	}
	return team, nil
}
