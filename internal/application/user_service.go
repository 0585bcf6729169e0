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
	"github.com/example/standup-bot/internal/secret"
)

// PendingIdentityPrefix marks identities registered before the chat user was known.
const PendingIdentityPrefix = "pending_"

// UserService onboards team members and manages their integration credentials.
type UserService struct {
	store       persistence.Store
	sealer      secret.Sealer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs a user service with the default logger.
func NewUserService(store persistence.Store, sealer secret.Sealer, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(store, sealer, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(store persistence.Store, sealer secret.Sealer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if sealer == nil {
		sealer = secret.Plaintext{}
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{store: store, sealer: sealer, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// RegisterUser adds a member-tier user to a team on behalf of its lead or an
// organization administrator.
func (s *UserService) RegisterUser(ctx context.Context, params RegisterUserParams) (user persistence.User, err error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	logger := s.loggerWith(ctx, "RegisterUser", "identity", params.AdderIdentity, "team_id", params.TeamID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("new_identity", user.Identity).InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	name := validateName(vErr, "name", "Name", NormalizePersonName(params.Name))
	email := validateEmail(vErr, "email", params.Email)
	if params.Jira.Email != "" {
		validateEmail(vErr, "jira_email", params.Jira.Email)
	}
	if err := vErr.orNil(); err != nil {
		return persistence.User{}, err
	}

	identity := strings.TrimSpace(params.Identity)
	if identity == "" {
		identity = PendingIdentityPrefix + s.idGenerator()
	}
	github, err := s.sealGitHub(params.GitHub)
	if err != nil {
		return persistence.User{}, err
	}
	jira, err := s.sealJira(params.Jira)
	if err != nil {
		return persistence.User{}, err
	}

	err = s.store.WithinTx(ctx, func(repos persistence.Repositories) error {
		adder, err := repos.Users().GetUser(ctx, params.AdderIdentity)
		if errors.Is(err, persistence.ErrNotFound) {
			return domainError(ErrNotRegistered, "User not registered. Please register organization first with /register-org")
		}
		if err != nil {
			return err
		}
		team, err := repos.Teams().GetTeam(ctx, params.TeamID)
		if errors.Is(err, persistence.ErrNotFound) {
			return domainError(ErrNotFound, "Team not found")
		}
		if err != nil {
			return err
		}
		if !permission.CanAddUserToTeam(permission.ActorFromUser(adder), permission.ScopeOf(team)) {
			return domainError(ErrUnauthorized, "You don't have permission to add users to this team")
		}
		if existing, err := repos.Users().GetUser(ctx, identity); err == nil {
			return alreadyRegistered(ctx, repos, existing)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		user = persistence.User{
			Identity:       identity,
			Name:           name,
			Email:          email,
			Role:           persistence.RoleMember,
			OrganizationID: team.OrganizationID,
			TeamID:         team.ID,
			GitHubUsername: github.Username,
			GitHubToken:    github.Token,
			JiraEmail:      jira.Email,
			JiraAccountID:  jira.AccountID,
			JiraToken:      jira.Token,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repos.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return domainError(ErrAlreadyExists, "A user with email %s already exists", email)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func alreadyRegistered(ctx context.Context, repos persistence.Repositories, user persistence.User) error {
	org, err := repos.Organizations().GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		return domainError(ErrAlreadyExists, "User already registered")
	}
	return domainError(ErrAlreadyExists, "User already registered in organization: %s", org.Name)
}

// UpdateGitHubCredentials replaces the caller's GitHub login and token.
func (s *UserService) UpdateGitHubCredentials(ctx context.Context, identity string, creds GitHubCredentials) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateGitHubCredentials", "identity", identity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update github credentials", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "github credentials updated")
	}()

	if strings.TrimSpace(creds.Username) == "" {
		vErr := &ValidationError{}
		vErr.add("github_username", "GitHub username is required")
		return vErr
	}
	sealed, err := s.sealGitHub(creds)
	if err != nil {
		return err
	}
	return s.updateUser(ctx, identity, func(u *persistence.User) {
		u.GitHubUsername = sealed.Username
		u.GitHubToken = sealed.Token
	})
}

// UpdateJiraCredentials replaces the caller's Jira login, account id and token.
func (s *UserService) UpdateJiraCredentials(ctx context.Context, identity string, creds JiraCredentials) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateJiraCredentials", "identity", identity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update jira credentials", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "jira credentials updated")
	}()

	vErr := &ValidationError{}
	validateEmail(vErr, "jira_email", creds.Email)
	if strings.TrimSpace(creds.AccountID) == "" {
		vErr.add("jira_account_id", "Jira account ID is required")
	}
	if err := vErr.orNil(); err != nil {
		return err
	}
	sealed, err := s.sealJira(creds)
	if err != nil {
		return err
	}
	return s.updateUser(ctx, identity, func(u *persistence.User) {
		u.JiraEmail = sealed.Email
		u.JiraAccountID = sealed.AccountID
		u.JiraToken = sealed.Token
	})
}

func (s *UserService) updateUser(ctx context.Context, identity string, mutate func(*persistence.User)) error {
	return s.store.WithinTx(ctx, func(repos persistence.Repositories) error {
		user, err := repos.Users().GetUser(ctx, identity)
		if errors.Is(err, persistence.ErrNotFound) {
			return domainError(ErrNotRegistered, "User not found. Ask your team lead to add you first")
		}
		if err != nil {
			return err
		}
		mutate(&user)
		user.UpdatedAt = s.now().UTC()
		return repos.Users().UpdateUser(ctx, user)
	})
}

// Profile returns the user registered under identity with their organization
// and team. It returns ErrNotRegistered for unknown identities.
func (s *UserService) Profile(ctx context.Context, identity string) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("UserService is nil")
	}
	user, err := s.store.Users().GetUser(ctx, identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return Profile{}, ErrNotRegistered
	}
	if err != nil {
		return Profile{}, err
	}
	org, err := s.store.Organizations().GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		return Profile{}, fmt.Errorf("load organization of %s: %w", identity, err)
	}
	profile := Profile{User: user, Organization: org}
	if user.HasTeam() {
		team, err := s.store.Teams().GetTeam(ctx, user.TeamID)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return Profile{}, fmt.Errorf("load team of %s: %w", identity, err)
		}
		if err == nil {
			profile.Team = &team
		}
	}
	return profile, nil
}

// Credentials returns user's integration credentials with tokens opened.
// Tokens that cannot be opened are dropped so callers skip that integration.
func (s *UserService) Credentials(ctx context.Context, user persistence.User) (GitHubCredentials, JiraCredentials) {
	logger := s.loggerWith(ctx, "Credentials", "identity", user.Identity)
	github := GitHubCredentials{Username: user.GitHubUsername}
	if token, err := s.sealer.Open(user.GitHubToken); err != nil {
		logger.WarnContext(ctx, "failed to open github token", "error", err)
	} else {
		github.Token = token
	}
	jira := JiraCredentials{Email: user.JiraEmail, AccountID: user.JiraAccountID}
	if token, err := s.sealer.Open(user.JiraToken); err != nil {
		logger.WarnContext(ctx, "failed to open jira token", "error", err)
	} else {
		jira.Token = token
	}
	return github, jira
}

func (s *UserService) sealGitHub(creds GitHubCredentials) (GitHubCredentials, error) {
	token, err := s.sealer.Seal(strings.TrimSpace(creds.Token))
	if err != nil {
		return GitHubCredentials{}, fmt.Errorf("seal github token: %w", err)
	}
	return GitHubCredentials{Username: strings.TrimSpace(creds.Username), Token: token}, nil
}

func (s *UserService) sealJira(creds JiraCredentials) (JiraCredentials, error) {
	token, err := s.sealer.Seal(strings.TrimSpace(creds.Token))
	if err != nil {
		return JiraCredentials{}, fmt.Errorf("seal jira token: %w", err)
	}
	email, _ := NormalizeEmail(creds.Email)
	return JiraCredentials{Email: email, AccountID: strings.TrimSpace(creds.AccountID), Token: token}, nil
}
