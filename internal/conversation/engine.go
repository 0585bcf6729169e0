// Package conversation turns chat messages into directory and standup
// operations.
//
// An Engine routes each message either to the flow the sender is in the
// middle of or, for idle senders, to a top-level command. Flows are declared
// as tables of steps keyed by session state and step number; see flows.go.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/logging"
	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/session"
	"github.com/example/standup-bot/internal/telemetry"
)

// DefaultEnrichmentTimeout bounds the GitHub and Jira lookups made when a standup starts.
const DefaultEnrichmentTimeout = 10 * time.Second

// Message is one inbound chat message.
type Message struct {
	Identity   string
	Name       string
	Email      string
	Text       string
	ChannelRef string
}

// OrganizationRegistrar registers organizations.
type OrganizationRegistrar interface {
	RegisterOrganization(ctx context.Context, params application.RegisterOrganizationParams) (application.Registration, error)
}

// TeamCreator creates teams.
type TeamCreator interface {
	CreateTeam(ctx context.Context, params application.CreateTeamParams) (persistence.Team, error)
}

// UserDirectory onboards users and manages their profile and credentials.
type UserDirectory interface {
	RegisterUser(ctx context.Context, params application.RegisterUserParams) (persistence.User, error)
	UpdateGitHubCredentials(ctx context.Context, identity string, creds application.GitHubCredentials) error
	UpdateJiraCredentials(ctx context.Context, identity string, creds application.JiraCredentials) error
	Profile(ctx context.Context, identity string) (application.Profile, error)
	Credentials(ctx context.Context, user persistence.User) (application.GitHubCredentials, application.JiraCredentials)
}

// StandupRecorder stores standups and reports progress.
type StandupRecorder interface {
	Today() string
	HasSubmitted(ctx context.Context, identity, date string) (bool, error)
	SubmitStandup(ctx context.Context, params application.SubmitStandupParams) (application.StandupResult, error)
	TeamStatus(ctx context.Context, identity, date string) (application.TeamStatus, error)
	OrganizationStatus(ctx context.Context, identity, date string) (application.OrganizationStatus, error)
}

// CommitFetcher lists a user's recent commits. It returns nil on any failure.
type CommitFetcher interface {
	FetchRecentCommits(ctx context.Context, username, token string) []string
}

// IssueFetcher lists a user's active issues. It returns nil on any failure.
type IssueFetcher interface {
	FetchActiveIssues(ctx context.Context, accountID, siteURL, email, token string) []string
}

// Dependencies wires an Engine. Commits and Issues are optional.
type Dependencies struct {
	Sessions          *session.Manager
	Organizations     OrganizationRegistrar
	Teams             TeamCreator
	Users             UserDirectory
	Standups          StandupRecorder
	Commits           CommitFetcher
	Issues            IssueFetcher
	EnrichmentTimeout time.Duration
	Logger            *slog.Logger
}

// Engine is the conversation state machine and command router.
type Engine struct {
	sessions          *session.Manager
	organizations     OrganizationRegistrar
	teams             TeamCreator
	users             UserDirectory
	standups          StandupRecorder
	commits           CommitFetcher
	issues            IssueFetcher
	enrichmentTimeout time.Duration
	flows             flows
	commands          []command
	tracer            trace.Tracer
	logger            *slog.Logger
}

// NewEngine validates deps and builds an Engine.
func NewEngine(deps Dependencies) (*Engine, error) {
	var missing []string
	if deps.Sessions == nil {
		missing = append(missing, "Sessions")
	}
	if deps.Organizations == nil {
		missing = append(missing, "Organizations")
	}
	if deps.Teams == nil {
		missing = append(missing, "Teams")
	}
	if deps.Users == nil {
		missing = append(missing, "Users")
	}
	if deps.Standups == nil {
		missing = append(missing, "Standups")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("conversation: missing dependencies: %s", strings.Join(missing, ", "))
	}

	timeout := deps.EnrichmentTimeout
	if timeout <= 0 {
		timeout = DefaultEnrichmentTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:          deps.Sessions,
		organizations:     deps.Organizations,
		teams:             deps.Teams,
		users:             deps.Users,
		standups:          deps.Standups,
		commits:           deps.Commits,
		issues:            deps.Issues,
		enrichmentTimeout: timeout,
		flows:             conversationFlows,
		commands:          commandTable,
		tracer:            telemetry.Tracer("conversation"),
		logger:            logger,
	}, nil
}

func (e *Engine) loggerFor(ctx context.Context, operation, identity string) *slog.Logger {
	return logging.FromContextOr(ctx, e.logger).With("component", "conversation", "operation", operation, "identity", identity)
}

// Handle processes msg and returns exactly one reply. Messages from the same
// identity are processed one at a time.
func (e *Engine) Handle(ctx context.Context, msg Message) (reply string) {
	msg.Identity = strings.TrimSpace(msg.Identity)
	ctx, span := e.tracer.Start(ctx, "conversation.Handle", trace.WithAttributes(attribute.String("chat.identity", msg.Identity)))
	defer span.End()

	if msg.Identity == "" {
		return unidentifiedReply
	}
	logger := e.loggerFor(ctx, "Handle", msg.Identity)

	err := e.sessions.Turn(ctx, msg.Identity, func(tx *session.Tx) error {
		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(ctx, "conversation step panicked", "panic", fmt.Sprint(p), "state", string(tx.State()))
				restart := e.restartFor(tx.State())
				tx.Reset()
				reply = somethingWentWrong(restart)
			}
		}()

		span.SetAttributes(attribute.String("conversation.state", string(tx.State())), attribute.Int("conversation.step", tx.Step()))
		if tx.IsActive() {
			reply = e.advance(ctx, msg, tx)
			return nil
		}
		reply = e.route(ctx, msg, tx)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation turn failed")
		logger.ErrorContext(ctx, "conversation turn failed", "error", err)
		if reply == "" {
			reply = somethingWentWrong("/help")
		}
	}
	return reply
}

func (e *Engine) restartFor(state session.State) string {
	if f, ok := e.flows[state]; ok && f.restart != "" {
		return f.restart
	}
	return "/help"
}

// begin starts state's flow from a clean session and returns its first question.
func (e *Engine) begin(tx *session.Tx, state session.State) string {
	tx.Reset()
	tx.SetState(state)
	_, first, ok := e.flows.lookup(state, 0)
	if !ok {
		tx.Reset()
		return somethingWentWrong("/help")
	}
	return first.prompt(tx)
}
