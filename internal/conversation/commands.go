package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/permission"
	"github.com/example/standup-bot/internal/session"
)

// command is one row of the top-level command table. A message matches when
// it starts with one of prefixes or equals one of phrases.
type command struct {
	name     string
	prefixes []string
	phrases  []string
	run      func(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string
}

func (c command) matches(text string) bool {
	for _, p := range c.prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	for _, p := range c.phrases {
		if text == p {
			return true
		}
	}
	return false
}

// commandTable is matched in order; the first match wins.
var commandTable = []command{
	{name: "register-org", prefixes: []string{"/register-org"}, phrases: []string{"register org", "register organization"}, run: startOrganization},
	{name: "create-team", prefixes: []string{"/create-team"}, phrases: []string{"create team"}, run: startTeam},
	{name: "add-user", prefixes: []string{"/add-user"}, phrases: []string{"add user"}, run: startAddUser},
	{name: "standup", prefixes: []string{"/standup"}, phrases: []string{"standup"}, run: startStandup},
	{name: "update-github", prefixes: []string{"/update-github"}, phrases: []string{"update github"}, run: startGitHubUpdate},
	{name: "update-jira", prefixes: []string{"/update-jira"}, phrases: []string{"update jira"}, run: startJiraUpdate},
	{name: "team-status", prefixes: []string{"/team-status"}, phrases: []string{"team status"}, run: showTeamStatus},
	{name: "org-status", prefixes: []string{"/org-status"}, phrases: []string{"org status"}, run: showOrganizationStatus},
	{name: "help", prefixes: []string{"/help"}, phrases: []string{"help"}, run: showHelp},
	{name: "status", prefixes: []string{"/status"}, phrases: []string{"status", "my status"}, run: showStatus},
}

// route dispatches a message from an idle sender.
func (e *Engine) route(ctx context.Context, msg Message, tx *session.Tx) string {
	text := strings.ToLower(strings.TrimSpace(msg.Text))
	for _, c := range e.commands {
		if c.matches(text) {
			e.loggerFor(ctx, "route", msg.Identity).DebugContext(ctx, "command matched", "command", c.name)
			return c.run(ctx, e, msg, tx)
		}
	}
	return unrecognizedReply
}

// profile loads the sender's directory entry. When the sender cannot act the
// returned reply explains why and ok is false.
func (e *Engine) profile(ctx context.Context, msg Message) (application.Profile, string, bool) {
	profile, err := e.users.Profile(ctx, msg.Identity)
	if errors.Is(err, application.ErrNotRegistered) {
		return application.Profile{}, registerFirstReply, false
	}
	if err != nil {
		e.loggerFor(ctx, "profile", msg.Identity).ErrorContext(ctx, "failed to load profile", "error", err)
		return application.Profile{}, "❌ " + application.UserMessage(err), false
	}
	return profile, "", true
}

func startOrganization(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	profile, err := e.users.Profile(ctx, msg.Identity)
	switch {
	case err == nil:
		return "❌ You're already registered in organization: **" + profile.Organization.Name + "**\n\n" +
			"Type **/help** to see available commands."
	case !errors.Is(err, application.ErrNotRegistered):
		return "❌ " + application.UserMessage(err)
	}
	return e.begin(tx, session.StateRegisteringOrg)
}

func startTeam(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	profile, reply, ok := e.profile(ctx, msg)
	if !ok {
		return reply
	}
	if !permission.CanCreateTeam(permission.ActorFromUser(profile.User), profile.Organization.ID) {
		return "❌ Only organization admins can create teams."
	}
	return e.begin(tx, session.StateCreatingTeam)
}

func startAddUser(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	profile, reply, ok := e.profile(ctx, msg)
	if !ok {
		return reply
	}
	if profile.Team == nil {
		return "❌ You must be part of a team to add users. Create a team with **/create-team** first."
	}
	if !permission.CanAddUserToTeam(permission.ActorFromUser(profile.User), permission.ScopeOf(*profile.Team)) {
		return "❌ Only team leads and organization admins can add users."
	}
	prompt := e.begin(tx, session.StateAddingUser)
	tx.Put(fieldTeamID, profile.Team.ID)
	return prompt
}

func startStandup(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	profile, reply, ok := e.profile(ctx, msg)
	if !ok {
		return reply
	}
	if !permission.CanSubmitStandup(permission.ActorFromUser(profile.User)) {
		return "❌ You must join a team before submitting standups."
	}
	submitted, err := e.standups.HasSubmitted(ctx, msg.Identity, e.standups.Today())
	if err != nil {
		e.loggerFor(ctx, "startStandup", msg.Identity).ErrorContext(ctx, "failed to check today's standup", "error", err)
		return "❌ " + application.UserMessage(err)
	}
	if submitted {
		return "✅ You've already submitted standup for today!\n\nType **/status** to view your profile."
	}

	work := e.gatherWork(ctx, profile)
	e.begin(tx, session.StateStandupYesterday)
	if len(work.commits) > 0 {
		tx.PutLines(fieldCommits, work.commits)
	}
	if len(work.issues) > 0 {
		tx.PutLines(fieldIssues, work.issues)
	}
	return standupIntroReply(work)
}

func startGitHubUpdate(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	if _, reply, ok := e.profile(ctx, msg); !ok {
		return reply
	}
	return e.begin(tx, session.StateUpdatingGitHub)
}

func startJiraUpdate(ctx context.Context, e *Engine, msg Message, tx *session.Tx) string {
	if _, reply, ok := e.profile(ctx, msg); !ok {
		return reply
	}
	return e.begin(tx, session.StateUpdatingJira)
}

func showTeamStatus(ctx context.Context, e *Engine, msg Message, _ *session.Tx) string {
	status, err := e.standups.TeamStatus(ctx, msg.Identity, e.standups.Today())
	if errors.Is(err, application.ErrNotRegistered) {
		return registerFirstReply
	}
	if err != nil {
		return "❌ " + application.UserMessage(err)
	}
	return teamStatusReply(status)
}

func showOrganizationStatus(ctx context.Context, e *Engine, msg Message, _ *session.Tx) string {
	status, err := e.standups.OrganizationStatus(ctx, msg.Identity, e.standups.Today())
	if errors.Is(err, application.ErrNotRegistered) {
		return registerFirstReply
	}
	if err != nil {
		return "❌ " + application.UserMessage(err)
	}
	return organizationStatusReply(status)
}

func showHelp(ctx context.Context, e *Engine, msg Message, _ *session.Tx) string {
	profile, err := e.users.Profile(ctx, msg.Identity)
	if err != nil {
		return guestHelpReply
	}
	return memberHelpReply(profile)
}

func showStatus(ctx context.Context, e *Engine, msg Message, _ *session.Tx) string {
	profile, err := e.users.Profile(ctx, msg.Identity)
	if errors.Is(err, application.ErrNotRegistered) {
		return "❌ You're not registered. Type **/register-org** to get started."
	}
	if err != nil {
		return "❌ " + application.UserMessage(err)
	}
	return profileReply(profile)
}
