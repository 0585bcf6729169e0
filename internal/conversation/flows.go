package conversation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/session"
)

// Session field names.
const (
	fieldOrgName        = "orgName"
	fieldDomain         = "domain"
	fieldTeamName       = "teamName"
	fieldGitHubOrg      = "githubOrg"
	fieldJiraURL        = "jiraUrl"
	fieldTeamID         = "teamId"
	fieldName           = "newUserName"
	fieldEmail          = "newUserEmail"
	fieldIdentity       = "newUserIdentity"
	fieldGitHubUsername = "githubUsername"
	fieldGitHubToken    = "githubToken"
	fieldJiraEmail      = "jiraEmail"
	fieldJiraAccountID  = "jiraAccountId"
	fieldJiraToken      = "jiraApiToken"
	fieldYesterday      = "yesterdayWork"
	fieldToday          = "todayPlan"
	fieldBlockers       = "blockers"
	fieldCommits        = "githubCommits"
	fieldIssues         = "jiraIssues"
)

const maxAnswerLength = 2000

const yesterdayQuestion = "**What did you accomplish yesterday?**\n\n" +
	"_Describe your work, or type **auto** to use the commits/issues above._"

func skipTo(step int) *target {
	t := toStep(step)
	return &t
}

var skipDone = &done

var conversationFlows = flows{
	session.StateRegisteringOrg: {
		restart:   "/register-org",
		cancelled: "❌ Organization registration cancelled.",
		failure:   "❌ Error: ",
		complete:  completeOrganization,
		steps: []step{
			{
				field: fieldOrgName,
				prompt: staticPrompt("🏢 **Organization Registration**\n\nWhat is your organization name?\n\n" +
					"Example: _TechCorp_, _Acme Inc_, _DevTeam_\n\n(Type **cancel** to abort)"),
				parse: requireText("Organization name", 100),
				next:  toStep(1),
			},
			{
				field: fieldDomain,
				prompt: staticPrompt("Great! What is your organization's email domain?\n\n" +
					"Example: _techcorp.com_, _acme.io_\n\n(Type **cancel** to abort)"),
				parse: parseDomain,
				next:  done,
			},
		},
	},
	session.StateCreatingTeam: {
		restart:   "/create-team",
		cancelled: "❌ Team creation cancelled.",
		failure:   "❌ Error: ",
		complete:  completeTeam,
		steps: []step{
			{
				field: fieldTeamName,
				prompt: staticPrompt("👥 **Team Creation**\n\nWhat is the team name?\n\n" +
					"Example: _Backend Team_, _Frontend Team_, _DevOps_\n\n(Type **cancel** to abort)"),
				parse: requireText("Team name", 100),
				next:  toStep(1),
			},
			{
				field: fieldGitHubOrg,
				prompt: staticPrompt("What is your GitHub organization name?\n\n" +
					"Example: _microsoft_, _google_, _facebook_\n\n" +
					"(Type **skip** if you don't have one, or **cancel** to abort)"),
				parse: requireText("GitHub organization", 100),
				next:  toStep(2),
				skip:  skipTo(2),
			},
			{
				field: fieldJiraURL,
				prompt: staticPrompt("What is your Jira site URL?\n\n" +
					"Example: _https://techcorp.atlassian.net_\n\n" +
					"(Type **skip** if you don't use Jira, or **cancel** to abort)"),
				parse: parseSiteURL,
				next:  done,
				skip:  skipDone,
			},
		},
	},
	session.StateAddingUser: {
		restart:   "/add-user",
		cancelled: "❌ User addition cancelled.",
		failure:   "❌ Error adding user: ",
		complete:  completeUser,
		steps: []step{
			{
				field: fieldName,
				prompt: staticPrompt("👤 **Add User to Team**\n\nPlease mention the user you want to add.\n\n" +
					"Example: _@JohnDoe_\n\n(Type **cancel** to abort)"),
				parse: parsePersonName,
				next:  toStep(1),
			},
			{
				field: fieldEmail,
				prompt: func(tx *session.Tx) string {
					name, _ := tx.Get(fieldName)
					return "What is " + name + "'s email address?"
				},
				parse: parseEmail,
				next:  toStep(2),
			},
			{
				field: fieldIdentity,
				prompt: staticPrompt("What is their chat user ID?\n\n" +
					"_Standups are matched to people by this ID._\n\n(Type **skip** to link it later)"),
				parse: requireText("User ID", 200),
				next:  toStep(3),
				skip:  skipTo(3),
			},
			{
				field:  fieldGitHubUsername,
				prompt: staticPrompt("What is their GitHub username?\n\n(Type **skip** if they don't have one)"),
				parse:  requireText("GitHub username", 100),
				next:   toStep(4),
				skip:   skipTo(5),
			},
			{
				field: fieldGitHubToken,
				prompt: staticPrompt("What is their GitHub Personal Access Token?\n\n" +
					"_This is needed to auto-fetch their commits during standup._\n\n(Type **skip** to configure later)"),
				next: toStep(5),
				skip: skipTo(5),
			},
			{
				field:  fieldJiraEmail,
				prompt: staticPrompt("What is their Jira email?\n\n(Type **skip** if they don't use Jira)"),
				parse:  parseEmail,
				next:   toStep(6),
				skip:   skipDone,
			},
			{
				field:  fieldJiraAccountID,
				prompt: staticPrompt("What is their Jira Account ID?\n\n(Type **skip** to configure later)"),
				parse:  requireText("Jira account ID", 200),
				next:   toStep(7),
				skip:   skipDone,
			},
			{
				field:  fieldJiraToken,
				prompt: staticPrompt("What is their Jira API Token?\n\n(Type **skip** to configure later)"),
				next:   done,
				skip:   skipDone,
			},
		},
	},
	session.StateStandupYesterday: {
		restart:   "standup",
		cancelled: "❌ Standup cancelled.",
		failure:   "❌ Error submitting standup: ",
		steps: []step{
			{
				field:  fieldYesterday,
				prompt: staticPrompt(yesterdayQuestion),
				parse:  parseYesterday,
				next:   toState(session.StateStandupToday),
			},
		},
	},
	session.StateStandupToday: {
		restart:   "standup",
		cancelled: "❌ Standup cancelled.",
		failure:   "❌ Error submitting standup: ",
		steps: []step{
			{
				field:  fieldToday,
				prompt: staticPrompt("**What are you planning to do today?**"),
				parse:  requireText("Today's plan", maxAnswerLength),
				next:   toState(session.StateStandupBlockers),
			},
		},
	},
	session.StateStandupBlockers: {
		restart:   "standup",
		cancelled: "❌ Standup cancelled.",
		failure:   "❌ Error submitting standup: ",
		complete:  completeStandup,
		steps: []step{
			{
				field:  fieldBlockers,
				prompt: staticPrompt("**Any blockers or challenges?**\n\n(Type **none** if no blockers)"),
				parse:  parseBlockers,
				next:   done,
			},
		},
	},
	session.StateUpdatingGitHub: {
		restart:   "/update-github",
		cancelled: "❌ GitHub update cancelled.",
		failure:   "❌ Error: ",
		complete:  completeGitHub,
		steps: []step{
			{
				field: fieldGitHubUsername,
				prompt: staticPrompt("🐙 **Update GitHub Credentials**\n\nWhat is your GitHub username?\n\n" +
					"(Type **cancel** to abort)"),
				parse: requireText("GitHub username", 100),
				next:  toStep(1),
			},
			{
				field: fieldGitHubToken,
				prompt: staticPrompt("What is your GitHub Personal Access Token?\n\n" +
					"_It is used only to list your recent commits._\n\n(Type **skip** to leave it empty)"),
				next: done,
				skip: skipDone,
			},
		},
	},
	session.StateUpdatingJira: {
		restart:   "/update-jira",
		cancelled: "❌ Jira update cancelled.",
		failure:   "❌ Error: ",
		complete:  completeJira,
		steps: []step{
			{
				field: fieldJiraEmail,
				prompt: staticPrompt("🎫 **Update Jira Credentials**\n\nWhat is your Jira email?\n\n" +
					"(Type **cancel** to abort)"),
				parse: parseEmail,
				next:  toStep(1),
			},
			{
				field:  fieldJiraAccountID,
				prompt: staticPrompt("What is your Jira Account ID?"),
				parse:  requireText("Jira account ID", 200),
				next:   toStep(2),
			},
			{
				field:  fieldJiraToken,
				prompt: staticPrompt("What is your Jira API Token?\n\n(Type **skip** to leave it empty)"),
				next:   done,
				skip:   skipDone,
			},
		},
	},
}

// invalidAnswer is shown to the user before the question is asked again.
type invalidAnswer string

func (e invalidAnswer) Error() string { return string(e) }

func requireText(label string, limit int) func(*session.Tx, string) (string, error) {
	return func(_ *session.Tx, raw string) (string, error) {
		value := strings.TrimSpace(raw)
		if value == "" {
			return "", invalidAnswer(fmt.Sprintf("%s is required", label))
		}
		if utf8.RuneCountInString(value) > limit {
			return "", invalidAnswer(fmt.Sprintf("%s must be %d characters or fewer", label, limit))
		}
		return value, nil
	}
}

func parseDomain(_ *session.Tx, raw string) (string, error) {
	domain, ok := application.NormalizeDomain(raw)
	if !ok {
		return "", invalidAnswer("That doesn't look like a domain. Please enter something like _company.com_")
	}
	return domain, nil
}

func parseSiteURL(_ *session.Tx, raw string) (string, error) {
	site, ok := application.NormalizeSiteURL(raw)
	if !ok {
		return "", invalidAnswer("Please enter a full URL starting with https://")
	}
	return site, nil
}

func parseEmail(_ *session.Tx, raw string) (string, error) {
	email, ok := application.NormalizeEmail(raw)
	if !ok {
		return "", invalidAnswer("That doesn't look like an email address")
	}
	return email, nil
}

func parsePersonName(tx *session.Tx, raw string) (string, error) {
	return requireText("Name", 100)(tx, application.NormalizePersonName(raw))
}

// parseYesterday expands the auto keyword into the fetched work items.
func parseYesterday(tx *session.Tx, raw string) (string, error) {
	if !isKeyword(raw, keywordAuto) {
		return requireText("Yesterday's work", maxAnswerLength)(tx, raw)
	}
	commits, issues := tx.Lines(fieldCommits), tx.Lines(fieldIssues)
	if len(commits) == 0 && len(issues) == 0 {
		return "", invalidAnswer("No commits or issues were found to use. Please describe your work")
	}
	var b strings.Builder
	for _, line := range commits {
		b.WriteString("• " + line + "\n")
	}
	for _, line := range issues {
		b.WriteString("• " + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func parseBlockers(_ *session.Tx, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if isKeyword(value, keywordNone) {
		return "", nil
	}
	if utf8.RuneCountInString(value) > maxAnswerLength {
		return "", invalidAnswer(fmt.Sprintf("Blockers must be %d characters or fewer", maxAnswerLength))
	}
	return value, nil
}

func completeOrganization(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	name, _ := tx.Get(fieldOrgName)
	domain, _ := tx.Get(fieldDomain)
	registration, err := e.organizations.RegisterOrganization(ctx, application.RegisterOrganizationParams{
		Name:            name,
		Domain:          domain,
		CreatorIdentity: msg.Identity,
		CreatorName:     msg.Name,
		CreatorEmail:    msg.Email,
	})
	if err != nil {
		return "", err
	}
	return organizationCreatedReply(registration), nil
}

func completeTeam(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	name, _ := tx.Get(fieldTeamName)
	githubOrg, _ := tx.Get(fieldGitHubOrg)
	jiraURL, _ := tx.Get(fieldJiraURL)
	team, err := e.teams.CreateTeam(ctx, application.CreateTeamParams{
		CreatorIdentity: msg.Identity,
		Name:            name,
		GitHubOrg:       githubOrg,
		JiraURL:         jiraURL,
		ChannelRef:      msg.ChannelRef,
	})
	if err != nil {
		return "", err
	}
	role := "TEAM_LEAD"
	if profile, err := e.users.Profile(ctx, msg.Identity); err == nil {
		role = string(profile.User.Role)
	}
	return teamCreatedReply(team, role), nil
}

func completeUser(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	get := func(key string) string {
		v, _ := tx.Get(key)
		return v
	}
	user, err := e.users.RegisterUser(ctx, application.RegisterUserParams{
		AdderIdentity: msg.Identity,
		TeamID:        get(fieldTeamID),
		Identity:      get(fieldIdentity),
		Name:          get(fieldName),
		Email:         get(fieldEmail),
		GitHub:        application.GitHubCredentials{Username: get(fieldGitHubUsername), Token: get(fieldGitHubToken)},
		Jira: application.JiraCredentials{
			Email:     get(fieldJiraEmail),
			AccountID: get(fieldJiraAccountID),
			Token:     get(fieldJiraToken),
		},
	})
	if err != nil {
		return "", err
	}
	teamName := ""
	if profile, err := e.users.Profile(ctx, user.Identity); err == nil && profile.Team != nil {
		teamName = profile.Team.Name
	}
	return userAddedReply(user, teamName), nil
}

func completeGitHub(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	username, _ := tx.Get(fieldGitHubUsername)
	token, _ := tx.Get(fieldGitHubToken)
	if err := e.users.UpdateGitHubCredentials(ctx, msg.Identity, application.GitHubCredentials{Username: username, Token: token}); err != nil {
		return "", err
	}
	return "✅ **GitHub credentials updated!**\n\n" +
		"Username: **" + username + "**\n\n" +
		"Your recent commits will be offered at your next **standup**.", nil
}

func completeJira(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	email, _ := tx.Get(fieldJiraEmail)
	accountID, _ := tx.Get(fieldJiraAccountID)
	token, _ := tx.Get(fieldJiraToken)
	creds := application.JiraCredentials{Email: email, AccountID: accountID, Token: token}
	if err := e.users.UpdateJiraCredentials(ctx, msg.Identity, creds); err != nil {
		return "", err
	}
	return "✅ **Jira credentials updated!**\n\n" +
		"Email: **" + email + "**\n\n" +
		"Your active issues will be offered at your next **standup**.", nil
}

func completeStandup(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error) {
	yesterday, _ := tx.Get(fieldYesterday)
	today, _ := tx.Get(fieldToday)
	blockers, _ := tx.Get(fieldBlockers)
	result, err := e.standups.SubmitStandup(ctx, application.SubmitStandupParams{
		Identity:  msg.Identity,
		Yesterday: yesterday,
		Today:     today,
		Blockers:  blockers,
		Commits:   tx.Lines(fieldCommits),
		Issues:    tx.Lines(fieldIssues),
	})
	if err != nil {
		return "", err
	}
	return standupSubmittedReply(result), nil
}
