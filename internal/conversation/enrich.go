package conversation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/example/standup-bot/internal/application"
)

// recentWork is what the collaborators found for the standup prompt.
type recentWork struct {
	commits []string
	issues  []string
}

// gatherWork asks GitHub and Jira in parallel for the sender's recent work.
// Both lookups share one deadline and their failures only shrink the result.
func (e *Engine) gatherWork(ctx context.Context, profile application.Profile) recentWork {
	github, jira := e.users.Credentials(ctx, profile.User)

	ctx, cancel := context.WithTimeout(ctx, e.enrichmentTimeout)
	defer cancel()

	var work recentWork
	g, gctx := errgroup.WithContext(ctx)
	if e.commits != nil && github.Username != "" && github.Token != "" {
		g.Go(func() error {
			work.commits = e.commits.FetchRecentCommits(gctx, github.Username, github.Token)
			return nil
		})
	}
	if e.issues != nil && jira.AccountID != "" && jira.Token != "" {
		site := ""
		if profile.Team != nil {
			site = profile.Team.JiraURL
		}
		g.Go(func() error {
			work.issues = e.issues.FetchActiveIssues(gctx, jira.AccountID, site, jira.Email, jira.Token)
			return nil
		})
	}
	_ = g.Wait()

	if len(work.commits) == 0 && len(work.issues) == 0 && (github.Username != "" || jira.AccountID != "") {
		e.loggerFor(ctx, "gatherWork", profile.User.Identity).DebugContext(ctx, "no recent work found for standup prompt")
	}
	return work
}
