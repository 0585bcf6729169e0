package integration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultGitHubAPIURL is the public GitHub REST root.
const DefaultGitHubAPIURL = "https://api.github.com"

// GitHubClient lists a user's recent pushed commits.
type GitHubClient struct {
	fetcher
	baseURL string
	now     func() time.Time
}

// NewGitHubClient creates a client for the REST API at baseURL.
func NewGitHubClient(baseURL string, client *http.Client, timeout time.Duration, now func() time.Time, logger *slog.Logger) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultGitHubAPIURL
	}
	if now == nil {
		now = time.Now
	}
	return &GitHubClient{
		fetcher: newFetcher("github", client, timeout, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     now,
	}
}

// FetchRecentCommits returns up to five "repo: message" lines for commits
// pushed by username during the last 24 hours. It never fails: any problem
// yields an empty result.
func (c *GitHubClient) FetchRecentCommits(ctx context.Context, username, token string) []string {
	logger := c.loggerFor(ctx, "FetchRecentCommits").With("github_username", username)
	if strings.TrimSpace(username) == "" || missingCredential(token) {
		logger.DebugContext(ctx, "github credentials not configured")
		return nil
	}

	endpoint := fmt.Sprintf("%s/users/%s/events", c.baseURL, url.PathEscape(username))
	body, err := c.get(ctx, "events", endpoint, http.Header{"Authorization": {"token " + token}})
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch github events", "error", err)
		return nil
	}

	commits := parsePushEvents(body, c.now().Add(-24*time.Hour))
	logger.InfoContext(ctx, "fetched github commits", "count", len(commits))
	return commits
}

func parsePushEvents(body []byte, since time.Time) []string {
	events := gjson.ParseBytes(body)
	if !events.IsArray() {
		return nil
	}

	var commits []string
	events.ForEach(func(_, event gjson.Result) bool {
		if event.Get("type").String() != "PushEvent" {
			return true
		}
		created, err := time.Parse(time.RFC3339, event.Get("created_at").String())
		if err != nil || !created.After(since) {
			return true
		}
		repo := event.Get("repo.name").String()
		event.Get("payload.commits").ForEach(func(_, commit gjson.Result) bool {
			message := firstLine(commit.Get("message").String())
			if message == "" {
				return true
			}
			commits = append(commits, fmt.Sprintf("%s: %s", repo, message))
			return len(commits) < maxItems
		})
		return len(commits) < maxItems
	})
	return commits
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
