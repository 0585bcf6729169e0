package integration

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// JiraClient lists a user's open issues.
type JiraClient struct {
	fetcher
	defaultSite string
}

// NewJiraClient creates a client. defaultSite is used when a caller passes no site URL.
func NewJiraClient(defaultSite string, client *http.Client, timeout time.Duration, logger *slog.Logger) *JiraClient {
	return &JiraClient{
		fetcher:     newFetcher("jira", client, timeout, logger),
		defaultSite: defaultSite,
	}
}

// FetchActiveIssues returns up to five "[KEY] summary - status" lines for the
// issues assigned to accountID that are open, to do or in progress. It never
// fails: any problem yields an empty result.
func (c *JiraClient) FetchActiveIssues(ctx context.Context, accountID, siteURL, email, token string) []string {
	logger := c.loggerFor(ctx, "FetchActiveIssues").With("jira_account_id", accountID)
	if siteURL == "" {
		siteURL = c.defaultSite
	}
	if strings.TrimSpace(accountID) == "" || siteURL == "" || missingCredential(token) {
		logger.DebugContext(ctx, "jira credentials not configured")
		return nil
	}

	query := url.Values{}
	query.Set("jql", fmt.Sprintf("assignee=%s AND status in ('In Progress', 'To Do', 'Open') ORDER BY updated DESC", accountID))
	query.Set("maxResults", fmt.Sprint(maxItems))
	query.Set("fields", "summary,status,priority")
	endpoint := strings.TrimRight(siteURL, "/") + "/rest/api/3/search?" + query.Encode()

	auth := base64.StdEncoding.EncodeToString([]byte(email + ":" + token))
	body, err := c.get(ctx, "search", endpoint, http.Header{"Authorization": {"Basic " + auth}})
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch jira issues", "error", err)
		return nil
	}

	issues := parseIssues(body)
	logger.InfoContext(ctx, "fetched jira issues", "count", len(issues))
	return issues
}

func parseIssues(body []byte) []string {
	var issues []string
	gjson.GetBytes(body, "issues").ForEach(func(_, issue gjson.Result) bool {
		key := issue.Get("key").String()
		if key == "" {
			return true
		}
		issues = append(issues, fmt.Sprintf("[%s] %s - %s",
			key, issue.Get("fields.summary").String(), issue.Get("fields.status.name").String()))
		return len(issues) < maxItems
	})
	return issues
}
