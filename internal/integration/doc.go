// Package integration fetches recent work from GitHub and Jira.
//
// Every fetch is best-effort: failures are logged and an empty result is
// returned, so callers can enrich a prompt without handling errors.
package integration
