package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

const eventsBody = `[
  {"type":"PushEvent","created_at":"2024-03-04T08:00:00Z","repo":{"name":"acme/api"},
   "payload":{"commits":[{"message":"Fix login redirect\n\nlong body"},{"message":"Add audit log"}]}},
  {"type":"IssuesEvent","created_at":"2024-03-04T07:00:00Z","repo":{"name":"acme/api"}},
  {"type":"PushEvent","created_at":"2024-03-03T12:00:00Z","repo":{"name":"acme/web"},
   "payload":{"commits":[{"message":"Bump deps"}]}},
  {"type":"PushEvent","created_at":"2024-03-01T12:00:00Z","repo":{"name":"acme/old"},
   "payload":{"commits":[{"message":"Too old"}]}}
]`

func TestFetchRecentCommits(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsBody))
	}))
	defer srv.Close()

	client := NewGitHubClient(srv.URL, srv.Client(), time.Second, func() time.Time { return fixedNow }, nil)
	got := client.FetchRecentCommits(context.Background(), "octocat", "ghp_token")

	want := []string{"acme/api: Fix login redirect", "acme/api: Add audit log", "acme/web: Bump deps"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("commits mismatch (-want +got):\n%s", diff)
	}
	if gotAuth != "token ghp_token" {
		t.Fatalf("expected token auth header, got %q", gotAuth)
	}
	if gotPath != "/users/octocat/events" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestFetchRecentCommitsIsBestEffort(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/users/slow/events":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(eventsBody))
		case "/users/broken/events":
			_, _ = w.Write([]byte(`{"message":"not an array"}`))
		default:
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	client := NewGitHubClient(srv.URL, srv.Client(), 50*time.Millisecond, func() time.Time { return fixedNow }, nil)

	cases := []struct {
		name, user, token string
	}{
		{"unauthorized", "octocat", "bad"},
		{"timeout", "slow", "tok"},
		{"unexpected shape", "broken", "tok"},
		{"missing token", "octocat", ""},
		{"placeholder token", "octocat", "YOUR_GITHUB_TOKEN"},
		{"missing username", "", "tok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := client.FetchRecentCommits(context.Background(), tc.user, tc.token); len(got) != 0 {
				t.Fatalf("expected no commits, got %v", got)
			}
		})
	}
	if calls.Load() != 3 {
		t.Fatalf("expected requests only for configured credentials, got %d", calls.Load())
	}
}

func TestParsePushEventsLimitsResults(t *testing.T) {
	body := `[{"type":"PushEvent","created_at":"2024-03-04T08:00:00Z","repo":{"name":"r"},"payload":{"commits":[
		{"message":"1"},{"message":"2"},{"message":"3"},{"message":"4"},{"message":"5"},{"message":"6"}]}}]`
	got := parsePushEvents([]byte(body), fixedNow.Add(-24*time.Hour))
	if len(got) != maxItems {
		t.Fatalf("expected %d commits, got %d", maxItems, len(got))
	}
}
