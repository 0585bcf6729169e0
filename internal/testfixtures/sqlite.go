package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a migrated temporary
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Pool          *sqlite.ConnectionPool
	Store         *sqlite.Store
	Conversations *sqlite.ConversationRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a database in a temporary directory.
// The harness is closed automatically when tb finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dsn := filepath.Join(tb.TempDir(), "standupbot.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := pool.Migrate(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:          pool,
		Store:         sqlite.NewStore(pool),
		Conversations: sqlite.NewConversationRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedOrganization inserts org or fails the test.
func (h *SQLiteHarness) SeedOrganization(tb testing.TB, org persistence.Organization) persistence.Organization {
	tb.Helper()
	if err := h.Store.Organizations().CreateOrganization(context.Background(), org); err != nil {
		tb.Fatalf("failed to seed organization %q: %v", org.Name, err)
	}
	return org
}

// SeedTeam inserts team or fails the test.
func (h *SQLiteHarness) SeedTeam(tb testing.TB, team persistence.Team) persistence.Team {
	tb.Helper()
	if err := h.Store.Teams().CreateTeam(context.Background(), team); err != nil {
		tb.Fatalf("failed to seed team %q: %v", team.Name, err)
	}
	return team
}

// SeedUser inserts user or fails the test.
func (h *SQLiteHarness) SeedUser(tb testing.TB, user persistence.User) persistence.User {
	tb.Helper()
	if err := h.Store.Users().CreateUser(context.Background(), user); err != nil {
		tb.Fatalf("failed to seed user %q: %v", user.Identity, err)
	}
	return user
}

// SeedStandup inserts standup or fails the test.
func (h *SQLiteHarness) SeedStandup(tb testing.TB, standup persistence.Standup) persistence.Standup {
	tb.Helper()
	if err := h.Store.Standups().CreateStandup(context.Background(), standup); err != nil {
		tb.Fatalf("failed to seed standup for %q: %v", standup.UserIdentity, err)
	}
	return standup
}

// Directory is a seeded organization with one team, its admin, its lead and a member.
type Directory struct {
	Organization persistence.Organization
	Team         persistence.Team
	Admin        persistence.User
	Lead         persistence.User
	Member       persistence.User
}

// SeedDirectory inserts a small organization built from the default fixtures.
func (h *SQLiteHarness) SeedDirectory(tb testing.TB) Directory {
	tb.Helper()
	org := h.SeedOrganization(tb, NewOrganization())
	admin := h.SeedUser(tb, NewUser(WithIdentity("admin"), WithRole(persistence.RoleOrgAdmin), InOrganization(org.ID)))
	team := h.SeedTeam(tb, NewTeam(org.ID, WithTeamLead("lead")))
	lead := h.SeedUser(tb, NewUser(WithIdentity("lead"), WithRole(persistence.RoleTeamLead), InTeam(team)))
	member := h.SeedUser(tb, NewUser(WithIdentity("member"), InTeam(team)))
	return Directory{Organization: org, Team: team, Admin: admin, Lead: lead, Member: member}
}
