package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/testfixtures"
)

func newTeamService(t *testing.T) (*TeamService, *testfixtures.SQLiteHarness, testfixtures.Directory) {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	dir := h.SeedDirectory(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewTeamService(h.Store, testfixtures.NewIDGenerator("new-team").NextFunc(), clock.NowFunc()), h, dir
}

func TestTeamService_CreateTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("administrator creates a team and leads it", func(t *testing.T) {
		svc, h, dir := newTeamService(t)

		team, err := svc.CreateTeam(ctx, CreateTeamParams{
			CreatorIdentity: "admin", Name: "Platform", GitHubOrg: "acme", JiraURL: "https://acme.atlassian.net/", ChannelRef: "chan-1",
		})
		if err != nil {
			t.Fatalf("CreateTeam returned error: %v", err)
		}
		if team.ID != "new-team-1" || team.OrganizationID != dir.Organization.ID || team.LeadIdentity != "admin" {
			t.Fatalf("unexpected team %+v", team)
		}
		if team.JiraURL != "https://acme.atlassian.net" || team.ChannelRef != "chan-1" {
			t.Fatalf("unexpected integrations %+v", team)
		}

		admin, _ := h.Store.Users().GetUser(ctx, "admin")
		if admin.TeamID != team.ID {
			t.Fatalf("expected creator to join the team, got %q", admin.TeamID)
		}
		if admin.Role != persistence.RoleTeamLead {
			t.Fatalf("expected creator to become team lead, got %s", admin.Role)
		}
	})

	t.Run("non administrators are denied without side effects", func(t *testing.T) {
		svc, h, dir := newTeamService(t)

		for _, identity := range []string{"lead", "member"} {
			_, err := svc.CreateTeam(ctx, CreateTeamParams{CreatorIdentity: identity, Name: "Rogue"})
			if !errors.Is(err, ErrUnauthorized) || UserMessage(err) != "Only organization admins can create teams" {
				t.Fatalf("%s: expected permission denial, got %v", identity, err)
			}
		}
		teams, _ := h.Store.Teams().ListTeams(ctx, dir.Organization.ID)
		if len(teams) != 1 {
			t.Fatalf("expected no new team, got %d teams", len(teams))
		}
	})

	t.Run("unregistered creators are told to register", func(t *testing.T) {
		svc, _, _ := newTeamService(t)
		_, err := svc.CreateTeam(ctx, CreateTeamParams{CreatorIdentity: "stranger", Name: "Platform"})
		if !errors.Is(err, ErrNotRegistered) {
			t.Fatalf("expected ErrNotRegistered, got %v", err)
		}
	})

	t.Run("names are unique within an organization only", func(t *testing.T) {
		svc, h, dir := newTeamService(t)

		_, err := svc.CreateTeam(ctx, CreateTeamParams{CreatorIdentity: "admin", Name: dir.Team.Name})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		other := h.SeedOrganization(t, testfixtures.NewOrganization())
		h.SeedUser(t, testfixtures.NewUser(testfixtures.WithIdentity("admin2"), testfixtures.WithRole(persistence.RoleOrgAdmin), testfixtures.InOrganization(other.ID)))
		team, err := svc.CreateTeam(ctx, CreateTeamParams{CreatorIdentity: "admin2", Name: dir.Team.Name})
		if err != nil {
			t.Fatalf("expected same name in another organization to succeed, got %v", err)
		}
		if team.OrganizationID != other.ID {
			t.Fatalf("expected team in the second organization, got %q", team.OrganizationID)
		}
	})

	t.Run("validates jira url", func(t *testing.T) {
		svc, _, _ := newTeamService(t)
		_, err := svc.CreateTeam(ctx, CreateTeamParams{CreatorIdentity: "admin", Name: "Ops", JiraURL: "acme.atlassian.net"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
