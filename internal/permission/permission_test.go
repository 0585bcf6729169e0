package permission

import (
	"testing"

	"github.com/example/standup-bot/internal/persistence"
)

func TestCapabilities(t *testing.T) {
	if !CapabilitiesOf(persistence.RoleOrgAdmin).Has(ManageOrganization | ManageLedTeam) {
		t.Fatal("expected org admin to hold organization and lead capabilities")
	}
	if CapabilitiesOf(persistence.RoleTeamLead).Has(ManageOrganization) {
		t.Fatal("expected team lead to lack organization management")
	}
	if CapabilitiesOf(persistence.RoleMember).Has(ManageLedTeam) {
		t.Fatal("expected member to lack team management")
	}
	if CapabilitiesOf("SUPERUSER") != 0 {
		t.Fatal("expected unknown role to hold nothing")
	}
	if Capability(0xFFFF).Has(0) {
		t.Fatal("expected the empty capability set to never be granted")
	}
}

func TestCanCreateTeam(t *testing.T) {
	admin := &Actor{Identity: "A", Role: persistence.RoleOrgAdmin, OrganizationID: "org-1"}
	lead := &Actor{Identity: "L", Role: persistence.RoleTeamLead, OrganizationID: "org-1", TeamID: "team-1"}

	cases := []struct {
		name  string
		actor *Actor
		org   string
		want  bool
	}{
		{"admin of the organization", admin, "org-1", true},
		{"admin of another organization", admin, "org-2", false},
		{"team lead", lead, "org-1", false},
		{"nil actor", nil, "org-1", false},
		{"empty organization", admin, "", false},
		{"actor without identity", &Actor{Role: persistence.RoleOrgAdmin, OrganizationID: "org-1"}, "org-1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanCreateTeam(tc.actor, tc.org); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if got := CanViewOrgDashboard(tc.actor, tc.org); got != tc.want {
				t.Fatalf("expected dashboard %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanManageTeam(t *testing.T) {
	team := TeamScope{ID: "team-1", OrganizationID: "org-1", LeadIdentity: "L"}

	cases := []struct {
		name  string
		actor *Actor
		team  TeamScope
		want  bool
	}{
		{"admin of owning organization", &Actor{Identity: "A", Role: persistence.RoleOrgAdmin, OrganizationID: "org-1"}, team, true},
		{"admin of another organization", &Actor{Identity: "A2", Role: persistence.RoleOrgAdmin, OrganizationID: "org-2"}, team, false},
		{"recorded lead", &Actor{Identity: "L", Role: persistence.RoleTeamLead, OrganizationID: "org-1", TeamID: "team-1"}, team, true},
		{"lead of a different team", &Actor{Identity: "L2", Role: persistence.RoleTeamLead, OrganizationID: "org-1", TeamID: "team-2"}, team, false},
		{"member recorded as lead lacks the capability", &Actor{Identity: "L", Role: persistence.RoleMember, OrganizationID: "org-1", TeamID: "team-1"}, team, false},
		{"plain member", &Actor{Identity: "M", Role: persistence.RoleMember, OrganizationID: "org-1", TeamID: "team-1"}, team, false},
		{"nil actor", nil, team, false},
		{"missing team", &Actor{Identity: "A", Role: persistence.RoleOrgAdmin, OrganizationID: "org-1"}, TeamScope{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanManageTeam(tc.actor, tc.team); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if got := CanAddUserToTeam(tc.actor, tc.team); got != tc.want {
				t.Fatalf("expected add-user %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanViewTeam(t *testing.T) {
	team := TeamScope{ID: "team-1", OrganizationID: "org-1", LeadIdentity: "L"}

	cases := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{"admin of owning organization", &Actor{Identity: "A", Role: persistence.RoleOrgAdmin, OrganizationID: "org-1"}, true},
		{"admin of another organization", &Actor{Identity: "A", Role: persistence.RoleOrgAdmin, OrganizationID: "org-2"}, false},
		{"member of the team", &Actor{Identity: "M", Role: persistence.RoleMember, OrganizationID: "org-1", TeamID: "team-1"}, true},
		{"lead of the team", &Actor{Identity: "L", Role: persistence.RoleTeamLead, OrganizationID: "org-1", TeamID: "team-1"}, true},
		{"member of another team", &Actor{Identity: "M2", Role: persistence.RoleMember, OrganizationID: "org-1", TeamID: "team-2"}, false},
		{"nil actor", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewTeam(tc.actor, team); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanSubmitStandup(t *testing.T) {
	if CanSubmitStandup(nil) {
		t.Fatal("expected nil actor to be denied")
	}
	if CanSubmitStandup(&Actor{Identity: "M", Role: persistence.RoleMember}) {
		t.Fatal("expected team-less member to be denied")
	}
	if !CanSubmitStandup(ActorFromUser(persistence.User{Identity: "M", Role: persistence.RoleMember, TeamID: "team-1"})) {
		t.Fatal("expected team member to be allowed")
	}
}
