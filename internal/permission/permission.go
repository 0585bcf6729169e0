// Package permission decides what a directory user may do.
//
// Roles are modelled as capability sets rather than an ordered enum, so a new
// role only has to declare what it can do. Every predicate is pure and treats
// a nil actor as "deny".
package permission

import "github.com/example/standup-bot/internal/persistence"

// Capability is a single grant held by a role.
type Capability uint16

const (
	// ManageOrganization covers organization-wide administration: creating
	// teams and viewing the organization dashboard.
	ManageOrganization Capability = 1 << iota
	// ManageOrganizationTeams allows managing any team owned by the actor's organization.
	ManageOrganizationTeams
	// ViewOrganizationTeams allows viewing any team owned by the actor's organization.
	ViewOrganizationTeams
	// ManageLedTeam allows managing the team the actor is the recorded lead of.
	ManageLedTeam
	// ViewOwnTeam allows viewing the team the actor belongs to.
	ViewOwnTeam
	// SubmitStandup allows recording daily standups.
	SubmitStandup
)

var roleCapabilities = map[persistence.Role]Capability{
	persistence.RoleOrgAdmin: ManageOrganization | ManageOrganizationTeams | ViewOrganizationTeams |
		ManageLedTeam | ViewOwnTeam | SubmitStandup,
	persistence.RoleTeamLead: ManageLedTeam | ViewOwnTeam | SubmitStandup,
	persistence.RoleMember:   ViewOwnTeam | SubmitStandup,
}

// CapabilitiesOf returns the grants of role. Unknown roles hold nothing.
func CapabilitiesOf(role persistence.Role) Capability {
	return roleCapabilities[role]
}

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return want != 0 && c&want == want
}

// Actor is the identity a decision is made for.
type Actor struct {
	Identity       string
	Role           persistence.Role
	OrganizationID string
	TeamID         string
}

// ActorFromUser builds an actor from a stored user.
func ActorFromUser(user persistence.User) *Actor {
	return &Actor{
		Identity:       user.Identity,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		TeamID:         user.TeamID,
	}
}

// TeamScope identifies the team a decision targets.
type TeamScope struct {
	ID             string
	OrganizationID string
	LeadIdentity   string
}

// ScopeOf builds a team scope from a stored team.
func ScopeOf(team persistence.Team) TeamScope {
	return TeamScope{ID: team.ID, OrganizationID: team.OrganizationID, LeadIdentity: team.LeadIdentity}
}

func (a *Actor) can(want Capability) bool {
	return a != nil && a.Identity != "" && CapabilitiesOf(a.Role).Has(want)
}

func (a *Actor) inOrganization(organizationID string) bool {
	return organizationID != "" && a.OrganizationID == organizationID
}

// CanCreateTeam reports whether actor may create a team in organizationID.
func CanCreateTeam(actor *Actor, organizationID string) bool {
	return actor.can(ManageOrganization) && actor.inOrganization(organizationID)
}

// CanViewOrgDashboard reports whether actor may view organization-wide progress.
func CanViewOrgDashboard(actor *Actor, organizationID string) bool {
	return actor.can(ManageOrganization) && actor.inOrganization(organizationID)
}

// CanManageTeam reports whether actor may add or remove members of team or
// edit its configuration: organization administrators of the owning
// organization, or the recorded lead of that exact team.
func CanManageTeam(actor *Actor, team TeamScope) bool {
	if team.ID == "" {
		return false
	}
	if actor.can(ManageOrganizationTeams) && actor.inOrganization(team.OrganizationID) {
		return true
	}
	return actor.can(ManageLedTeam) && team.LeadIdentity != "" && actor.Identity == team.LeadIdentity
}

// CanAddUserToTeam is the check applied before onboarding a user into team.
func CanAddUserToTeam(actor *Actor, team TeamScope) bool {
	return CanManageTeam(actor, team)
}

// CanViewTeam reports whether actor may view team progress: organization
// administrators for their organization's teams, or any member of the team.
func CanViewTeam(actor *Actor, team TeamScope) bool {
	if team.ID == "" {
		return false
	}
	if actor.can(ViewOrganizationTeams) && actor.inOrganization(team.OrganizationID) {
		return true
	}
	return actor.can(ViewOwnTeam) && actor.TeamID == team.ID
}

// CanSubmitStandup reports whether actor may record a standup.
func CanSubmitStandup(actor *Actor) bool {
	return actor.can(SubmitStandup) && actor.TeamID != ""
}
