package conversation

import (
	"fmt"
	"strings"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/permission"
	"github.com/example/standup-bot/internal/persistence"
)

const (
	unrecognizedReply  = "I didn't understand that command. Type **/help** to see available commands."
	unidentifiedReply  = "❌ I couldn't tell who sent this message. Please try again from your chat client."
	registerFirstReply = "❌ Please register your organization first with **/register-org**"
)

const guestHelpReply = "**DevSync Standup Bot** 🤖\n\n" +
	"**Getting Started:**\n" +
	"• **/register-org** - Register your organization\n\n" +
	"Once registered, you can create teams, add users, and start daily standups!"

func organizationCreatedReply(r application.Registration) string {
	return "✅ **Organization Created!**\n\n" +
		"Organization: **" + r.Organization.Name + "**\n" +
		"Domain: **" + r.Organization.Domain + "**\n" +
		"Your Role: **" + string(r.Admin.Role) + "** 👑\n\n" +
		"You can now:\n" +
		"• **/create-team** - Create teams\n" +
		"• **/help** - See all commands"
}

func teamCreatedReply(team persistence.Team, role string) string {
	var b strings.Builder
	b.WriteString("✅ **Team Created!**\n\n")
	b.WriteString("Team: **" + team.Name + "**\n")
	if team.GitHubOrg != "" {
		b.WriteString("GitHub: **" + team.GitHubOrg + "**\n")
	}
	if team.JiraURL != "" {
		b.WriteString("Jira: **" + team.JiraURL + "**\n")
	}
	b.WriteString("Your Role: **" + role + "** 🎖️\n\n")
	b.WriteString("Next steps:\n")
	b.WriteString("• **/add-user** - Add team members\n")
	b.WriteString("• **standup** - Submit your first standup\n")
	b.WriteString("• **/help** - See all commands")
	return b.String()
}

func userAddedReply(user persistence.User, teamName string) string {
	var b strings.Builder
	b.WriteString("✅ **User Added Successfully!**\n\n")
	b.WriteString("Name: **" + user.Name + "**\n")
	b.WriteString("Email: **" + user.Email + "**\n")
	if teamName != "" {
		b.WriteString("Team: **" + teamName + "**\n")
	}
	if user.GitHubUsername != "" {
		b.WriteString("GitHub: **" + user.GitHubUsername + "** ✅\n")
	}
	if user.JiraEmail != "" {
		b.WriteString("Jira: **" + user.JiraEmail + "** ✅\n")
	}
	if strings.HasPrefix(user.Identity, application.PendingIdentityPrefix) {
		b.WriteString("Chat ID: _not linked yet_\n")
	}
	b.WriteString("Role: **" + string(user.Role) + "**")
	return b.String()
}

func standupIntroReply(work recentWork) string {
	var b strings.Builder
	b.WriteString("📝 **Daily Standup**\n")
	if len(work.commits) > 0 {
		b.WriteString("\n**📝 Your GitHub Commits (Last 24h):**\n")
		for _, c := range work.commits {
			b.WriteString(c + "\n")
		}
	}
	if len(work.issues) > 0 {
		b.WriteString("\n**🎫 Your Jira Issues:**\n")
		for _, i := range work.issues {
			b.WriteString(i + "\n")
		}
	}
	b.WriteString("\n" + yesterdayQuestion)
	return b.String()
}

func standupSubmittedReply(result application.StandupResult) string {
	heading := "**AI Summary:**"
	if !result.Generated {
		heading = "**Summary:**"
	}
	return "✅ **Standup Submitted!**\n\n" + heading + "\n" + result.Summary + "\n\nGreat work! 🎉"
}

func memberHelpReply(p application.Profile) string {
	actor := permission.ActorFromUser(p.User)
	var b strings.Builder
	b.WriteString("**DevSync Standup Bot** 🤖\n\n")
	b.WriteString("Organization: **" + p.Organization.Name + "**\n")
	b.WriteString("Your Role: **" + string(p.User.Role) + "**\n\n")
	b.WriteString("**Available Commands:**\n")
	if permission.CanCreateTeam(actor, p.Organization.ID) {
		b.WriteString("• **/create-team** - Create new team\n")
		b.WriteString("• **/org-status** - Today's standups across teams\n")
	}
	if p.Team != nil {
		if permission.CanAddUserToTeam(actor, permission.ScopeOf(*p.Team)) {
			b.WriteString("• **/add-user** - Add team member\n")
		}
		b.WriteString("• **standup** - Submit daily standup\n")
		b.WriteString("• **/team-status** - Who submitted today\n")
	}
	b.WriteString("• **/update-github** - Set your GitHub credentials\n")
	b.WriteString("• **/update-jira** - Set your Jira credentials\n")
	b.WriteString("• **/status** - View your profile\n")
	b.WriteString("• **/help** - Show this message\n")
	return b.String()
}

func profileReply(p application.Profile) string {
	var b strings.Builder
	b.WriteString("**Your Profile** 👤\n\n")
	b.WriteString("Name: **" + p.User.Name + "**\n")
	b.WriteString("Email: **" + p.User.Email + "**\n")
	b.WriteString("Organization: **" + p.Organization.Name + "**\n")
	b.WriteString("Role: **" + string(p.User.Role) + "**\n")
	if p.Team != nil {
		b.WriteString("Team: **" + p.Team.Name + "**\n")
	}
	if p.User.GitHubUsername != "" {
		b.WriteString("GitHub: **" + p.User.GitHubUsername + "** ✅\n")
	} else {
		b.WriteString("GitHub: ❌ _Not configured_\n")
	}
	if p.User.JiraEmail != "" {
		b.WriteString("Jira: **" + p.User.JiraEmail + "** ✅\n")
	} else {
		b.WriteString("Jira: ❌ _Not configured_\n")
	}
	return b.String()
}

func teamStatusReply(s application.TeamStatus) string {
	var b strings.Builder
	b.WriteString("📊 **Team Status: " + s.Team.Name + "**\n")
	b.WriteString("Date: **" + s.Date + "**\n\n")
	submitted := 0
	for _, m := range s.Members {
		mark := "⏳"
		if m.Submitted {
			mark = "✅"
			submitted++
		}
		b.WriteString(mark + " " + m.User.Name + "\n")
	}
	fmt.Fprintf(&b, "\nSubmitted: **%d/%d**", submitted, len(s.Members))
	return b.String()
}

func organizationStatusReply(s application.OrganizationStatus) string {
	var b strings.Builder
	b.WriteString("🏢 **Organization Status: " + s.Organization.Name + "**\n")
	b.WriteString("Date: **" + s.Date + "**\n\n")
	if len(s.Teams) == 0 {
		b.WriteString("No teams yet. Create one with **/create-team**.")
		return b.String()
	}
	for _, t := range s.Teams {
		fmt.Fprintf(&b, "• **%s**: %d/%d submitted\n", t.Team.Name, t.Submitted, t.Members)
	}
	return strings.TrimRight(b.String(), "\n")
}
