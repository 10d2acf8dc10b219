package messages

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
)

const (
	// Done is the acknowledgement sent when a command succeeds.
	Done = "Done."

	// ErrUserErrorProcessing is sent when a command fails for a reason the user cannot act on.
	ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

	// ErrNotInTicket is sent when a ticket command is used outside a ticket thread.
	ErrNotInTicket = "You must use this command within a ticket."

	// ErrQuarantineCloseForbidden is sent when a member tries to close their own quarantine ticket.
	ErrQuarantineCloseForbidden = "Only moderators may close quarantine tickets."

	// ErrAdministratorRequired is sent when a non-administrator uses a setup command.
	ErrAdministratorRequired = "You must be an administrator to use this command."

	// ErrModeratorRequired is sent when a member without moderation permissions uses a moderator command.
	ErrModeratorRequired = "You must be a moderator to use this command."

	// ErrGuildOnly is sent when a command is used outside a guild.
	ErrGuildOnly = "This command can only be used in a server."
)

const (
	greetingReport = "Thank you for opening a ticket. Please share your concerns and a response will be received " +
		"shortly. This ticket will be closed after 24 hours of inactivity."

	greetingQuarantine = "You have been temporarily quarantined for breaking server rules. Moderation will be with " +
		"you shortly."

	greetingRegular = "Server moderation has started a private conversation with you in this thread."
)

// Greeting is the message a member receives in a new ticket thread.
func Greeting(typ entities.TicketType) string {
	switch typ {
	case entities.TicketTypeReport:
		return greetingReport
	case entities.TicketTypeQuarantine:
		return greetingQuarantine
	default:
		return greetingRegular
	}
}

// NotConfigured is sent when a ticket is opened in a guild that is missing a setting.
func NotConfigured(setting entities.Setting) string {
	if setting == entities.SettingQuarantineRole {
		return "Quarantine role not set."
	}
	// Channel settings read "Alert channel not configured".
	s := string(setting)
	if s == "" {
		return "Tickets are not configured."
	}
	return strings.ToUpper(s[:1]) + s[1:] + " not configured"
}

// Mention formats a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention formats a role mention.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// Alert is the message sent to moderators when a ticket is opened.
func Alert(alertRoleID, memberID string, typ entities.TicketType, threadURL string) string {
	return fmt.Sprintf("%s A %s ticket for %s has been opened: %s", RoleMention(alertRoleID), typ, Mention(memberID), threadURL)
}

// ThreadGreeting is the first message in a ticket thread. Mentioning the member adds them to the thread.
func ThreadGreeting(memberID string, typ entities.TicketType) string {
	return Mention(memberID) + "\n" + Greeting(typ)
}
