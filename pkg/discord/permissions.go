package discord

import (
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// memberOverwrite finds the permission overwrite of a member on a channel.
func memberOverwrite(ch *discordgo.Channel, memberID string) *discordgo.PermissionOverwrite {
	for _, o := range ch.PermissionOverwrites {
		if o.Type == discordgo.PermissionOverwriteTypeMember && o.ID == memberID {
			return o
		}
	}
	return nil
}

// visibilityOverwrite works out a member overwrite after the view permission is granted or cleared. Other permissions
// in the overwrite are kept. Clearing leaves the view permission to the roles of the member.
//
// empty is set when nothing is left in the overwrite and it should be deleted.
func visibilityOverwrite(existing *discordgo.PermissionOverwrite, visible bool) (allow, deny int64, empty bool) {
	if existing != nil {
		allow, deny = existing.Allow, existing.Deny
	}

	if visible {
		allow |= discordgo.PermissionViewChannel
	} else {
		allow &^= discordgo.PermissionViewChannel
	}
	deny &^= discordgo.PermissionViewChannel

	return allow, deny, allow == 0 && deny == 0
}

// lastActivity is the time of the last message in a thread. A thread with no messages uses the time it was created.
func lastActivity(ch *discordgo.Channel) (time.Time, error) {
	id := ch.LastMessageID
	if id == "" {
		id = ch.ID
	}
	return discordgo.SnowflakeTimestamp(id)
}

// displayName is the name the member is shown with in the guild.
func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}
