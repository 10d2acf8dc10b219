package ticketing

import (
	"context"
	"time"
)

// Member is a guild member as seen by the ticket service.
type Member struct {
	// ID is the ID of the member.
	ID string

	// DisplayName is the name the member is shown with in the guild.
	DisplayName string
}

// Thread is a ticket thread.
type Thread struct {
	// ID is the ID of the thread.
	ID string

	// GuildID is the ID of the guild the thread is in.
	GuildID string

	// ParentID is the ID of the channel the thread was created under.
	ParentID string

	// Name is the name of the thread.
	Name string

	// LastActivity is the time of the last message in the thread, or the creation time of the thread when it has
	// no messages.
	LastActivity time.Time
}

// URL is the link to the thread.
func (t *Thread) URL() string {
	return "https://discord.com/channels/" + t.GuildID + "/" + t.ID
}

// Directory resolves and mutates guild entities by ID. Entities are looked up on every call and never cached by the
// ticket service.
//
// Implementations return an error wrapping ErrNotFound when an entity does not exist, and ErrForbidden when the bot is
// not allowed to perform the change.
type Directory interface {
	// ResolveChannel checks that a channel exists in the guild.
	ResolveChannel(ctx context.Context, guildID, channelID string) error

	// ResolveRole checks that a role exists in the guild.
	ResolveRole(ctx context.Context, guildID, roleID string) error

	// Member gets a member of the guild.
	Member(ctx context.Context, guildID, memberID string) (*Member, error)

	// Thread gets a thread of the guild.
	Thread(ctx context.Context, guildID, threadID string) (*Thread, error)

	// SetChannelVisibility grants or revokes the member's permission to view a channel.
	SetChannelVisibility(ctx context.Context, channelID, memberID string, visible bool) error

	// CreateThread creates a private thread under a channel.
	CreateThread(ctx context.Context, guildID, channelID, name string) (*Thread, error)

	// AddThreadMember adds a member to a thread.
	AddThreadMember(ctx context.Context, threadID, memberID string) error

	// RemoveThreadMember removes a member from a thread.
	RemoveThreadMember(ctx context.Context, threadID, memberID string) error

	// AddRole gives a member a role.
	AddRole(ctx context.Context, guildID, memberID, roleID string) error

	// RemoveRole takes a role from a member.
	RemoveRole(ctx context.Context, guildID, memberID, roleID string) error
}

// Messenger delivers messages. Implementations return an error wrapping ErrDeliveryRefused when the recipient does
// not accept messages.
type Messenger interface {
	// Send sends a message to a channel or thread.
	Send(ctx context.Context, channelID, content string) error

	// SendDirect sends a direct message to a user.
	SendDirect(ctx context.Context, userID, content string) error
}
