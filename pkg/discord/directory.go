package discord

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
)

// channel gets a channel from the state, falling back to the REST API.
func (c *Client) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c.s.State != nil {
		if ch, err := c.s.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return c.fetchChannel(ctx, channelID)
}

// fetchChannel gets a channel from the REST API.
func (c *Client) fetchChannel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	var ch *discordgo.Channel
	err := c.call(ctx, "channel", func() (err error) {
		ch, err = c.s.Channel(channelID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error getting channel %s: %w", channelID, err)
	}
	return ch, nil
}

func (c *Client) ResolveChannel(ctx context.Context, guildID, channelID string) error {
	ch, err := c.channel(ctx, channelID)
	if err != nil {
		return err
	}
	if ch.GuildID != guildID {
		return fmt.Errorf("channel %s is not in guild %s: %w", channelID, guildID, ticketing.ErrNotFound)
	}
	return nil
}

func (c *Client) ResolveRole(ctx context.Context, guildID, roleID string) error {
	if c.s.State != nil {
		if _, err := c.s.State.Role(guildID, roleID); err == nil {
			return nil
		}
	}

	var roles []*discordgo.Role
	err := c.call(ctx, "guild_roles", func() (err error) {
		roles, err = c.s.GuildRoles(guildID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error getting roles: %w", err)
	}

	for _, r := range roles {
		if r.ID == roleID {
			return nil
		}
	}
	return fmt.Errorf("role %s: %w", roleID, ticketing.ErrNotFound)
}

func (c *Client) Member(ctx context.Context, guildID, memberID string) (*ticketing.Member, error) {
	var m *discordgo.Member
	err := c.call(ctx, "guild_member", func() (err error) {
		m, err = c.s.GuildMember(guildID, memberID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error getting member %s: %w", memberID, err)
	}

	return &ticketing.Member{
		ID:          memberID,
		DisplayName: displayName(m),
	}, nil
}

// Thread always asks the REST API, as the state does not track the last message of a thread.
func (c *Client) Thread(ctx context.Context, guildID, threadID string) (*ticketing.Thread, error) {
	ch, err := c.fetchChannel(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if ch.GuildID != guildID || !ch.IsThread() {
		return nil, fmt.Errorf("thread %s: %w", threadID, ticketing.ErrNotFound)
	}
	return toThread(ch)
}

func (c *Client) SetChannelVisibility(ctx context.Context, channelID, memberID string, visible bool) error {
	// The overwrites must be current, so the state is not used.
	ch, err := c.fetchChannel(ctx, channelID)
	if err != nil {
		return err
	}

	existing := memberOverwrite(ch, memberID)
	allow, deny, empty := visibilityOverwrite(existing, visible)

	switch {
	case empty && existing == nil:
		return nil
	case empty:
		err = c.call(ctx, "channel_permission_delete", func() error {
			return c.s.ChannelPermissionDelete(channelID, memberID)
		})
	default:
		err = c.call(ctx, "channel_permission_set", func() error {
			return c.s.ChannelPermissionSet(channelID, memberID, discordgo.PermissionOverwriteTypeMember, allow, deny)
		})
	}
	if err != nil {
		return fmt.Errorf("error setting channel permissions: %w", err)
	}
	return nil
}

func (c *Client) CreateThread(ctx context.Context, guildID, channelID, name string) (*ticketing.Thread, error) {
	var ch *discordgo.Channel
	err := c.call(ctx, "thread_start", func() (err error) {
		ch, err = c.s.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPrivateThread, threadArchiveDuration)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error starting thread: %w", err)
	}
	if ch.GuildID == "" {
		ch.GuildID = guildID
	}
	return toThread(ch)
}

func (c *Client) AddThreadMember(ctx context.Context, threadID, memberID string) error {
	return c.call(ctx, "thread_member_add", func() error {
		return c.s.ThreadMemberAdd(threadID, memberID)
	})
}

func (c *Client) RemoveThreadMember(ctx context.Context, threadID, memberID string) error {
	return c.call(ctx, "thread_member_remove", func() error {
		return c.s.ThreadMemberRemove(threadID, memberID)
	})
}

func (c *Client) AddRole(ctx context.Context, guildID, memberID, roleID string) error {
	return c.call(ctx, "guild_member_role_add", func() error {
		return c.s.GuildMemberRoleAdd(guildID, memberID, roleID)
	})
}

func (c *Client) RemoveRole(ctx context.Context, guildID, memberID, roleID string) error {
	return c.call(ctx, "guild_member_role_remove", func() error {
		return c.s.GuildMemberRoleRemove(guildID, memberID, roleID)
	})
}

func toThread(ch *discordgo.Channel) (*ticketing.Thread, error) {
	at, err := lastActivity(ch)
	if err != nil {
		return nil, fmt.Errorf("error getting last activity of thread %s: %w", ch.ID, err)
	}
	return &ticketing.Thread{
		ID:           ch.ID,
		GuildID:      ch.GuildID,
		ParentID:     ch.ParentID,
		Name:         ch.Name,
		LastActivity: at,
	}, nil
}
