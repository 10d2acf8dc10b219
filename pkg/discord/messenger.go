package discord

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// allowedMentions lets ticket messages ping the member and the alert role, and nothing else.
var allowedMentions = &discordgo.MessageAllowedMentions{
	Parse: []discordgo.AllowedMentionType{
		discordgo.AllowedMentionTypeRoles,
		discordgo.AllowedMentionTypeUsers,
	},
}

func (c *Client) Send(ctx context.Context, channelID, content string) error {
	err := c.call(ctx, "channel_message_send", func() error {
		_, err := c.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         content,
			AllowedMentions: allowedMentions,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func (c *Client) SendDirect(ctx context.Context, userID, content string) error {
	var dm *discordgo.Channel
	err := c.call(ctx, "user_channel_create", func() (err error) {
		dm, err = c.s.UserChannelCreate(userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error creating direct message channel: %w", err)
	}

	err = c.call(ctx, "channel_message_send", func() error {
		_, err := c.s.ChannelMessageSend(dm.ID, content)
		return err
	})
	if err != nil {
		return fmt.Errorf("error sending direct message: %w", err)
	}
	return nil
}
