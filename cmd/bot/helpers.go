package main

import (
	"errors"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
)

const (
	// permissionManageGuild is the manage server permission.
	permissionManageGuild int64 = 1 << 5

	// permissionModerateMembers is the timeout members permission.
	permissionModerateMembers int64 = 1 << 40
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondSlashEphemeral(a, i, messages.ErrUserErrorProcessing)
}

func respondSlashEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferSlashEphemeral acknowledges the interaction. The user sees the bot thinking until the followup is sent.
func deferSlashEphemeral(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// followupSlashEphemeral replies to a deferred interaction.
func followupSlashEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	_, err := a.Session().FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	})
	return err
}

// userMessage is the reply for a command that returned an error.
func userMessage(err error) string {
	cfgErr := new(ticketing.ConfigError)
	sideEffectErr := new(ticketing.SideEffectError)

	switch {
	case err == nil, errors.As(err, &sideEffectErr):
		// The ticket changed; the failed side effects are for the logs.
		return messages.Done
	case errors.As(err, &cfgErr):
		return messages.NotConfigured(cfgErr.Setting)
	case errors.Is(err, ticketing.ErrNotConfigured):
		return messages.NotConfigured("")
	case errors.Is(err, ticketing.ErrNoSuchTicket):
		return messages.ErrNotInTicket
	default:
		return messages.ErrUserErrorProcessing
	}
}

// hasPermission checks the member that used the command has any of the permissions.
func hasPermission(i *discordgo.InteractionCreate, perms ...int64) bool {
	if i.Member == nil {
		return false
	}
	for _, p := range perms {
		if i.Member.Permissions&p == p {
			return true
		}
	}
	return false
}

// subCommand walks down the sub command groups to the sub command that was used. It returns the names on the way and
// the options of the sub command.
func subCommand(opts []*discordgo.ApplicationCommandInteractionDataOption) ([]string, []*discordgo.ApplicationCommandInteractionDataOption) {
	var path []string
	for len(opts) == 1 {
		o := opts[0]
		if o.Type != discordgo.ApplicationCommandOptionSubCommandGroup && o.Type != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		path = append(path, o.Name)
		opts = o.Options
	}
	return path, opts
}

// optionValues maps the options of a sub command by name.
func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	values := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		values[o.Name] = o
	}
	return values
}

// optionID gets the ID held by a channel, role or user option. The option holds the ID as a string.
func optionID(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	o, ok := opts[name]
	if !ok {
		return ""
	}
	id, _ := o.Value.(string)
	return id
}

// optionString gets the value of a string option.
func optionString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	o, ok := opts[name]
	if !ok {
		return ""
	}
	return o.StringValue()
}
