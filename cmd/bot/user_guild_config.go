package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
)

const (
	// SetupCmdGroupName is the group for all configuration commands.
	SetupCmdGroupName = "setup"

	// setTicketChannelCmdName sets the channel ticket threads are created in.
	setTicketChannelCmdName = "set-ticket-channel"

	// setAlertChannelCmdName sets the channel moderators are alerted in.
	setAlertChannelCmdName = "set-alert-channel"

	// setAlertRoleCmdName sets the role pinged on alerts.
	setAlertRoleCmdName = "set-alert-role"

	// setQuarantineRoleCmdName sets the role given to quarantined members.
	setQuarantineRoleCmdName = "set-quarantine-role"

	// channelOptionName is the text for the channel option.
	channelOptionName = "channel"

	// roleOptionName is the text for the role option.
	roleOptionName = "role"
)

// setupCmdGroup is the group for all configuration commands.
var setupCmdGroup = &discordgo.ApplicationCommandOption{
	Name:        SetupCmdGroupName,
	Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
	Description: "Configure tickets for this server.",
	Options: []*discordgo.ApplicationCommandOption{
		channelSetupCmd(setTicketChannelCmdName, "Set the channel ticket threads are created in."),
		channelSetupCmd(setAlertChannelCmdName, "Set the channel moderators are alerted in."),
		roleSetupCmd(setAlertRoleCmdName, "Set the moderator role to ping on alerts."),
		roleSetupCmd(setQuarantineRoleCmdName, "Set the role given to quarantined members."),
	},
}

func channelSetupCmd(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         channelOptionName,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The text channel.",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	}
}

func roleSetupCmd(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        roleOptionName,
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "The role.",
				Required:    true,
			},
		},
	}
}

// settingSetter stores one guild setting.
type settingSetter func(s dataaccess.TicketStore, ctx context.Context, guildID, id string) error

func setupCmdController(path []string, i *discordgo.InteractionCreate) (slashProcessor, error) {
	// Ensure the user is an administrator.
	if !hasPermission(i, discordgo.PermissionAdministrator, permissionManageGuild) {
		return rejectProcessor(messages.ErrAdministratorRequired), nil
	}

	if len(path) == 0 {
		return nil, fmt.Errorf("no setup command given")
	}

	switch path[0] {
	case setTicketChannelCmdName:
		return setupProcessor(entities.SettingIntakeChannel, channelOptionName, dataaccess.TicketStore.SetIntakeChannel), nil
	case setAlertChannelCmdName:
		return setupProcessor(entities.SettingAlertChannel, channelOptionName, dataaccess.TicketStore.SetAlertChannel), nil
	case setAlertRoleCmdName:
		return setupProcessor(entities.SettingAlertRole, roleOptionName, dataaccess.TicketStore.SetAlertRole), nil
	case setQuarantineRoleCmdName:
		return setupProcessor(entities.SettingQuarantineRole, roleOptionName, dataaccess.TicketStore.SetQuarantineRole), nil
	default:
		return nil, fmt.Errorf("unhandled setup command %s", path[0])
	}
}

// setupProcessor stores the channel or role given in the option as the setting.
func setupProcessor(setting entities.Setting, option string, set settingSetter) slashProcessor {
	return func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
		_, opts := subCommand(i.ApplicationCommandData().Options)

		id := optionID(optionValues(opts), option)
		if id == "" {
			return "", fmt.Errorf("no %s given", option)
		}

		if err := set(a.Store(), ctx, i.GuildID, id); err != nil {
			return "", fmt.Errorf("error saving %s: %w", setting, err)
		}
		return messages.Done, nil
	}
}
