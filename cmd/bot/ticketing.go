package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
)

const (
	// TicketsCmdName is the command for members.
	TicketsCmdName = "tickets"

	// ModTicketsCmdName is the command for moderators.
	ModTicketsCmdName = "modtickets"

	// ReportCmdName is the sub command for opening a report ticket.
	ReportCmdName = "report"

	// CloseCmdName is the sub command for closing a ticket.
	CloseCmdName = "close"

	// QuarantineCmdName is the sub command for quarantining a member.
	QuarantineCmdName = "quarantine"

	// SidechatCmdName is the sub command for opening a private conversation with a member.
	SidechatCmdName = "sidechat"

	// ReopenCmdName is the sub command for reopening a ticket.
	ReopenCmdName = "reopen"
)

const (
	threadOptionName  = "thread"
	messageOptionName = "message"
	memberOptionName  = "member"
)

var (
	// threadChannelTypes limits thread options to ticket threads.
	threadChannelTypes = []discordgo.ChannelType{
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildPublicThread,
	}

	// moderatorPermissions is needed to see the moderator command.
	moderatorPermissions = permissionModerateMembers

	// guildOnly hides the commands in direct messages.
	guildOnly = false
)

var (
	// ticketsCmd is the command for controlling tickets.
	ticketsCmd = &discordgo.ApplicationCommand{
		Name:         TicketsCmdName,
		Type:         discordgo.ChatApplicationCommand,
		Description:  "The suite for ticket commands.",
		DMPermission: &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			setupCmdGroup,
			{
				Name:        ReportCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Open a ticket to talk to the moderators.",
			},
			{
				Name:        CloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Close a ticket. Defaults to the ticket the command is used in.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         threadOptionName,
						Type:         discordgo.ApplicationCommandOptionChannel,
						Description:  "The ticket to close.",
						ChannelTypes: threadChannelTypes,
					},
					{
						Name:        messageOptionName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "A message sent to the member when the ticket is closed.",
					},
				},
			},
		},
	}

	// modTicketsCmd is the command for moderators.
	modTicketsCmd = &discordgo.ApplicationCommand{
		Name:                     ModTicketsCmdName,
		Type:                     discordgo.ChatApplicationCommand,
		Description:              "The suite for moderator ticket commands.",
		DefaultMemberPermissions: &moderatorPermissions,
		DMPermission:             &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        QuarantineCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Quarantine a member and open a ticket with them.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        memberOptionName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "The member to quarantine.",
						Required:    true,
					},
				},
			},
			{
				Name:        SidechatCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Open a private ticket with a member.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        memberOptionName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "The member to talk to.",
						Required:    true,
					},
				},
			},
			{
				Name:        ReopenCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Reopen a closed ticket. Defaults to the ticket the command is used in.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         threadOptionName,
						Type:         discordgo.ApplicationCommandOptionChannel,
						Description:  "The ticket to reopen.",
						ChannelTypes: threadChannelTypes,
					},
				},
			},
		},
	}

	// slashCommands are the commands registered in every guild.
	slashCommands = []*discordgo.ApplicationCommand{
		ticketsCmd,
		modTicketsCmd,
	}
)

func ticketsCmdController(_ IApp, i *discordgo.InteractionCreate) (slashProcessor, error) {
	path, _ := subCommand(i.ApplicationCommandData().Options)
	if len(path) == 0 {
		return nil, errors.New("no sub command given")
	}

	switch path[0] {
	case SetupCmdGroupName:
		return setupCmdController(path[1:], i)
	case ReportCmdName:
		return reportCmdProcessor, nil
	case CloseCmdName:
		return closeCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", path[0])
	}
}

func modTicketsCmdController(_ IApp, i *discordgo.InteractionCreate) (slashProcessor, error) {
	// Discord hides the command from members without the permission, but guild admins can change who sees it.
	if !hasPermission(i, permissionModerateMembers, discordgo.PermissionAdministrator) {
		return rejectProcessor(messages.ErrModeratorRequired), nil
	}

	path, _ := subCommand(i.ApplicationCommandData().Options)
	if len(path) == 0 {
		return nil, errors.New("no sub command given")
	}

	switch path[0] {
	case QuarantineCmdName:
		return openForMemberProcessor(entities.TicketTypeQuarantine), nil
	case SidechatCmdName:
		return openForMemberProcessor(entities.TicketTypeRegular), nil
	case ReopenCmdName:
		return reopenCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", path[0])
	}
}

// rejectProcessor replies with the message and does nothing else.
func rejectProcessor(content string) slashProcessor {
	return func(context.Context, IApp, *discordgo.InteractionCreate) (string, error) {
		return content, nil
	}
}

// reportCmdProcessor opens a report ticket for the member using the command.
func reportCmdProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	if _, err := a.Tickets().Open(ctx, i.GuildID, i.Member.User.ID, entities.TicketTypeReport); err != nil {
		return "", fmt.Errorf("error opening report ticket: %w", err)
	}
	return messages.Done, nil
}

// openForMemberProcessor opens a ticket of the type for the member given in the command.
func openForMemberProcessor(typ entities.TicketType) slashProcessor {
	return func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
		_, opts := subCommand(i.ApplicationCommandData().Options)
		memberID := optionID(optionValues(opts), memberOptionName)
		if memberID == "" {
			return "", fmt.Errorf("no %s given", memberOptionName)
		}

		if _, err := a.Tickets().Open(ctx, i.GuildID, memberID, typ); err != nil {
			return "", fmt.Errorf("error opening %s ticket: %w", typ, err)
		}
		return messages.Done, nil
	}
}

// closeCmdProcessor closes the given ticket, or the ticket the command is used in.
func closeCmdProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	_, opts := subCommand(i.ApplicationCommandData().Options)
	values := optionValues(opts)

	threadID := optionID(values, threadOptionName)
	if threadID == "" {
		threadID = i.ChannelID
	}

	err := a.Tickets().Close(ctx, ticketing.CloseRequest{
		GuildID:  i.GuildID,
		ThreadID: threadID,
		ActorID:  i.Member.User.ID,
		Message:  optionString(values, messageOptionName),
	})
	return closeReply(err)
}

// closeReply is the reply for a close. A member closing their own quarantine ticket is told why it was refused.
func closeReply(err error) (string, error) {
	sideEffectErr := new(ticketing.SideEffectError)
	if errors.Is(err, ticketing.ErrForbidden) && !errors.As(err, &sideEffectErr) {
		return messages.ErrQuarantineCloseForbidden, nil
	} else if err != nil {
		return "", fmt.Errorf("error closing ticket: %w", err)
	}
	return messages.Done, nil
}

// reopenCmdProcessor reopens the given ticket, or the ticket the command is used in.
func reopenCmdProcessor(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	_, opts := subCommand(i.ApplicationCommandData().Options)

	threadID := optionID(optionValues(opts), threadOptionName)
	if threadID == "" {
		threadID = i.ChannelID
	}

	if err := a.Tickets().Reopen(ctx, i.GuildID, threadID); err != nil {
		return "", fmt.Errorf("error reopening ticket: %w", err)
	}
	return messages.Done, nil
}
