package main

import (
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
)

// guildRegistrar registers the slash commands of a guild.
type guildRegistrar interface {
	IApp
	registerSlashCommands(guildID string) error
}

func guildJoinedHandler(a guildRegistrar) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Unavailable {
			return
		}

		a.Log().Info(fmt.Sprintf("Joined guild %s", g.Name), slog.String(logging.KeyGuild, g.ID))

		// Increment the total number of guilds.
		TotalDiscordGuilds.Inc()

		// Guild create is sent for every guild on connect, so the commands are kept up to date on every restart.
		if err := a.registerSlashCommands(g.ID); err != nil {
			a.Log().Error("Error registering slash commands",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		// An unavailable guild is an outage, not the bot leaving.
		if g.Unavailable {
			return
		}

		a.Log().Info("Left guild", slog.String(logging.KeyGuild, g.ID))

		// Decrement the total number of guilds.
		TotalDiscordGuilds.Dec()
	}
}
