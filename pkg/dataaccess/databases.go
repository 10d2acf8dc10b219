package dataaccess

import (
	"context"
	"errors"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "wardenbot"

const guildsCollection = "guilds"

var (
	// ErrNotFound is returned when a guild or thread has no stored record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned when an ID is not a snowflake.
	ErrInvalidID = errors.New("invalid id")
)

// TicketStore is the persistent per-guild ticket configuration.
//
// Every mutation is atomic for the guild it touches, so concurrent ticket transitions never lose an update.
type TicketStore interface {
	// GetSettings gets the settings of a guild.
	GetSettings(ctx context.Context, guildID string) (*entities.GuildSettings, error)

	// SetIntakeChannel sets the channel ticket threads are created under.
	SetIntakeChannel(ctx context.Context, guildID, channelID string) error

	// SetAlertChannel sets the channel moderators are alerted in.
	SetAlertChannel(ctx context.Context, guildID, channelID string) error

	// SetAlertRole sets the role mentioned on alerts.
	SetAlertRole(ctx context.Context, guildID, roleID string) error

	// SetQuarantineRole sets the role given to quarantined members.
	SetQuarantineRole(ctx context.Context, guildID, roleID string) error

	// UpsertTicket saves the record of a thread.
	UpsertTicket(ctx context.Context, guildID, threadID string, record *entities.TicketRecord) error

	// MarkClosed marks the ticket of a thread as closed. It returns the record as it was before the
	// change and the guild settings after it.
	MarkClosed(ctx context.Context, guildID, threadID string) (*entities.TicketRecord, *entities.GuildSettings, error)

	// ListGuildsWithOpenReportTickets lists the guilds that have at least one open report ticket.
	ListGuildsWithOpenReportTickets(ctx context.Context) ([]*entities.GuildSettings, error)
}

func validateIDs(ids ...string) error {
	for _, id := range ids {
		if !entities.ValidSnowflake(id) {
			return ErrInvalidID
		}
	}
	return nil
}
