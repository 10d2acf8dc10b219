package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const guildDalName = "guild_dal"

type mongoTicketStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client

	// timeout bounds every query.
	timeout time.Duration
}

// NewMongoTicketStore creates a ticket store backed by MongoDB.
func NewMongoTicketStore(l *slog.Logger, client *mongo.Client) TicketStore {
	l = l.With(slog.String(logging.KeyDal, guildDalName))

	if client == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &mongoTicketStore{
		l:       l,
		client:  client,
		timeout: 10 * time.Second,
	}
}

func (m *mongoTicketStore) collection() *mongo.Collection {
	return m.client.Database(mongoDatabase).Collection(guildsCollection)
}

// observe starts the prometheus metrics for a query. The returned function must be called when the query is done.
func (m *mongoTicketStore) observe(dal, query string) func() {
	monitoring.MongoTotalRequests.WithLabelValues(dal, query, mongoDatabase, guildsCollection).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(dal, query, mongoDatabase, guildsCollection))
	return func() { t.ObserveDuration() }
}

func (m *mongoTicketStore) GetSettings(ctx context.Context, guildID string) (*entities.GuildSettings, error) {
	defer m.observe(guildDalName, "get_settings")()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	guild := new(entities.GuildSettings)
	err := m.collection().FindOne(ctx, bson.M{"id": guildID}).Decode(guild)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("guild %s: %w", guildID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild: %w", err)
	}

	if guild.Threads == nil {
		guild.Threads = make(map[string]*entities.TicketRecord)
	}
	return guild, nil
}

func (m *mongoTicketStore) SetIntakeChannel(ctx context.Context, guildID, channelID string) error {
	return m.setField(ctx, "set_intake_channel", guildID, "intake_channel_id", channelID)
}

func (m *mongoTicketStore) SetAlertChannel(ctx context.Context, guildID, channelID string) error {
	return m.setField(ctx, "set_alert_channel", guildID, "alert_channel_id", channelID)
}

func (m *mongoTicketStore) SetAlertRole(ctx context.Context, guildID, roleID string) error {
	return m.setField(ctx, "set_alert_role", guildID, "alert_role_id", roleID)
}

func (m *mongoTicketStore) SetQuarantineRole(ctx context.Context, guildID, roleID string) error {
	return m.setField(ctx, "set_quarantine_role", guildID, "quarantine_role_id", roleID)
}

// setField upserts a single scalar setting. The guild document is created on the first write.
func (m *mongoTicketStore) setField(ctx context.Context, query, guildID, field, value string) error {
	if err := validateIDs(guildID, value); err != nil {
		return err
	}

	defer m.observe(guildDalName, query)()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := m.collection().UpdateOne(ctx,
		bson.M{"id": guildID},
		bson.M{
			"$set":         bson.M{field: value},
			"$setOnInsert": bson.M{"threads": bson.M{}},
		},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error updating guild: %w", err)
	}
	return nil
}
