package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

// threadPath is the document path of a thread record. IDs are validated before they get here.
func threadPath(threadID string) string {
	return "threads." + threadID
}

func (m *mongoTicketStore) UpsertTicket(ctx context.Context, guildID, threadID string, record *entities.TicketRecord) error {
	if err := validateIDs(guildID, threadID); err != nil {
		return err
	} else if record == nil {
		return errors.New("ticket record is nil")
	}

	defer m.observe(ticketDalName, "upsert_ticket")()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// A single $set on the thread path is atomic with any other update of the same guild document.
	opts := options.Update().SetUpsert(true)
	_, err := m.collection().UpdateOne(ctx,
		bson.M{"id": guildID},
		bson.M{"$set": bson.M{threadPath(threadID): record}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (m *mongoTicketStore) MarkClosed(ctx context.Context, guildID, threadID string) (*entities.TicketRecord, *entities.GuildSettings, error) {
	if err := validateIDs(guildID, threadID); err != nil {
		return nil, nil, err
	}

	defer m.observe(ticketDalName, "mark_closed")()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	closedAt := time.Now().UTC()
	path := threadPath(threadID)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	before := new(entities.GuildSettings)
	err := m.collection().FindOneAndUpdate(ctx,
		bson.M{"id": guildID, path: bson.M{"$exists": true}},
		bson.M{"$set": bson.M{
			path + ".open":      false,
			path + ".closed_at": closedAt,
		}},
		opts,
	).Decode(before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("thread %s in guild %s: %w", threadID, guildID, ErrNotFound)
	} else if err != nil {
		return nil, nil, fmt.Errorf("error closing ticket: %w", err)
	}

	record := before.Ticket(threadID)
	if record == nil {
		return nil, nil, fmt.Errorf("thread %s in guild %s: %w", threadID, guildID, ErrNotFound)
	}

	// Apply the same change to a copy so the caller sees the guild as it is now.
	after := before.Clone()
	after.Threads[threadID].Open = false
	after.Threads[threadID].ClosedAt = closedAt

	return record, after, nil
}

func (m *mongoTicketStore) ListGuildsWithOpenReportTickets(ctx context.Context) ([]*entities.GuildSettings, error) {
	defer m.observe(ticketDalName, "list_open_report_guilds")()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// threads is a map, so match on its values with $objectToArray.
	filter := bson.M{"$expr": bson.M{
		"$gt": bson.A{
			bson.M{"$size": bson.M{
				"$filter": bson.M{
					"input": bson.M{"$objectToArray": bson.M{"$ifNull": bson.A{"$threads", bson.M{}}}},
					"as":    "t",
					"cond": bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$$t.v.type", string(entities.TicketTypeReport)}},
						bson.M{"$eq": bson.A{"$$t.v.open", true}},
					}},
				},
			}},
			0,
		},
	}}

	cur, err := m.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding guilds: %w", err)
	}

	guilds := make([]*entities.GuildSettings, 0)
	if err := cur.All(ctx, &guilds); err != nil {
		return nil, fmt.Errorf("error decoding guilds: %w", err)
	}
	return guilds, nil
}
