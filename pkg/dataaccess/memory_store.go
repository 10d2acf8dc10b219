package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
)

// memoryTicketStore keeps guild settings in process. Values are copied on the way in and out so callers never share
// state with the store.
type memoryTicketStore struct {
	mut    sync.Mutex
	guilds map[string]*entities.GuildSettings
	now    func() time.Time
}

// NewMemoryTicketStore creates a ticket store that lives in memory. Nothing survives a restart.
func NewMemoryTicketStore() TicketStore {
	return &memoryTicketStore{
		guilds: make(map[string]*entities.GuildSettings),
		now:    time.Now,
	}
}

func (m *memoryTicketStore) GetSettings(_ context.Context, guildID string) (*entities.GuildSettings, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, ErrNotFound)
	}
	return g.Clone(), nil
}

func (m *memoryTicketStore) SetIntakeChannel(_ context.Context, guildID, channelID string) error {
	return m.update(guildID, channelID, func(g *entities.GuildSettings) { g.IntakeChannelID = channelID })
}

func (m *memoryTicketStore) SetAlertChannel(_ context.Context, guildID, channelID string) error {
	return m.update(guildID, channelID, func(g *entities.GuildSettings) { g.AlertChannelID = channelID })
}

func (m *memoryTicketStore) SetAlertRole(_ context.Context, guildID, roleID string) error {
	return m.update(guildID, roleID, func(g *entities.GuildSettings) { g.AlertRoleID = roleID })
}

func (m *memoryTicketStore) SetQuarantineRole(_ context.Context, guildID, roleID string) error {
	return m.update(guildID, roleID, func(g *entities.GuildSettings) { g.QuarantineRoleID = roleID })
}

func (m *memoryTicketStore) UpsertTicket(_ context.Context, guildID, threadID string, record *entities.TicketRecord) error {
	if record == nil {
		return errors.New("ticket record is nil")
	}
	return m.update(guildID, threadID, func(g *entities.GuildSettings) {
		g.Threads[threadID] = record.Clone()
	})
}

// update runs fn against the guild, creating it if needed, with the store locked.
func (m *memoryTicketStore) update(guildID, id string, fn func(g *entities.GuildSettings)) error {
	if err := validateIDs(guildID, id); err != nil {
		return err
	}

	m.mut.Lock()
	defer m.mut.Unlock()

	g, ok := m.guilds[guildID]
	if !ok {
		g = entities.NewGuildSettings(guildID)
		m.guilds[guildID] = g
	}
	fn(g)
	return nil
}

func (m *memoryTicketStore) MarkClosed(_ context.Context, guildID, threadID string) (*entities.TicketRecord, *entities.GuildSettings, error) {
	if err := validateIDs(guildID, threadID); err != nil {
		return nil, nil, err
	}

	m.mut.Lock()
	defer m.mut.Unlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return nil, nil, fmt.Errorf("guild %s: %w", guildID, ErrNotFound)
	}
	t := g.Ticket(threadID)
	if t == nil {
		return nil, nil, fmt.Errorf("thread %s in guild %s: %w", threadID, guildID, ErrNotFound)
	}

	before := t.Clone()
	t.Open = false
	t.ClosedAt = m.now().UTC()

	return before, g.Clone(), nil
}

func (m *memoryTicketStore) ListGuildsWithOpenReportTickets(_ context.Context) ([]*entities.GuildSettings, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	guilds := make([]*entities.GuildSettings, 0)
	for _, g := range m.guilds {
		if len(g.OpenTickets(entities.TicketTypeReport)) > 0 {
			guilds = append(guilds, g.Clone())
		}
	}

	sort.Slice(guilds, func(i, j int) bool {
		return guilds[i].ID < guilds[j].ID
	})
	return guilds, nil
}
