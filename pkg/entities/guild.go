package entities

// GuildSettings is the ticket configuration and ticket records for a guild.
type GuildSettings struct {
	// ID is the ID of the guild.
	ID string `json:"id" bson:"id"`

	// IntakeChannelID is the ID of the channel that ticket threads are created under.
	IntakeChannelID string `json:"intake_channel_id,omitempty" bson:"intake_channel_id,omitempty"`

	// AlertChannelID is the ID of the channel that moderators are alerted in.
	AlertChannelID string `json:"alert_channel_id,omitempty" bson:"alert_channel_id,omitempty"`

	// AlertRoleID is the ID of the role mentioned on alerts.
	AlertRoleID string `json:"alert_role_id,omitempty" bson:"alert_role_id,omitempty"`

	// QuarantineRoleID is the ID of the role given while a quarantine ticket is open.
	QuarantineRoleID string `json:"quarantine_role_id,omitempty" bson:"quarantine_role_id,omitempty"`

	// Threads maps thread IDs to their ticket records.
	Threads map[string]*TicketRecord `json:"threads" bson:"threads"`
}

// NewGuildSettings creates empty settings for a guild.
func NewGuildSettings(guildID string) *GuildSettings {
	return &GuildSettings{
		ID:      guildID,
		Threads: make(map[string]*TicketRecord),
	}
}

// Ticket returns the record for a thread, or nil.
func (g *GuildSettings) Ticket(threadID string) *TicketRecord {
	if g == nil || g.Threads == nil {
		return nil
	}
	return g.Threads[threadID]
}

// HasOpenTickets reports whether the member has an open ticket other than the one in exceptThread.
func (g *GuildSettings) HasOpenTickets(memberID, exceptThread string) bool {
	if g == nil {
		return false
	}
	for tid, t := range g.Threads {
		if tid == exceptThread || t == nil {
			continue
		}
		if t.Member == memberID && t.Open {
			return true
		}
	}
	return false
}

// OpenTickets returns the IDs of the open threads of the given type.
func (g *GuildSettings) OpenTickets(typ TicketType) []string {
	if g == nil {
		return nil
	}
	ids := make([]string, 0)
	for tid, t := range g.Threads {
		if t != nil && t.Open && t.Type == typ {
			ids = append(ids, tid)
		}
	}
	return ids
}

// Clone returns a deep copy of the settings.
func (g *GuildSettings) Clone() *GuildSettings {
	if g == nil {
		return nil
	}
	c := *g
	c.Threads = make(map[string]*TicketRecord, len(g.Threads))
	for k, v := range g.Threads {
		c.Threads[k] = v.Clone()
	}
	return &c
}
