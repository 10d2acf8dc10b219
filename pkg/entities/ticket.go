package entities

import (
	"fmt"
	"strconv"
	"time"
)

// TicketType is the kind of ticket that was opened.
type TicketType string

const (
	// TicketTypeRegular is a private conversation started by moderation.
	TicketTypeRegular TicketType = "regular"

	// TicketTypeQuarantine is a conversation that gates the member behind the quarantine role while open.
	TicketTypeQuarantine TicketType = "quarantine"

	// TicketTypeReport is a conversation opened by a member. It is closed after a period of inactivity.
	TicketTypeReport TicketType = "report"
)

// Valid reports whether the ticket type is known.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeRegular, TicketTypeQuarantine, TicketTypeReport:
		return true
	default:
		return false
	}
}

// Tag is the single letter used in thread names for the ticket type.
func (t TicketType) Tag() string {
	if t == TicketTypeQuarantine {
		return "Q"
	}
	return "R"
}

func (t TicketType) String() string {
	return string(t)
}

// TicketRecord is the persisted state of a ticket thread.
type TicketRecord struct {
	// Member is the ID of the member the ticket is about.
	Member string `json:"member" bson:"member"`

	// Type is the ticket type. It never changes once the record is created.
	Type TicketType `json:"type" bson:"type"`

	// Open is whether the ticket is currently open.
	Open bool `json:"open" bson:"open"`

	// OpenedAt is the time the ticket was first opened.
	OpenedAt time.Time `json:"opened_at" bson:"opened_at"`

	// ClosedAt is the time the ticket was last closed. It is zero while the ticket is open.
	ClosedAt time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// Clone returns a copy of the record.
func (r *TicketRecord) Clone() *TicketRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// ThreadName is the name given to a ticket thread.
//
// For example, the member "dorian" opening a quarantine ticket on the 2nd of January 2024 gets "dorian - 01/02/2024 Q".
func ThreadName(displayName string, typ TicketType, at time.Time) string {
	return fmt.Sprintf("%s - %s %s", displayName, at.Format("01/02/2006"), typ.Tag())
}

// ValidSnowflake reports whether id is the canonical decimal form of a snowflake.
// Thread IDs are used as document keys, so anything else is rejected before it reaches the database.
func ValidSnowflake(id string) bool {
	if id == "" || (len(id) > 1 && id[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}
