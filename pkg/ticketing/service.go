package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
)

// CloseRequest is a request to close a ticket.
type CloseRequest struct {
	// GuildID is the ID of the guild the ticket is in.
	GuildID string

	// ThreadID is the ID of the ticket thread.
	ThreadID string

	// ActorID is the ID of the member closing the ticket. It is empty when the ticket is closed automatically.
	ActorID string

	// Message is sent to the ticket member as a direct message when set.
	Message string
}

// Service opens, closes and reopens tickets.
//
// Every transition attempts all of its side effects. Failed side effects are joined into the returned error and
// never stop the remaining ones, except where a later step depends on an earlier one.
type Service struct {
	// l is the logger.
	l *slog.Logger

	// store is where ticket records are kept.
	store dataaccess.TicketStore

	// dir resolves and changes guild entities.
	dir Directory

	// msgr sends messages.
	msgr Messenger

	// now is the clock.
	now func() time.Time
}

// NewService creates a new ticket service.
func NewService(l *slog.Logger, store dataaccess.TicketStore, dir Directory, msgr Messenger) *Service {
	return &Service{
		l:     l,
		store: store,
		dir:   dir,
		msgr:  msgr,
		now:   time.Now,
	}
}

// Open opens a ticket of the given type for a member.
//
// A non-nil thread means the ticket was recorded. The error may still be a *SideEffectError in that case, listing
// the side effects that failed.
func (s *Service) Open(ctx context.Context, guildID, memberID string, typ entities.TicketType) (*Thread, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown ticket type %q", typ)
	}

	settings, err := s.enabledSettings(ctx, guildID, typ)
	if err != nil {
		return nil, err
	}

	member, err := s.dir.Member(ctx, guildID, memberID)
	if err != nil {
		return nil, fmt.Errorf("error getting member: %w", err)
	}

	l := s.l.With(
		slog.String(logging.KeyGuild, guildID),
		slog.String(logging.KeyMember, memberID),
		slog.String(logging.KeyTicketType, typ.String()),
	)

	var errs []error

	if err := s.dir.SetChannelVisibility(ctx, settings.IntakeChannelID, memberID, true); err != nil {
		errs = append(errs, fmt.Errorf("error granting ticket channel access: %w", err))
	}

	now := s.now()
	thread, err := s.dir.CreateThread(ctx, guildID, settings.IntakeChannelID, entities.ThreadName(member.DisplayName, typ, now))
	if err != nil {
		// Nothing else can be done without a thread.
		errs = append(errs, fmt.Errorf("error creating thread: %w", err))
		return nil, errors.Join(errs...)
	}
	l = l.With(slog.String(logging.KeyThread, thread.ID))

	if err := s.deliver(ctx, l, thread.ID, messages.ThreadGreeting(memberID, typ)); err != nil {
		errs = append(errs, fmt.Errorf("error sending greeting: %w", err))
	}

	record := &entities.TicketRecord{
		Member:   memberID,
		Type:     typ,
		Open:     true,
		OpenedAt: now.UTC(),
	}
	if err := s.store.UpsertTicket(ctx, guildID, thread.ID, record); err != nil {
		errs = append(errs, fmt.Errorf("error saving ticket: %w", err))
		l.Error("Ticket thread created but not saved", slog.String(logging.KeyError, err.Error()))
		return nil, errors.Join(errs...)
	}

	if typ == entities.TicketTypeQuarantine {
		if err := s.dir.AddRole(ctx, guildID, memberID, settings.QuarantineRoleID); err != nil {
			errs = append(errs, fmt.Errorf("error adding quarantine role: %w", err))
		}
	}

	alert := messages.Alert(settings.AlertRoleID, memberID, typ, thread.URL())
	if err := s.deliver(ctx, l, settings.AlertChannelID, alert); err != nil {
		errs = append(errs, fmt.Errorf("error sending alert: %w", err))
	}

	TicketTransitions.WithLabelValues(typ.String(), transitionOpen).Inc()
	l.Info("Ticket opened")

	return thread, s.failed(transitionOpen, errs)
}

type settingCheck struct {
	setting entities.Setting
	resolve func() error
}

// enabledSettings gets the guild settings and checks that everything needed to open a ticket of the type exists.
func (s *Service) enabledSettings(ctx context.Context, guildID string, typ entities.TicketType) (*entities.GuildSettings, error) {
	settings, err := s.store.GetSettings(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		settings = entities.NewGuildSettings(guildID)
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	if setting, missing := settings.MissingSetting(); missing {
		return nil, &ConfigError{Setting: setting}
	}

	// The settings may point at something that has since been deleted.
	checks := []settingCheck{
		{entities.SettingAlertChannel, func() error { return s.dir.ResolveChannel(ctx, guildID, settings.AlertChannelID) }},
		{entities.SettingAlertRole, func() error { return s.dir.ResolveRole(ctx, guildID, settings.AlertRoleID) }},
		{entities.SettingIntakeChannel, func() error { return s.dir.ResolveChannel(ctx, guildID, settings.IntakeChannelID) }},
	}

	if typ == entities.TicketTypeQuarantine {
		if settings.QuarantineRoleID == "" {
			return nil, &ConfigError{Setting: entities.SettingQuarantineRole}
		}
		checks = append(checks, settingCheck{
			entities.SettingQuarantineRole,
			func() error { return s.dir.ResolveRole(ctx, guildID, settings.QuarantineRoleID) },
		})
	}

	for _, c := range checks {
		err := c.resolve()
		if errors.Is(err, ErrNotFound) {
			return nil, &ConfigError{Setting: c.setting}
		} else if err != nil {
			return nil, fmt.Errorf("error resolving %s: %w", c.setting, err)
		}
	}

	return settings, nil
}

// Close closes a ticket.
func (s *Service) Close(ctx context.Context, req CloseRequest) error {
	record, _, err := s.lookup(ctx, req.GuildID, req.ThreadID)
	if err != nil {
		return err
	}

	if req.ActorID != "" && req.ActorID == record.Member && record.Type == entities.TicketTypeQuarantine {
		return fmt.Errorf("%w: quarantine tickets may only be closed by a moderator", ErrForbidden)
	}

	before, after, err := s.store.MarkClosed(ctx, req.GuildID, req.ThreadID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return ErrNoSuchTicket
	} else if err != nil {
		return fmt.Errorf("error closing ticket: %w", err)
	}

	l := s.l.With(
		slog.String(logging.KeyGuild, req.GuildID),
		slog.String(logging.KeyThread, req.ThreadID),
		slog.String(logging.KeyMember, before.Member),
		slog.String(logging.KeyTicketType, before.Type.String()),
	)

	hasAnyOpenTickets := after.HasOpenTickets(before.Member, req.ThreadID)

	var errs []error

	if err := s.dir.RemoveThreadMember(ctx, req.ThreadID, before.Member); err != nil {
		errs = append(errs, fmt.Errorf("error removing member from thread: %w", err))
	}

	if !hasAnyOpenTickets {
		if after.IntakeChannelID == "" {
			errs = append(errs, &ConfigError{Setting: entities.SettingIntakeChannel})
		} else if err := s.dir.SetChannelVisibility(ctx, after.IntakeChannelID, before.Member, false); err != nil {
			errs = append(errs, fmt.Errorf("error revoking ticket channel access: %w", err))
		}
	}

	// The role goes with any quarantine ticket that closes, even if the member has another one open.
	if before.Type == entities.TicketTypeQuarantine && after.QuarantineRoleID != "" {
		if err := s.dir.RemoveRole(ctx, req.GuildID, before.Member, after.QuarantineRoleID); err != nil {
			errs = append(errs, fmt.Errorf("error removing quarantine role: %w", err))
		}
	}

	if req.Message != "" {
		err := s.msgr.SendDirect(ctx, before.Member, req.Message)
		if errors.Is(err, ErrDeliveryRefused) {
			l.Debug("Member does not accept direct messages", slog.String(logging.KeyError, err.Error()))
		} else if err != nil {
			errs = append(errs, fmt.Errorf("error sending closing message: %w", err))
		}
	}

	TicketTransitions.WithLabelValues(before.Type.String(), transitionClose).Inc()
	l.Info("Ticket closed",
		slog.String("actor", req.ActorID),
		slog.Bool("has_open_tickets", hasAnyOpenTickets),
	)

	return s.failed(transitionClose, errs)
}

// Reopen reopens a closed ticket. The member regains access but no greeting or alert is sent.
func (s *Service) Reopen(ctx context.Context, guildID, threadID string) error {
	record, settings, err := s.lookup(ctx, guildID, threadID)
	if err != nil {
		return err
	}

	l := s.l.With(
		slog.String(logging.KeyGuild, guildID),
		slog.String(logging.KeyThread, threadID),
		slog.String(logging.KeyMember, record.Member),
		slog.String(logging.KeyTicketType, record.Type.String()),
	)

	var errs []error

	if settings.IntakeChannelID == "" {
		errs = append(errs, &ConfigError{Setting: entities.SettingIntakeChannel})
	} else if err := s.dir.SetChannelVisibility(ctx, settings.IntakeChannelID, record.Member, true); err != nil {
		errs = append(errs, fmt.Errorf("error granting ticket channel access: %w", err))
	}

	reopened := record.Clone()
	reopened.Open = true
	reopened.ClosedAt = time.Time{}
	if err := s.store.UpsertTicket(ctx, guildID, threadID, reopened); err != nil {
		errs = append(errs, fmt.Errorf("error saving ticket: %w", err))
		return errors.Join(errs...)
	}

	if record.Type == entities.TicketTypeQuarantine {
		if settings.QuarantineRoleID == "" {
			errs = append(errs, &ConfigError{Setting: entities.SettingQuarantineRole})
		} else if err := s.dir.AddRole(ctx, guildID, record.Member, settings.QuarantineRoleID); err != nil {
			errs = append(errs, fmt.Errorf("error adding quarantine role: %w", err))
		}
	}

	if err := s.dir.AddThreadMember(ctx, threadID, record.Member); err != nil {
		errs = append(errs, fmt.Errorf("error adding member to thread: %w", err))
	}

	TicketTransitions.WithLabelValues(record.Type.String(), transitionReopen).Inc()
	l.Info("Ticket reopened")

	return s.failed(transitionReopen, errs)
}

// Status gets the record of a ticket thread.
func (s *Service) Status(ctx context.Context, guildID, threadID string) (*entities.TicketRecord, error) {
	record, _, err := s.lookup(ctx, guildID, threadID)
	return record, err
}

func (s *Service) lookup(ctx context.Context, guildID, threadID string) (*entities.TicketRecord, *entities.GuildSettings, error) {
	settings, err := s.store.GetSettings(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, nil, ErrNoSuchTicket
	} else if err != nil {
		return nil, nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	record := settings.Ticket(threadID)
	if record == nil {
		return nil, nil, ErrNoSuchTicket
	}
	return record, settings, nil
}

// deliver sends a message to a channel. Refused deliveries are expected and not reported.
func (s *Service) deliver(ctx context.Context, l *slog.Logger, channelID, content string) error {
	err := s.msgr.Send(ctx, channelID, content)
	if errors.Is(err, ErrDeliveryRefused) {
		l.Debug("Message refused", slog.String("channel_id", channelID), slog.String(logging.KeyError, err.Error()))
		return nil
	}
	return err
}

// failed wraps the side effects that failed for a transition that happened.
func (s *Service) failed(transition string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	SideEffectFailures.WithLabelValues(transition).Add(float64(len(errs)))
	return &SideEffectError{
		Transition: transition,
		Err:        errors.Join(errs...),
	}
}
