package ticketing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
	"github.com/stretchr/testify/require"
)

const (
	testGuild      = "1"
	intakeChannel  = "10"
	alertChannel   = "11"
	alertRole      = "12"
	quarantineRole = "13"
	memberM        = "500"
	moderator      = "600"
)

var testNow = time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	store dataaccess.TicketStore
	dir   *fakeDirectory
	msgr  *fakeMessenger
	svc   *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig("tests").WithWriter(io.Discard))
	require.NoError(t, err, "Failed to create logger")

	store := dataaccess.NewMemoryTicketStore()

	dir := newFakeDirectory(testGuild)
	dir.channels[intakeChannel] = true
	dir.channels[alertChannel] = true
	dir.roles[alertRole] = true
	dir.roles[quarantineRole] = true
	dir.members[memberM] = &Member{ID: memberM, DisplayName: "M"}
	dir.createdAt = testNow

	msgr := new(fakeMessenger)

	svc := NewService(l, store, dir, msgr)
	svc.now = func() time.Time { return testNow }

	return &testEnv{
		store: store,
		dir:   dir,
		msgr:  msgr,
		svc:   svc,
	}
}

func (e *testEnv) configure(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, e.store.SetIntakeChannel(ctx, testGuild, intakeChannel))
	require.NoError(t, e.store.SetAlertChannel(ctx, testGuild, alertChannel))
	require.NoError(t, e.store.SetAlertRole(ctx, testGuild, alertRole))
	require.NoError(t, e.store.SetQuarantineRole(ctx, testGuild, quarantineRole))
}

func (e *testEnv) record(t *testing.T, threadID string) *entities.TicketRecord {
	t.Helper()

	g, err := e.store.GetSettings(context.Background(), testGuild)
	require.NoError(t, err)
	rec := g.Ticket(threadID)
	require.NotNil(t, rec, "no record for thread %s", threadID)
	return rec
}

func (e *testEnv) open(t *testing.T, typ entities.TicketType) *Thread {
	t.Helper()

	thread, err := e.svc.Open(context.Background(), testGuild, memberM, typ)
	require.NoError(t, err)
	require.NotNil(t, thread)
	return thread
}

func TestService_Open_NotConfigured(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ctx context.Context, s dataaccess.TicketStore) error
		want  entities.Setting
	}{
		{
			name:  "NothingSet",
			setup: func(context.Context, dataaccess.TicketStore) error { return nil },
			want:  entities.SettingAlertChannel,
		},
		{
			name: "NoIntakeChannel",
			setup: func(ctx context.Context, s dataaccess.TicketStore) error {
				return errors.Join(
					s.SetAlertChannel(ctx, testGuild, alertChannel),
					s.SetAlertRole(ctx, testGuild, alertRole),
				)
			},
			want: entities.SettingIntakeChannel,
		},
		{
			name: "NoAlertChannel",
			setup: func(ctx context.Context, s dataaccess.TicketStore) error {
				return errors.Join(
					s.SetIntakeChannel(ctx, testGuild, intakeChannel),
					s.SetAlertRole(ctx, testGuild, alertRole),
				)
			},
			want: entities.SettingAlertChannel,
		},
		{
			name: "NoAlertRole",
			setup: func(ctx context.Context, s dataaccess.TicketStore) error {
				return errors.Join(
					s.SetIntakeChannel(ctx, testGuild, intakeChannel),
					s.SetAlertChannel(ctx, testGuild, alertChannel),
				)
			},
			want: entities.SettingAlertRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newTestEnv(t)
			require.NoError(t, tt.setup(ctx, e.store))

			for _, typ := range []entities.TicketType{entities.TicketTypeRegular, entities.TicketTypeQuarantine, entities.TicketTypeReport} {
				thread, err := e.svc.Open(ctx, testGuild, memberM, typ)
				require.ErrorIs(t, err, ErrNotConfigured)
				require.Nil(t, thread)

				cfgErr := new(ConfigError)
				require.ErrorAs(t, err, &cfgErr)
				require.Equal(t, tt.want, cfgErr.Setting)
			}

			// Nothing was changed.
			if g, err := e.store.GetSettings(ctx, testGuild); err == nil {
				require.Empty(t, g.Threads)
			}
			require.Empty(t, e.dir.visible)
			require.Empty(t, e.dir.memberRoles)
			require.Len(t, e.dir.threads, 0)
			require.Empty(t, e.msgr.sent)
		})
	}
}

func TestService_Open_DeletedIntakeChannel(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	delete(e.dir.channels, intakeChannel)

	thread, err := e.svc.Open(context.Background(), testGuild, memberM, entities.TicketTypeReport)
	require.Nil(t, thread)

	cfgErr := new(ConfigError)
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, entities.SettingIntakeChannel, cfgErr.Setting)
	require.Empty(t, e.dir.threads)
}

func TestService_Open_QuarantineRoleRequired(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	require.NoError(t, e.store.SetIntakeChannel(ctx, testGuild, intakeChannel))
	require.NoError(t, e.store.SetAlertChannel(ctx, testGuild, alertChannel))
	require.NoError(t, e.store.SetAlertRole(ctx, testGuild, alertRole))

	_, err := e.svc.Open(ctx, testGuild, memberM, entities.TicketTypeQuarantine)
	cfgErr := new(ConfigError)
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, entities.SettingQuarantineRole, cfgErr.Setting)

	// Other ticket types do not need it.
	e.open(t, entities.TicketTypeRegular)
}

func TestService_Open_InvalidType(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)

	_, err := e.svc.Open(context.Background(), testGuild, memberM, "appeal")
	require.Error(t, err)
	require.Empty(t, e.dir.threads)
}

func TestService_QuarantineScenario(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)

	thread := e.open(t, entities.TicketTypeQuarantine)

	require.Equal(t, "M - 01/02/2024 Q", thread.Name)
	require.Equal(t, intakeChannel, thread.ParentID)
	require.True(t, e.dir.hasRole(memberM, quarantineRole))
	require.True(t, e.dir.isVisible(intakeChannel, memberM))

	rec := e.record(t, thread.ID)
	require.Equal(t, memberM, rec.Member)
	require.Equal(t, entities.TicketTypeQuarantine, rec.Type)
	require.True(t, rec.Open)
	require.Equal(t, testNow, rec.OpenedAt)

	require.Equal(t, []string{messages.ThreadGreeting(memberM, entities.TicketTypeQuarantine)}, e.msgr.sentTo(thread.ID))

	alerts := e.msgr.sentTo(alertChannel)
	require.Len(t, alerts, 1)
	require.Contains(t, alerts[0], messages.RoleMention(alertRole))
	require.Contains(t, alerts[0], messages.Mention(memberM))
	require.Contains(t, alerts[0], thread.URL())

	// A moderator closes it.
	require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator}))

	rec = e.record(t, thread.ID)
	require.False(t, rec.Open)
	require.Equal(t, entities.TicketTypeQuarantine, rec.Type)
	require.False(t, e.dir.hasRole(memberM, quarantineRole))
	require.False(t, e.dir.inThread(thread.ID, memberM))
	require.False(t, e.dir.isVisible(intakeChannel, memberM))
	require.Zero(t, e.msgr.directCount())
}

func TestService_Open_ThreadTags(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)

	require.Equal(t, "M - 01/02/2024 R", e.open(t, entities.TicketTypeReport).Name)
	require.Equal(t, "M - 01/02/2024 R", e.open(t, entities.TicketTypeRegular).Name)
}

func TestService_Open_Greetings(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)

	report := e.open(t, entities.TicketTypeReport)
	regular := e.open(t, entities.TicketTypeRegular)

	require.Equal(t, []string{messages.ThreadGreeting(memberM, entities.TicketTypeReport)}, e.msgr.sentTo(report.ID))
	require.Equal(t, []string{messages.ThreadGreeting(memberM, entities.TicketTypeRegular)}, e.msgr.sentTo(regular.ID))
	require.Contains(t, e.msgr.sentTo(report.ID)[0], "24 hours")

	// Only quarantine tickets give the role.
	require.False(t, e.dir.hasRole(memberM, quarantineRole))
}

func TestService_Open_SideEffectFailure(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	e.dir.errs["SetChannelVisibility"] = ErrForbidden

	thread, err := e.svc.Open(context.Background(), testGuild, memberM, entities.TicketTypeReport)
	require.NotNil(t, thread, "the ticket is still opened")
	require.ErrorIs(t, err, ErrForbidden)

	sideEffectErr := new(SideEffectError)
	require.ErrorAs(t, err, &sideEffectErr)
	require.Equal(t, transitionOpen, sideEffectErr.Transition)

	require.True(t, e.record(t, thread.ID).Open)
	require.Len(t, e.msgr.sentTo(alertChannel), 1, "the alert is still sent")
}

func TestService_Open_ThreadCreationFails(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)
	e.dir.errs["CreateThread"] = errors.New("missing access")

	thread, err := e.svc.Open(ctx, testGuild, memberM, entities.TicketTypeReport)
	require.Nil(t, thread)
	require.Error(t, err)

	g, err := e.store.GetSettings(ctx, testGuild)
	require.NoError(t, err)
	require.Empty(t, g.Threads)
	require.Empty(t, e.msgr.sentTo(alertChannel))
}

func TestService_Open_DeliveryRefused(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	e.msgr.sendErr = ErrDeliveryRefused

	thread, err := e.svc.Open(context.Background(), testGuild, memberM, entities.TicketTypeReport)
	require.NoError(t, err)
	require.NotNil(t, thread)
}

func TestService_Close_NoSuchTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownGuild", func(t *testing.T) {
		e := newTestEnv(t)
		err := e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: "999", ActorID: moderator})
		require.ErrorIs(t, err, ErrNoSuchTicket)
	})

	t.Run("UnknownThread", func(t *testing.T) {
		e := newTestEnv(t)
		e.configure(t)
		thread := e.open(t, entities.TicketTypeReport)

		err := e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: "999", ActorID: moderator})
		require.ErrorIs(t, err, ErrNoSuchTicket)

		// Nothing was changed.
		require.True(t, e.record(t, thread.ID).Open)
		require.True(t, e.dir.isVisible(intakeChannel, memberM))
		g, err := e.store.GetSettings(ctx, testGuild)
		require.NoError(t, err)
		require.Len(t, g.Threads, 1)
	})
}

func TestService_Close_SubjectCannotCloseQuarantine(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	thread := e.open(t, entities.TicketTypeQuarantine)

	err := e.svc.Close(context.Background(), CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: memberM})
	require.ErrorIs(t, err, ErrForbidden)

	require.True(t, e.record(t, thread.ID).Open)
	require.True(t, e.dir.hasRole(memberM, quarantineRole))
	require.True(t, e.dir.isVisible(intakeChannel, memberM))
}

func TestService_Close_SubjectCanCloseReport(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	thread := e.open(t, entities.TicketTypeReport)

	require.NoError(t, e.svc.Close(context.Background(), CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: memberM}))
	require.False(t, e.record(t, thread.ID).Open)
	require.False(t, e.dir.isVisible(intakeChannel, memberM))
}

func TestService_Close_OtherTicketStillOpen(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)

	report := e.open(t, entities.TicketTypeReport)
	quarantine := e.open(t, entities.TicketTypeQuarantine)

	require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: report.ID, ActorID: moderator}))

	require.False(t, e.record(t, report.ID).Open)
	require.True(t, e.record(t, quarantine.ID).Open)
	require.True(t, e.dir.isVisible(intakeChannel, memberM), "quarantine ticket is still open")
	require.True(t, e.dir.hasRole(memberM, quarantineRole))
}

// Closing either of two open quarantine tickets removes the quarantine role, even though the other one is still
// open. This is the documented behaviour and is kept as is.
func TestService_Close_QuarantineRoleRemovedOnAnyQuarantineClose(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)

	first := e.open(t, entities.TicketTypeQuarantine)
	second := e.open(t, entities.TicketTypeQuarantine)

	require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: first.ID, ActorID: moderator}))

	require.True(t, e.record(t, second.ID).Open)
	require.True(t, e.dir.isVisible(intakeChannel, memberM))
	require.False(t, e.dir.hasRole(memberM, quarantineRole))
}

func TestService_Close_Message(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivered", func(t *testing.T) {
		e := newTestEnv(t)
		e.configure(t)
		thread := e.open(t, entities.TicketTypeReport)

		require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator, Message: "Resolved, thanks!"}))
		require.Equal(t, []sentMessage{{to: memberM, content: "Resolved, thanks!"}}, e.msgr.direct)
	})

	t.Run("Refused", func(t *testing.T) {
		e := newTestEnv(t)
		e.configure(t)
		thread := e.open(t, entities.TicketTypeReport)
		e.msgr.directErr = ErrDeliveryRefused

		require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator, Message: "bye"}))
		require.False(t, e.record(t, thread.ID).Open)
	})

	t.Run("OtherFailure", func(t *testing.T) {
		e := newTestEnv(t)
		e.configure(t)
		thread := e.open(t, entities.TicketTypeReport)
		e.msgr.directErr = errors.New("gateway unavailable")

		err := e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator, Message: "bye"})
		sideEffectErr := new(SideEffectError)
		require.ErrorAs(t, err, &sideEffectErr)
		require.False(t, e.record(t, thread.ID).Open)
	})
}

func TestService_Close_SideEffectsAllAttempted(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)
	thread := e.open(t, entities.TicketTypeQuarantine)
	e.dir.errs["RemoveThreadMember"] = ErrNotFound

	err := e.svc.Close(context.Background(), CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator})
	require.ErrorIs(t, err, ErrNotFound)

	require.False(t, e.record(t, thread.ID).Open)
	require.False(t, e.dir.isVisible(intakeChannel, memberM))
	require.False(t, e.dir.hasRole(memberM, quarantineRole))
}

func TestService_Reopen(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)

	thread := e.open(t, entities.TicketTypeQuarantine)
	alertsBefore := len(e.msgr.sentTo(alertChannel))
	greetingsBefore := len(e.msgr.sentTo(thread.ID))

	require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: thread.ID, ActorID: moderator}))
	require.NoError(t, e.svc.Reopen(ctx, testGuild, thread.ID))

	rec := e.record(t, thread.ID)
	require.True(t, rec.Open)
	require.Equal(t, entities.TicketTypeQuarantine, rec.Type)
	require.Equal(t, memberM, rec.Member)
	require.Equal(t, testNow, rec.OpenedAt)
	require.True(t, rec.ClosedAt.IsZero())

	require.True(t, e.dir.isVisible(intakeChannel, memberM))
	require.True(t, e.dir.hasRole(memberM, quarantineRole))
	require.True(t, e.dir.inThread(thread.ID, memberM))

	require.Len(t, e.msgr.sentTo(alertChannel), alertsBefore, "no new alert")
	require.Len(t, e.msgr.sentTo(thread.ID), greetingsBefore, "no new greeting")
}

func TestService_Reopen_NoSuchTicket(t *testing.T) {
	e := newTestEnv(t)
	e.configure(t)

	require.ErrorIs(t, e.svc.Reopen(context.Background(), testGuild, "999"), ErrNoSuchTicket)
	require.Empty(t, e.dir.visible)
}

func TestService_CloseReopenCycles(t *testing.T) {
	ctx := context.Background()

	cycle := func(t *testing.T, e *testEnv, threadID string) {
		require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: threadID, ActorID: moderator}))
		require.NoError(t, e.svc.Reopen(ctx, testGuild, threadID))
		require.NoError(t, e.svc.Close(ctx, CloseRequest{GuildID: testGuild, ThreadID: threadID, ActorID: moderator}))
	}

	tests := []struct {
		name        string
		otherOpen   bool
		wantVisible bool
	}{
		{name: "OnlyTicket", otherOpen: false, wantVisible: false},
		{name: "AnotherTicketOpen", otherOpen: true, wantVisible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.configure(t)

			if tt.otherOpen {
				e.open(t, entities.TicketTypeRegular)
			}
			thread := e.open(t, entities.TicketTypeReport)

			cycle(t, e, thread.ID)
			afterOne := e.dir.isVisible(intakeChannel, memberM)

			cycle(t, e, thread.ID)
			afterTwo := e.dir.isVisible(intakeChannel, memberM)

			require.Equal(t, afterOne, afterTwo)
			require.Equal(t, tt.wantVisible, afterTwo)
			require.Equal(t, entities.TicketTypeReport, e.record(t, thread.ID).Type)
		})
	}
}

func TestService_Status(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.configure(t)
	thread := e.open(t, entities.TicketTypeRegular)

	rec, err := e.svc.Status(ctx, testGuild, thread.ID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketTypeRegular, rec.Type)

	_, err = e.svc.Status(ctx, testGuild, "999")
	require.ErrorIs(t, err, ErrNoSuchTicket)
}
