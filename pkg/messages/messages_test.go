package messages

import (
	"testing"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestGreeting(t *testing.T) {
	require.Contains(t, Greeting(entities.TicketTypeReport), "24 hours of inactivity")
	require.Contains(t, Greeting(entities.TicketTypeQuarantine), "quarantined")
	require.Contains(t, Greeting(entities.TicketTypeRegular), "private conversation")

	require.NotEqual(t, Greeting(entities.TicketTypeReport), Greeting(entities.TicketTypeRegular))
}

func TestNotConfigured(t *testing.T) {
	tests := []struct {
		setting entities.Setting
		want    string
	}{
		{setting: entities.SettingAlertChannel, want: "Alert channel not configured"},
		{setting: entities.SettingAlertRole, want: "Alert role not configured"},
		{setting: entities.SettingIntakeChannel, want: "Ticket channel not configured"},
		{setting: entities.SettingQuarantineRole, want: "Quarantine role not set."},
		{setting: "", want: "Tickets are not configured."},
	}

	for _, tt := range tests {
		t.Run(string(tt.setting), func(t *testing.T) {
			require.Equal(t, tt.want, NotConfigured(tt.setting))
		})
	}
}

func TestAlert(t *testing.T) {
	got := Alert("7", "5", entities.TicketTypeQuarantine, "https://discord.com/channels/1/10")
	require.Equal(t, "<@&7> A quarantine ticket for <@5> has been opened: https://discord.com/channels/1/10", got)
}

func TestThreadGreeting(t *testing.T) {
	require.Equal(t, "<@5>\n"+Greeting(entities.TicketTypeRegular), ThreadGreeting("5", entities.TicketTypeRegular))
}
