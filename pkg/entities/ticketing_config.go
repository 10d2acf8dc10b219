package entities

// Setting names a configurable guild setting.
type Setting string

const (
	SettingIntakeChannel  Setting = "ticket channel"
	SettingAlertChannel   Setting = "alert channel"
	SettingAlertRole      Setting = "alert role"
	SettingQuarantineRole Setting = "quarantine role"
)

// MissingSetting returns the first of the settings required for ticketing that is not configured.
// The second return is false when ticketing is fully configured.
func (g *GuildSettings) MissingSetting() (Setting, bool) {
	switch {
	case g == nil || g.AlertChannelID == "":
		return SettingAlertChannel, true
	case g.AlertRoleID == "":
		return SettingAlertRole, true
	case g.IntakeChannelID == "":
		return SettingIntakeChannel, true
	}
	return "", false
}

// Enabled is whether ticketing is enabled, meaning the intake channel, alert channel and alert role are all set.
func (g *GuildSettings) Enabled() bool {
	_, missing := g.MissingSetting()
	return !missing
}
