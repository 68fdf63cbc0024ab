package model

import "time"

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// AppSettings is the process-wide preferences singleton.
type AppSettings struct {
	Theme                   Theme      `json:"theme" validate:"omitempty,oneof=light dark system"`
	SoundEnabled            bool       `json:"soundEnabled"`
	PomodoroWorkMinutes     int        `json:"pomodoroWorkMinutes" validate:"min=1,max=180"`
	PomodoroShortBreak      int        `json:"pomodoroShortBreak" validate:"min=1,max=60"`
	PomodoroLongBreak       int        `json:"pomodoroLongBreak" validate:"min=1,max=120"`
	SessionsBeforeLongBreak int        `json:"sessionsBeforeLongBreak" validate:"min=1,max=12"`
	NotificationsEnabled    bool       `json:"notificationsEnabled"`
	DailyReminderTime       string     `json:"dailyReminderTime,omitempty" validate:"omitempty,datetime=15:04"`
	LastBackupAt            *time.Time `json:"lastBackupAt,omitempty"`
}

// DefaultSettings returns the settings used when nothing valid is stored.
func DefaultSettings() AppSettings {
	return AppSettings{
		Theme:                   ThemeSystem,
		SoundEnabled:            true,
		PomodoroWorkMinutes:     25,
		PomodoroShortBreak:      5,
		PomodoroLongBreak:       15,
		SessionsBeforeLongBreak: 4,
		NotificationsEnabled:    true,
	}
}

// SettingsPatch is a merge patch: nil fields keep their current value.
type SettingsPatch struct {
	Theme                   *Theme
	SoundEnabled            *bool
	PomodoroWorkMinutes     *int
	PomodoroShortBreak      *int
	PomodoroLongBreak       *int
	SessionsBeforeLongBreak *int
	NotificationsEnabled    *bool
	DailyReminderTime       *string
	LastBackupAt            *time.Time
}

// Apply returns s with every non-nil patch field copied over.
func (p SettingsPatch) Apply(s AppSettings) AppSettings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.PomodoroWorkMinutes != nil {
		s.PomodoroWorkMinutes = *p.PomodoroWorkMinutes
	}
	if p.PomodoroShortBreak != nil {
		s.PomodoroShortBreak = *p.PomodoroShortBreak
	}
	if p.PomodoroLongBreak != nil {
		s.PomodoroLongBreak = *p.PomodoroLongBreak
	}
	if p.SessionsBeforeLongBreak != nil {
		s.SessionsBeforeLongBreak = *p.SessionsBeforeLongBreak
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.DailyReminderTime != nil {
		s.DailyReminderTime = *p.DailyReminderTime
	}
	if p.LastBackupAt != nil {
		t := *p.LastBackupAt
		s.LastBackupAt = &t
	}
	return s
}

// PatchFrom builds a patch that replaces every field with the values of s.
func PatchFrom(s AppSettings) SettingsPatch {
	return SettingsPatch{
		Theme:                   &s.Theme,
		SoundEnabled:            &s.SoundEnabled,
		PomodoroWorkMinutes:     &s.PomodoroWorkMinutes,
		PomodoroShortBreak:      &s.PomodoroShortBreak,
		PomodoroLongBreak:       &s.PomodoroLongBreak,
		SessionsBeforeLongBreak: &s.SessionsBeforeLongBreak,
		NotificationsEnabled:    &s.NotificationsEnabled,
		DailyReminderTime:       &s.DailyReminderTime,
		LastBackupAt:            s.LastBackupAt,
	}
}
