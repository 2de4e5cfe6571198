package domain

import "time"

// Settings is the installation-wide user preferences singleton.
type Settings struct {
	// DefaultColor is applied to quick highlights and drafts that
	// carry no color.
	DefaultColor Color `json:"defaultColor" yaml:"default_color"`

	// ShowNotifications toggles change notifications in page contexts.
	ShowNotifications bool `json:"showNotifications" yaml:"show_notifications"`

	// AutoBackup enables the periodic backup snapshot.
	AutoBackup bool `json:"autoBackup" yaml:"auto_backup"`

	// BackupInterval is the time between automatic backups.
	BackupInterval time.Duration `json:"backupInterval" yaml:"backup_interval"`

	// MaxHighlights mirrors the global record ceiling for display.
	MaxHighlights int `json:"maxHighlights" yaml:"max_highlights"`

	// EnableContextMenu toggles the quick-highlight command surface.
	EnableContextMenu bool `json:"enableContextMenu" yaml:"enable_context_menu"`

	// Theme is "auto", "light" or "dark".
	Theme string `json:"theme" yaml:"theme"`
}

// DefaultSettings returns the initial preferences written on first run
// and restored by a clear.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultColor:      DefaultColor,
		ShowNotifications: true,
		AutoBackup:        false,
		BackupInterval:    24 * time.Hour,
		MaxHighlights:     MaxTotalHighlights,
		EnableContextMenu: true,
		Theme:             "auto",
	}
}

// Merge overlays the non-zero fields of patch onto s and returns s.
// Booleans are taken from patch as-is only when present in the patch
// map form; callers that need field-level presence use SettingsPatch.
func (s *Settings) Merge(patch SettingsPatch) *Settings {
	if patch.DefaultColor != nil && patch.DefaultColor.Valid() {
		s.DefaultColor = *patch.DefaultColor
	}
	if patch.ShowNotifications != nil {
		s.ShowNotifications = *patch.ShowNotifications
	}
	if patch.AutoBackup != nil {
		s.AutoBackup = *patch.AutoBackup
	}
	if patch.BackupInterval != nil && *patch.BackupInterval > 0 {
		s.BackupInterval = *patch.BackupInterval
	}
	if patch.MaxHighlights != nil && *patch.MaxHighlights > 0 {
		s.MaxHighlights = *patch.MaxHighlights
	}
	if patch.EnableContextMenu != nil {
		s.EnableContextMenu = *patch.EnableContextMenu
	}
	if patch.Theme != nil {
		switch *patch.Theme {
		case "auto", "light", "dark":
			s.Theme = *patch.Theme
		}
	}
	return s
}

// SettingsPatch is a partial settings update. Nil means "unchanged".
type SettingsPatch struct {
	DefaultColor      *Color         `json:"defaultColor,omitempty"`
	ShowNotifications *bool          `json:"showNotifications,omitempty"`
	AutoBackup        *bool          `json:"autoBackup,omitempty"`
	BackupInterval    *time.Duration `json:"backupInterval,omitempty"`
	MaxHighlights     *int           `json:"maxHighlights,omitempty"`
	EnableContextMenu *bool          `json:"enableContextMenu,omitempty"`
	Theme             *string        `json:"theme,omitempty"`
}
