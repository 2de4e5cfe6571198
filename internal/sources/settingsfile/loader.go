// Package settingsfile loads operator-provided default preferences
// from a YAML file. The file seeds the settings singleton on first run;
// preferences saved through the API win afterwards.
package settingsfile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/webmark/webmark/internal/domain"
)

// Loader handles loading and parsing of the settings.yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a new settings loader.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// fileSchema mirrors the YAML shape. Pointers distinguish "absent"
// from zero values so the file can override any subset of fields.
type fileSchema struct {
	DefaultColor      *string `yaml:"default_color"`
	ShowNotifications *bool   `yaml:"show_notifications"`
	AutoBackup        *bool   `yaml:"auto_backup"`
	BackupInterval    *string `yaml:"backup_interval"`
	MaxHighlights     *int    `yaml:"max_highlights"`
	EnableContextMenu *bool   `yaml:"enable_context_menu"`
	Theme             *string `yaml:"theme"`
}

// Load reads the file and returns built-in defaults overlaid with
// whatever fields the file sets.
func (l *Loader) Load() (*domain.Settings, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var raw fileSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
	}

	patch, err := raw.toPatch()
	if err != nil {
		return nil, err
	}

	return domain.DefaultSettings().Merge(patch), nil
}

func (r *fileSchema) toPatch() (domain.SettingsPatch, error) {
	var patch domain.SettingsPatch

	if r.DefaultColor != nil {
		c := domain.Color(*r.DefaultColor)
		if !c.Valid() {
			return patch, fmt.Errorf("unknown default_color %q", *r.DefaultColor)
		}
		patch.DefaultColor = &c
	}
	patch.ShowNotifications = r.ShowNotifications
	patch.AutoBackup = r.AutoBackup
	if r.BackupInterval != nil {
		d, err := time.ParseDuration(*r.BackupInterval)
		if err != nil {
			return patch, fmt.Errorf("invalid backup_interval: %w", err)
		}
		patch.BackupInterval = &d
	}
	patch.MaxHighlights = r.MaxHighlights
	patch.EnableContextMenu = r.EnableContextMenu
	if r.Theme != nil {
		switch *r.Theme {
		case "auto", "light", "dark":
			patch.Theme = r.Theme
		default:
			return patch, fmt.Errorf("unknown theme %q", *r.Theme)
		}
	}

	return patch, nil
}
