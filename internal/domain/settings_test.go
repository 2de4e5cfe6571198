package domain

import (
	"testing"
	"time"
)

func TestSettingsMerge(t *testing.T) {
	green := ColorGreen
	invalid := Color("chartreuse")
	yes := true
	no := false
	interval := 6 * time.Hour
	badInterval := -time.Hour
	maxHL := 200
	dark := "dark"
	neon := "neon"

	tests := []struct {
		name  string
		patch SettingsPatch
		check func(t *testing.T, s *Settings)
	}{
		{
			name:  "empty patch leaves defaults",
			patch: SettingsPatch{},
			check: func(t *testing.T, s *Settings) {
				def := DefaultSettings()
				if *s != *def {
					t.Errorf("settings changed by empty patch: %+v", s)
				}
			},
		},
		{
			name:  "valid color applied",
			patch: SettingsPatch{DefaultColor: &green},
			check: func(t *testing.T, s *Settings) {
				if s.DefaultColor != ColorGreen {
					t.Errorf("DefaultColor = %v, want green", s.DefaultColor)
				}
			},
		},
		{
			name:  "invalid color ignored",
			patch: SettingsPatch{DefaultColor: &invalid},
			check: func(t *testing.T, s *Settings) {
				if s.DefaultColor != DefaultColor {
					t.Errorf("DefaultColor = %v, want default", s.DefaultColor)
				}
			},
		},
		{
			name:  "booleans take explicit values",
			patch: SettingsPatch{ShowNotifications: &no, AutoBackup: &yes},
			check: func(t *testing.T, s *Settings) {
				if s.ShowNotifications {
					t.Error("ShowNotifications should be false")
				}
				if !s.AutoBackup {
					t.Error("AutoBackup should be true")
				}
			},
		},
		{
			name:  "positive interval applied",
			patch: SettingsPatch{BackupInterval: &interval},
			check: func(t *testing.T, s *Settings) {
				if s.BackupInterval != 6*time.Hour {
					t.Errorf("BackupInterval = %v, want 6h", s.BackupInterval)
				}
			},
		},
		{
			name:  "non-positive interval ignored",
			patch: SettingsPatch{BackupInterval: &badInterval},
			check: func(t *testing.T, s *Settings) {
				if s.BackupInterval != DefaultSettings().BackupInterval {
					t.Errorf("BackupInterval = %v, want default", s.BackupInterval)
				}
			},
		},
		{
			name:  "max highlights applied",
			patch: SettingsPatch{MaxHighlights: &maxHL},
			check: func(t *testing.T, s *Settings) {
				if s.MaxHighlights != 200 {
					t.Errorf("MaxHighlights = %v, want 200", s.MaxHighlights)
				}
			},
		},
		{
			name:  "known theme applied",
			patch: SettingsPatch{Theme: &dark},
			check: func(t *testing.T, s *Settings) {
				if s.Theme != "dark" {
					t.Errorf("Theme = %v, want dark", s.Theme)
				}
			},
		},
		{
			name:  "unknown theme ignored",
			patch: SettingsPatch{Theme: &neon},
			check: func(t *testing.T, s *Settings) {
				if s.Theme != "auto" {
					t.Errorf("Theme = %v, want auto", s.Theme)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.Merge(tt.patch)
			tt.check(t, s)
		})
	}
}
