package domain

import (
	"strings"
	"testing"
)

func validDraft() *Draft {
	return &Draft{
		URL:   "https://example.com/page",
		Text:  "some highlighted text",
		Color: ColorYellow,
	}
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Draft)
		wantErr bool
	}{
		{
			name:    "valid draft",
			mutate:  func(d *Draft) {},
			wantErr: false,
		},
		{
			name:    "empty color falls back later, still valid",
			mutate:  func(d *Draft) { d.Color = "" },
			wantErr: false,
		},
		{
			name:    "missing text",
			mutate:  func(d *Draft) { d.Text = "" },
			wantErr: true,
		},
		{
			name:    "whitespace-only text",
			mutate:  func(d *Draft) { d.Text = "   \n\t " },
			wantErr: true,
		},
		{
			name:    "missing url",
			mutate:  func(d *Draft) { d.URL = "" },
			wantErr: true,
		},
		{
			name:    "text over the length ceiling",
			mutate:  func(d *Draft) { d.Text = strings.Repeat("x", MaxTextLength+1) },
			wantErr: true,
		},
		{
			name:    "text exactly at the ceiling",
			mutate:  func(d *Draft) { d.Text = strings.Repeat("x", MaxTextLength) },
			wantErr: false,
		},
		{
			name:    "unknown color",
			mutate:  func(d *Draft) { d.Color = "ultraviolet" },
			wantErr: true,
		},
		{
			name:    "too many tags",
			mutate:  func(d *Draft) { d.Tags = make([]string, 17) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(d)

			err := ValidateDraft(d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDraft() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsCode(err, CodeValidation) {
				t.Errorf("ValidateDraft() error code = %v, want %v", ErrorCode(err), CodeValidation)
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	good := ColorBlue
	bad := Color("infrared")
	longNote := strings.Repeat("n", 2001)
	manyTags := make([]string, 17)

	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{
			name:    "empty patch",
			patch:   Patch{},
			wantErr: false,
		},
		{
			name:    "valid color",
			patch:   Patch{Color: &good},
			wantErr: false,
		},
		{
			name:    "unknown color",
			patch:   Patch{Color: &bad},
			wantErr: true,
		},
		{
			name:    "note too long",
			patch:   Patch{Note: &longNote},
			wantErr: true,
		},
		{
			name:    "too many tags",
			patch:   Patch{Tags: &manyTags},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatch(&tt.patch)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
