package domain

import (
	"strings"
	"testing"
)

func TestUserSettings_ApplyUpdate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
		check   func(t *testing.T, s *UserSettings)
	}{
		{
			name: "sources in range", key: "sources", value: "25",
			check: func(t *testing.T, s *UserSettings) {
				if s.MaxResults != 25 {
					t.Errorf("max results %d, want 25", s.MaxResults)
				}
			},
		},
		{
			name: "sources lower bound", key: "sources", value: "1",
			check: func(t *testing.T, s *UserSettings) {
				if s.MaxResults != 1 {
					t.Errorf("max results %d, want 1", s.MaxResults)
				}
			},
		},
		{name: "sources zero", key: "sources", value: "0", wantErr: "source count"},
		{name: "sources above cap", key: "sources", value: "51", wantErr: "source count"},
		{name: "sources not a number", key: "sources", value: "many", wantErr: "source count"},
		{
			name: "depth on", key: "depth", value: "on",
			check: func(t *testing.T, s *UserSettings) {
				if !s.DeepAnalysis {
					t.Error("deep analysis should be enabled")
				}
			},
		},
		{
			name: "depth off", key: "depth", value: "off",
			check: func(t *testing.T, s *UserSettings) {
				if s.DeepAnalysis {
					t.Error("deep analysis should be disabled")
				}
			},
		},
		{name: "depth invalid", key: "depth", value: "maybe", wantErr: "on or off"},
		{
			name: "lang en", key: "lang", value: "en",
			check: func(t *testing.T, s *UserSettings) {
				if s.Lang != "en" {
					t.Errorf("lang %q, want en", s.Lang)
				}
			},
		},
		{
			name: "lang uppercase normalized", key: "lang", value: "RU",
			check: func(t *testing.T, s *UserSettings) {
				if s.Lang != "ru" {
					t.Errorf("lang %q, want ru", s.Lang)
				}
			},
		},
		{name: "lang unsupported", key: "lang", value: "de", wantErr: "supported languages"},
		{name: "unknown key", key: "verbosity", value: "high", wantErr: "unknown setting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &UserSettings{MaxResults: 20, DeepAnalysis: true, Lang: "ru"}
			err := s.ApplyUpdate(tt.key, tt.value)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestUserSettings_ApplyUpdateRejectsInvalidWithoutMutation(t *testing.T) {
	s := &UserSettings{MaxResults: 20, DeepAnalysis: true, Lang: "ru"}
	_ = s.ApplyUpdate("sources", "999")
	_ = s.ApplyUpdate("lang", "fr")

	if s.MaxResults != 20 || s.Lang != "ru" {
		t.Errorf("rejected updates must leave settings untouched: %+v", s)
	}
}
