package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Settings bounds. MaxResults is the per-query result count requested from
// the search gateway.
const (
	MinMaxResults = 1
	MaxMaxResults = 50
)

// SupportedLangs enumerates the report languages.
var SupportedLangs = []string{"ru", "en"}

// UserSettings holds per-chat research preferences. Default-initialized and
// persisted on first access.
type UserSettings struct {
	ChatID       int64     `gorm:"primaryKey" json:"chat_id"`
	MaxResults   int       `gorm:"default:20" json:"max_results"`
	DeepAnalysis bool      `gorm:"default:true" json:"deep_analysis"`
	Lang         string    `gorm:"type:text;default:ru" json:"lang"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserSettings.
func (UserSettings) TableName() string {
	return "user_settings"
}

// ApplyUpdate validates and applies a single key/value settings update.
// Validation happens here, at the update boundary, not at consumption time.
func (s *UserSettings) ApplyUpdate(key, value string) error {
	switch strings.ToLower(key) {
	case "sources", "source", "max", "max_results":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("source count must be a number from %d to %d", MinMaxResults, MaxMaxResults)
		}
		if n < MinMaxResults || n > MaxMaxResults {
			return fmt.Errorf("source count must be from %d to %d", MinMaxResults, MaxMaxResults)
		}
		s.MaxResults = n
	case "depth", "deep", "analysis", "deep_analysis":
		switch strings.ToLower(value) {
		case "on", "true", "1", "yes":
			s.DeepAnalysis = true
		case "off", "false", "0", "no":
			s.DeepAnalysis = false
		default:
			return fmt.Errorf("deep analysis accepts on or off")
		}
	case "lang", "language":
		v := strings.ToLower(value)
		if !isSupportedLang(v) {
			return fmt.Errorf("supported languages: %s", strings.Join(SupportedLangs, ", "))
		}
		s.Lang = v
	default:
		return fmt.Errorf("unknown setting %q; use sources, depth or lang", key)
	}
	return nil
}

func isSupportedLang(lang string) bool {
	for _, l := range SupportedLangs {
		if l == lang {
			return true
		}
	}
	return false
}
