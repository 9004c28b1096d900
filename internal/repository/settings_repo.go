package repository

import (
	"context"
	"errors"

	"github.com/timmy/researchbot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository persists per-chat user settings.
type SettingsRepository struct {
	db       *gorm.DB
	defaults domain.UserSettings
}

// NewSettingsRepository creates a new SettingsRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//   - defaults: settings template applied on first access for a chat.
// Returns:
//   - *SettingsRepository: repository instance bound to db.
func NewSettingsRepository(db *gorm.DB, defaults domain.UserSettings) *SettingsRepository {
	return &SettingsRepository{db: db, defaults: defaults}
}

// GetOrInit returns the settings for a chat, creating and persisting the
// defaults if the chat has none yet.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - chatID: owning chat identifier.
// Returns:
//   - *domain.UserSettings: existing or freshly initialized settings.
//   - error: non-nil if lookup or creation fails.
func (r *SettingsRepository) GetOrInit(ctx context.Context, chatID int64) (*domain.UserSettings, error) {
	var settings domain.UserSettings
	err := r.db.WithContext(ctx).First(&settings, "chat_id = ?", chatID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = r.defaults
	settings.ChatID = chatID
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save persists updated settings for a chat.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - settings: settings record to persist.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *SettingsRepository) Save(ctx context.Context, settings *domain.UserSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
