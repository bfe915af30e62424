package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
)

// GuildConfigStore owns the per-guild settings singleton.
type GuildConfigStore struct {
	db    *gorm.DB
	audit *AuditStore
	log   zerolog.Logger
}

// NewGuildConfigStore creates a guild config store.
func NewGuildConfigStore(db *gorm.DB, audit *AuditStore, log zerolog.Logger) *GuildConfigStore {
	return &GuildConfigStore{db: db, audit: audit, log: log.With().Str("component", "guildconfig").Logger()}
}

// Get returns the guild's config, creating one with defaults on first read.
func (s *GuildConfigStore) Get(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var cfg models.GuildConfig
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.GuildConfig{
			GuildID:         guildID,
			AutoAssignRoles: []string{},
			AdminRoles:      []string{},
			ModeratorRoles:  []string{},
			WelcomeMessage:  models.DefaultWelcomeMessage,
			UpdatedBy:       "system",
		}
		if err := s.db.WithContext(ctx).Create(&cfg).Error; err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigUpdate is a partial update of a guild's settings; nil fields are left
// untouched.
type ConfigUpdate struct {
	AutoAssignRoles  *[]string `json:"autoAssignRoles,omitempty"`
	AdminRoles       *[]string `json:"adminRoles,omitempty"`
	ModeratorRoles   *[]string `json:"moderatorRoles,omitempty"`
	WelcomeChannelID *string   `json:"welcomeChannelId,omitempty"`
	WelcomeMessage   *string   `json:"welcomeMessage,omitempty"`
	AuditChannelID   *string   `json:"auditChannelId,omitempty"`
}

// Update merges the patch into the config and audits the change.
func (s *GuildConfigStore) Update(ctx context.Context, guildID string, patch ConfigUpdate, actorID, ip string) (*models.GuildConfig, error) {
	cfg, err := s.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if patch.AutoAssignRoles != nil {
		cfg.AutoAssignRoles = *patch.AutoAssignRoles
	}
	if patch.AdminRoles != nil {
		cfg.AdminRoles = *patch.AdminRoles
	}
	if patch.ModeratorRoles != nil {
		cfg.ModeratorRoles = *patch.ModeratorRoles
	}
	if patch.WelcomeChannelID != nil {
		cfg.WelcomeChannelID = *patch.WelcomeChannelID
	}
	if patch.WelcomeMessage != nil {
		cfg.WelcomeMessage = *patch.WelcomeMessage
	}
	if patch.AuditChannelID != nil {
		cfg.AuditChannelID = *patch.AuditChannelID
	}
	cfg.UpdatedBy = actorID

	if err := s.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID:   guildID,
		UserID:    actorID,
		Action:    models.ActionConfigUpdated,
		Details:   map[string]any{"guildId": guildID},
		IPAddress: ip,
	})

	s.log.Info().Str("guild_id", guildID).Str("actor_id", actorID).Msg("guild config updated")
	return cfg, nil
}
