package models

import "time"

// DefaultWelcomeMessage is applied when a guild config is auto-created.
const DefaultWelcomeMessage = "Welcome {user} to {server}!"

// GuildConfig holds per-guild settings. Exactly one row per guild; it is
// auto-created with defaults on first read.
type GuildConfig struct {
	GuildID          string    `gorm:"primaryKey;type:varchar(20)" json:"guildId"`
	AutoAssignRoles  []string  `gorm:"serializer:json" json:"autoAssignRoles"`
	AdminRoles       []string  `gorm:"serializer:json" json:"adminRoles"`
	ModeratorRoles   []string  `gorm:"serializer:json" json:"moderatorRoles"`
	WelcomeChannelID string    `json:"welcomeChannelId,omitempty"`
	WelcomeMessage   string    `json:"welcomeMessage,omitempty"`
	AuditChannelID   string    `json:"auditChannelId,omitempty"`
	UpdatedBy        string    `json:"updatedBy"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
