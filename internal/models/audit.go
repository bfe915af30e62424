package models

import "time"

// Audit action tags. The audit log only ever references records by id; it owns
// nothing it describes.
const (
	ActionPremiumActivated  = "PREMIUM_ACTIVATED"
	ActionPremiumCanceled   = "PREMIUM_CANCELED"
	ActionPremiumOverride   = "PREMIUM_OVERRIDE"
	ActionTemplateCreated   = "TEMPLATE_CREATED"
	ActionTemplateUpdated   = "TEMPLATE_UPDATED"
	ActionTemplateDeleted   = "TEMPLATE_DELETED"
	ActionTemplateScheduled = "TEMPLATE_SCHEDULED"
	ActionMessageSent       = "MESSAGE_SENT"
	ActionConfigUpdated     = "CONFIG_UPDATED"
	ActionRoleAdded         = "ROLE_ADDED"
	ActionRoleRemoved       = "ROLE_REMOVED"
	ActionNicknameChanged   = "NICKNAME_CHANGED"
)

// AuditLog is an immutable record of one administrative action.
type AuditLog struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GuildID   string         `gorm:"index;not null" json:"guildId"`
	UserID    string         `gorm:"index;not null" json:"userId"`
	Action    string         `gorm:"index;not null" json:"action"`
	Details   map[string]any `gorm:"serializer:json" json:"details"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
	IPAddress string         `json:"ipAddress,omitempty"`
}
