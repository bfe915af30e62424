package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/validate"
)

// TemplateStore owns the template lifecycle. Deletion is always soft.
type TemplateStore struct {
	db    *gorm.DB
	audit *AuditStore
	log   zerolog.Logger
}

// NewTemplateStore creates a template store.
func NewTemplateStore(db *gorm.DB, audit *AuditStore, log zerolog.Logger) *TemplateStore {
	return &TemplateStore{db: db, audit: audit, log: log.With().Str("component", "templates").Logger()}
}

// TemplateInput is the caller-supplied shape of a create or update.
type TemplateInput struct {
	Name         string                `json:"name"`
	Content      string                `json:"content"`
	Embeds       []models.EmbedSpec    `json:"embeds,omitempty"`
	Components   []models.ComponentRow `json:"components,omitempty"`
	ScheduledFor string                `json:"scheduledFor,omitempty"` // RFC 3339
	GuildID      string                `json:"guildId"`
	CreatedBy    string                `json:"createdBy"`
}

// validateInput collects every violated constraint rather than stopping at the
// first, so the dashboard can show them all at once.
func validateInput(in TemplateInput) (scheduledFor *time.Time, err error) {
	var violations []string

	if strings.TrimSpace(in.Name) == "" {
		violations = append(violations, "template name is required")
	}
	if in.Content == "" {
		violations = append(violations, "template content is required")
	}
	if !validate.Snowflake(in.GuildID) {
		violations = append(violations, "valid guild ID is required")
	}
	if !validate.Snowflake(in.CreatedBy) {
		violations = append(violations, "valid creator ID is required")
	}
	if in.ScheduledFor != "" {
		t, perr := time.Parse(time.RFC3339, in.ScheduledFor)
		if perr != nil {
			violations = append(violations, "invalid scheduled date")
		} else {
			utc := t.UTC()
			scheduledFor = &utc
		}
	}

	if verr := validate.NewValidationError(violations); verr != nil {
		return nil, verr
	}
	return scheduledFor, nil
}

// Create validates and persists a new template.
func (s *TemplateStore) Create(ctx context.Context, in TemplateInput, actorID, ip string) (*models.Template, error) {
	scheduledFor, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	tmpl := models.Template{
		ID:           uuid.NewString(),
		GuildID:      in.GuildID,
		Name:         in.Name,
		Content:      in.Content,
		Embeds:       in.Embeds,
		Components:   in.Components,
		ScheduledFor: scheduledFor,
		CreatedBy:    in.CreatedBy,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&tmpl).Error; err != nil {
		return nil, fmt.Errorf("persist template: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID:   in.GuildID,
		UserID:    actorID,
		Action:    models.ActionTemplateCreated,
		Details:   map[string]any{"templateId": tmpl.ID, "name": tmpl.Name},
		IPAddress: ip,
	})

	s.log.Info().Str("template_id", tmpl.ID).Str("actor_id", actorID).Msg("template created")
	return &tmpl, nil
}

// List returns a guild's active templates, newest first. A non-empty createdBy
// narrows the result to one creator.
func (s *TemplateStore) List(ctx context.Context, guildID, createdBy string) ([]models.Template, error) {
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND is_active = ?", guildID, true)
	if createdBy != "" {
		tx = tx.Where("created_by = ?", createdBy)
	}

	var templates []models.Template
	err := tx.Order("created_at DESC").Find(&templates).Error
	return templates, err
}

// Get returns one active template scoped to the guild.
func (s *TemplateStore) Get(ctx context.Context, templateID, guildID string) (*models.Template, error) {
	var tmpl models.Template
	err := s.db.WithContext(ctx).
		Where("id = ? AND guild_id = ? AND is_active = ?", templateID, guildID, true).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// TemplateUpdate carries a partial update; nil fields are left untouched.
type TemplateUpdate struct {
	Name         *string                `json:"name,omitempty"`
	Content      *string                `json:"content,omitempty"`
	Embeds       *[]models.EmbedSpec    `json:"embeds,omitempty"`
	Components   *[]models.ComponentRow `json:"components,omitempty"`
	ScheduledFor *string                `json:"scheduledFor,omitempty"`
}

// Update merges the patch into the stored template, re-validates the merged
// result, and saves it. Re-validating on partial updates is stricter than
// accepting the patch blindly, and keeps stored templates always renderable.
func (s *TemplateStore) Update(ctx context.Context, templateID, guildID string, patch TemplateUpdate, actorID, ip string) (*models.Template, error) {
	tmpl, err := s.Get(ctx, templateID, guildID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		tmpl.Name = *patch.Name
	}
	if patch.Content != nil {
		tmpl.Content = *patch.Content
	}
	if patch.Embeds != nil {
		tmpl.Embeds = *patch.Embeds
	}
	if patch.Components != nil {
		tmpl.Components = *patch.Components
	}

	merged := TemplateInput{
		Name:      tmpl.Name,
		Content:   tmpl.Content,
		GuildID:   tmpl.GuildID,
		CreatedBy: tmpl.CreatedBy,
	}
	if patch.ScheduledFor != nil {
		merged.ScheduledFor = *patch.ScheduledFor
	}
	scheduledFor, err := validateInput(merged)
	if err != nil {
		return nil, err
	}
	if patch.ScheduledFor != nil {
		tmpl.ScheduledFor = scheduledFor
	}

	if err := s.db.WithContext(ctx).Save(tmpl).Error; err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID:   guildID,
		UserID:    actorID,
		Action:    models.ActionTemplateUpdated,
		Details:   map[string]any{"templateId": templateID},
		IPAddress: ip,
	})

	s.log.Info().Str("template_id", templateID).Str("actor_id", actorID).Msg("template updated")
	return tmpl, nil
}

// SoftDelete marks the template inactive. Already-inactive templates report
// ErrTemplateNotFound, same as absent ones.
func (s *TemplateStore) SoftDelete(ctx context.Context, templateID, guildID, actorID, ip string) error {
	tmpl, err := s.Get(ctx, templateID, guildID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(tmpl).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID:   guildID,
		UserID:    actorID,
		Action:    models.ActionTemplateDeleted,
		Details:   map[string]any{"templateId": templateID, "name": tmpl.Name},
		IPAddress: ip,
	})

	s.log.Info().Str("template_id", templateID).Str("actor_id", actorID).Msg("template deleted")
	return nil
}

// Schedule stamps scheduledFor on the template. Premium gating for scheduling
// belongs to the API layer, not the store.
func (s *TemplateStore) Schedule(ctx context.Context, templateID string, scheduledFor time.Time, guildID, actorID, ip string) (*models.Template, error) {
	tmpl, err := s.Get(ctx, templateID, guildID)
	if err != nil {
		return nil, err
	}

	utc := scheduledFor.UTC()
	if err := s.db.WithContext(ctx).Model(tmpl).Update("scheduled_for", utc).Error; err != nil {
		return nil, fmt.Errorf("schedule template: %w", err)
	}
	tmpl.ScheduledFor = &utc

	s.audit.Append(ctx, Entry{
		GuildID:   guildID,
		UserID:    actorID,
		Action:    models.ActionTemplateScheduled,
		Details:   map[string]any{"templateId": templateID, "scheduledFor": utc},
		IPAddress: ip,
	})

	s.log.Info().
		Str("template_id", templateID).
		Time("scheduled_for", utc).
		Msg("template scheduled")
	return tmpl, nil
}
