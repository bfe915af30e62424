package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
)

// AuditStore appends and queries the append-only audit log.
type AuditStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewAuditStore creates an audit store.
func NewAuditStore(db *gorm.DB, log zerolog.Logger) *AuditStore {
	return &AuditStore{db: db, log: log.With().Str("component", "audit").Logger()}
}

// Entry is the caller-facing shape of an audit append.
type Entry struct {
	GuildID   string
	UserID    string
	Action    string
	Details   map[string]any
	IPAddress string
}

// Append records one entry. A failed append is logged and swallowed: the audit
// log observes operations, it must never fail them.
func (s *AuditStore) Append(ctx context.Context, e Entry) {
	rec := models.AuditLog{
		ID:        uuid.NewString(),
		GuildID:   e.GuildID,
		UserID:    e.UserID,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: time.Now().UTC(),
		IPAddress: e.IPAddress,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.log.Error().Err(err).
			Str("guild_id", e.GuildID).
			Str("action", e.Action).
			Msg("failed to append audit entry")
	}
}

// ListQuery narrows a List call. Zero values mean "no filter".
type ListQuery struct {
	Action string
	UserID string
	Limit  int
	Offset int
}

// List returns a guild's entries, newest first.
func (s *AuditStore) List(ctx context.Context, guildID string, q ListQuery) ([]models.AuditLog, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}

	tx := s.db.WithContext(ctx).Where("guild_id = ?", guildID)
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}

	var entries []models.AuditLog
	err := tx.Order("timestamp DESC").Limit(q.Limit).Offset(q.Offset).Find(&entries).Error
	return entries, err
}

// Search matches entries whose action or detail payload contains the term.
func (s *AuditStore) Search(ctx context.Context, guildID, term string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + term + "%"
	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Where("action LIKE ? OR details LIKE ?", pattern, pattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Purge deletes entries older than the cutoff and returns how many were
// removed. Retention is driven externally, not by the stores.
func (s *AuditStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", olderThan).
		Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, res.Error
	}
	s.log.Info().Int64("deleted", res.RowsAffected).Msg("purged old audit entries")
	return res.RowsAffected, nil
}
