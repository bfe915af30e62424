package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digamber-in/digamber-bot/internal/models"
)

func TestGetCreatesDefaults(t *testing.T) {
	db := testDB(t)
	store := NewGuildConfigStore(db, testAudit(t, db), zerolog.Nop())

	cfg, err := store.Get(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Equal(t, testGuildID, cfg.GuildID)
	assert.Equal(t, models.DefaultWelcomeMessage, cfg.WelcomeMessage)
	assert.Equal(t, "system", cfg.UpdatedBy)
	assert.Empty(t, cfg.AutoAssignRoles)
	assert.Empty(t, cfg.AdminRoles)

	// A second read returns the same row, not another default.
	again, err := store.Get(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Equal(t, cfg.GuildID, again.GuildID)

	var count int64
	require.NoError(t, db.Model(&models.GuildConfig{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateMergesPatchAndAudits(t *testing.T) {
	db := testDB(t)
	store := NewGuildConfigStore(db, testAudit(t, db), zerolog.Nop())

	channel := "456789012345678901"
	roles := []string{"567890123456789012"}
	cfg, err := store.Update(context.Background(), testGuildID, ConfigUpdate{
		WelcomeChannelID: &channel,
		AdminRoles:       &roles,
	}, testUserID, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, channel, cfg.WelcomeChannelID)
	assert.Equal(t, roles, cfg.AdminRoles)
	assert.Equal(t, testUserID, cfg.UpdatedBy)
	// Untouched fields keep their defaults.
	assert.Equal(t, models.DefaultWelcomeMessage, cfg.WelcomeMessage)

	var logs []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.ActionConfigUpdated).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, testUserID, logs[0].UserID)
	assert.Equal(t, "127.0.0.1", logs[0].IPAddress)
}
