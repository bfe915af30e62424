package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
)

func insertAuditLog(t *testing.T, db *gorm.DB, action string, details map[string]any, ts time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.AuditLog{
		ID:        uuid.NewString(),
		GuildID:   testGuildID,
		UserID:    testUserID,
		Action:    action,
		Details:   details,
		Timestamp: ts,
	}).Error)
}

func TestAppendPersistsEntry(t *testing.T) {
	db := testDB(t)
	audit := testAudit(t, db)

	audit.Append(context.Background(), Entry{
		GuildID:   testGuildID,
		UserID:    testUserID,
		Action:    models.ActionMessageSent,
		Details:   map[string]any{"channelId": "42"},
		IPAddress: "10.0.0.1",
	})

	entries, err := audit.List(context.Background(), testGuildID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionMessageSent, entries[0].Action)
	assert.Equal(t, "42", entries[0].Details["channelId"])
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.NotEmpty(t, entries[0].ID)
}

func TestListNewestFirstWithFilters(t *testing.T) {
	db := testDB(t)
	audit := testAudit(t, db)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	insertAuditLog(t, db, models.ActionTemplateCreated, nil, base)
	insertAuditLog(t, db, models.ActionTemplateDeleted, nil, base.Add(time.Minute))
	insertAuditLog(t, db, models.ActionTemplateCreated, nil, base.Add(2*time.Minute))

	entries, err := audit.List(context.Background(), testGuildID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ActionTemplateCreated, entries[0].Action)
	assert.True(t, entries[0].Timestamp.After(entries[2].Timestamp))

	created, err := audit.List(context.Background(), testGuildID, ListQuery{Action: models.ActionTemplateCreated})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	limited, err := audit.List(context.Background(), testGuildID, ListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchMatchesActionAndDetails(t *testing.T) {
	db := testDB(t)
	audit := testAudit(t, db)
	now := time.Now().UTC()

	insertAuditLog(t, db, models.ActionPremiumOverride, map[string]any{"tier": "lifetime"}, now)
	insertAuditLog(t, db, models.ActionMessageSent, map[string]any{"channelId": "42"}, now)

	byAction, err := audit.Search(context.Background(), testGuildID, "OVERRIDE", 10)
	require.NoError(t, err)
	assert.Len(t, byAction, 1)

	byDetails, err := audit.Search(context.Background(), testGuildID, "lifetime", 10)
	require.NoError(t, err)
	assert.Len(t, byDetails, 1)
}

func TestPurgeRemovesOnlyOldEntries(t *testing.T) {
	db := testDB(t)
	audit := testAudit(t, db)
	now := time.Now().UTC()

	insertAuditLog(t, db, models.ActionMessageSent, nil, now.AddDate(0, 0, -120))
	insertAuditLog(t, db, models.ActionMessageSent, nil, now)

	deleted, err := audit.Purge(context.Background(), now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := audit.List(context.Background(), testGuildID, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
