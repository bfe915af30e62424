package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/validate"
)

func newTemplateStore(t *testing.T, db *gorm.DB) *TemplateStore {
	t.Helper()
	return NewTemplateStore(db, testAudit(t, db), zerolog.Nop())
}

func validInput() TemplateInput {
	return TemplateInput{
		Name:      "welcome",
		Content:   "Hello there!",
		GuildID:   testGuildID,
		CreatedBy: testUserID,
	}
}

func TestCreateCollectsEveryViolation(t *testing.T) {
	store := newTemplateStore(t, testDB(t))

	_, err := store.Create(context.Background(), TemplateInput{ScheduledFor: "not-a-date"}, testUserID, "")
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"template name is required",
		"template content is required",
		"valid guild ID is required",
		"valid creator ID is required",
		"invalid scheduled date",
	}, verr.Violations)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	db := testDB(t)
	store := newTemplateStore(t, db)

	in := validInput()
	in.Embeds = []models.EmbedSpec{{Title: "Rules", Color: 0xFF0000, Fields: []models.EmbedField{{Name: "1", Value: "Be kind"}}}}
	in.Components = []models.ComponentRow{{Components: []models.Component{{Type: models.ComponentTypeButton, Label: "Accept", CustomID: "accept"}}}}

	created, err := store.Create(context.Background(), in, testUserID, "")
	require.NoError(t, err)

	got, err := store.Get(context.Background(), created.ID, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.Name)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Rules", got.Embeds[0].Title)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "accept", got.Components[0].Components[0].CustomID)
	assert.True(t, got.IsActive)

	var logs []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.ActionTemplateCreated).Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestGetScopedToGuild(t *testing.T) {
	store := newTemplateStore(t, testDB(t))
	created, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), created.ID, "999999999999999999")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestUpdateRevalidatesMergedResult(t *testing.T) {
	store := newTemplateStore(t, testDB(t))
	created, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	empty := ""
	_, err = store.Update(context.Background(), created.ID, testGuildID, TemplateUpdate{Content: &empty}, testUserID, "")
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "template content is required")
}

func TestUpdateMergesPatch(t *testing.T) {
	store := newTemplateStore(t, testDB(t))
	created, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	name := "farewell"
	updated, err := store.Update(context.Background(), created.ID, testGuildID, TemplateUpdate{Name: &name}, testUserID, "")
	require.NoError(t, err)
	assert.Equal(t, "farewell", updated.Name)
	assert.Equal(t, "Hello there!", updated.Content)
}

func TestSoftDeleteHidesTemplate(t *testing.T) {
	db := testDB(t)
	store := newTemplateStore(t, db)
	created, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	require.NoError(t, store.SoftDelete(context.Background(), created.ID, testGuildID, testUserID, ""))

	_, err = store.Get(context.Background(), created.ID, testGuildID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	// Deleting again reports not found too.
	err = store.SoftDelete(context.Background(), created.ID, testGuildID, testUserID, "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	// The row survives with is_active=false.
	var stored models.Template
	require.NoError(t, db.Where("id = ?", created.ID).First(&stored).Error)
	assert.False(t, stored.IsActive)
}

func TestListFiltersByCreatorAndActivity(t *testing.T) {
	store := newTemplateStore(t, testDB(t))

	first, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	other := validInput()
	other.Name = "other"
	other.CreatedBy = "345678901234567890"
	_, err = store.Create(context.Background(), other, other.CreatedBy, "")
	require.NoError(t, err)

	deleted := validInput()
	deleted.Name = "gone"
	goneTmpl, err := store.Create(context.Background(), deleted, testUserID, "")
	require.NoError(t, err)
	require.NoError(t, store.SoftDelete(context.Background(), goneTmpl.ID, testGuildID, testUserID, ""))

	all, err := store.List(context.Background(), testGuildID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := store.List(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestScheduleStampsTime(t *testing.T) {
	store := newTemplateStore(t, testDB(t))
	created, err := store.Create(context.Background(), validInput(), testUserID, "")
	require.NoError(t, err)

	when := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	scheduled, err := store.Schedule(context.Background(), created.ID, when, testGuildID, testUserID, "")
	require.NoError(t, err)
	require.NotNil(t, scheduled.ScheduledFor)
	assert.WithinDuration(t, when, *scheduled.ScheduledFor, time.Second)
}

func TestScheduleUnknownTemplate(t *testing.T) {
	store := newTemplateStore(t, testDB(t))
	_, err := store.Schedule(context.Background(), "missing", time.Now().UTC(), testGuildID, testUserID, "")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}
