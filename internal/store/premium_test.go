package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
)

type fakeFetcher struct {
	state *SubscriptionState
	err   error
}

func (f *fakeFetcher) SubscriptionState(_ context.Context, _ string) (*SubscriptionState, error) {
	return f.state, f.err
}

func newPremiumStore(t *testing.T, db *gorm.DB, fetcher SubscriptionFetcher, now time.Time) *PremiumStore {
	t.Helper()
	s := NewPremiumStore(db, testAudit(t, db), fetcher, zerolog.Nop())
	s.timeFunc = func() time.Time { return now }
	return s
}

func insertGrant(t *testing.T, db *gorm.DB, subID string, status models.PremiumStatus, periodEnd time.Time) models.PremiumGrant {
	t.Helper()
	grant := models.PremiumGrant{
		ID:                   uuid.NewString(),
		UserID:               testUserID,
		GuildID:              testGuildID,
		Tier:                 models.TierMonthly,
		StripeSubscriptionID: subID,
		StripeCustomerID:     "cus_test",
		Status:               status,
		CurrentPeriodEnd:     periodEnd,
		PurchasedAt:          time.Now().UTC(),
	}
	require.NoError(t, db.Create(&grant).Error)
	return grant
}

func TestActivateCopiesSubscriptionState(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	periodEnd := now.Add(30 * 24 * time.Hour)
	store := newPremiumStore(t, db, &fakeFetcher{state: &SubscriptionState{
		ID:               "sub_123",
		Status:           models.StatusActive,
		CurrentPeriodEnd: periodEnd,
		Interval:         "month",
		Metadata:         map[string]string{"guildId": testGuildID},
	}}, now)

	grant, err := store.Activate(context.Background(), "sub_123", "cus_123", testUserID, testGuildID, models.TierMonthly)
	require.NoError(t, err)
	assert.Equal(t, "sub_123", grant.StripeSubscriptionID)
	assert.Equal(t, "cus_123", grant.StripeCustomerID)
	assert.Equal(t, models.StatusActive, grant.Status)
	assert.WithinDuration(t, periodEnd, grant.CurrentPeriodEnd, time.Second)
	assert.WithinDuration(t, now, grant.PurchasedAt, time.Second)

	var logs []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.ActionPremiumActivated).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, testGuildID, logs[0].GuildID)
}

func TestActivateFetchFailureWritesNothing(t *testing.T) {
	db := testDB(t)
	store := newPremiumStore(t, db, &fakeFetcher{err: errors.New("stripe down")}, time.Now().UTC())

	_, err := store.Activate(context.Background(), "sub_123", "cus_123", testUserID, testGuildID, models.TierMonthly)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PremiumGrant{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStatusUnknownSubscriptionIsNoOp(t *testing.T) {
	db := testDB(t)
	store := newPremiumStore(t, db, nil, time.Now().UTC())

	err := store.UpdateStatus(context.Background(), "sub_missing", models.StatusPastDue)
	assert.NoError(t, err)
}

func TestUpdateStatusIsIdempotent(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_repeat", models.StatusActive, now.Add(time.Hour))

	require.NoError(t, store.UpdateStatus(context.Background(), "sub_repeat", models.StatusPastDue))
	var first models.PremiumGrant
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_repeat").First(&first).Error)

	require.NoError(t, store.UpdateStatus(context.Background(), "sub_repeat", models.StatusPastDue))
	var second models.PremiumGrant
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_repeat").First(&second).Error)

	assert.Equal(t, models.StatusPastDue, second.Status)
	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)
}

func TestCancelStampsCanceledAt(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_cancel", models.StatusActive, now.Add(time.Hour))

	require.NoError(t, store.Cancel(context.Background(), "sub_cancel", "user requested"))

	var grant models.PremiumGrant
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_cancel").First(&grant).Error)
	assert.Equal(t, models.StatusCanceled, grant.Status)
	require.NotNil(t, grant.CanceledAt)
	assert.WithinDuration(t, now, *grant.CanceledAt, time.Second)
}

func TestCancelUnknownSubscriptionIsNoOp(t *testing.T) {
	db := testDB(t)
	store := newPremiumStore(t, db, nil, time.Now().UTC())
	assert.NoError(t, store.Cancel(context.Background(), "sub_missing", ""))
}

func TestActiveForGuildExpiresLazily(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_expired", models.StatusActive, now.Add(-time.Hour))

	grant, err := store.ActiveForGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Nil(t, grant)

	var stored models.PremiumGrant
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_expired").First(&stored).Error)
	assert.Equal(t, models.StatusPastDue, stored.Status)
}

func TestActiveForGuildPicksLatestPeriodEnd(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_near", models.StatusActive, now.Add(24*time.Hour))
	insertGrant(t, db, "sub_far", models.StatusActive, now.Add(48*time.Hour))

	grant, err := store.ActiveForGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	require.NotNil(t, grant)
	assert.Equal(t, "sub_far", grant.StripeSubscriptionID)
}

func TestActiveForGuildCountsTrialing(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_trial", models.StatusTrialing, now.Add(time.Hour))

	active, err := store.IsGuildActive(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestActiveForUserSweepsExpiredGrants(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	insertGrant(t, db, "sub_live", models.StatusActive, now.Add(time.Hour))
	insertGrant(t, db, "sub_stale", models.StatusActive, now.Add(-time.Hour))

	grants, err := store.ActiveForUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "sub_live", grants[0].StripeSubscriptionID)
}

func TestOverrideSupersedesExistingGrant(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	old := insertGrant(t, db, "sub_old", models.StatusActive, now.Add(time.Hour))

	require.NoError(t, store.Override(context.Background(), testGuildID, testUserID, models.TierLifetime, testUserID))

	var superseded models.PremiumGrant
	require.NoError(t, db.Where("id = ?", old.ID).First(&superseded).Error)
	assert.Equal(t, models.StatusCanceled, superseded.Status)

	grant, err := store.ActiveForGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	require.NotNil(t, grant)
	assert.Equal(t, models.AdminOverrideSentinel, grant.StripeSubscriptionID)
	assert.Equal(t, models.TierLifetime, grant.Tier)
	assert.Equal(t, 2099, grant.CurrentPeriodEnd.Year())

	var activeCount int64
	require.NoError(t, db.Model(&models.PremiumGrant{}).
		Where("guild_id = ? AND status = ?", testGuildID, models.StatusActive).
		Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)
}

func TestOverrideExpiryLeavesOtherGuildsIntact(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)
	otherGuildID := "999999999999999999"

	// Both override grants share the sentinel subscription id.
	require.NoError(t, store.Override(context.Background(), testGuildID, testUserID, models.TierMonthly, testUserID))
	require.NoError(t, store.Override(context.Background(), otherGuildID, testUserID, models.TierLifetime, testUserID))

	// 31 days later the monthly override has lapsed, the lifetime one has not.
	store.timeFunc = func() time.Time { return now.Add(31 * 24 * time.Hour) }

	expired, err := store.ActiveForGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Nil(t, expired)

	survivor, err := store.ActiveForGuild(context.Background(), otherGuildID)
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Equal(t, models.TierLifetime, survivor.Tier)
	assert.Equal(t, models.StatusActive, survivor.Status)
}

func TestOverrideMonthlyRunsThirtyDays(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newPremiumStore(t, db, nil, now)

	require.NoError(t, store.Override(context.Background(), testGuildID, testUserID, models.TierMonthly, testUserID))

	grant, err := store.ActiveForGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	require.NotNil(t, grant)
	assert.WithinDuration(t, now.Add(30*24*time.Hour), grant.CurrentPeriodEnd, time.Second)
}
