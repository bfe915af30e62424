package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/digamber-in/digamber-bot/internal/models"
)

// lifetimePeriodEnd is the far-future period end applied to lifetime
// admin overrides.
var lifetimePeriodEnd = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)

const monthlyOverrideDuration = 30 * 24 * time.Hour

// SubscriptionState is the slice of a payment-processor subscription the
// premium store needs: authoritative status, period end, and metadata.
type SubscriptionState struct {
	ID               string
	Status           models.PremiumStatus
	CurrentPeriodEnd time.Time
	Interval         string // "month", "year", or "" for one-time prices
	Metadata         map[string]string
}

// SubscriptionFetcher retrieves authoritative subscription state from the
// payment processor. Implemented by billing.Client; faked in tests.
type SubscriptionFetcher interface {
	SubscriptionState(ctx context.Context, subscriptionID string) (*SubscriptionState, error)
}

// PremiumStore owns the premium grant lifecycle. Expiry is evaluated lazily on
// read; there is no background sweep.
type PremiumStore struct {
	db       *gorm.DB
	audit    *AuditStore
	fetcher  SubscriptionFetcher
	log      zerolog.Logger
	timeFunc func() time.Time
}

// NewPremiumStore creates a premium store backed by db, auditing through audit
// and resolving subscription state through fetcher.
func NewPremiumStore(db *gorm.DB, audit *AuditStore, fetcher SubscriptionFetcher, log zerolog.Logger) *PremiumStore {
	return &PremiumStore{
		db:       db,
		audit:    audit,
		fetcher:  fetcher,
		log:      log.With().Str("component", "premium").Logger(),
		timeFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Activate creates a grant for a completed checkout. Status and period end are
// copied from the processor's authoritative subscription state; a failed
// lookup propagates and nothing is written.
func (s *PremiumStore) Activate(ctx context.Context, subscriptionID, customerID, userID, guildID string, tier models.PremiumTier) (*models.PremiumGrant, error) {
	sub, err := s.fetcher.SubscriptionState(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", subscriptionID, err)
	}

	now := s.timeFunc()
	grant := models.PremiumGrant{
		ID:                   uuid.NewString(),
		UserID:               userID,
		GuildID:              guildID,
		Tier:                 tier,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		Status:               sub.Status,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		PurchasedAt:          now,
		Metadata:             sub.Metadata,
	}

	if err := s.db.WithContext(ctx).Create(&grant).Error; err != nil {
		return nil, fmt.Errorf("persist grant: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID: guildID,
		UserID:  userID,
		Action:  models.ActionPremiumActivated,
		Details: map[string]any{
			"subscriptionId": subscriptionID,
			"tier":           string(tier),
			"periodEnd":      grant.CurrentPeriodEnd,
		},
	})

	s.log.Info().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Str("subscription_id", subscriptionID).
		Msg("premium activated")

	return &grant, nil
}

// UpdateStatus overwrites the status of the grant with the given external
// subscription id. Only processor webhook events should call this; internal
// transitions key by grant id (admin overrides share a sentinel subscription
// id). A missing grant is a logged no-op, not an error: webhook events can
// race grant creation.
func (s *PremiumStore) UpdateStatus(ctx context.Context, subscriptionID string, status models.PremiumStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.PremiumGrant{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn().
			Str("subscription_id", subscriptionID).
			Str("status", string(status)).
			Msg("status update for unknown subscription, ignoring")
		return nil
	}
	s.log.Info().
		Str("subscription_id", subscriptionID).
		Str("status", string(status)).
		Msg("premium status updated")
	return nil
}

// Cancel marks the grant canceled and stamps canceledAt. A missing grant is a
// no-op.
func (s *PremiumStore) Cancel(ctx context.Context, subscriptionID, reason string) error {
	var grant models.PremiumGrant
	err := s.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn().Str("subscription_id", subscriptionID).Msg("cancel for unknown subscription, ignoring")
		return nil
	}
	if err != nil {
		return err
	}

	now := s.timeFunc()
	err = s.db.WithContext(ctx).
		Model(&grant).
		Updates(map[string]any{"status": models.StatusCanceled, "canceled_at": now}).Error
	if err != nil {
		return err
	}

	s.audit.Append(ctx, Entry{
		GuildID: grant.GuildID,
		UserID:  grant.UserID,
		Action:  models.ActionPremiumCanceled,
		Details: map[string]any{"subscriptionId": subscriptionID, "reason": reason},
	})

	s.log.Info().
		Str("subscription_id", subscriptionID).
		Str("reason", reason).
		Msg("premium canceled")
	return nil
}

// expireGrant flips a single grant to past_due, keyed by primary id. Admin
// overrides share the sentinel subscription id, so expiry must never key on
// stripe_subscription_id: that would revoke other guilds' overrides too.
func (s *PremiumStore) expireGrant(ctx context.Context, grant *models.PremiumGrant) error {
	err := s.db.WithContext(ctx).
		Model(&models.PremiumGrant{}).
		Where("id = ?", grant.ID).
		Update("status", models.StatusPastDue).Error
	if err != nil {
		return err
	}
	s.log.Info().
		Str("grant_id", grant.ID).
		Str("guild_id", grant.GuildID).
		Msg("premium grant expired")
	return nil
}

// ActiveForGuild returns the guild's effectively active grant, or nil. When
// several active grants exist (a data anomaly the schema does not prevent),
// the one with the latest period end wins. A grant whose period end has passed
// is transitioned to past_due before nil is returned.
func (s *PremiumStore) ActiveForGuild(ctx context.Context, guildID string) (*models.PremiumGrant, error) {
	var grant models.PremiumGrant
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND status IN ?", guildID, []models.PremiumStatus{models.StatusActive, models.StatusTrialing}).
		Order("current_period_end DESC").
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if grant.CurrentPeriodEnd.Before(s.timeFunc()) {
		if err := s.expireGrant(ctx, &grant); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &grant, nil
}

// ActiveForUser returns every effectively active grant of a user, applying the
// same lazy expiry sweep as ActiveForGuild to each record.
func (s *PremiumStore) ActiveForUser(ctx context.Context, userID string) ([]models.PremiumGrant, error) {
	var grants []models.PremiumGrant
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []models.PremiumStatus{models.StatusActive, models.StatusTrialing}).
		Order("current_period_end DESC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}

	now := s.timeFunc()
	valid := grants[:0]
	for i := range grants {
		if grants[i].CurrentPeriodEnd.Before(now) {
			if err := s.expireGrant(ctx, &grants[i]); err != nil {
				return nil, err
			}
			continue
		}
		valid = append(valid, grants[i])
	}
	return valid, nil
}

// IsGuildActive reports whether the guild currently has premium.
func (s *PremiumStore) IsGuildActive(ctx context.Context, guildID string) (bool, error) {
	grant, err := s.ActiveForGuild(ctx, guildID)
	if err != nil {
		return false, err
	}
	return grant != nil, nil
}

// Override is the administrative bypass: any existing active grant for the
// guild is superseded (canceled), then a sentinel grant is created. The two
// writes are not a transaction; a crash in between leaves the guild without
// premium, which the next read answers coherently. Authorization is the
// caller's responsibility.
func (s *PremiumStore) Override(ctx context.Context, guildID, userID string, tier models.PremiumTier, adminActorID string) error {
	now := s.timeFunc()

	var existing models.PremiumGrant
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, models.StatusActive).
		First(&existing).Error
	switch {
	case err == nil:
		err = s.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]any{"status": models.StatusCanceled, "canceled_at": now}).Error
		if err != nil {
			return fmt.Errorf("supersede grant %s: %w", existing.ID, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Nothing to supersede.
	default:
		return err
	}

	periodEnd := lifetimePeriodEnd
	if tier == models.TierMonthly {
		periodEnd = now.Add(monthlyOverrideDuration)
	}

	grant := models.PremiumGrant{
		ID:                   uuid.NewString(),
		UserID:               userID,
		GuildID:              guildID,
		Tier:                 tier,
		StripeSubscriptionID: models.AdminOverrideSentinel,
		StripeCustomerID:     models.AdminOverrideSentinel,
		Status:               models.StatusActive,
		CurrentPeriodEnd:     periodEnd,
		PurchasedAt:          now,
		Metadata:             models.Metadata{"adminOverride": "true", "adminUserId": adminActorID},
	}
	if err := s.db.WithContext(ctx).Create(&grant).Error; err != nil {
		return fmt.Errorf("persist override grant: %w", err)
	}

	s.audit.Append(ctx, Entry{
		GuildID: guildID,
		UserID:  adminActorID,
		Action:  models.ActionPremiumOverride,
		Details: map[string]any{"guildId": guildID, "tier": string(tier), "targetUserId": userID},
	})

	s.log.Info().
		Str("guild_id", guildID).
		Str("admin_id", adminActorID).
		Str("tier", string(tier)).
		Msg("premium override applied")
	return nil
}
