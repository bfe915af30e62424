package models

import "time"

// PremiumTier is the billing plan attached to a grant.
type PremiumTier string

const (
	TierMonthly  PremiumTier = "monthly"
	TierLifetime PremiumTier = "lifetime"
)

// PremiumStatus mirrors the Stripe subscription status vocabulary.
type PremiumStatus string

const (
	StatusActive     PremiumStatus = "active"
	StatusCanceled   PremiumStatus = "canceled"
	StatusPastDue    PremiumStatus = "past_due"
	StatusTrialing   PremiumStatus = "trialing"
	StatusIncomplete PremiumStatus = "incomplete"
)

// AdminOverrideSentinel marks grants created by an administrator instead of a
// Stripe checkout. Such grants have no real subscription behind them.
const AdminOverrideSentinel = "admin_override"

// PremiumGrant is one premium subscription record for a (user, guild) pair.
// Grants are never hard-deleted; cancellation is a status transition.
type PremiumGrant struct {
	ID                   string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID               string        `gorm:"index;not null" json:"userId"`
	GuildID              string        `gorm:"index;not null" json:"guildId"`
	Tier                 PremiumTier   `gorm:"type:varchar(16);not null" json:"tier"`
	StripeSubscriptionID string        `gorm:"index" json:"stripeSubscriptionId"`
	StripeCustomerID     string        `json:"stripeCustomerId"`
	Status               PremiumStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CurrentPeriodEnd     time.Time     `json:"currentPeriodEnd"`
	PurchasedAt          time.Time     `json:"purchasedAt"`
	CanceledAt           *time.Time    `json:"canceledAt,omitempty"`
	Metadata             Metadata      `gorm:"serializer:json" json:"metadata,omitempty"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Metadata is an opaque key-value payload carried over from the payment
// processor or set by admin overrides.
type Metadata map[string]string

// EffectivelyActive reports whether the grant confers premium at the given
// instant: active or trialing status and a period end that has not passed.
func (g *PremiumGrant) EffectivelyActive(now time.Time) bool {
	if g.Status != StatusActive && g.Status != StatusTrialing {
		return false
	}
	return !g.CurrentPeriodEnd.Before(now)
}
