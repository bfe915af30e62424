// Package billing wraps the Stripe SDK behind the narrow surface the rest of
// the bot needs, and reconciles asynchronous webhook events into premium grant
// state transitions.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"

	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/store"
)

// Client is the Stripe-facing side of billing: checkout sessions, subscription
// lookup/cancel, and webhook signature verification.
type Client struct {
	sc            *stripe.Client
	webhookSecret string
	log           zerolog.Logger
}

// NewClient creates a Stripe client. The webhook secret may be empty when the
// deployment does not receive webhooks (tests, local runs without Stripe CLI).
func NewClient(apiKey, webhookSecret string, log zerolog.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	return &Client{
		sc:            stripe.NewClient(apiKey),
		webhookSecret: strings.TrimSpace(webhookSecret),
		log:           log.With().Str("component", "billing").Logger(),
	}, nil
}

// CheckoutParams describes one dashboard-initiated checkout.
type CheckoutParams struct {
	PriceID    string
	GuildID    string
	UserID     string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession holds what the dashboard needs to redirect the user.
type CheckoutSession struct {
	ID  string
	URL string
}

// CreateCheckoutSession starts a subscription checkout. The guild and user ids
// ride along as metadata on both the session and the subscription so the
// webhook reconciler can attribute the resulting events.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.SubscriptionData = &stripe.CheckoutSessionCreateSubscriptionDataParams{}
	params.SubscriptionData.AddMetadata("guildId", p.GuildID)
	params.SubscriptionData.AddMetadata("userId", p.UserID)
	params.AddMetadata("guildId", p.GuildID)
	params.AddMetadata("userId", p.UserID)

	session, err := c.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	c.log.Info().
		Str("session_id", session.ID).
		Str("guild_id", p.GuildID).
		Msg("checkout session created")
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CancelSubscription cancels the subscription at Stripe immediately.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := c.sc.V1Subscriptions.Cancel(ctx, subscriptionID, nil)
	if err != nil {
		return fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	c.log.Info().Str("subscription_id", subscriptionID).Msg("subscription canceled at stripe")
	return nil
}

// SubscriptionState implements store.SubscriptionFetcher: it retrieves the
// authoritative subscription from Stripe and reduces it to the fields the
// premium store cares about.
func (c *Client) SubscriptionState(ctx context.Context, subscriptionID string) (*store.SubscriptionState, error) {
	sub, err := c.sc.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}
	return reduceSubscription(sub), nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload and
// returns the typed event.
func (c *Client) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := stripe.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// reduceSubscription maps a Stripe subscription onto the store's view of it.
// Period end and billing interval live on the subscription items; the latest
// item period end wins.
func reduceSubscription(sub *stripe.Subscription) *store.SubscriptionState {
	state := &store.SubscriptionState{
		ID:     sub.ID,
		Status: models.PremiumStatus(sub.Status),
	}

	if sub.Metadata != nil {
		state.Metadata = sub.Metadata
	}

	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.CurrentPeriodEnd > 0 {
				end := stripeTime(item.CurrentPeriodEnd)
				if end.After(state.CurrentPeriodEnd) {
					state.CurrentPeriodEnd = end
				}
			}
			if state.Interval == "" && item.Price != nil && item.Price.Recurring != nil {
				state.Interval = string(item.Price.Recurring.Interval)
			}
		}
	}

	return state
}

func stripeTime(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}
