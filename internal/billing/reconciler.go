package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"

	"github.com/digamber-in/digamber-bot/internal/metrics"
	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/store"
)

const maxWebhookBody = 256 * 1024

// EntitlementWriter is the slice of the premium store the reconciler mutates.
type EntitlementWriter interface {
	Activate(ctx context.Context, subscriptionID, customerID, userID, guildID string, tier models.PremiumTier) (*models.PremiumGrant, error)
	UpdateStatus(ctx context.Context, subscriptionID string, status models.PremiumStatus) error
	Cancel(ctx context.Context, subscriptionID, reason string) error
}

// WebhookVerifier turns a raw payload plus signature header into a typed
// event. Implemented by Client.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

// Reconciler folds asynchronous Stripe events into premium grant transitions.
// Each event maps to exactly one store call; unrecognized event types fall
// through to a logged no-op.
type Reconciler struct {
	verifier WebhookVerifier
	fetcher  store.SubscriptionFetcher
	premium  EntitlementWriter
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewReconciler wires the webhook reconciler.
func NewReconciler(verifier WebhookVerifier, fetcher store.SubscriptionFetcher, premium EntitlementWriter, m *metrics.Metrics, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		fetcher:  fetcher,
		premium:  premium,
		metrics:  m,
		log:      log.With().Str("component", "webhook").Logger(),
	}
}

// Handler serves POST /webhooks/stripe. Signature failures return 400 so
// Stripe's own retry/backoff applies; everything past verification is
// acknowledged unless a store write fails.
func (r *Reconciler) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		event, err := r.verifier.VerifyWebhook(body, req.Header.Get("Stripe-Signature"))
		if err != nil {
			r.log.Error().Err(err).Msg("webhook signature verification failed")
			r.metrics.WebhookEvents.WithLabelValues("unknown", "auth_failed").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid signature"})
			return
		}

		eventType := string(event.Type)
		if err := r.Process(req.Context(), event); err != nil {
			r.log.Error().Err(err).Str("event_type", eventType).Msg("webhook handler failed")
			r.metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Webhook handler failed"})
			return
		}

		r.metrics.WebhookEvents.WithLabelValues(eventType, "success").Inc()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]bool{"received": true}})
	})
}

// Process dispatches one verified event.
func (r *Reconciler) Process(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return r.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		return r.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return r.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		return r.handleInvoicePayment(ctx, event, models.StatusActive)
	case "invoice.payment_failed":
		return r.handleInvoicePayment(ctx, event, models.StatusPastDue)
	default:
		r.log.Info().Str("event_type", string(event.Type)).Msg("unhandled stripe event type")
		return nil
	}
}

// handleCheckoutCompleted activates premium for the guild named in the session
// metadata. Malformed sessions are dropped with a logged error and still
// acknowledged: surfacing them would only trigger Stripe retry storms for
// events that can never succeed.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		r.log.Error().Err(err).Msg("failed to unmarshal checkout session")
		return nil
	}

	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	guildID := session.Metadata["guildId"]
	userID := session.Metadata["userId"]

	if subscriptionID == "" || customerID == "" || guildID == "" || userID == "" {
		r.log.Error().
			Str("session_id", session.ID).
			Str("subscription_id", subscriptionID).
			Str("guild_id", guildID).
			Msg("checkout session missing required data, dropping")
		return nil
	}

	sub, err := r.fetcher.SubscriptionState(ctx, subscriptionID)
	if err != nil {
		return err
	}

	tier := models.TierLifetime
	if sub.Interval == "month" {
		tier = models.TierMonthly
	}

	if _, err := r.premium.Activate(ctx, subscriptionID, customerID, userID, guildID, tier); err != nil {
		return err
	}

	r.log.Info().
		Str("subscription_id", subscriptionID).
		Str("guild_id", guildID).
		Str("tier", string(tier)).
		Msg("premium activated via checkout")
	return nil
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		r.log.Error().Err(err).Msg("failed to unmarshal subscription")
		return nil
	}
	return r.premium.UpdateStatus(ctx, sub.ID, models.PremiumStatus(sub.Status))
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		r.log.Error().Err(err).Msg("failed to unmarshal subscription")
		return nil
	}
	return r.premium.Cancel(ctx, sub.ID, "subscription_deleted")
}

func (r *Reconciler) handleInvoicePayment(ctx context.Context, event stripe.Event, status models.PremiumStatus) error {
	subscriptionID := invoiceSubscriptionID(event.Data.Raw)
	if subscriptionID == "" {
		// Not a subscription invoice.
		return nil
	}
	return r.premium.UpdateStatus(ctx, subscriptionID, status)
}

// invoiceSubscriptionID digs the subscription id out of the raw invoice
// payload. Depending on API version it arrives as a plain id string or as an
// expanded object.
func invoiceSubscriptionID(raw json.RawMessage) string {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	switch v := data["subscription"].(type) {
	case string:
		return v
	case map[string]any:
		if id, ok := v["id"].(string); ok {
			return id
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
