package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digamber-in/digamber-bot/internal/billing"
	"github.com/digamber-in/digamber-bot/internal/models"
)

func (s *Server) handleGuildPremium(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")

	grant, err := s.premium.ActiveForGuild(r.Context(), guildID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch premium status")
		return
	}
	respondData(w, http.StatusOK, grant)
}

func (s *Server) handleUserPremium(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	grants, err := s.premium.ActiveForUser(r.Context(), user.UserID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch user premium status")
		return
	}
	respondData(w, http.StatusOK, grants)
}

type checkoutSessionRequest struct {
	PriceID    string `json:"priceId" validate:"required"`
	GuildID    string `json:"guildId" validate:"required"`
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if s.billing == nil {
		respondError(w, http.StatusServiceUnavailable, "Billing is not configured")
		return
	}

	var req checkoutSessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	session, err := s.billing.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		PriceID:    req.PriceID,
		GuildID:    req.GuildID,
		UserID:     user.DiscordID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", req.GuildID).Msg("failed to create checkout session")
		respondError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	respondData(w, http.StatusOK, map[string]string{"sessionId": session.ID, "url": session.URL})
}

type cancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

// handleCancelSubscription cancels a subscription the caller owns. Ownership
// is checked against the caller's own active grants; other users' grants look
// like 404, not 403.
func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	subscriptionID := chi.URLParam(r, "subscriptionId")

	if s.billing == nil {
		respondError(w, http.StatusServiceUnavailable, "Billing is not configured")
		return
	}

	var req cancelSubscriptionRequest
	_ = s.decodeJSON(r, &req) // reason is optional; a missing body is fine

	grants, err := s.premium.ActiveForUser(r.Context(), user.UserID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to cancel subscription")
		return
	}
	owned := false
	for _, g := range grants {
		if g.StripeSubscriptionID == subscriptionID {
			owned = true
			break
		}
	}
	if !owned {
		respondError(w, http.StatusNotFound, "Subscription not found or access denied")
		return
	}

	if err := s.billing.CancelSubscription(r.Context(), subscriptionID); err != nil {
		s.log.Error().Err(err).Str("subscription_id", subscriptionID).Msg("stripe cancel failed")
		respondError(w, http.StatusInternalServerError, "Failed to cancel subscription")
		return
	}
	if err := s.premium.Cancel(r.Context(), subscriptionID, req.Reason); err != nil {
		s.respondStoreError(w, err, "Failed to cancel subscription")
		return
	}

	respondData(w, http.StatusOK, map[string]string{"message": "Subscription canceled successfully"})
}

type overrideRequest struct {
	GuildID string `json:"guildId" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
	Tier    string `json:"tier" validate:"required,oneof=monthly lifetime"`
}

// handleOverride applies a manual premium grant. The store performs no
// authorization; this handler is the boundary that confirms the actor
// administers the target guild.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req overrideRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	isAdmin, err := s.admin.IsAdmin(r.Context(), req.GuildID, user.DiscordID)
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", req.GuildID).Msg("admin check failed")
		respondError(w, http.StatusInternalServerError, "Failed to override premium")
		return
	}
	if !isAdmin {
		respondError(w, http.StatusForbidden, "Admin access required")
		return
	}

	if err := s.premium.Override(r.Context(), req.GuildID, req.UserID, models.PremiumTier(req.Tier), user.DiscordID); err != nil {
		s.respondStoreError(w, err, "Failed to override premium")
		return
	}

	respondData(w, http.StatusOK, map[string]string{"message": "Premium override applied successfully"})
}
