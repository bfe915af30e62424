package api

import (
	"net/http"
	"time"
)

const botVersion = "v1.0.0"

type generateTokenRequest struct {
	UserID    string `json:"userId" validate:"required"`
	DiscordID string `json:"discordId" validate:"required"`
}

// handleGenerateToken issues a short-lived dashboard token. Called by the
// dashboard backend after it completes Discord OAuth.
func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "userId and discordId are required")
		return
	}

	token, err := s.signToken(req.UserID, req.DiscordID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("discord_id", req.DiscordID).
		Msg("dashboard token issued")
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	respondData(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  map[string]string{"userId": user.UserID, "discordId": user.DiscordID},
	})
}

func (s *Server) handleBotInfo(w http.ResponseWriter, r *http.Request) {
	guilds := 0
	if s.guildCount != nil {
		guilds = s.guildCount()
	}
	respondData(w, http.StatusOK, map[string]any{
		"name":       "Digamber",
		"version":    botVersion,
		"uptime":     time.Since(s.startedAt).Seconds(),
		"guildCount": guilds,
	})
}
