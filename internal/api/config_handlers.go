package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digamber-in/digamber-bot/internal/store"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")

	cfg, err := s.configs.Get(r.Context(), guildID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch guild config")
		return
	}
	respondData(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	user := userFrom(r.Context())

	var patch store.ConfigUpdate
	if err := s.decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid config payload")
		return
	}

	cfg, err := s.configs.Update(r.Context(), guildID, patch, user.UserID, r.RemoteAddr)
	if err != nil {
		s.respondStoreError(w, err, "Failed to update guild config")
		return
	}
	respondData(w, http.StatusOK, cfg)
}
