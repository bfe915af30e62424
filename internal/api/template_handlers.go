package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digamber-in/digamber-bot/internal/store"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	user := userFrom(r.Context())

	templates, err := s.templates.List(r.Context(), guildID, user.UserID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch templates")
		return
	}
	respondData(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	templateID := chi.URLParam(r, "templateId")

	tmpl, err := s.templates.Get(r.Context(), templateID, guildID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch template")
		return
	}
	respondData(w, http.StatusOK, tmpl)
}

// requirePremiumFeatures gates premium-only template shapes: more than one
// embed, or any interactive components. Returns false after writing the 403.
func (s *Server) requirePremiumFeatures(w http.ResponseWriter, r *http.Request, guildID string, embeds, components int) bool {
	if embeds <= 1 && components == 0 {
		return true
	}
	active, err := s.premium.IsGuildActive(r.Context(), guildID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to check premium status")
		return false
	}
	if !active {
		respondError(w, http.StatusForbidden, "Premium required for advanced template features")
		return false
	}
	return true
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	user := userFrom(r.Context())

	var in store.TemplateInput
	if err := s.decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template payload")
		return
	}
	in.GuildID = guildID
	in.CreatedBy = user.UserID

	if !s.requirePremiumFeatures(w, r, guildID, len(in.Embeds), len(in.Components)) {
		return
	}

	tmpl, err := s.templates.Create(r.Context(), in, user.UserID, r.RemoteAddr)
	if err != nil {
		s.respondStoreError(w, err, "Failed to create template")
		return
	}
	respondData(w, http.StatusCreated, tmpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	templateID := chi.URLParam(r, "templateId")
	user := userFrom(r.Context())

	var patch store.TemplateUpdate
	if err := s.decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template payload")
		return
	}

	embeds, components := 0, 0
	if patch.Embeds != nil {
		embeds = len(*patch.Embeds)
	}
	if patch.Components != nil {
		components = len(*patch.Components)
	}
	if !s.requirePremiumFeatures(w, r, guildID, embeds, components) {
		return
	}

	tmpl, err := s.templates.Update(r.Context(), templateID, guildID, patch, user.UserID, r.RemoteAddr)
	if err != nil {
		s.respondStoreError(w, err, "Failed to update template")
		return
	}
	respondData(w, http.StatusOK, tmpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	templateID := chi.URLParam(r, "templateId")
	user := userFrom(r.Context())

	if err := s.templates.SoftDelete(r.Context(), templateID, guildID, user.UserID, r.RemoteAddr); err != nil {
		s.respondStoreError(w, err, "Failed to delete template")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "Template deleted"})
}

type sendTemplateRequest struct {
	ChannelID string `json:"channelId" validate:"required"`
}

func (s *Server) handleSendTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	templateID := chi.URLParam(r, "templateId")
	user := userFrom(r.Context())

	var req sendTemplateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "channelId is required")
		return
	}

	result, err := s.engine.Send(r.Context(), templateID, guildID, req.ChannelID, user.UserID, r.RemoteAddr)
	if err != nil {
		s.respondStoreError(w, err, "Failed to send template")
		return
	}
	respondData(w, http.StatusOK, result)
}

type scheduleTemplateRequest struct {
	ScheduledFor string `json:"scheduledFor" validate:"required"`
}

func (s *Server) handleScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	templateID := chi.URLParam(r, "templateId")
	user := userFrom(r.Context())

	var req scheduleTemplateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "scheduledFor is required")
		return
	}
	scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	// Scheduling is premium-only regardless of template shape.
	active, err := s.premium.IsGuildActive(r.Context(), guildID)
	if err != nil {
		s.respondStoreError(w, err, "Failed to check premium status")
		return
	}
	if !active {
		respondError(w, http.StatusForbidden, "Premium required for scheduled messages")
		return
	}

	tmpl, err := s.templates.Schedule(r.Context(), templateID, scheduledFor, guildID, user.UserID, r.RemoteAddr)
	if err != nil {
		s.respondStoreError(w, err, "Failed to schedule template")
		return
	}
	respondData(w, http.StatusOK, tmpl)
}
