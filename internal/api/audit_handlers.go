package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digamber-in/digamber-bot/internal/store"
)

// handleAuditLog lists a guild's audit entries, newest first. ?search= switches
// to a free-text match on action and details; otherwise ?action=, ?userId= and
// ?limit= narrow the listing.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildId")
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))

	if term := q.Get("search"); term != "" {
		entries, err := s.audit.Search(r.Context(), guildID, term, limit)
		if err != nil {
			s.respondStoreError(w, err, "Failed to search audit log")
			return
		}
		respondData(w, http.StatusOK, entries)
		return
	}

	entries, err := s.audit.List(r.Context(), guildID, store.ListQuery{
		Action: q.Get("action"),
		UserID: q.Get("userId"),
		Limit:  limit,
	})
	if err != nil {
		s.respondStoreError(w, err, "Failed to fetch audit log")
		return
	}
	respondData(w, http.StatusOK, entries)
}
