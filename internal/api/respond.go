package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/digamber-in/digamber-bot/internal/delivery"
	"github.com/digamber-in/digamber-bot/internal/store"
	"github.com/digamber-in/digamber-bot/internal/validate"
)

// envelope is the JSON shape shared by every dashboard response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respond(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, envelope{Success: false, Error: msg})
}

// respondStoreError translates store and delivery failures into the envelope.
// Internal causes are logged by the caller, never leaked to the client.
func (s *Server) respondStoreError(w http.ResponseWriter, err error, fallback string) {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrTemplateNotFound),
		errors.Is(err, delivery.ErrGuildNotFound),
		errors.Is(err, delivery.ErrChannelNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON parses the request body into dst and validates struct tags.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validator.Struct(dst)
}
