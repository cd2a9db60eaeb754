// Package api exposes the coordinators over HTTP/JSON: CRUD for events and
// shows, schedule expansion, and an SSE change feed.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/bus"
	"github.com/radioepoka/showcaster/internal/coordinator"
)

type Handlers struct {
	events *coordinator.Events
	shows  *coordinator.Shows
	broker *bus.Broker
	logger zerolog.Logger
}

func NewHandlers(events *coordinator.Events, shows *coordinator.Shows, broker *bus.Broker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		events: events,
		shows:  shows,
		broker: broker,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindStore, apperr.KindCalendar:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("write response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
	} else {
		h.logger.Debug().Err(err).Msg("request rejected")
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeBody decodes a JSON request body into v, treating malformed input as
// a validation error.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "read body")
	}
	if len(body) == 0 {
		return apperr.Validation("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return err
		}
		return apperr.Wrap(apperr.KindValidation, err, "decode body")
	}
	return nil
}
