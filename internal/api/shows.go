package api

import (
	"net/http"

	"github.com/radioepoka/showcaster/internal/coordinator"
	"github.com/radioepoka/showcaster/internal/model"
)

type showPage struct {
	Count  int64        `json:"count"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Shows  []model.Show `json:"shows"`
}

func (h *Handlers) ListShows(w http.ResponseWriter, r *http.Request) {
	p, limit, err := parseShowListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}

	shows, err := h.shows.List(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	count, err := h.shows.Count(r.Context(), p.Where)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if shows == nil {
		shows = []model.Show{}
	}

	h.writeJSON(w, http.StatusOK, showPage{
		Count:  count,
		Limit:  limit,
		Offset: p.Offset,
		Shows:  shows,
	})
}

func (h *Handlers) GetShow(w http.ResponseWriter, r *http.Request) {
	includeEvents, err := parseInclude(r.URL.Query(), "events")
	if err != nil {
		h.writeError(w, err)
		return
	}

	show, err := h.shows.Get(r.Context(), r.PathValue("id"), includeEvents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, show)
}

func (h *Handlers) CreateShow(w http.ResponseWriter, r *http.Request) {
	var in coordinator.ShowCreateInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	show, err := h.shows.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, show)
}

func (h *Handlers) PatchShow(w http.ResponseWriter, r *http.Request) {
	includeEvents, err := parseInclude(r.URL.Query(), "events")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var in coordinator.ShowUpdateInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	show, err := h.shows.Update(r.Context(), r.PathValue("id"), in, includeEvents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, show)
}

func (h *Handlers) DeleteShow(w http.ResponseWriter, r *http.Request) {
	if _, err := h.shows.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
