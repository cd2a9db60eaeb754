package api

import (
	"net/http"
	"time"

	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/coordinator"
	"github.com/radioepoka/showcaster/internal/model"
)

type eventPage struct {
	Count  int64         `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Events []model.Event `json:"events"`
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	p, limit, err := parseEventListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}

	events, err := h.events.List(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	count, err := h.events.Count(r.Context(), p.Where, p.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	h.writeJSON(w, http.StatusOK, eventPage{
		Count:  count,
		Limit:  limit,
		Offset: p.Offset,
		Events: events,
	})
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	includeShow, err := parseInclude(r.URL.Query(), "show")
	if err != nil {
		h.writeError(w, err)
		return
	}

	event, err := h.events.Get(r.Context(), r.PathValue("id"), includeShow)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	includeShow, err := parseInclude(r.URL.Query(), "show")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var in coordinator.EventCreateInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), in, includeShow)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, event)
}

func (h *Handlers) PatchEvent(w http.ResponseWriter, r *http.Request) {
	includeShow, err := parseInclude(r.URL.Query(), "show")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var in coordinator.EventUpdateInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	event, err := h.events.Update(r.Context(), r.PathValue("id"), in, includeShow)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.events.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type schedulePage struct {
	Count     int64                        `json:"count"`
	Limit     int                          `json:"limit"`
	Offset    int                          `json:"offset"`
	Schedules []coordinator.ScheduledEvent `json:"schedules"`
}

// scheduleQuery is the calendar narrowing the schedule shares with its
// total count.
func scheduleQuery(start, end time.Time) calstore.Query {
	return calstore.TimeRangeQuery{Start: &start, End: &end}
}

func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, limit, err := parseEventListParams(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	start, end, err := parseWindow(q)
	if err != nil {
		h.writeError(w, err)
		return
	}

	scheduled, err := h.events.Schedule(r.Context(), coordinator.ScheduleParams{
		Start:       &start,
		End:         &end,
		Limit:       p.Limit,
		Offset:      p.Offset,
		Where:       p.Where,
		Order:       p.Order,
		IncludeShow: p.IncludeShow,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	count, err := h.events.Count(r.Context(), p.Where, scheduleQuery(start, end))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if scheduled == nil {
		scheduled = []coordinator.ScheduledEvent{}
	}

	h.writeJSON(w, http.StatusOK, schedulePage{
		Count:     count,
		Limit:     limit,
		Offset:    p.Offset,
		Schedules: scheduled,
	})
}
