package coordinator

import (
	"context"
	"time"

	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
	"github.com/radioepoka/showcaster/pkg/ical"
)

// ScheduleParams captures the query surface of GET /schedule. A missing
// window side defaults to now, so the zero value describes an empty window.
type ScheduleParams struct {
	Start       *time.Time
	End         *time.Time
	Limit       *int
	Offset      int
	Where       *relstore.EventWhere
	Order       []relstore.Order
	IncludeShow bool
}

// ScheduledEvent is an event together with its concrete occurrences inside
// the requested window.
type ScheduledEvent struct {
	model.Event
	Instances []model.EventInstance `json:"instances"`
}

// Schedule lists the events with an occurrence in [start, end) and expands
// each into its instances.
func (c *Events) Schedule(ctx context.Context, p ScheduleParams) ([]ScheduledEvent, error) {
	now := time.Now().UTC()
	start, end := now, now
	if p.Start != nil {
		start = p.Start.UTC()
	}
	if p.End != nil {
		end = p.End.UTC()
	}

	events, err := c.List(ctx, EventListParams{
		Limit:       p.Limit,
		Offset:      p.Offset,
		Where:       p.Where,
		Query:       calstore.TimeRangeQuery{Start: &start, End: &end},
		Order:       p.Order,
		IncludeShow: p.IncludeShow,
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScheduledEvent, len(events))
	for i, ev := range events {
		instances, err := ical.Expand(ev.Cal(), start, end)
		if err != nil {
			return nil, err
		}
		out[i] = ScheduledEvent{Event: ev, Instances: instances}
	}
	return out, nil
}
