// Package coordinator implements the public operations over events and
// shows, keeping the relational store and the calendar store consistent and
// publishing change notifications after successful mutations.
package coordinator

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
)

// Calendar is the slice of the CalDAV client the coordinators need.
// *calstore.Client implements it.
type Calendar interface {
	GetEvent(ctx context.Context, uid string) (*model.CalEvent, error)
	PutEvent(ctx context.Context, ev model.CalEvent) error
	DeleteEvent(ctx context.Context, uid string) error
	Query(ctx context.Context, q calstore.Query) ([]model.CalEvent, error)
}

// Publisher fans out change notifications. *bus.Broker implements it.
type Publisher interface {
	Publish(ev model.ChangeEvent)
}

// Events is the coordinator for event operations.
type Events struct {
	store  relstore.Store
	cal    Calendar
	bus    Publisher
	logger zerolog.Logger
}

func NewEvents(store relstore.Store, cal Calendar, bus Publisher, logger zerolog.Logger) *Events {
	return &Events{
		store:  store,
		cal:    cal,
		bus:    bus,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Shows is the coordinator for show operations.
type Shows struct {
	store  relstore.Store
	cal    Calendar
	bus    Publisher
	logger zerolog.Logger
}

func NewShows(store relstore.Store, cal Calendar, bus Publisher, logger zerolog.Logger) *Shows {
	return &Shows{
		store:  store,
		cal:    cal,
		bus:    bus,
		logger: logger.With().Str("component", "shows").Logger(),
	}
}

func mergeEvent(row relstore.EventRow, cal *model.CalEvent) model.Event {
	ev := model.Event{
		ID:         row.ID,
		Type:       row.Type,
		ShowID:     row.ShowID,
		Start:      cal.Start,
		End:        cal.End,
		Timezone:   cal.Timezone,
		Recurrence: cal.Recurrence,
	}
	if row.Show != nil {
		ev.Show = &model.Show{
			ID:          row.Show.ID,
			Title:       row.Show.Title,
			Description: row.Show.Description,
		}
	}
	return ev
}

// mergeEventRows joins each relational row with its calendar entry. A row
// without a calendar entry breaks the one-to-one invariant.
func mergeEventRows(ctx context.Context, cal Calendar, rows []relstore.EventRow) ([]model.Event, error) {
	events := make([]model.Event, len(rows))
	for i, row := range rows {
		calEv, err := cal.GetEvent(ctx, row.ID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Invariant("event %s has a relational row but no calendar entry", row.ID)
			}
			return nil, err
		}
		events[i] = mergeEvent(row, calEv)
	}
	return events, nil
}

var temporalOrderKeys = map[string]bool{
	"start":    true,
	"end":      true,
	"timezone": true,
}

// splitOrder separates SQL-supported sort keys from temporal ones, which
// only exist after the calendar merge.
func splitOrder(orders []relstore.Order) (sql, temporal []relstore.Order) {
	for _, o := range orders {
		if temporalOrderKeys[o.Field] {
			temporal = append(temporal, o)
		} else {
			sql = append(sql, o)
		}
	}
	return sql, temporal
}

func temporalLess(a, b model.Event, field string) int {
	switch field {
	case "start":
		return a.Start.Compare(b.Start.Time)
	case "end":
		return a.End.Compare(b.End.Time)
	default:
		switch {
		case a.Timezone < b.Timezone:
			return -1
		case a.Timezone > b.Timezone:
			return 1
		}
		return 0
	}
}

// sortTemporal applies the temporal sort keys as consecutive stable sorts,
// last key first, so the first listed key ends up primary.
func sortTemporal(events []model.Event, orders []relstore.Order) {
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		sort.SliceStable(events, func(a, b int) bool {
			cmp := temporalLess(events[a], events[b], o.Field)
			if o.Direction == "desc" {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// showIDWhere filters events owned by a show.
func showIDWhere(showID string) *relstore.EventWhere {
	return &relstore.EventWhere{ShowID: &relstore.StringFilter{Equals: &showID}}
}

// idInWhere filters events by id membership.
func idInWhere(ids []string) *relstore.EventWhere {
	return &relstore.EventWhere{ID: &relstore.StringFilter{In: ids}}
}
