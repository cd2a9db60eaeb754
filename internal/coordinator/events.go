package coordinator

import (
	"context"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
)

// EventListParams captures the query surface of GET /events.
type EventListParams struct {
	Limit       *int
	Offset      int
	Where       *relstore.EventWhere
	Query       calstore.Query
	Order       []relstore.Order
	IncludeShow bool
}

// fuse narrows where by the calendar query: the UIDs matching q become an
// `id IN` clause conjoined under AND.
func (c *Events) fuse(ctx context.Context, where *relstore.EventWhere, q calstore.Query) (*relstore.EventWhere, error) {
	if q == nil {
		return where, nil
	}
	matches, err := c.cal.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	uids := make([]string, len(matches))
	for i, m := range matches {
		uids[i] = m.ID
	}

	clause := relstore.EventWhere{ID: &relstore.StringFilter{In: uids}}
	if where == nil {
		return &relstore.EventWhere{And: []relstore.EventWhere{clause}}, nil
	}
	fused := *where
	fused.And = append(fused.And, clause)
	return &fused, nil
}

// Count reports how many events match where, optionally narrowed by a
// calendar query.
func (c *Events) Count(ctx context.Context, where *relstore.EventWhere, q calstore.Query) (int64, error) {
	where, err := c.fuse(ctx, where, q)
	if err != nil {
		return 0, err
	}
	return c.store.Events().Count(ctx, where)
}

// List pages through events. Pagination and relational sort keys apply in
// SQL before the calendar merge; temporal sort keys apply in memory after.
func (c *Events) List(ctx context.Context, p EventListParams) ([]model.Event, error) {
	where, err := c.fuse(ctx, p.Where, p.Query)
	if err != nil {
		return nil, err
	}
	sqlOrder, temporal := splitOrder(p.Order)

	rows, err := c.store.Events().FindMany(ctx, relstore.EventQuery{
		Where:       where,
		Order:       sqlOrder,
		Skip:        p.Offset,
		Take:        p.Limit,
		IncludeShow: p.IncludeShow,
	})
	if err != nil {
		return nil, err
	}

	events, err := mergeEventRows(ctx, c.cal, rows)
	if err != nil {
		return nil, err
	}
	sortTemporal(events, temporal)
	return events, nil
}

// Get returns one event by id, merged across both stores.
func (c *Events) Get(ctx context.Context, id string, includeShow bool) (*model.Event, error) {
	row, err := c.store.Events().FindUnique(ctx, id, includeShow)
	if err != nil {
		return nil, err
	}
	calEv, err := c.cal.GetEvent(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Invariant("event %s has a relational row but no calendar entry", id)
		}
		return nil, err
	}
	merged := mergeEvent(*row, calEv)
	return &merged, nil
}

// Create inserts the relational row and writes the calendar entry in one
// transaction scope. A calendar failure rolls the row back and issues a
// best-effort compensating delete for any partial PUT.
func (c *Events) Create(ctx context.Context, in EventCreateInput, includeShow bool) (*model.Event, error) {
	row, calEv, err := in.build()
	if err != nil {
		return nil, err
	}

	var created *relstore.EventRow
	err = c.store.Transact(ctx, func(tx relstore.Store) error {
		r, err := tx.Events().Create(ctx, row)
		if err != nil {
			return err
		}
		if includeShow {
			if r, err = tx.Events().FindUnique(ctx, r.ID, true); err != nil {
				return err
			}
		}
		if err := c.cal.PutEvent(ctx, calEv); err != nil {
			if derr := c.cal.DeleteEvent(ctx, calEv.ID); derr != nil && apperr.KindOf(derr) != apperr.KindNotFound {
				c.logger.Error().Err(derr).Str("event", calEv.ID).Msg("compensating calendar delete failed")
			}
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := mergeEvent(*created, &calEv)
	c.bus.Publish(model.NewEventChange(model.EventCreated, merged))
	return &merged, nil
}

// Update applies the delta to both stores. The relational row changes
// first; the calendar entry is then reconciled against it, moving to a new
// UID when the id changed. Any calendar failure rolls the whole thing back.
func (c *Events) Update(ctx context.Context, id string, in EventUpdateInput, includeShow bool) (*model.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var merged model.Event
	err := c.store.Transact(ctx, func(tx relstore.Store) error {
		row, err := tx.Events().Update(ctx, id, relstore.EventUpdate{
			ID:     in.ID,
			Type:   in.Type,
			ShowID: in.ShowID,
		})
		if err != nil {
			return err
		}
		if includeShow {
			if row, err = tx.Events().FindUnique(ctx, row.ID, true); err != nil {
				return err
			}
		}

		oldCal, err := c.cal.GetEvent(ctx, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.Invariant("event %s has a relational row but no calendar entry", id)
			}
			return err
		}

		newCal := *oldCal
		newCal.ID = row.ID
		if in.Start != nil {
			newCal.Start = *in.Start
		}
		if in.End != nil {
			newCal.End = *in.End
		}
		if in.Timezone != nil {
			newCal.Timezone = *in.Timezone
		}
		if in.Recurrence.Set {
			newCal.Recurrence = in.Recurrence.Value
		}
		if err := newCal.Validate(); err != nil {
			return err
		}

		if newCal.ID != id {
			if err := c.cal.DeleteEvent(ctx, id); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return err
			}
		}
		if err := c.cal.PutEvent(ctx, newCal); err != nil {
			return err
		}

		merged = mergeEvent(*row, &newCal)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(model.NewEventChange(model.EventUpdated, merged))
	return &merged, nil
}

// Delete removes the event from both stores, returning the merged snapshot
// that was deleted.
func (c *Events) Delete(ctx context.Context, id string) (*model.Event, error) {
	var merged model.Event
	err := c.store.Transact(ctx, func(tx relstore.Store) error {
		row, err := tx.Events().Delete(ctx, id)
		if err != nil {
			return err
		}

		calEv, err := c.cal.GetEvent(ctx, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.Invariant("event %s has a relational row but no calendar entry", id)
			}
			return err
		}
		if err := c.cal.DeleteEvent(ctx, id); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}

		merged = mergeEvent(*row, calEv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(model.NewEventChange(model.EventDeleted, merged))
	return &merged, nil
}
