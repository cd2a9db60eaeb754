package coordinator

import (
	"context"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
)

// ShowListParams captures the query surface of GET /shows.
type ShowListParams struct {
	Limit         *int
	Offset        int
	Where         *relstore.ShowWhere
	Order         []relstore.Order
	IncludeEvents bool
}

// mergeShow joins a show row with the calendar data of its events when they
// were included.
func (c *Shows) mergeShow(ctx context.Context, row relstore.ShowRow, includeEvents bool) (model.Show, error) {
	show := model.Show{ID: row.ID, Title: row.Title, Description: row.Description}
	if !includeEvents {
		return show, nil
	}
	events, err := mergeEventRows(ctx, c.cal, row.Events)
	if err != nil {
		return show, err
	}
	show.Events = events
	return show, nil
}

func (c *Shows) Count(ctx context.Context, where *relstore.ShowWhere) (int64, error) {
	return c.store.Shows().Count(ctx, where)
}

func (c *Shows) List(ctx context.Context, p ShowListParams) ([]model.Show, error) {
	rows, err := c.store.Shows().FindMany(ctx, relstore.ShowQuery{
		Where:         p.Where,
		Order:         p.Order,
		Skip:          p.Offset,
		Take:          p.Limit,
		IncludeEvents: p.IncludeEvents,
	})
	if err != nil {
		return nil, err
	}

	shows := make([]model.Show, len(rows))
	for i, row := range rows {
		if shows[i], err = c.mergeShow(ctx, row, p.IncludeEvents); err != nil {
			return nil, err
		}
	}
	return shows, nil
}

func (c *Shows) Get(ctx context.Context, id string, includeEvents bool) (*model.Show, error) {
	row, err := c.store.Shows().FindUnique(ctx, relstore.ShowSelector{ID: &id}, includeEvents)
	if err != nil {
		return nil, err
	}
	show, err := c.mergeShow(ctx, *row, includeEvents)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (c *Shows) Create(ctx context.Context, in ShowCreateInput) (*model.Show, error) {
	row, err := in.build()
	if err != nil {
		return nil, err
	}

	created, err := c.store.Shows().Create(ctx, row)
	if err != nil {
		return nil, err
	}

	show := model.Show{ID: created.ID, Title: created.Title, Description: created.Description}
	c.bus.Publish(model.NewShowChange(model.ShowCreated, show))
	return &show, nil
}

// Update applies the delta. When the primary key changes, every dependent
// event row is migrated in the same transaction: snapshot, delete,
// recreate under the new show id, re-read.
func (c *Shows) Update(ctx context.Context, id string, in ShowUpdateInput, includeEvents bool) (*model.Show, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	upd := relstore.ShowUpdate{ID: in.ID, Title: in.Title, Description: in.Description}
	renaming := in.ID != nil && *in.ID != id

	var show model.Show
	var affected []model.Event
	err := c.store.Transact(ctx, func(tx relstore.Store) error {
		var snapshot []relstore.EventRow
		if renaming {
			var err error
			snapshot, err = tx.Events().FindMany(ctx, relstore.EventQuery{Where: showIDWhere(id)})
			if err != nil {
				return err
			}
			if _, err := tx.Events().DeleteMany(ctx, showIDWhere(id)); err != nil {
				return err
			}
		}

		row, err := tx.Shows().Update(ctx, id, upd)
		if err != nil {
			return err
		}

		if renaming && len(snapshot) > 0 {
			recreated := make([]relstore.EventRow, len(snapshot))
			ids := make([]string, len(snapshot))
			for i, ev := range snapshot {
				ev.ShowID = row.ID
				ev.Show = nil
				recreated[i] = ev
				ids[i] = ev.ID
			}
			if _, err := tx.Events().CreateMany(ctx, recreated); err != nil {
				return err
			}
			canonical, err := tx.Events().FindMany(ctx, relstore.EventQuery{Where: idInWhere(ids)})
			if err != nil {
				return err
			}
			if affected, err = mergeEventRows(ctx, c.cal, canonical); err != nil {
				return err
			}
		}

		if includeEvents {
			if row, err = tx.Shows().FindUnique(ctx, relstore.ShowSelector{ID: &row.ID}, true); err != nil {
				return err
			}
		}
		show, err = c.mergeShow(ctx, *row, includeEvents)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(model.NewShowChange(model.ShowUpdated, show))
	for _, ev := range affected {
		c.bus.Publish(model.NewEventChange(model.EventUpdated, ev))
	}
	return &show, nil
}

// Delete cascades: dependent events leave both stores, then the show row
// goes. Notifications fire after commit, show first.
func (c *Shows) Delete(ctx context.Context, id string) (*model.Show, error) {
	var show model.Show
	var affected []model.Event
	err := c.store.Transact(ctx, func(tx relstore.Store) error {
		rows, err := tx.Events().FindMany(ctx, relstore.EventQuery{Where: showIDWhere(id)})
		if err != nil {
			return err
		}
		if affected, err = mergeEventRows(ctx, c.cal, rows); err != nil {
			return err
		}
		if _, err := tx.Events().DeleteMany(ctx, showIDWhere(id)); err != nil {
			return err
		}

		row, err := tx.Shows().Delete(ctx, id)
		if err != nil {
			return err
		}

		for _, ev := range affected {
			if err := c.cal.DeleteEvent(ctx, ev.ID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return err
			}
		}

		show = model.Show{ID: row.ID, Title: row.Title, Description: row.Description}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(model.NewShowChange(model.ShowDeleted, show))
	for _, ev := range affected {
		c.bus.Publish(model.NewEventChange(model.EventDeleted, ev))
	}
	return &show, nil
}
