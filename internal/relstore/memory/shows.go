package memory

import (
	"context"
	"sort"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/relstore"
)

type showStore struct {
	s *Store
}

func (m *showStore) attach(row relstore.ShowRow) relstore.ShowRow {
	row.Events = []relstore.EventRow{}
	for _, ev := range m.s.events {
		if ev.ShowID == row.ID {
			ev.Show = nil
			row.Events = append(row.Events, ev)
		}
	}
	sort.Slice(row.Events, func(i, j int) bool { return row.Events[i].ID < row.Events[j].ID })
	return row
}

func (m *showStore) Count(ctx context.Context, where *relstore.ShowWhere) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for _, row := range m.s.shows {
		if matchShow(where, row) {
			n++
		}
	}
	return n, nil
}

func (m *showStore) FindMany(ctx context.Context, q relstore.ShowQuery) ([]relstore.ShowRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var rows []relstore.ShowRow
	for _, row := range m.s.shows {
		if matchShow(q.Where, row) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	for _, o := range q.Order {
		o := o
		sort.SliceStable(rows, func(i, j int) bool {
			var a, b string
			switch o.Field {
			case "title":
				a, b = rows[i].Title, rows[j].Title
			default:
				a, b = rows[i].ID, rows[j].ID
			}
			if o.Direction == "desc" {
				return a > b
			}
			return a < b
		})
	}

	rows = page(rows, q.Skip, q.Take)
	if q.IncludeEvents {
		for i := range rows {
			rows[i] = m.attach(rows[i])
		}
	}
	return rows, nil
}

func (m *showStore) FindUnique(ctx context.Context, sel relstore.ShowSelector, includeEvents bool) (*relstore.ShowRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if sel.ID == nil && sel.Title == nil {
		return nil, apperr.Validation("show selector needs an id or a title")
	}
	for _, row := range m.s.shows {
		if sel.ID != nil && row.ID != *sel.ID {
			continue
		}
		if sel.Title != nil && row.Title != *sel.Title {
			continue
		}
		if includeEvents {
			row = m.attach(row)
		}
		return &row, nil
	}
	return nil, apperr.NotFound("show not found")
}

func (m *showStore) Create(ctx context.Context, row relstore.ShowRow) (*relstore.ShowRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, exists := m.s.shows[row.ID]; exists {
		return nil, apperr.Validation("create show %q: already exists", row.Title)
	}
	for _, other := range m.s.shows {
		if other.Title == row.Title {
			return nil, apperr.Validation("create show %q: already exists", row.Title)
		}
	}
	row.Events = nil
	m.s.shows[row.ID] = row
	return &row, nil
}

func (m *showStore) Update(ctx context.Context, id string, upd relstore.ShowUpdate) (*relstore.ShowRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.shows[id]
	if !ok {
		return nil, apperr.NotFound("show %s not found", id)
	}
	if upd.Title != nil {
		for _, other := range m.s.shows {
			if other.ID != id && other.Title == *upd.Title {
				return nil, apperr.Validation("update show %s: already exists", id)
			}
		}
		row.Title = *upd.Title
	}
	if upd.Description.Set {
		row.Description = upd.Description.Value
	}
	if upd.ID != nil && *upd.ID != id {
		if _, exists := m.s.shows[*upd.ID]; exists {
			return nil, apperr.Validation("update show %s: already exists", *upd.ID)
		}
		delete(m.s.shows, id)
		row.ID = *upd.ID
	}
	m.s.shows[row.ID] = row
	return &row, nil
}

func (m *showStore) Delete(ctx context.Context, id string) (*relstore.ShowRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.shows[id]
	if !ok {
		return nil, apperr.NotFound("show %s not found", id)
	}
	for _, ev := range m.s.events {
		if ev.ShowID == id {
			return nil, apperr.Validation("delete show %s: still referenced by event %s", id, ev.ID)
		}
	}
	delete(m.s.shows, id)
	return &row, nil
}
