package memory

import (
	"context"
	"sort"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/relstore"
)

type eventStore struct {
	s *Store
}

func (m *eventStore) matching(where *relstore.EventWhere) []relstore.EventRow {
	var out []relstore.EventRow
	for _, row := range m.s.events {
		if matchEvent(where, row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *eventStore) Count(ctx context.Context, where *relstore.EventWhere) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.matching(where))), nil
}

func (m *eventStore) FindMany(ctx context.Context, q relstore.EventQuery) ([]relstore.EventRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	rows := m.matching(q.Where)
	for _, o := range q.Order {
		o := o
		sort.SliceStable(rows, func(i, j int) bool {
			var a, b string
			switch o.Field {
			case "type":
				a, b = string(rows[i].Type), string(rows[j].Type)
			case "showId":
				a, b = rows[i].ShowID, rows[j].ShowID
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
	if q.IncludeShow {
		for i := range rows {
			if show, ok := m.s.shows[rows[i].ShowID]; ok {
				show.Events = nil
				rows[i].Show = &show
			}
		}
	}
	return rows, nil
}

func (m *eventStore) FindUnique(ctx context.Context, id string, includeShow bool) (*relstore.EventRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.events[id]
	if !ok {
		return nil, apperr.NotFound("event %s not found", id)
	}
	if includeShow {
		if show, ok := m.s.shows[row.ShowID]; ok {
			show.Events = nil
			row.Show = &show
		}
	}
	return &row, nil
}

func (m *eventStore) Create(ctx context.Context, row relstore.EventRow) (*relstore.EventRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.create(row)
}

func (m *eventStore) create(row relstore.EventRow) (*relstore.EventRow, error) {
	if _, exists := m.s.events[row.ID]; exists {
		return nil, apperr.Validation("create event %s: already exists", row.ID)
	}
	if _, exists := m.s.shows[row.ShowID]; !exists {
		return nil, apperr.Validation("create event %s: referenced row does not exist", row.ID)
	}
	row.Show = nil
	m.s.events[row.ID] = row
	return &row, nil
}

func (m *eventStore) CreateMany(ctx context.Context, rows []relstore.EventRow) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for i, row := range rows {
		if _, err := m.create(row); err != nil {
			return int64(i), err
		}
	}
	return int64(len(rows)), nil
}

func (m *eventStore) Update(ctx context.Context, id string, upd relstore.EventUpdate) (*relstore.EventRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.events[id]
	if !ok {
		return nil, apperr.NotFound("event %s not found", id)
	}
	if upd.Type != nil {
		row.Type = *upd.Type
	}
	if upd.ShowID != nil {
		if _, exists := m.s.shows[*upd.ShowID]; !exists {
			return nil, apperr.Validation("update event %s: referenced row does not exist", id)
		}
		row.ShowID = *upd.ShowID
	}
	if upd.ID != nil && *upd.ID != id {
		if _, exists := m.s.events[*upd.ID]; exists {
			return nil, apperr.Validation("update event %s: already exists", *upd.ID)
		}
		delete(m.s.events, id)
		row.ID = *upd.ID
	}
	m.s.events[row.ID] = row
	return &row, nil
}

func (m *eventStore) Delete(ctx context.Context, id string) (*relstore.EventRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.events[id]
	if !ok {
		return nil, apperr.NotFound("event %s not found", id)
	}
	delete(m.s.events, id)
	return &row, nil
}

func (m *eventStore) DeleteMany(ctx context.Context, where *relstore.EventWhere) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for _, row := range m.matching(where) {
		delete(m.s.events, row.ID)
		n++
	}
	return n, nil
}
