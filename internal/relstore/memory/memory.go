// Package memory is a map-backed relstore implementation for development
// and tests. It enforces the same uniqueness and reference constraints as
// the SQL backends; transactions are serialized and roll back by snapshot.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/radioepoka/showcaster/internal/relstore"
)

type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	shows  map[string]relstore.ShowRow
	events map[string]relstore.EventRow
}

func New() *Store {
	return &Store{
		shows:  map[string]relstore.ShowRow{},
		events: map[string]relstore.EventRow{},
	}
}

func (s *Store) Events() relstore.EventStore { return &eventStore{s} }
func (s *Store) Shows() relstore.ShowStore   { return &showStore{s} }
func (s *Store) Close()                      {}

func (s *Store) Transact(ctx context.Context, fn func(tx relstore.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	showsBackup := make(map[string]relstore.ShowRow, len(s.shows))
	for k, v := range s.shows {
		showsBackup[k] = v
	}
	eventsBackup := make(map[string]relstore.EventRow, len(s.events))
	for k, v := range s.events {
		eventsBackup[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.shows = showsBackup
		s.events = eventsBackup
		s.mu.Unlock()
		return err
	}
	return nil
}

func matchString(f *relstore.StringFilter, v string) bool {
	if f == nil {
		return true
	}
	if f.Equals != nil && v != *f.Equals {
		return false
	}
	if f.In != nil {
		found := false
		for _, candidate := range f.In {
			if candidate == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, candidate := range f.NotIn {
		if candidate == v {
			return false
		}
	}
	if f.Contains != nil && !strings.Contains(v, *f.Contains) {
		return false
	}
	if f.StartsWith != nil && !strings.HasPrefix(v, *f.StartsWith) {
		return false
	}
	if f.EndsWith != nil && !strings.HasSuffix(v, *f.EndsWith) {
		return false
	}
	return true
}

func matchEvent(w *relstore.EventWhere, row relstore.EventRow) bool {
	if w == nil {
		return true
	}
	for i := range w.And {
		if !matchEvent(&w.And[i], row) {
			return false
		}
	}
	if len(w.Or) > 0 {
		any := false
		for i := range w.Or {
			if matchEvent(&w.Or[i], row) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for i := range w.Not {
		if matchEvent(&w.Not[i], row) {
			return false
		}
	}
	return matchString(w.ID, row.ID) &&
		matchString(w.Type, string(row.Type)) &&
		matchString(w.ShowID, row.ShowID)
}

func matchShow(w *relstore.ShowWhere, row relstore.ShowRow) bool {
	if w == nil {
		return true
	}
	for i := range w.And {
		if !matchShow(&w.And[i], row) {
			return false
		}
	}
	if len(w.Or) > 0 {
		any := false
		for i := range w.Or {
			if matchShow(&w.Or[i], row) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for i := range w.Not {
		if matchShow(&w.Not[i], row) {
			return false
		}
	}
	desc := ""
	if row.Description != nil {
		desc = *row.Description
	}
	return matchString(w.ID, row.ID) &&
		matchString(w.Title, row.Title) &&
		matchString(w.Description, desc)
}

func page[T any](rows []T, skip int, take *int) []T {
	if skip > 0 {
		if skip >= len(rows) {
			return nil
		}
		rows = rows[skip:]
	}
	if take != nil && len(rows) > *take {
		rows = rows[:*take]
	}
	return rows
}
