package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore/memory"
	"github.com/radioepoka/showcaster/pkg/ical"
)

// fakeCal is an in-memory Calendar. Query evaluates filters against the
// stored events the way a CalDAV server would.
type fakeCal struct {
	mu      sync.Mutex
	events  map[string]model.CalEvent
	failPut bool
}

func newFakeCal() *fakeCal {
	return &fakeCal{events: map[string]model.CalEvent{}}
}

func (f *fakeCal) GetEvent(ctx context.Context, uid string) (*model.CalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[uid]
	if !ok {
		return nil, apperr.NotFound("calendar event %s not found", uid)
	}
	return &ev, nil
}

func (f *fakeCal) PutEvent(ctx context.Context, ev model.CalEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return apperr.New(apperr.KindCalendar, "put event %s: status 502", ev.ID)
	}
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeCal) DeleteEvent(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[uid]; !ok {
		return apperr.NotFound("calendar event %s not found", uid)
	}
	delete(f.events, uid)
	return nil
}

func (f *fakeCal) Query(ctx context.Context, q calstore.Query) ([]model.CalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.CalEvent
	for _, ev := range f.events {
		match := false
		switch v := q.(type) {
		case calstore.RecurringQuery:
			recurring := ev.Recurrence != nil && ev.Recurrence.Rule != nil
			match = recurring == v.Recurring
		case calstore.TimeRangeQuery:
			start := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
			if v.Start != nil {
				start = v.Start.UTC()
			}
			if v.End != nil {
				end = v.End.UTC()
			}
			instances, err := ical.Expand(ev, start, end)
			if err != nil {
				return nil, err
			}
			match = len(instances) > 0
		}
		if match {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memBus struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (b *memBus) Publish(ev model.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *memBus) published() []model.ChangeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ChangeEvent(nil), b.events...)
}

type fixture struct {
	store  *memory.Store
	cal    *fakeCal
	bus    *memBus
	events *Events
	shows  *Shows
}

func newFixture() *fixture {
	store := memory.New()
	cal := newFakeCal()
	bus := &memBus{}
	return &fixture{
		store:  store,
		cal:    cal,
		bus:    bus,
		events: NewEvents(store, cal, bus, zerolog.Nop()),
		shows:  NewShows(store, cal, bus, zerolog.Nop()),
	}
}

func (f *fixture) eventRowCount() int64 {
	n, _ := f.store.Events().Count(context.Background(), nil)
	return n
}

func (f *fixture) showRowCount() int64 {
	n, _ := f.store.Shows().Count(context.Background(), nil)
	return n
}
