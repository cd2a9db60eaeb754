package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
)

const (
	showID1  = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
	showID2  = "6ec0bd7f-11c0-43da-975e-2a8ad9ebae0b"
	eventID1 = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	eventID2 = "9a1b68fa-7bdb-4f4d-a0d5-6fa6a3f7c1c2"
	eventID3 = "c56a4180-65aa-42ec-a945-5fd21dec0538"
)

func ptr[T any](v T) *T { return &v }

func seedShow(t *testing.T, f *fixture, id, title string) {
	t.Helper()
	_, err := f.shows.Create(context.Background(), ShowCreateInput{ID: ptr(id), Title: title})
	require.NoError(t, err)
}

func weeklyRule(count int) *model.Recurrence {
	return &model.Recurrence{
		Rule: &model.RecurrenceRule{Frequency: model.FreqWeekly, Count: ptr(count)},
	}
}

func createInput(id string, recurrence *model.Recurrence) EventCreateInput {
	return EventCreateInput{
		ID:         ptr(id),
		Type:       model.EventTypeLive,
		ShowID:     showID1,
		Start:      ptr(model.NewWallTime(2030, time.March, 4, 10, 0, 0)),
		End:        ptr(model.NewWallTime(2030, time.March, 4, 11, 30, 0)),
		Timezone:   "Europe/Warsaw",
		Recurrence: recurrence,
	}
}

func TestEventCreateAndGet(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	created, err := f.events.Create(ctx, createInput(eventID1, weeklyRule(4)), false)
	require.NoError(t, err)
	assert.Equal(t, eventID1, created.ID)
	assert.Equal(t, model.EventTypeLive, created.Type)
	assert.Equal(t, showID1, created.ShowID)
	assert.Equal(t, "Europe/Warsaw", created.Timezone)
	require.NotNil(t, created.Recurrence)

	got, err := f.events.Get(ctx, eventID1, false)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	published := f.bus.published()
	require.Len(t, published, 2)
	assert.Equal(t, model.ShowCreated, published[0].Type)
	assert.Equal(t, model.EventCreated, published[1].Type)
	require.NotNil(t, published[1].Data.Event)
	assert.Equal(t, eventID1, published[1].Data.Event.ID)
}

func TestEventCreateIncludesShow(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")

	created, err := f.events.Create(context.Background(), createInput(eventID1, nil), true)
	require.NoError(t, err)
	require.NotNil(t, created.Show)
	assert.Equal(t, "Morning Drive", created.Show.Title)
}

func TestEventCreateConcurrent(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	ids := []string{eventID1, eventID2}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.events.Create(ctx, createInput(id, nil), false)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, ids[i])
	}
	assert.Equal(t, int64(2), f.eventRowCount())
	for _, id := range ids {
		_, ok := f.cal.events[id]
		assert.True(t, ok, id)
	}

	var created int
	for _, ev := range f.bus.published() {
		if ev.Type == model.EventCreated {
			created++
		}
	}
	assert.Equal(t, 2, created)
}

func TestEventCreateValidation(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	in := createInput(eventID1, nil)
	in.ShowID = ""
	_, err := f.events.Create(ctx, in, false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = createInput(eventID1, nil)
	in.Type = "talkshow"
	_, err = f.events.Create(ctx, in, false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = createInput(eventID1, nil)
	in.Start, in.End = in.End, in.Start
	_, err = f.events.Create(ctx, in, false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Zero(t, f.eventRowCount())
}

func TestEventCreateUnknownShow(t *testing.T) {
	f := newFixture()

	_, err := f.events.Create(context.Background(), createInput(eventID1, nil), false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, f.cal.events)
}

func TestEventCreateCalendarFailureRollsBack(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	f.cal.failPut = true

	_, err := f.events.Create(context.Background(), createInput(eventID1, nil), false)
	assert.Equal(t, apperr.KindCalendar, apperr.KindOf(err))

	assert.Zero(t, f.eventRowCount(), "relational row must roll back")
	assert.Empty(t, f.cal.events)

	published := f.bus.published()
	require.Len(t, published, 1)
	assert.Equal(t, model.ShowCreated, published[0].Type)
}

func TestEventUpdateDelta(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	created, err := f.events.Create(ctx, createInput(eventID1, weeklyRule(4)), false)
	require.NoError(t, err)

	newStart := model.NewWallTime(2030, time.March, 4, 12, 0, 0)
	updated, err := f.events.Update(ctx, eventID1, EventUpdateInput{Start: ptr(newStart)}, false)
	require.NoError(t, err)

	assert.Equal(t, newStart, updated.Start)
	assert.Equal(t, created.End, updated.End)
	assert.Equal(t, created.Recurrence, updated.Recurrence, "absent recurrence leaves the rule alone")

	got, err := f.events.Get(ctx, eventID1, false)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	published := f.bus.published()
	assert.Equal(t, model.EventUpdated, published[len(published)-1].Type)
}

func TestEventUpdateClearsRecurrence(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, weeklyRule(4)), false)
	require.NoError(t, err)

	updated, err := f.events.Update(ctx, eventID1, EventUpdateInput{
		Recurrence: model.Null[model.Recurrence](),
	}, false)
	require.NoError(t, err)
	assert.Nil(t, updated.Recurrence)
}

func TestEventUpdateChangesID(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, nil), false)
	require.NoError(t, err)

	updated, err := f.events.Update(ctx, eventID1, EventUpdateInput{ID: ptr(eventID2)}, false)
	require.NoError(t, err)
	assert.Equal(t, eventID2, updated.ID)

	_, ok := f.cal.events[eventID1]
	assert.False(t, ok, "old calendar UID must be gone")
	_, ok = f.cal.events[eventID2]
	assert.True(t, ok)

	_, err = f.events.Get(ctx, eventID1, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestEventUpdateMissingCalendarEntry(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, nil), false)
	require.NoError(t, err)
	delete(f.cal.events, eventID1)

	_, err = f.events.Update(ctx, eventID1, EventUpdateInput{Type: ptr(model.EventTypeReplay)}, false)
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))

	row, err := f.store.Events().FindUnique(ctx, eventID1, false)
	require.NoError(t, err)
	assert.Equal(t, model.EventTypeLive, row.Type, "relational change must roll back")
}

func TestEventUpdateNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.events.Update(context.Background(), eventID1, EventUpdateInput{}, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestEventDelete(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	created, err := f.events.Create(ctx, createInput(eventID1, nil), false)
	require.NoError(t, err)

	deleted, err := f.events.Delete(ctx, eventID1)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	assert.Zero(t, f.eventRowCount())
	assert.Empty(t, f.cal.events)

	_, err = f.events.Get(ctx, eventID1, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	published := f.bus.published()
	assert.Equal(t, model.EventDeleted, published[len(published)-1].Type)
}

func TestEventListFusesCalendarQuery(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, weeklyRule(4)), false)
	require.NoError(t, err)
	in := createInput(eventID2, nil)
	in.Type = model.EventTypeReplay
	_, err = f.events.Create(ctx, in, false)
	require.NoError(t, err)

	recurring, err := f.events.List(ctx, EventListParams{
		Query: calstore.RecurringQuery{Recurring: true},
	})
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, eventID1, recurring[0].ID)

	oneOff, err := f.events.List(ctx, EventListParams{
		Query: calstore.RecurringQuery{Recurring: false},
	})
	require.NoError(t, err)
	require.Len(t, oneOff, 1)
	assert.Equal(t, eventID2, oneOff[0].ID)

	// The calendar narrowing conjoins with the relational filter.
	none, err := f.events.List(ctx, EventListParams{
		Where: &relstore.EventWhere{Type: &relstore.StringFilter{Equals: ptr("replay")}},
		Query: calstore.RecurringQuery{Recurring: true},
	})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := f.events.Count(ctx, nil, calstore.RecurringQuery{Recurring: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEventListEmptyCalendarMatch(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, nil), false)
	require.NoError(t, err)

	events, err := f.events.List(ctx, EventListParams{
		Query: calstore.RecurringQuery{Recurring: true},
	})
	require.NoError(t, err)
	assert.Empty(t, events, "no calendar match means no rows, not all rows")
}

func TestEventListTemporalSort(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	mk := func(id string, hour int) {
		in := createInput(id, nil)
		in.Start = ptr(model.NewWallTime(2030, time.March, 4, hour, 0, 0))
		in.End = ptr(model.NewWallTime(2030, time.March, 4, hour+1, 0, 0))
		_, err := f.events.Create(ctx, in, false)
		require.NoError(t, err)
	}
	mk(eventID1, 14)
	mk(eventID2, 8)
	mk(eventID3, 11)

	events, err := f.events.List(ctx, EventListParams{
		Order: []relstore.Order{{Field: "start", Direction: "desc"}},
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{eventID1, eventID3, eventID2},
		[]string{events[0].ID, events[1].ID, events[2].ID})
}

func TestEventListPagination(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	for _, id := range []string{eventID1, eventID2, eventID3} {
		_, err := f.events.Create(ctx, createInput(id, nil), false)
		require.NoError(t, err)
	}

	events, err := f.events.List(ctx, EventListParams{
		Limit:  ptr(2),
		Offset: 1,
		Order:  []relstore.Order{{Field: "id", Direction: "asc"}},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestEventListMissingCalendarEntry(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	_, err := f.events.Create(ctx, createInput(eventID1, nil), false)
	require.NoError(t, err)
	delete(f.cal.events, eventID1)

	_, err = f.events.List(ctx, EventListParams{})
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))
}

func TestSchedule(t *testing.T) {
	f := newFixture()
	seedShow(t, f, showID1, "Morning Drive")
	ctx := context.Background()

	in := createInput(eventID1, &model.Recurrence{
		Rule: &model.RecurrenceRule{Frequency: model.FreqDaily, Count: ptr(3)},
	})
	_, err := f.events.Create(ctx, in, false)
	require.NoError(t, err)

	// One-off outside the window.
	out := createInput(eventID2, nil)
	out.Start = ptr(model.NewWallTime(2030, time.June, 1, 10, 0, 0))
	out.End = ptr(model.NewWallTime(2030, time.June, 1, 11, 0, 0))
	_, err = f.events.Create(ctx, out, false)
	require.NoError(t, err)

	start := time.Date(2030, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, time.March, 10, 0, 0, 0, 0, time.UTC)
	scheduled, err := f.events.Schedule(ctx, ScheduleParams{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, eventID1, scheduled[0].ID)
	require.Len(t, scheduled[0].Instances, 3)
	assert.Equal(t, model.NewWallTime(2030, time.March, 4, 10, 0, 0), scheduled[0].Instances[0].Start)
	assert.Equal(t, model.NewWallTime(2030, time.March, 6, 11, 30, 0), scheduled[0].Instances[2].End)
}
