package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
)

func calEvent(id string) model.CalEvent {
	return model.CalEvent{
		ID:       id,
		Start:    model.NewWallTime(2030, time.March, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, time.March, 4, 11, 0, 0),
		Timezone: "UTC",
	}
}

func TestCachedCalendarServesRepeatReadsFromMemory(t *testing.T) {
	under := newFakeCal()
	cached := NewCachedCalendar(under, time.Minute)
	ctx := context.Background()

	require.NoError(t, cached.PutEvent(ctx, calEvent(eventID1)))

	// The put went through and primed the cache.
	_, ok := under.events[eventID1]
	assert.True(t, ok)
	delete(under.events, eventID1)

	got, err := cached.GetEvent(ctx, eventID1)
	require.NoError(t, err)
	assert.Equal(t, eventID1, got.ID)
}

func TestCachedCalendarDeleteEvicts(t *testing.T) {
	under := newFakeCal()
	cached := NewCachedCalendar(under, time.Minute)
	ctx := context.Background()

	require.NoError(t, cached.PutEvent(ctx, calEvent(eventID1)))
	require.NoError(t, cached.DeleteEvent(ctx, eventID1))

	_, err := cached.GetEvent(ctx, eventID1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCachedCalendarQueryPrimesCache(t *testing.T) {
	under := newFakeCal()
	cached := NewCachedCalendar(under, time.Minute)
	ctx := context.Background()

	under.events[eventID1] = calEvent(eventID1)

	matches, err := cached.Query(ctx, calstore.RecurringQuery{Recurring: false})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	delete(under.events, eventID1)
	got, err := cached.GetEvent(ctx, eventID1)
	require.NoError(t, err)
	assert.Equal(t, eventID1, got.ID)
}
