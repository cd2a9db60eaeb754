package ical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/model"
)

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func starts(instances []model.EventInstance) []model.WallTime {
	out := make([]model.WallTime, len(instances))
	for i, in := range instances {
		out[i] = in.Start
	}
	return out
}

func TestExpandNonRecurring(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "UTC",
	}

	instances, err := Expand(ev, utc(2030, 3, 1, 0), utc(2030, 4, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []model.EventInstance{{
		Start: model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:   model.NewWallTime(2030, 3, 4, 11, 0, 0),
	}}, instances)

	// Outside the window.
	instances, err = Expand(ev, utc(2030, 4, 1, 0), utc(2030, 5, 1, 0))
	require.NoError(t, err)
	require.Empty(t, instances)
}

func TestExpandWeeklyCount(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0), // a Monday
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "Europe/Warsaw",
		Recurrence: &model.Recurrence{
			Rule: &model.RecurrenceRule{
				Frequency:  model.FreqWeekly,
				Count:      intp(4),
				ByWeekdays: []model.WeekdayRule{{Day: model.Monday}},
			},
		},
	}

	instances, err := Expand(ev, utc(2030, 3, 1, 0), utc(2030, 4, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 3, 4, 10, 0, 0),
		model.NewWallTime(2030, 3, 11, 10, 0, 0),
		model.NewWallTime(2030, 3, 18, 10, 0, 0),
		model.NewWallTime(2030, 3, 25, 10, 0, 0),
	}, starts(instances))
}

func TestExpandKeepsWallClockAcrossDST(t *testing.T) {
	// Warsaw springs forward on 2030-03-31; the daily 10:00 slot stays at
	// 10:00 local on both sides of the transition.
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 29, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 29, 11, 0, 0),
		Timezone: "Europe/Warsaw",
		Recurrence: &model.Recurrence{
			Rule: &model.RecurrenceRule{Frequency: model.FreqDaily, Count: intp(5)},
		},
	}

	instances, err := Expand(ev, utc(2030, 3, 28, 0), utc(2030, 4, 5, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 3, 29, 10, 0, 0),
		model.NewWallTime(2030, 3, 30, 10, 0, 0),
		model.NewWallTime(2030, 3, 31, 10, 0, 0),
		model.NewWallTime(2030, 4, 1, 10, 0, 0),
		model.NewWallTime(2030, 4, 2, 10, 0, 0),
	}, starts(instances))
	for _, in := range instances {
		require.Equal(t, in.Start.Add(time.Hour), in.End.Time)
	}
}

func TestExpandShiftsNonexistentWallTime(t *testing.T) {
	// 02:30 does not exist on 2030-03-31 in Warsaw; the occurrence lands on
	// 03:30 instead of disappearing.
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 30, 2, 30, 0),
		End:      model.NewWallTime(2030, 3, 30, 3, 0, 0),
		Timezone: "Europe/Warsaw",
		Recurrence: &model.Recurrence{
			Rule: &model.RecurrenceRule{Frequency: model.FreqDaily, Count: intp(2)},
		},
	}

	instances, err := Expand(ev, utc(2030, 3, 29, 0), utc(2030, 4, 2, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 3, 30, 2, 30, 0),
		model.NewWallTime(2030, 3, 31, 3, 30, 0),
	}, starts(instances))
}

func TestExpandUntilIsExclusive(t *testing.T) {
	until := model.NewWallTime(2030, 1, 4, 10, 0, 0)
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 1, 1, 10, 0, 0),
		End:      model.NewWallTime(2030, 1, 1, 11, 0, 0),
		Timezone: "UTC",
		Recurrence: &model.Recurrence{
			Rule: &model.RecurrenceRule{Frequency: model.FreqDaily, Until: &until},
		},
	}

	instances, err := Expand(ev, utc(2030, 1, 1, 0), utc(2030, 2, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 1, 1, 10, 0, 0),
		model.NewWallTime(2030, 1, 2, 10, 0, 0),
		model.NewWallTime(2030, 1, 3, 10, 0, 0),
	}, starts(instances))
}

func TestExpandIncludeExclude(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "UTC",
		Recurrence: &model.Recurrence{
			Rule:    &model.RecurrenceRule{Frequency: model.FreqWeekly, Count: intp(3)},
			Include: []model.WallTime{model.NewWallTime(2030, 3, 6, 9, 0, 0)},
			Exclude: []model.WallTime{model.NewWallTime(2030, 3, 11, 10, 0, 0)},
		},
	}

	instances, err := Expand(ev, utc(2030, 3, 1, 0), utc(2030, 4, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 3, 4, 10, 0, 0),
		model.NewWallTime(2030, 3, 6, 9, 0, 0),
		model.NewWallTime(2030, 3, 18, 10, 0, 0),
	}, starts(instances))
}

func TestExpandRDateOnly(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "UTC",
		Recurrence: &model.Recurrence{
			Include: []model.WallTime{
				model.NewWallTime(2030, 3, 10, 12, 0, 0),
				model.NewWallTime(2030, 3, 8, 12, 0, 0),
			},
		},
	}

	instances, err := Expand(ev, utc(2030, 3, 1, 0), utc(2030, 4, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 3, 4, 10, 0, 0),
		model.NewWallTime(2030, 3, 8, 12, 0, 0),
		model.NewWallTime(2030, 3, 10, 12, 0, 0),
	}, starts(instances))
}

func TestExpandWindowClipsOccurrences(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 1, 1, 10, 0, 0),
		End:      model.NewWallTime(2030, 1, 1, 11, 0, 0),
		Timezone: "UTC",
		Recurrence: &model.Recurrence{
			Rule: &model.RecurrenceRule{Frequency: model.FreqDaily},
		},
	}

	// Window end is exclusive: the 10:00 start on Jan 5 is out.
	instances, err := Expand(ev, utc(2030, 1, 3, 0), utc(2030, 1, 5, 10))
	require.NoError(t, err)
	require.Equal(t, []model.WallTime{
		model.NewWallTime(2030, 1, 3, 10, 0, 0),
		model.NewWallTime(2030, 1, 4, 10, 0, 0),
	}, starts(instances))
}
