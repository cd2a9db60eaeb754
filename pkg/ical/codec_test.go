package ical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
)

const testUID = "7d7a25e9-2a84-4b6e-9a9d-0a4f61a2a6ed"

func TestEncodeUTCEvent(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "UTC",
	}

	data, err := Encode(ev)
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, "BEGIN:VEVENT")
	require.Contains(t, text, "UID:"+testUID)
	require.Contains(t, text, "DTSTART:20300304T100000Z")
	require.Contains(t, text, "DTEND:20300304T110000Z")
}

func TestEncodeZonedRecurringEvent(t *testing.T) {
	ev := model.CalEvent{
		ID:       testUID,
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "Europe/Warsaw",
		Recurrence: &model.Recurrence{
			Rule:    &model.RecurrenceRule{Frequency: model.FreqWeekly, Count: intp(4)},
			Include: []model.WallTime{model.NewWallTime(2030, 3, 6, 10, 0, 0)},
			Exclude: []model.WallTime{model.NewWallTime(2030, 3, 11, 10, 0, 0)},
		},
	}

	data, err := Encode(ev)
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, "DTSTART;TZID=Europe/Warsaw:20300304T100000")
	require.Contains(t, text, "DTEND;TZID=Europe/Warsaw:20300304T110000")
	require.Contains(t, text, "RRULE:FREQ=WEEKLY;COUNT=4")
	require.Contains(t, text, "RDATE;TZID=Europe/Warsaw:20300306T100000")
	require.Contains(t, text, "EXDATE;TZID=Europe/Warsaw:20300311T100000")
}

func TestEncodeRejectsNonUUID(t *testing.T) {
	ev := model.CalEvent{
		ID:       "not-a-uuid",
		Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
		End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
		Timezone: "UTC",
	}
	_, err := Encode(ev)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRoundTrip(t *testing.T) {
	until := model.NewWallTime(2031, 1, 1, 0, 0, 0)
	events := []model.CalEvent{
		{
			ID:       testUID,
			Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
			End:      model.NewWallTime(2030, 3, 4, 11, 0, 0),
			Timezone: "UTC",
		},
		{
			ID:       testUID,
			Start:    model.NewWallTime(2030, 3, 4, 10, 0, 0),
			End:      model.NewWallTime(2030, 3, 4, 11, 30, 0),
			Timezone: "Europe/Warsaw",
			Recurrence: &model.Recurrence{
				Rule: &model.RecurrenceRule{
					Frequency:  model.FreqWeekly,
					Until:      &until,
					ByWeekdays: []model.WeekdayRule{{Day: model.Monday}, {Day: model.Wednesday}},
				},
				Include: []model.WallTime{model.NewWallTime(2030, 3, 7, 10, 0, 0)},
				Exclude: []model.WallTime{model.NewWallTime(2030, 3, 11, 10, 0, 0)},
			},
		},
	}

	for _, ev := range events {
		data, err := Encode(ev)
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err)
		require.Equal(t, &ev, got)
	}
}

func TestDecodeForeignCalendar(t *testing.T) {
	text := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//producer//EN",
		"BEGIN:VEVENT",
		"UID:" + testUID,
		"DTSTART;TZID=Europe/Warsaw:20300304T100000",
		"DTEND;TZID=Europe/Warsaw:20300304T110000",
		"RRULE:FREQ=WEEKLY;BYDAY=MO",
		"SUMMARY:ignored",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	ev, err := Decode([]byte(text))
	require.NoError(t, err)
	require.Equal(t, "Europe/Warsaw", ev.Timezone)
	require.Equal(t, model.NewWallTime(2030, 3, 4, 10, 0, 0), ev.Start)
	require.NotNil(t, ev.Recurrence)
	require.Equal(t, []model.WeekdayRule{{Day: model.Monday}}, ev.Recurrence.Rule.ByWeekdays)
}

func TestDecodeRejectsMixedZoneDates(t *testing.T) {
	cases := map[string][]string{
		"foreign rdate zone": {
			"DTSTART;TZID=Europe/Warsaw:20300304T100000",
			"DTEND;TZID=Europe/Warsaw:20300304T110000",
			"RDATE;TZID=America/New_York:20300306T100000",
		},
		"zoned rdate on utc event": {
			"DTSTART:20300304T100000Z",
			"DTEND:20300304T110000Z",
			"RDATE;TZID=Europe/Warsaw:20300306T090000",
		},
		"utc exdate on zoned event": {
			"DTSTART;TZID=Europe/Warsaw:20300304T100000",
			"DTEND;TZID=Europe/Warsaw:20300304T110000",
			"EXDATE:20300311T100000Z",
		},
	}
	for name, props := range cases {
		t.Run(name, func(t *testing.T) {
			lines := append([]string{
				"BEGIN:VCALENDAR",
				"VERSION:2.0",
				"PRODID:-//other//producer//EN",
				"BEGIN:VEVENT",
				"UID:" + testUID,
			}, props...)
			lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

			_, err := Decode([]byte(strings.Join(lines, "\r\n")))
			require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestDecodeMissingParts(t *testing.T) {
	cases := map[string][]string{
		"no vevent": {
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//x//y//EN",
			"END:VCALENDAR",
		},
		"no dtstart": {
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//x//y//EN",
			"BEGIN:VEVENT",
			"UID:" + testUID,
			"DTEND:20300304T110000Z",
			"END:VEVENT",
			"END:VCALENDAR",
		},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(strings.Join(append(lines, ""), "\r\n")))
			require.Equal(t, apperr.KindCalendar, apperr.KindOf(err))
		})
	}
}
