// Package model holds the domain types shared by the coordinators, the
// stores and the HTTP layer, together with their wire JSON encodings.
//
// An Event is split across two stores: the relational half (identity, type,
// owning show) lives in SQL, the temporal half (start, end, timezone,
// recurrence) lives in CalDAV. Event is the merged view returned to callers;
// CalEvent is the temporal half on its own.
package model

// EventType distinguishes broadcast kinds.
type EventType string

const (
	EventTypeLive        EventType = "live"
	EventTypeReplay      EventType = "replay"
	EventTypePrerecorded EventType = "prerecorded"
)

// Frequency of a recurrence rule. Lower-case in the model, upper-cased on
// the iCalendar wire.
type Frequency string

const (
	FreqSecondly Frequency = "secondly"
	FreqMinutely Frequency = "minutely"
	FreqHourly   Frequency = "hourly"
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqMonthly  Frequency = "monthly"
	FreqYearly   Frequency = "yearly"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// WeekdayRule selects a weekday, optionally a specific occurrence of it
// within the rule period (-1 = last, 2 = second, ...).
type WeekdayRule struct {
	Day        Weekday `json:"day"`
	Occurrence *int    `json:"occurrence,omitempty"`
}

// RecurrenceRule mirrors RFC 5545 RRULE. Until and Count are mutually
// exclusive; Until is a UTC wall time treated as an exclusive endpoint.
type RecurrenceRule struct {
	Frequency      Frequency     `json:"frequency"`
	Until          *WallTime     `json:"until,omitempty"`
	Count          *int          `json:"count,omitempty"`
	Interval       *int          `json:"interval,omitempty"`
	BySeconds      []int         `json:"by_seconds,omitempty"`
	ByMinutes      []int         `json:"by_minutes,omitempty"`
	ByHours        []int         `json:"by_hours,omitempty"`
	ByWeekdays     []WeekdayRule `json:"by_weekdays,omitempty"`
	ByMonthdays    []int         `json:"by_monthdays,omitempty"`
	ByYeardays     []int         `json:"by_yeardays,omitempty"`
	ByWeeks        []int         `json:"by_weeks,omitempty"`
	ByMonths       []int         `json:"by_months,omitempty"`
	BySetPositions []int         `json:"by_set_positions,omitempty"`
	WeekStart      *Weekday      `json:"week_start,omitempty"`
}

// Recurrence couples an optional rule with RDATE/EXDATE wall times, all in
// the event's timezone.
type Recurrence struct {
	Rule    *RecurrenceRule `json:"rule,omitempty"`
	Include []WallTime      `json:"include,omitempty"`
	Exclude []WallTime      `json:"exclude,omitempty"`
}

// CalEvent is the temporal half of an event as stored in CalStore.
type CalEvent struct {
	ID         string
	Start      WallTime
	End        WallTime
	Timezone   string
	Recurrence *Recurrence
}

// Event is the merged view: SQL identity/type/show plus CalDAV temporal
// fields. Show is populated only when the caller asked to include it.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ShowID     string      `json:"showId"`
	Show       *Show       `json:"show,omitempty"`
	Start      WallTime    `json:"start"`
	End        WallTime    `json:"end"`
	Timezone   string      `json:"timezone"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
}

// Cal extracts the temporal half of e.
func (e Event) Cal() CalEvent {
	return CalEvent{
		ID:         e.ID,
		Start:      e.Start,
		End:        e.End,
		Timezone:   e.Timezone,
		Recurrence: e.Recurrence,
	}
}

// Show groups events. Events is populated only on include.
type Show struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Events      []Event `json:"events,omitempty"`
}

// EventInstance is one materialized occurrence, in the source event's
// timezone.
type EventInstance struct {
	Start WallTime `json:"start"`
	End   WallTime `json:"end"`
}
