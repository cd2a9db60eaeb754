package model

import (
	"time"

	"github.com/radioepoka/showcaster/internal/apperr"
)

func validFrequency(f Frequency) bool {
	switch f {
	case FreqSecondly, FreqMinutely, FreqHourly, FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	}
	return false
}

func validWeekday(d Weekday) bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeLive, EventTypeReplay, EventTypePrerecorded:
		return true
	}
	return false
}

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }

// signedRange checks |v| in [1, hi], sign preserved.
func signedRange(v, hi int) bool {
	if v < 0 {
		v = -v
	}
	return v >= 1 && v <= hi
}

func validateInts(name string, vs []int, check func(int) bool) error {
	for _, v := range vs {
		if !check(v) {
			return apperr.Validation("recurrence %s value %d out of range", name, v)
		}
	}
	return nil
}

// Validate checks RFC 5545 field ranges and the until/count exclusivity.
func (r *RecurrenceRule) Validate() error {
	if !validFrequency(r.Frequency) {
		return apperr.Validation("unknown recurrence frequency %q", r.Frequency)
	}
	if r.Until != nil && r.Count != nil {
		return apperr.Validation("recurrence cannot declare both until and count")
	}
	if r.Count != nil && *r.Count < 1 {
		return apperr.Validation("recurrence count must be positive")
	}
	if r.Interval != nil && *r.Interval < 1 {
		return apperr.Validation("recurrence interval must be positive")
	}
	if err := validateInts("by_seconds", r.BySeconds, func(v int) bool { return inRange(v, 0, 60) }); err != nil {
		return err
	}
	if err := validateInts("by_minutes", r.ByMinutes, func(v int) bool { return inRange(v, 0, 59) }); err != nil {
		return err
	}
	if err := validateInts("by_hours", r.ByHours, func(v int) bool { return inRange(v, 0, 23) }); err != nil {
		return err
	}
	if err := validateInts("by_monthdays", r.ByMonthdays, func(v int) bool { return signedRange(v, 31) }); err != nil {
		return err
	}
	if err := validateInts("by_yeardays", r.ByYeardays, func(v int) bool { return signedRange(v, 366) }); err != nil {
		return err
	}
	if err := validateInts("by_weeks", r.ByWeeks, func(v int) bool { return signedRange(v, 53) }); err != nil {
		return err
	}
	if err := validateInts("by_months", r.ByMonths, func(v int) bool { return inRange(v, 1, 12) }); err != nil {
		return err
	}
	for _, wd := range r.ByWeekdays {
		if !validWeekday(wd.Day) {
			return apperr.Validation("unknown weekday %q", wd.Day)
		}
		if wd.Occurrence != nil && !signedRange(*wd.Occurrence, 53) {
			return apperr.Validation("weekday occurrence %d out of range", *wd.Occurrence)
		}
	}
	if r.WeekStart != nil && !validWeekday(*r.WeekStart) {
		return apperr.Validation("unknown week start %q", *r.WeekStart)
	}
	return nil
}

func (r *Recurrence) Validate() error {
	if r == nil {
		return nil
	}
	if r.Rule != nil {
		return r.Rule.Validate()
	}
	return nil
}

// Validate checks the temporal invariants: resolvable timezone, end not
// before start, valid recurrence.
func (e *CalEvent) Validate() error {
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		return apperr.Validation("unknown timezone %q", e.Timezone)
	}
	if e.End.Before(e.Start.Time) {
		return apperr.Validation("event end %s before start %s", e.End, e.Start)
	}
	return e.Recurrence.Validate()
}
