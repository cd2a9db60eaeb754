package ical

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
)

var freqToRRule = map[model.Frequency]rrule.Frequency{
	model.FreqSecondly: rrule.SECONDLY,
	model.FreqMinutely: rrule.MINUTELY,
	model.FreqHourly:   rrule.HOURLY,
	model.FreqDaily:    rrule.DAILY,
	model.FreqWeekly:   rrule.WEEKLY,
	model.FreqMonthly:  rrule.MONTHLY,
	model.FreqYearly:   rrule.YEARLY,
}

var dayToRRule = map[model.Weekday]rrule.Weekday{
	model.Monday:    rrule.MO,
	model.Tuesday:   rrule.TU,
	model.Wednesday: rrule.WE,
	model.Thursday:  rrule.TH,
	model.Friday:    rrule.FR,
	model.Saturday:  rrule.SA,
	model.Sunday:    rrule.SU,
}

func ruleOption(r *model.RecurrenceRule, dtstart time.Time) (rrule.ROption, error) {
	freq, ok := freqToRRule[r.Frequency]
	if !ok {
		return rrule.ROption{}, apperr.Validation("unknown recurrence frequency %q", r.Frequency)
	}

	opt := rrule.ROption{
		Freq:       freq,
		Dtstart:    dtstart,
		Bysecond:   r.BySeconds,
		Byminute:   r.ByMinutes,
		Byhour:     r.ByHours,
		Bymonthday: r.ByMonthdays,
		Byyearday:  r.ByYeardays,
		Byweekno:   r.ByWeeks,
		Bymonth:    r.ByMonths,
		Bysetpos:   r.BySetPositions,
	}
	if r.Until != nil {
		opt.Until = r.Until.In(time.UTC)
	}
	if r.Count != nil {
		opt.Count = *r.Count
	}
	if r.Interval != nil {
		opt.Interval = *r.Interval
	}
	for _, wd := range r.ByWeekdays {
		day, ok := dayToRRule[wd.Day]
		if !ok {
			return rrule.ROption{}, apperr.Validation("unknown weekday %q", wd.Day)
		}
		if wd.Occurrence != nil {
			day = day.Nth(*wd.Occurrence)
		}
		opt.Byweekday = append(opt.Byweekday, day)
	}
	if r.WeekStart != nil {
		day, ok := dayToRRule[*r.WeekStart]
		if !ok {
			return rrule.ROption{}, apperr.Validation("unknown week start %q", *r.WeekStart)
		}
		opt.Wkst = day
	}
	return opt, nil
}

// occurrences materializes every occurrence start of ev inside [from, to),
// as instants in ev's location.
func occurrences(ev model.CalEvent, loc *time.Location, from, to time.Time) ([]time.Time, error) {
	dtstart := ev.Start.In(loc)

	rec := ev.Recurrence
	if rec == nil || (rec.Rule == nil && len(rec.Include) == 0) {
		// Non-recurring, or recurrence that only excludes: a single
		// occurrence at DTSTART.
		excluded := false
		if rec != nil {
			for _, ex := range rec.Exclude {
				if ex.In(loc).Equal(dtstart) {
					excluded = true
					break
				}
			}
		}
		if excluded || dtstart.Before(from) || !dtstart.Before(to) {
			return nil, nil
		}
		return []time.Time{dtstart}, nil
	}

	set := rrule.Set{}
	set.DTStart(dtstart)
	if rec.Rule != nil {
		opt, err := ruleOption(rec.Rule, dtstart)
		if err != nil {
			return nil, err
		}
		rule, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "build recurrence rule")
		}
		set.RRule(rule)
	} else {
		// RDATE-only recurrence still includes DTSTART itself.
		set.RDate(dtstart)
	}
	for _, in := range rec.Include {
		set.RDate(in.In(loc))
	}
	for _, ex := range rec.Exclude {
		set.ExDate(ex.In(loc))
	}

	occs := set.Between(from, to, true)

	// UNTIL is an exclusive endpoint here, while RFC 5545 (and rrule)
	// treat it as inclusive. Drop the boundary occurrence.
	var untilInstant time.Time
	if rec.Rule != nil && rec.Rule.Until != nil {
		untilInstant = rec.Rule.Until.In(time.UTC)
	}

	out := occs[:0]
	for _, occ := range occs {
		if occ.Before(from) || !occ.Before(to) {
			continue
		}
		if !untilInstant.IsZero() && !occ.Before(untilInstant) {
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}

// Expand materializes ev's occurrences whose start falls in [from, to),
// where from and to are UTC instants. Instances come back as wall times in
// ev's timezone, ordered by start.
func Expand(ev model.CalEvent, from, to time.Time) ([]model.EventInstance, error) {
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return nil, apperr.Validation("unknown timezone %q", ev.Timezone)
	}

	duration := ev.End.In(loc).Sub(ev.Start.In(loc))

	occs, err := occurrences(ev, loc, from, to)
	if err != nil {
		return nil, err
	}

	instances := make([]model.EventInstance, len(occs))
	for i, occ := range occs {
		occ = occ.In(loc)
		instances[i] = model.EventInstance{
			Start: model.Wall(occ),
			End:   model.Wall(occ.Add(duration)),
		}
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Start.Before(instances[j].Start.Time)
	})
	return instances, nil
}
