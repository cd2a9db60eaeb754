package ical

import (
	"strconv"
	"strings"
	"time"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
)

var freqToWire = map[model.Frequency]string{
	model.FreqSecondly: "SECONDLY",
	model.FreqMinutely: "MINUTELY",
	model.FreqHourly:   "HOURLY",
	model.FreqDaily:    "DAILY",
	model.FreqWeekly:   "WEEKLY",
	model.FreqMonthly:  "MONTHLY",
	model.FreqYearly:   "YEARLY",
}

var dayToWire = map[model.Weekday]string{
	model.Monday:    "MO",
	model.Tuesday:   "TU",
	model.Wednesday: "WE",
	model.Thursday:  "TH",
	model.Friday:    "FR",
	model.Saturday:  "SA",
	model.Sunday:    "SU",
}

var wireToFreq = invert(freqToWire)
var wireToDay = invert(dayToWire)

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func weekdayToken(wd model.WeekdayRule) string {
	code := dayToWire[wd.Day]
	if wd.Occurrence != nil {
		return strconv.Itoa(*wd.Occurrence) + code
	}
	return code
}

// EncodeRule renders an RRULE property value with parts in fixed order:
// FREQ, UNTIL, COUNT, INTERVAL, BYSECOND, BYMINUTE, BYHOUR, BYWEEKDAY,
// BYMONTHDAY, BYYEARDAY, BYWEEKNO, BYMONTH, BYSETPOS, WKST. Empty BY lists
// are never emitted.
func EncodeRule(r *model.RecurrenceRule) string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+value)
	}

	add("FREQ", freqToWire[r.Frequency])
	if r.Until != nil {
		add("UNTIL", r.Until.Format(wireDateTime)+"Z")
	}
	if r.Count != nil {
		add("COUNT", strconv.Itoa(*r.Count))
	}
	if r.Interval != nil {
		add("INTERVAL", strconv.Itoa(*r.Interval))
	}
	if len(r.BySeconds) > 0 {
		add("BYSECOND", joinInts(r.BySeconds))
	}
	if len(r.ByMinutes) > 0 {
		add("BYMINUTE", joinInts(r.ByMinutes))
	}
	if len(r.ByHours) > 0 {
		add("BYHOUR", joinInts(r.ByHours))
	}
	if len(r.ByWeekdays) > 0 {
		tokens := make([]string, len(r.ByWeekdays))
		for i, wd := range r.ByWeekdays {
			tokens[i] = weekdayToken(wd)
		}
		add("BYWEEKDAY", strings.Join(tokens, ","))
	}
	if len(r.ByMonthdays) > 0 {
		add("BYMONTHDAY", joinInts(r.ByMonthdays))
	}
	if len(r.ByYeardays) > 0 {
		add("BYYEARDAY", joinInts(r.ByYeardays))
	}
	if len(r.ByWeeks) > 0 {
		add("BYWEEKNO", joinInts(r.ByWeeks))
	}
	if len(r.ByMonths) > 0 {
		add("BYMONTH", joinInts(r.ByMonths))
	}
	if len(r.BySetPositions) > 0 {
		add("BYSETPOS", joinInts(r.BySetPositions))
	}
	if r.WeekStart != nil {
		add("WKST", dayToWire[*r.WeekStart])
	}

	return strings.Join(parts, ";")
}

func parseInts(key, value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, apperr.Validation("invalid %s value %q", key, p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseWeekdayToken(token string) (model.WeekdayRule, error) {
	token = strings.TrimSpace(token)
	if len(token) < 2 {
		return model.WeekdayRule{}, apperr.Validation("invalid weekday %q", token)
	}
	code := token[len(token)-2:]
	day, ok := wireToDay[strings.ToUpper(code)]
	if !ok {
		return model.WeekdayRule{}, apperr.Validation("unknown weekday code %q", code)
	}
	rule := model.WeekdayRule{Day: day}
	if prefix := token[:len(token)-2]; prefix != "" {
		n, err := strconv.Atoi(prefix)
		if err != nil {
			return model.WeekdayRule{}, apperr.Validation("invalid weekday occurrence %q", prefix)
		}
		rule.Occurrence = &n
	}
	return rule, nil
}

func parseUntil(value string) (*model.WallTime, error) {
	value = strings.TrimSuffix(value, "Z")
	for _, layout := range []string{wireDateTime, "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			w := model.Wall(t)
			return &w, nil
		}
	}
	return nil, apperr.Validation("invalid UNTIL value %q", value)
}

// ParseRule is the inverse of EncodeRule. BYDAY is accepted as an alias for
// BYWEEKDAY; unknown parts are ignored. Field ranges are validated.
func ParseRule(value string) (*model.RecurrenceRule, error) {
	r := &model.RecurrenceRule{}

	for _, part := range strings.Split(value, ";") {
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, apperr.Validation("malformed rule part %q", part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		var err error
		switch key {
		case "FREQ":
			freq, ok := wireToFreq[strings.ToUpper(val)]
			if !ok {
				return nil, apperr.Validation("unknown frequency %q", val)
			}
			r.Frequency = freq
		case "UNTIL":
			r.Until, err = parseUntil(val)
		case "COUNT":
			var n int
			if n, err = strconv.Atoi(val); err == nil {
				r.Count = &n
			}
		case "INTERVAL":
			var n int
			if n, err = strconv.Atoi(val); err == nil {
				r.Interval = &n
			}
		case "BYSECOND":
			r.BySeconds, err = parseInts(key, val)
		case "BYMINUTE":
			r.ByMinutes, err = parseInts(key, val)
		case "BYHOUR":
			r.ByHours, err = parseInts(key, val)
		case "BYWEEKDAY", "BYDAY":
			for _, token := range strings.Split(val, ",") {
				var wd model.WeekdayRule
				if wd, err = parseWeekdayToken(token); err != nil {
					break
				}
				r.ByWeekdays = append(r.ByWeekdays, wd)
			}
		case "BYMONTHDAY":
			r.ByMonthdays, err = parseInts(key, val)
		case "BYYEARDAY":
			r.ByYeardays, err = parseInts(key, val)
		case "BYWEEKNO":
			r.ByWeeks, err = parseInts(key, val)
		case "BYMONTH":
			r.ByMonths, err = parseInts(key, val)
		case "BYSETPOS":
			r.BySetPositions, err = parseInts(key, val)
		case "WKST":
			day, ok := wireToDay[strings.ToUpper(val)]
			if !ok {
				return nil, apperr.Validation("unknown week start %q", val)
			}
			r.WeekStart = &day
		default:
			// Unknown parts are ignored.
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "rule part %s", key)
		}
	}

	if r.Frequency == "" {
		return nil, apperr.Validation("rule is missing FREQ")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
