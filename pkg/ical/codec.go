// Package ical translates between the domain's temporal event model and
// RFC 5545 text, and expands recurrence rules into concrete instances.
package ical

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
)

const wireDateTime = "20060102T150405"

const prodID = "-//radioepoka//showcaster//EN"

func isUTCZone(tz string) bool {
	return tz == "" || tz == "UTC" || tz == "Etc/UTC"
}

func dateTimeProp(name string, w model.WallTime, tz string) *ical.Prop {
	p := ical.NewProp(name)
	if isUTCZone(tz) {
		p.Value = w.Format(wireDateTime) + "Z"
	} else {
		p.Value = w.Format(wireDateTime)
		p.Params.Set("TZID", tz)
	}
	return p
}

func dateListProp(name string, ws []model.WallTime, tz string) *ical.Prop {
	values := make([]string, len(ws))
	utc := isUTCZone(tz)
	for i, w := range ws {
		if utc {
			values[i] = w.Format(wireDateTime) + "Z"
		} else {
			values[i] = w.Format(wireDateTime)
		}
	}
	p := ical.NewProp(name)
	p.Value = strings.Join(values, ",")
	if !utc {
		p.Params.Set("TZID", tz)
	}
	return p
}

// Encode renders ev as a VCALENDAR holding a single VEVENT. DTSTART/DTEND
// carry a TZID parameter unless the zone is UTC, in which case the literal
// gets a trailing Z instead.
func Encode(ev model.CalEvent) ([]byte, error) {
	if _, err := uuid.Parse(ev.ID); err != nil {
		return nil, apperr.Validation("event id %q is not a UUID", ev.ID)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, ev.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.Set(dateTimeProp(ical.PropDateTimeStart, ev.Start, ev.Timezone))
	event.Props.Set(dateTimeProp(ical.PropDateTimeEnd, ev.End, ev.Timezone))

	if rec := ev.Recurrence; rec != nil {
		if rec.Rule != nil {
			p := ical.NewProp(ical.PropRecurrenceRule)
			p.Value = EncodeRule(rec.Rule)
			event.Props.Set(p)
		}
		if len(rec.Include) > 0 {
			event.Props.Set(dateListProp(ical.PropRecurrenceDates, rec.Include, ev.Timezone))
		}
		if len(rec.Exclude) > 0 {
			event.Props.Set(dateListProp(ical.PropExceptionDates, rec.Exclude, ev.Timezone))
		}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, apperr.Wrap(apperr.KindCalendar, err, "encode calendar")
	}
	return buf.Bytes(), nil
}

func parseWallValue(value string) (model.WallTime, bool, error) {
	utc := strings.HasSuffix(value, "Z")
	value = strings.TrimSuffix(value, "Z")
	t, err := time.Parse(wireDateTime, value)
	if err != nil {
		t, err = time.Parse("20060102", value)
		if err != nil {
			return model.WallTime{}, false, apperr.New(apperr.KindCalendar, "invalid date-time literal %q", value)
		}
	}
	return model.Wall(t), utc, nil
}

// parseDateTimeProp reads a DTSTART/DTEND property, returning the wall time
// and the zone name it was declared in ("UTC" for trailing-Z literals).
func parseDateTimeProp(p *ical.Prop) (model.WallTime, string, error) {
	w, utc, err := parseWallValue(p.Value)
	if err != nil {
		return model.WallTime{}, "", err
	}
	if utc {
		return w, "UTC", nil
	}
	if tzid := p.Params.Get("TZID"); tzid != "" {
		return w, tzid, nil
	}
	return w, "UTC", nil
}

func parseDateListProps(props []ical.Prop, eventTZ string) ([]model.WallTime, error) {
	var out []model.WallTime
	for i := range props {
		p := &props[i]
		tzid := p.Params.Get("TZID")
		if tzid != "" && tzid != eventTZ && !(isUTCZone(tzid) && isUTCZone(eventTZ)) {
			return nil, apperr.Validation("%s timezone %q differs from event timezone %q", p.Name, tzid, eventTZ)
		}
		for _, value := range strings.Split(p.Value, ",") {
			w, utc, err := parseWallValue(value)
			if err != nil {
				return nil, err
			}
			if utc && !isUTCZone(eventTZ) {
				return nil, apperr.Validation("%s mixes UTC literals with event timezone %q", p.Name, eventTZ)
			}
			out = append(out, w)
		}
	}
	return out, nil
}

func findEvent(cal *ical.Calendar) (*ical.Component, error) {
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			return child, nil
		}
	}
	return nil, apperr.New(apperr.KindCalendar, "calendar has no VEVENT")
}

// Decode parses a VCALENDAR and extracts its first VEVENT. Unknown
// properties are ignored; UNTIL comes back as a UTC wall time.
func Decode(data []byte) (*model.CalEvent, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCalendar, err, "parse calendar")
	}

	comp, err := findEvent(cal)
	if err != nil {
		return nil, err
	}

	uid := comp.Props.Get(ical.PropUID)
	if uid == nil {
		return nil, apperr.New(apperr.KindCalendar, "VEVENT is missing UID")
	}
	if _, err := uuid.Parse(uid.Value); err != nil {
		return nil, apperr.New(apperr.KindCalendar, "VEVENT UID %q is not a UUID", uid.Value)
	}

	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return nil, apperr.New(apperr.KindCalendar, "VEVENT is missing DTSTART")
	}
	start, tz, err := parseDateTimeProp(dtstart)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}

	dtend := comp.Props.Get(ical.PropDateTimeEnd)
	if dtend == nil {
		return nil, apperr.New(apperr.KindCalendar, "VEVENT is missing DTEND")
	}
	end, _, err := parseDateTimeProp(dtend)
	if err != nil {
		return nil, fmt.Errorf("DTEND: %w", err)
	}

	ev := &model.CalEvent{
		ID:       uid.Value,
		Start:    start,
		End:      end,
		Timezone: tz,
	}

	var rec model.Recurrence
	hasRecurrence := false

	if p := comp.Props.Get(ical.PropRecurrenceRule); p != nil {
		rule, err := ParseRule(p.Value)
		if err != nil {
			return nil, err
		}
		rec.Rule = rule
		hasRecurrence = true
	}
	if props := comp.Props.Values(ical.PropRecurrenceDates); len(props) > 0 {
		rec.Include, err = parseDateListProps(props, tz)
		if err != nil {
			return nil, err
		}
		hasRecurrence = true
	}
	if props := comp.Props.Values(ical.PropExceptionDates); len(props) > 0 {
		rec.Exclude, err = parseDateListProps(props, tz)
		if err != nil {
			return nil, err
		}
		hasRecurrence = true
	}
	if hasRecurrence {
		ev.Recurrence = &rec
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeAll parses a VCALENDAR and extracts every VEVENT it contains.
func DecodeAll(data []byte) ([]model.CalEvent, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCalendar, err, "parse calendar")
	}

	var events []model.CalEvent
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		single := &ical.Calendar{Component: &ical.Component{
			Name:     ical.CompCalendar,
			Props:    cal.Props,
			Children: []*ical.Component{child},
		}}
		var buf bytes.Buffer
		if err := ical.NewEncoder(&buf).Encode(single); err != nil {
			return nil, apperr.Wrap(apperr.KindCalendar, err, "re-encode component")
		}
		ev, err := Decode(buf.Bytes())
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}
