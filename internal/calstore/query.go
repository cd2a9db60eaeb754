// Package calstore talks CalDAV to the calendar holding the temporal half
// of every event: GET/PUT/DELETE per event plus REPORT queries.
package calstore

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/pkg/ical"
)

const reportTimeLayout = "20060102T150405Z"

// Query selects events server-side. It is a closed variant: TimeRangeQuery
// or RecurringQuery.
type Query interface {
	isQuery()
}

// TimeRangeQuery matches events with an occurrence starting in [Start, End).
// A nil side is unbounded.
type TimeRangeQuery struct {
	Start *time.Time
	End   *time.Time
}

// RecurringQuery matches events by the presence (or absence) of an RRULE.
type RecurringQuery struct {
	Recurring bool
}

func (TimeRangeQuery) isQuery() {}
func (RecurringQuery) isQuery() {}

// DecodeQuery parses the JSON query parameter, dispatching on its "type"
// tag: "time-range" with optional RFC 3339 start/end, or "recurring" with a
// boolean.
func DecodeQuery(data []byte) (Query, error) {
	var raw struct {
		Type      string     `json:"type"`
		Start     *time.Time `json:"start"`
		End       *time.Time `json:"end"`
		Recurring *bool      `json:"recurring"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "calendar query")
	}
	switch raw.Type {
	case "time-range":
		return TimeRangeQuery{Start: raw.Start, End: raw.End}, nil
	case "recurring":
		if raw.Recurring == nil {
			return nil, apperr.Validation("recurring query needs a boolean \"recurring\" field")
		}
		return RecurringQuery{Recurring: *raw.Recurring}, nil
	case "":
		return nil, apperr.Validation("calendar query needs a \"type\" tag")
	default:
		return nil, apperr.Validation("unknown calendar query type %q", raw.Type)
	}
}

// BuildReport renders q as a calendar-query REPORT body.
func BuildReport(q Query) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("C:calendar-query")
	root.CreateAttr("xmlns:D", "DAV:")
	root.CreateAttr("xmlns:C", "urn:ietf:params:xml:ns:caldav")

	prop := root.CreateElement("D:prop")
	prop.CreateElement("C:calendar-data")

	filter := root.CreateElement("C:filter")
	calFilter := filter.CreateElement("C:comp-filter")
	calFilter.CreateAttr("name", "VCALENDAR")
	evFilter := calFilter.CreateElement("C:comp-filter")
	evFilter.CreateAttr("name", "VEVENT")

	switch v := q.(type) {
	case TimeRangeQuery:
		tr := evFilter.CreateElement("C:time-range")
		if v.Start != nil {
			tr.CreateAttr("start", v.Start.UTC().Format(reportTimeLayout))
		}
		if v.End != nil {
			tr.CreateAttr("end", v.End.UTC().Format(reportTimeLayout))
		}
	case RecurringQuery:
		pf := evFilter.CreateElement("C:prop-filter")
		pf.CreateAttr("name", "RRULE")
		if !v.Recurring {
			pf.CreateElement("C:is-not-defined")
		}
	default:
		return nil, apperr.Validation("unsupported calendar query")
	}

	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindCalendar, err, "render report body")
	}
	return buf.Bytes(), nil
}

// ParseMultistatus extracts every calendar-data payload from a REPORT
// response and decodes its VEVENT.
func ParseMultistatus(data []byte) ([]model.CalEvent, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, apperr.Wrap(apperr.KindCalendar, err, "parse multistatus")
	}

	var events []model.CalEvent
	for _, el := range doc.FindElements("//*") {
		if el.Tag != "calendar-data" {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if text == "" {
			continue
		}
		found, err := ical.DecodeAll([]byte(text))
		if err != nil {
			return nil, err
		}
		events = append(events, found...)
	}
	return events, nil
}
