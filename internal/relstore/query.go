package relstore

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/radioepoka/showcaster/internal/apperr"
)

// StringFilter matches a text column. A bare JSON string is shorthand for
// {"equals": ...}.
type StringFilter struct {
	Equals     *string
	In         []string
	NotIn      []string
	Contains   *string
	StartsWith *string
	EndsWith   *string
}

func (f *StringFilter) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "string filter")
		}
		f.Equals = &s
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "string filter")
	}
	for key, value := range raw {
		var err error
		switch key {
		case "equals":
			err = json.Unmarshal(value, &f.Equals)
		case "in":
			err = json.Unmarshal(value, &f.In)
		case "notIn":
			err = json.Unmarshal(value, &f.NotIn)
		case "contains":
			err = json.Unmarshal(value, &f.Contains)
		case "startsWith":
			err = json.Unmarshal(value, &f.StartsWith)
		case "endsWith":
			err = json.Unmarshal(value, &f.EndsWith)
		default:
			return apperr.Validation("unknown string filter operator %q", key)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "string filter %s", key)
		}
	}
	return nil
}

// branches decodes an AND/OR/NOT value, accepting either a single object or
// an array of objects.
func branches[T any](value json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}

// temporalEventFields are event fields that live in the calendar store and
// cannot be filtered relationally.
var temporalEventFields = map[string]bool{
	"start":      true,
	"end":        true,
	"timezone":   true,
	"recurrence": true,
}

// EventWhere is a filter tree over event rows.
type EventWhere struct {
	And []EventWhere
	Or  []EventWhere
	Not []EventWhere

	ID     *StringFilter
	Type   *StringFilter
	ShowID *StringFilter
}

func (w *EventWhere) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "event filter")
	}
	for key, value := range raw {
		var err error
		switch key {
		case "AND":
			w.And, err = branches[EventWhere](value)
		case "OR":
			w.Or, err = branches[EventWhere](value)
		case "NOT":
			w.Not, err = branches[EventWhere](value)
		case "id":
			w.ID = &StringFilter{}
			err = json.Unmarshal(value, w.ID)
		case "type":
			w.Type = &StringFilter{}
			err = json.Unmarshal(value, w.Type)
		case "showId":
			w.ShowID = &StringFilter{}
			err = json.Unmarshal(value, w.ShowID)
		default:
			if temporalEventFields[key] {
				return apperr.Validation("cannot filter events by temporal field %q", key)
			}
			return apperr.Validation("unknown event filter field %q", key)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "event filter %s", key)
		}
	}
	return nil
}

// ShowWhere is a filter tree over show rows.
type ShowWhere struct {
	And []ShowWhere
	Or  []ShowWhere
	Not []ShowWhere

	ID          *StringFilter
	Title       *StringFilter
	Description *StringFilter
}

func (w *ShowWhere) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "show filter")
	}
	for key, value := range raw {
		var err error
		switch key {
		case "AND":
			w.And, err = branches[ShowWhere](value)
		case "OR":
			w.Or, err = branches[ShowWhere](value)
		case "NOT":
			w.Not, err = branches[ShowWhere](value)
		case "id":
			w.ID = &StringFilter{}
			err = json.Unmarshal(value, w.ID)
		case "title":
			w.Title = &StringFilter{}
			err = json.Unmarshal(value, w.Title)
		case "description":
			w.Description = &StringFilter{}
			err = json.Unmarshal(value, w.Description)
		default:
			return apperr.Validation("unknown show filter field %q", key)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "show filter %s", key)
		}
	}
	return nil
}

// Order is one sort key. Direction is "asc" or "desc".
type Order struct {
	Field     string
	Direction string
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "order")
	}
	if len(raw) != 1 {
		return apperr.Validation("order entry must have exactly one field")
	}
	for field, dir := range raw {
		dir = strings.ToLower(dir)
		if dir != "asc" && dir != "desc" {
			return apperr.Validation("order direction must be asc or desc, got %q", dir)
		}
		o.Field = field
		o.Direction = dir
	}
	return nil
}

// ParseOrder decodes an order spec: a single {"field": "asc"} object or an
// array of them.
func ParseOrder(data []byte) ([]Order, error) {
	orders, err := branches[Order](data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "order")
	}
	return orders, nil
}
