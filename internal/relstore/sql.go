package relstore

import (
	"fmt"
	"strings"

	"github.com/radioepoka/showcaster/internal/apperr"
)

// Dialect abstracts the placeholder syntax difference between postgres and
// sqlite. Everything else in the generated SQL is shared.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// ArgList accumulates query arguments and mints matching placeholders.
type ArgList struct {
	Dialect Dialect
	Args    []any
}

func (a *ArgList) Add(v any) string {
	a.Args = append(a.Args, v)
	if a.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(a.Args))
	}
	return "?"
}

func (a *ArgList) placeholderList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = a.Add(v)
	}
	return strings.Join(parts, ", ")
}

func stringFilterSQL(col string, f *StringFilter, args *ArgList) string {
	var conds []string
	if f.Equals != nil {
		conds = append(conds, col+" = "+args.Add(*f.Equals))
	}
	if f.In != nil {
		if len(f.In) == 0 {
			conds = append(conds, "1 = 0")
		} else {
			conds = append(conds, col+" IN ("+args.placeholderList(f.In)+")")
		}
	}
	if len(f.NotIn) > 0 {
		conds = append(conds, col+" NOT IN ("+args.placeholderList(f.NotIn)+")")
	}
	if f.Contains != nil {
		conds = append(conds, col+" LIKE "+args.Add("%"+*f.Contains+"%"))
	}
	if f.StartsWith != nil {
		conds = append(conds, col+" LIKE "+args.Add(*f.StartsWith+"%"))
	}
	if f.EndsWith != nil {
		conds = append(conds, col+" LIKE "+args.Add("%"+*f.EndsWith))
	}
	if len(conds) == 0 {
		return "1 = 1"
	}
	return strings.Join(conds, " AND ")
}

func combineSQL(conds []string, op string) string {
	switch len(conds) {
	case 0:
		return "1 = 1"
	case 1:
		return conds[0]
	default:
		return "(" + strings.Join(conds, " "+op+" ") + ")"
	}
}

// EventWhereSQL renders w as a WHERE condition over the events table. A nil
// filter matches everything.
func EventWhereSQL(w *EventWhere, args *ArgList) string {
	if w == nil {
		return "1 = 1"
	}
	var conds []string
	for i := range w.And {
		conds = append(conds, EventWhereSQL(&w.And[i], args))
	}
	if len(w.Or) > 0 {
		var ors []string
		for i := range w.Or {
			ors = append(ors, EventWhereSQL(&w.Or[i], args))
		}
		conds = append(conds, combineSQL(ors, "OR"))
	}
	for i := range w.Not {
		conds = append(conds, "NOT ("+EventWhereSQL(&w.Not[i], args)+")")
	}
	if w.ID != nil {
		conds = append(conds, stringFilterSQL("events.id", w.ID, args))
	}
	if w.Type != nil {
		conds = append(conds, stringFilterSQL("events.type", w.Type, args))
	}
	if w.ShowID != nil {
		conds = append(conds, stringFilterSQL("events.show_id", w.ShowID, args))
	}
	return combineSQL(conds, "AND")
}

// ShowWhereSQL renders w as a WHERE condition over the shows table.
func ShowWhereSQL(w *ShowWhere, args *ArgList) string {
	if w == nil {
		return "1 = 1"
	}
	var conds []string
	for i := range w.And {
		conds = append(conds, ShowWhereSQL(&w.And[i], args))
	}
	if len(w.Or) > 0 {
		var ors []string
		for i := range w.Or {
			ors = append(ors, ShowWhereSQL(&w.Or[i], args))
		}
		conds = append(conds, combineSQL(ors, "OR"))
	}
	for i := range w.Not {
		conds = append(conds, "NOT ("+ShowWhereSQL(&w.Not[i], args)+")")
	}
	if w.ID != nil {
		conds = append(conds, stringFilterSQL("shows.id", w.ID, args))
	}
	if w.Title != nil {
		conds = append(conds, stringFilterSQL("shows.title", w.Title, args))
	}
	if w.Description != nil {
		conds = append(conds, stringFilterSQL("shows.description", w.Description, args))
	}
	return combineSQL(conds, "AND")
}

var eventOrderColumns = map[string]string{
	"id":     "events.id",
	"type":   "events.type",
	"showId": "events.show_id",
}

var showOrderColumns = map[string]string{
	"id":          "shows.id",
	"title":       "shows.title",
	"description": "shows.description",
}

func orderSQL(orders []Order, columns map[string]string) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		col, ok := columns[o.Field]
		if !ok {
			return "", apperr.Validation("cannot order by field %q", o.Field)
		}
		dir := "ASC"
		if o.Direction == "desc" {
			dir = "DESC"
		}
		parts[i] = col + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// EventOrderSQL renders an ORDER BY clause over relational event columns.
// Temporal sort keys are the coordinator's job and are rejected here.
func EventOrderSQL(orders []Order) (string, error) {
	return orderSQL(orders, eventOrderColumns)
}

// ShowOrderSQL renders an ORDER BY clause over show columns.
func ShowOrderSQL(orders []Order) (string, error) {
	return orderSQL(orders, showOrderColumns)
}

// PageSQL renders LIMIT/OFFSET. Take nil means no limit.
func PageSQL(skip int, take *int, d Dialect) string {
	var sb strings.Builder
	if take != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *take)
	} else if skip > 0 && d == DialectSQLite {
		// sqlite requires a LIMIT before OFFSET.
		sb.WriteString(" LIMIT -1")
	}
	if skip > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", skip)
	}
	return sb.String()
}
