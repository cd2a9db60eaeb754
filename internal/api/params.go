package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/coordinator"
	"github.com/radioepoka/showcaster/internal/relstore"
)

// defaultLimit is the page size when the request does not name one.
const defaultLimit = 10

func parseLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("limit must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

func parseOffset(q url.Values) (int, error) {
	raw := q.Get("offset")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("offset must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

// parseInclude reads the include directive, a JSON object of relation names
// to booleans, and reports whether relation was requested.
func parseInclude(q url.Values, relation string) (bool, error) {
	raw := q.Get("include")
	if raw == "" {
		return false, nil
	}
	var include map[string]bool
	if err := json.Unmarshal([]byte(raw), &include); err != nil {
		return false, apperr.Wrap(apperr.KindValidation, err, "include")
	}
	for name := range include {
		if name != relation {
			return false, apperr.Validation("unknown include relation %q", name)
		}
	}
	return include[relation], nil
}

func parseOrder(q url.Values) ([]relstore.Order, error) {
	raw := q.Get("order")
	if raw == "" {
		return nil, nil
	}
	return relstore.ParseOrder([]byte(raw))
}

func parseEventWhere(q url.Values) (*relstore.EventWhere, error) {
	raw := q.Get("where")
	if raw == "" {
		return nil, nil
	}
	where := &relstore.EventWhere{}
	if err := json.Unmarshal([]byte(raw), where); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindValidation, err, "where")
	}
	return where, nil
}

func parseShowWhere(q url.Values) (*relstore.ShowWhere, error) {
	raw := q.Get("where")
	if raw == "" {
		return nil, nil
	}
	where := &relstore.ShowWhere{}
	if err := json.Unmarshal([]byte(raw), where); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindValidation, err, "where")
	}
	return where, nil
}

func parseCalQuery(q url.Values) (calstore.Query, error) {
	raw := q.Get("query")
	if raw == "" {
		return nil, nil
	}
	return calstore.DecodeQuery([]byte(raw))
}

func parseEventListParams(q url.Values) (coordinator.EventListParams, int, error) {
	var p coordinator.EventListParams

	limit, err := parseLimit(q)
	if err != nil {
		return p, 0, err
	}
	if p.Offset, err = parseOffset(q); err != nil {
		return p, 0, err
	}
	if p.Where, err = parseEventWhere(q); err != nil {
		return p, 0, err
	}
	if p.Query, err = parseCalQuery(q); err != nil {
		return p, 0, err
	}
	if p.Order, err = parseOrder(q); err != nil {
		return p, 0, err
	}
	if p.IncludeShow, err = parseInclude(q, "show"); err != nil {
		return p, 0, err
	}
	p.Limit = &limit
	return p, limit, nil
}

func parseShowListParams(q url.Values) (coordinator.ShowListParams, int, error) {
	var p coordinator.ShowListParams

	limit, err := parseLimit(q)
	if err != nil {
		return p, 0, err
	}
	if p.Offset, err = parseOffset(q); err != nil {
		return p, 0, err
	}
	if p.Where, err = parseShowWhere(q); err != nil {
		return p, 0, err
	}
	if p.Order, err = parseOrder(q); err != nil {
		return p, 0, err
	}
	if p.IncludeEvents, err = parseInclude(q, "events"); err != nil {
		return p, 0, err
	}
	p.Limit = &limit
	return p, limit, nil
}

// parseWindow reads the optional start/end RFC 3339 instants of a schedule
// request. Both default to now.
func parseWindow(q url.Values) (start, end time.Time, err error) {
	now := time.Now().UTC()
	start, end = now, now
	if raw := q.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			return start, end, apperr.Validation("start must be RFC 3339, got %q", raw)
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			return start, end, apperr.Validation("end must be RFC 3339, got %q", raw)
		}
	}
	return start.UTC(), end.UTC(), nil
}
