package model

import (
	"fmt"
	"strings"
	"time"
)

// wallLayout is the wire format for wall times: a local date-time with no
// offset, interpreted in the owning event's timezone.
const wallLayout = "2006-01-02T15:04:05"

// WallTime is a date-time without an attached zone. The embedded time.Time
// always lives in time.UTC purely as a container for the wall-clock fields;
// its instant is meaningless on its own.
type WallTime struct {
	time.Time
}

func NewWallTime(year int, month time.Month, day, hour, min, sec int) WallTime {
	return WallTime{time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

// Wall strips the zone from t, keeping its wall-clock reading.
func Wall(t time.Time) WallTime {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return NewWallTime(y, m, d, hh, mm, ss)
}

// In anchors the wall time in loc, producing an instant.
func (w WallTime) In(loc *time.Location) time.Time {
	y, m, d := w.Date()
	hh, mm, ss := w.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func (w WallTime) String() string { return w.Format(wallLayout) }

func (w WallTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.Format(wallLayout) + `"`), nil
}

func (w *WallTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	if t, err := time.Parse(wallLayout, s); err == nil {
		w.Time = t.UTC()
		return nil
	}
	// Tolerate zoned timestamps by normalizing to UTC wall clock.
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid wall time %q", s)
	}
	w.Time = Wall(t.UTC()).Time
	return nil
}
