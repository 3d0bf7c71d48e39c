// Package calendar computes day and week boundaries (weeks start on Sunday) in
// a configured location and parses the timestamp formats the API accepts.
package calendar

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTimestamp indicates a value could not be parsed as a date or instant.
var ErrInvalidTimestamp = errors.New("calendar: invalid timestamp")

// Window is a closed time interval. End is the last representable instant of the
// interval so that Contains matches inclusive range queries.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Calendar computes day and week windows in a fixed location. Weeks start on Sunday.
type Calendar struct {
	location *time.Location
}

// New constructs a Calendar for loc. If loc is nil, UTC is used.
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{location: loc}
}

// Location returns the location used for window arithmetic.
func (c *Calendar) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

// StartOfDay returns midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	loc := c.Location()
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant of the day containing t.
func (c *Calendar) EndOfDay(t time.Time) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfTomorrow returns midnight of the day after t.
func (c *Calendar) StartOfTomorrow(t time.Time) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, 1)
}

// StartOfWeek returns midnight of the Sunday on or before t.
func (c *Calendar) StartOfWeek(t time.Time) time.Time {
	start := c.StartOfDay(t)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// EndOfWeek returns the last instant of the Saturday on or after t.
func (c *Calendar) EndOfWeek(t time.Time) time.Time {
	return c.StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// Day returns the window covering the day containing t.
func (c *Calendar) Day(t time.Time) Window {
	return Window{Start: c.StartOfDay(t), End: c.EndOfDay(t)}
}

// Week returns the Sunday to Saturday window containing t.
func (c *Calendar) Week(t time.Time) Window {
	return Window{Start: c.StartOfWeek(t), End: c.EndOfWeek(t)}
}

// Parse accepts RFC 3339 instants and bare YYYY-MM-DD dates. Dates resolve to
// midnight in the calendar's location.
func (c *Calendar) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(time.DateOnly, value, c.Location()); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, c.Location()); err == nil {
		return ts, nil
	}
	return time.Time{}, ErrInvalidTimestamp
}
