// Package timeutil contains date boundary and formatting helpers that take
// an explicit time.Location, so callers never depend on the process-wide
// default timezone.
package timeutil

import "time"

// DayBounds returns the half-open interval [start of day, start of next day)
// containing t, computed in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// FormatDue renders a due time for display in loc.
func FormatDue(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04")
}
