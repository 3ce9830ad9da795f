// Package calendar handles civil dates in the registry's time zone.
//
// Days are represented as time.Time values at midnight UTC so they compare
// with == and round-trip through PostgreSQL DATE columns unchanged.
package calendar

import (
	"time"
)

const (
	// ISOLayout is used for storage, logs and CLI flags.
	ISOLayout = "2006-01-02"
	// DisplayLayout is the es-VE day/month/year form shown to users.
	DisplayLayout = "02/01/2006"
)

// Clock yields the current instant and today's civil date in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a clock reading the system time in loc.
func NewClock(loc *time.Location) *Clock {
	return NewClockFunc(loc, time.Now)
}

// NewClockFunc creates a clock with an injectable time source.
func NewClockFunc(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: now}
}

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today returns the current civil date.
func (c *Clock) Today() time.Time { return Date(c.now(), c.loc) }

// Location returns the clock's time zone.
func (c *Clock) Location() *time.Location { return c.loc }

// Date truncates t to its civil date in loc.
func Date(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day builds a civil date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops any clock part from a value read from a DATE column.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	return time.Parse(ISOLayout, s)
}

// ISO formats a day as YYYY-MM-DD.
func ISO(day time.Time) string { return day.Format(ISOLayout) }

// Display formats a day as DD/MM/YYYY.
func Display(day time.Time) string { return day.Format(DisplayLayout) }

// Within reports whether start <= day <= end.
func Within(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

// ServiceTime returns whole years and remaining months between two dates,
// counting calendar months only.
func ServiceTime(from, to time.Time) (years, months int) {
	years = to.Year() - from.Year()
	months = int(to.Month()) - int(from.Month())
	if months < 0 {
		years--
		months += 12
	}
	return years, months
}
