// Package time contains calendar helpers for UTC day arithmetic
package time

import "time"

// DayLayout is the canonical YYYY-MM-DD layout
const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string as a UTC day
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

// FormatDay renders t as YYYY-MM-DD in UTC
func FormatDay(t time.Time) string { return t.UTC().Format(DayLayout) }

// SameMonth reports whether a and b fall in the same calendar month (UTC)
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.UTC().Date()
	by, bm, _ := b.UTC().Date()
	return ay == by && am == bm
}
